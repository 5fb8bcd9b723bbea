package collect

import (
	"time"

	"github.com/snakagawa/eigonews/internal/news"
)

// Canned headlines per category, used only when every live feed fails.
// Fallback articles carry no URL and are flagged so downstream layers
// can label them.
var fallbackTitles = map[string][]string{
	"lifestyle": {
		"東京都、子育て支援金を月額15,000円に増額を発表",
		"地方移住者数が過去最高の12万人を記録、総務省調査",
		"大阪市で新型認知症予防プログラム開始、参加者1万人募集",
	},
	"society": {
		"最高裁、同性婚の法的保護について来月判決予定",
		"厚生労働省、育児休業3年制の検討を開始",
		"外国人技能実習制度見直し、労働者の権利を大幅強化へ",
	},
	"economy": {
		"日銀、政策金利を0.25%に引き上げ決定、17年ぶりの利上げ",
		"トヨタ自動車、2024年度決算で過去最高益を達成",
		"円安進行で内閣府が今年度成長率を2.1%に上方修正",
	},
	"entertainment": {
		"宮崎駿監督の新作アニメ続編制作が決定",
		"BTS、5年ぶり東京ドーム公演で15万人動員",
		"映画「シン・ゴジラ」続編製作発表、庵野秀明監督が続投",
	},
	"tech": {
		"ソフトバンク、生成AI特化データセンターに2兆円投資発表",
		"トヨタとNTT、自動運転技術で資本業務提携",
		"経産省、TSMC熊本工場に追加支援3000億円",
	},
}

var fallbackCategories = []string{"lifestyle", "society", "economy", "entertainment", "tech"}

// GenerateFallback builds synthetic candidate articles for the requested
// categories, up to perCategory each. The sentinel "all" expands to every
// known category.
func GenerateFallback(categories []string, perCategory int) []news.Article {
	expanded := categories
	for _, c := range categories {
		if c == "all" {
			expanded = fallbackCategories
			break
		}
	}
	if len(expanded) == 0 {
		expanded = fallbackCategories
	}

	now := time.Now()
	var articles []news.Article
	for _, category := range expanded {
		titles, ok := fallbackTitles[category]
		if !ok {
			continue
		}
		for i := 0; i < perCategory && i < len(titles); i++ {
			articles = append(articles, news.Article{
				TitleJa:     titles[i],
				PublishedAt: now.Add(-time.Duration(i) * time.Hour),
				SummaryJa:   titles[i] + "に関する最新情報。",
				ContentJa:   titles[i] + "。政府関係者や企業幹部の発言、具体的な数値データ、今後の展望について報道されています。",
				Category:    category,
				Provenance:  news.Fallback,
			})
		}
	}
	return articles
}
