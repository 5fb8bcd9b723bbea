package config

// DefaultEntities is the built-in watch-list of proper nouns used for
// duplicate detection by shared mention. Deployments extend or replace
// it via the entities config key.
var DefaultEntities = []string{
	"大谷翔平",
	"藤井聡太",
	"羽生結弦",
	"宮崎駿",
	"庵野秀明",
	"新庄剛志",
	"小池百合子",
	"BTS",
	"トヨタ",
	"任天堂",
	"ソニー",
	"ソフトバンク",
	"ユニクロ",
	"ジブリ",
	"NTT",
	"日銀",
	"TSMC",
}

// DefaultYouthKeywords is the topic filter applied to general-news feeds
// so the learning content skews toward what 20-30 year olds actually read.
var DefaultYouthKeywords = []string{
	// tech
	"AI", "人工知能", "ChatGPT", "SNS", "Instagram", "TikTok", "YouTube",
	"ゲーム", "アプリ", "スマホ", "iPhone", "Android",
	// entertainment
	"アニメ", "漫画", "映画", "音楽", "アーティスト", "俳優", "女優",
	"アイドル", "K-POP", "ドラマ", "Netflix",
	// lifestyle
	"恋愛", "結婚", "就職", "転職", "副業", "投資", "仮想通貨", "学生",
	"大学", "一人暮らし", "カフェ", "グルメ", "旅行",
	// social issues
	"少子化", "年金", "税金", "物価", "給料", "働き方", "環境", "SDGs",
	// sports and health
	"オリンピック", "ワールドカップ", "野球", "サッカー", "バスケ",
	"テニス", "ダイエット", "筋トレ",
}
