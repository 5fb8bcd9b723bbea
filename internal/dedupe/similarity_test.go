package dedupe

import (
	"math"
	"testing"
)

func TestSimilarityIdentity(t *testing.T) {
	inputs := []string{
		"東京で大雨",
		"OpenAI releases new model",
		"あ",
	}
	for _, s := range inputs {
		if got := Similarity(s, s); math.Abs(got-1.0) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want 1.0", s, s, got)
		}
	}
}

func TestSimilarityEmpty(t *testing.T) {
	if got := Similarity("東京", ""); got != 0 {
		t.Errorf("expected 0 against empty string, got %v", got)
	}
	// Two empty strings carry no information; treating them as identical
	// would suppress every blank-titled article against every other.
	if got := Similarity("", ""); got != 0 {
		t.Errorf("expected 0 for two empty strings, got %v", got)
	}
	// Punctuation-only input reduces to nothing.
	if got := Similarity("！？。", "東京"); got != 0 {
		t.Errorf("expected 0 for punctuation-only input, got %v", got)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a := "大谷翔平がホームラン記録を更新"
	b := "藤井聡太が最年少でタイトル獲得"
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("similarity is not symmetric")
	}
}

func TestSimilarityNearDuplicates(t *testing.T) {
	a := "大谷翔平がホームラン記録を更新した"
	b := "大谷翔平、ホームラン記録を更新"
	if got := Similarity(a, b); got < 0.85 {
		t.Errorf("expected near-duplicate titles to score high, got %v", got)
	}
}

func TestSimilarityUnrelated(t *testing.T) {
	a := "日銀が政策金利を引き上げ"
	b := "アニメ映画が興行収入記録"
	if got := Similarity(a, b); got > 0.5 {
		t.Errorf("expected unrelated titles to score low, got %v", got)
	}
}

func TestSimilarityIgnoresPunctuationAndCase(t *testing.T) {
	if got := Similarity("Tokyo News!", "tokyo news"); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected punctuation and case to be ignored, got %v", got)
	}
}
