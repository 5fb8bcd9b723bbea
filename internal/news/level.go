package news

// LevelConfig describes how content is adapted for one learner level.
type LevelConfig struct {
	WordBudget int     // upper bound on source words considered
	Speed      float64 // TTS playback speed
	CEFR       string  // target CEFR band for vocabulary
	Complexity string  // sentence complexity hint for the transform prompt
}

// Levels maps the fixed learner levels to their adaptation settings.
var Levels = map[string]LevelConfig{
	"beginner":     {WordBudget: 600, Speed: 0.9, CEFR: "A2", Complexity: "simple"},
	"intermediate": {WordBudget: 3000, Speed: 1.0, CEFR: "B1", Complexity: "moderate"},
	"advanced":     {WordBudget: 5000, Speed: 1.0, CEFR: "C1", Complexity: "advanced"},
}

// ValidLevel reports whether level is one of the supported learner levels.
func ValidLevel(level string) bool {
	_, ok := Levels[level]
	return ok
}
