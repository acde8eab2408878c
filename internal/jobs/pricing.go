package jobs

import "strings"

// Static price list per (category, level). Price-list CRUD lives
// outside this service; these are the baseline rates used for the
// system-expected-amount hint at finalize time.
var defaultPricePerWord = map[string]float64{
	"basic":        0.04,
	"intermediate": 0.06,
	"advanced":     0.09,
}

var categoryPricePerWord = map[string]map[string]float64{
	"FINANCE": {
		"basic":        0.05,
		"intermediate": 0.07,
		"advanced":     0.10,
	},
	"IT": {
		"basic":        0.05,
		"intermediate": 0.08,
		"advanced":     0.11,
	},
}

// PricePerWord returns the per-word rate for a category and level.
func PricePerWord(category, level string) (float64, bool) {
	normalized := NormalizeLevel(level)
	if normalized == "" {
		return 0, false
	}
	if byLevel, ok := categoryPricePerWord[strings.ToUpper(strings.TrimSpace(category))]; ok {
		if price, ok := byLevel[normalized]; ok {
			return price, true
		}
	}
	price, ok := defaultPricePerWord[normalized]
	return price, ok
}

// NormalizeLevel folds free-form level labels onto the three canonical
// values, returning "" when the label is unrecognized.
func NormalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "basic", "beginner":
		return "basic"
	case "intermediate", "mid", "middle":
		return "intermediate"
	case "advanced", "advance":
		return "advanced"
	default:
		return ""
	}
}

var advancedKeywords = []string{"phd", "doctoral", "masters", "master", "dissertation", "thesis", "capstone"}
var intermediateKeywords = []string{"case study", "critical analysis", "research", "evaluation"}

// InferLevel guesses the level when the summarizer omits it, from
// instruction keywords first, then word count, then category.
func InferLevel(wordCount int, instruction, category string) string {
	text := strings.ToLower(instruction)
	for _, k := range advancedKeywords {
		if strings.Contains(text, k) {
			return "advanced"
		}
	}
	for _, k := range intermediateKeywords {
		if strings.Contains(text, k) {
			return "intermediate"
		}
	}
	if wordCount >= 4000 {
		return "advanced"
	}
	if wordCount >= 2000 {
		return "intermediate"
	}
	switch strings.ToUpper(strings.TrimSpace(category)) {
	case "FINANCE", "IT":
		return "intermediate"
	}
	return "basic"
}
