package jobs

import "testing"

func TestPricePerWord(t *testing.T) {
	cases := []struct {
		category string
		level    string
		want     float64
		ok       bool
	}{
		{"HISTORY", "basic", 0.04, true},
		{"HISTORY", "advanced", 0.09, true},
		{"FINANCE", "intermediate", 0.07, true},
		{"finance", "Intermediate", 0.07, true},
		{"IT", "advanced", 0.11, true},
		{"IT", "expert", 0, false},
	}
	for _, c := range cases {
		got, ok := PricePerWord(c.category, c.level)
		if got != c.want || ok != c.ok {
			t.Fatalf("PricePerWord(%q, %q) = %v, %v; want %v, %v", c.category, c.level, got, ok, c.want, c.ok)
		}
	}
}

func TestNormalizeLevel(t *testing.T) {
	cases := map[string]string{
		"basic":        "basic",
		"Beginner":     "basic",
		"mid":          "intermediate",
		"MIDDLE":       "intermediate",
		" advanced ":   "advanced",
		"advance":      "advanced",
		"expert":       "",
		"":             "",
		"professional": "",
	}
	for in, want := range cases {
		if got := NormalizeLevel(in); got != want {
			t.Fatalf("NormalizeLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInferLevel(t *testing.T) {
	cases := []struct {
		name        string
		wordCount   int
		instruction string
		category    string
		want        string
	}{
		{"phd keyword wins", 500, "A PhD dissertation chapter on labor economics", "HISTORY", "advanced"},
		{"case study keyword", 500, "Prepare a case study on supply chains", "HISTORY", "intermediate"},
		{"long word count", 4000, "General writing task", "HISTORY", "advanced"},
		{"medium word count", 2000, "General writing task", "HISTORY", "intermediate"},
		{"finance category floor", 500, "General writing task", "FINANCE", "intermediate"},
		{"default", 500, "General writing task", "HISTORY", "basic"},
	}
	for _, c := range cases {
		if got := InferLevel(c.wordCount, c.instruction, c.category); got != c.want {
			t.Fatalf("%s: InferLevel = %q, want %q", c.name, got, c.want)
		}
	}
}
