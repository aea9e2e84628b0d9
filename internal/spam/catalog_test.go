package spam

import (
	"strings"
	"testing"
)

func TestScoreAgainstCatalog(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		author      string
		wantScore   int
		wantReasons []string
	}{
		{
			name:      "empty input",
			body:      "",
			author:    "",
			wantScore: 0,
		},
		{
			name:      "critical keyword plus medium pattern",
			body:      "buy viagra now",
			author:    "Jane",
			wantScore: WeightCritical + WeightMedium,
			wantReasons: []string{
				`Critical spam keyword: "viagra"`,
				"Medium-risk pattern detected",
			},
		},
		{
			name:        "keyword in author",
			body:        "hello",
			author:      "casino bob",
			wantScore:   WeightHigh,
			wantReasons: []string{`High-risk keyword in author: "casino"`},
		},
		{
			name:      "body and author scored independently",
			body:      "cheap viagra",
			author:    "viagra",
			wantScore: 2 * WeightCritical,
			wantReasons: []string{
				`Critical spam keyword: "viagra"`,
				`Critical spam keyword in author: "viagra"`,
			},
		},
		{
			name:        "low tier ignores author",
			body:        "big sale",
			author:      "sale",
			wantScore:   WeightLow,
			wantReasons: []string{`Low-risk keyword: "sale"`},
		},
		{
			name:        "repeated keyword counted once",
			body:        "viagra viagra viagra",
			author:      "Jane",
			wantScore:   WeightCritical,
			wantReasons: []string{`Critical spam keyword: "viagra"`},
		},
		{
			name:      "reasons follow tier order",
			body:      "casino viagra",
			author:    "",
			wantScore: WeightCritical + WeightHigh,
			wantReasons: []string{
				`Critical spam keyword: "viagra"`,
				`High-risk keyword: "casino"`,
			},
		},
		{
			name:        "case insensitive keywords",
			body:        "VIAGRA",
			author:      "Jane",
			wantScore:   WeightCritical,
			wantReasons: []string{`Critical spam keyword: "viagra"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, reasons := ScoreAgainstCatalog(tt.body, tt.author)
			if score != tt.wantScore {
				t.Errorf("score = %d, want %d (reasons: %v)", score, tt.wantScore, reasons)
			}
			if len(reasons) != len(tt.wantReasons) {
				t.Fatalf("reasons = %v, want %v", reasons, tt.wantReasons)
			}
			for i := range reasons {
				if reasons[i] != tt.wantReasons[i] {
					t.Errorf("reasons[%d] = %q, want %q", i, reasons[i], tt.wantReasons[i])
				}
			}
		})
	}
}

func TestScoreAgainstCatalog_Patterns(t *testing.T) {
	score, reasons := ScoreAgainstCatalog("Make $500 fast from your couch", "Jane")
	if score < WeightCritical {
		t.Errorf("Expected at least critical weight, got %d", score)
	}
	found := false
	for _, r := range reasons {
		if r == "Critical spam pattern detected" {
			found = true
		}
		if strings.Contains(r, "$500") {
			t.Errorf("pattern reasons must not disclose matched text: %q", r)
		}
	}
	if !found {
		t.Errorf("Expected critical pattern reason, got %v", reasons)
	}
}

func TestCatalogTierLayout(t *testing.T) {
	wantWeights := []int{WeightCritical, WeightHigh, WeightMedium, WeightLow}
	if len(catalog) != len(wantWeights) {
		t.Fatalf("Expected %d tiers, got %d", len(wantWeights), len(catalog))
	}
	for i, tier := range catalog {
		if tier.weight != wantWeights[i] {
			t.Errorf("tier %d weight = %d, want %d", i, tier.weight, wantWeights[i])
		}
		for _, kw := range tier.keywords {
			if kw != strings.ToLower(kw) {
				t.Errorf("keyword %q must be lowercase", kw)
			}
		}
	}
	if len(catalog[3].patterns) != 0 {
		t.Error("low tier must not carry patterns")
	}
}
