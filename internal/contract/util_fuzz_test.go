package contract

import (
	"testing"

	"github.com/huangsam/tribal/schema"
)

// FuzzParseWeightsString fuzzes the weights flag parser with arbitrary input.
func FuzzParseWeightsString(f *testing.F) {
	seeds := []string{
		"commit_frequency:0.5,age_days:0.5",
		"language_count:1",
		"",
		",,,",
		"age_days:1e309",
		"open_issue_ratio:-0.1:2",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, s string) {
		weights, err := ParseWeightsString(s)
		if err != nil {
			return
		}
		for key := range weights {
			if _, ok := schema.ValidMetricKeys[key]; !ok {
				t.Fatalf("parser accepted unknown metric %q", key)
			}
		}
	})
}
