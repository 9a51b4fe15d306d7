package summary

import "sort"

type Ranked struct {
	Rank int `json:"rank"`
	Summary
}

// Rank sorts summaries ascending by total daily cost (objective), ties
// broken by scenario name, and numbers them from 1.
func Rank(summaries []Summary) []Ranked {
	out := make([]Ranked, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, Ranked{Summary: s})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ObjectiveDKK != out[j].ObjectiveDKK {
			return out[i].ObjectiveDKK < out[j].ObjectiveDKK
		}
		return out[i].Scenario < out[j].Scenario
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
