package metrics

import "github.com/rohankatakam/internhub/internal/models"

// Totals sums contribution counts across repositories
type Totals struct {
	TotalCommits   int `json:"totalCommits"`
	TotalAdditions int `json:"totalAdditions"`
	TotalDeletions int `json:"totalDeletions"`
}

// Sum adds up commit and line counts across records
func Sum(records []*models.MetricsRecord) Totals {
	var t Totals
	for _, r := range records {
		t.TotalCommits += r.CommitCount
		t.TotalAdditions += r.LinesAdded
		t.TotalDeletions += r.LinesDeleted
	}
	return t
}
