// Package aggregate turns per-entry outcomes into the numbered report.
package aggregate

import (
	"fmt"
	"sort"

	"cvbatch/internal/domain"
)

// Aggregate orders outcomes by entry index and numbers successful records
// from 1 in that order. total is the number of entries the batch started
// with; every index in [0, total) must appear exactly once.
func Aggregate(outcomes []domain.Outcome, total int) (*domain.Report, error) {
	if len(outcomes) != total {
		return nil, fmt.Errorf("%w: %d outcomes for %d entries", domain.ErrIncompleteBatch, len(outcomes), total)
	}

	sorted := make([]domain.Outcome, len(outcomes))
	copy(sorted, outcomes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	report := &domain.Report{
		Rows:         make([]domain.Row, 0, len(sorted)),
		Skipped:      []domain.Outcome{},
		TotalEntries: total,
	}
	for i, o := range sorted {
		if o.Index != i {
			return nil, fmt.Errorf("%w: expected entry %d, got %d", domain.ErrIncompleteBatch, i, o.Index)
		}
		if o.IsSuccess() {
			report.Rows = append(report.Rows, domain.Row{Serial: len(report.Rows) + 1, Record: o.Record})
			continue
		}
		report.Skipped = append(report.Skipped, o)
	}
	return report, nil
}
