// Package projector selects the month of an operator record that feedback
// and exports are built from.
package projector

import (
	"github.com/dennisdiepolder/monti/feedback/internal/types"
)

// priority is the order months are tried in when none is requested
var priority = []types.Month{types.Dezembro, types.Novembro, types.Outubro}

// Project returns the metrics for month, or the most recent month with data
// when month is empty. The returned month is empty when the current snapshot
// was used. Both results are zero when nothing is available.
func Project(rec *types.OperatorRecord, month types.Month) (*types.MonthlyMetrics, types.Month) {
	if rec == nil {
		return nil, ""
	}

	if month != "" {
		if m, ok := rec.Months[month]; ok && m != nil {
			return m, month
		}
		return nil, ""
	}

	for _, candidate := range priority {
		if m := rec.Months[candidate]; m.HasData() {
			return m, candidate
		}
	}

	if len(rec.Months) == 0 && rec.CurrentSnapshot != nil {
		return rec.CurrentSnapshot, ""
	}
	return nil, ""
}
