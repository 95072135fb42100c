package types

import (
	"strings"
	"time"
)

// OperatorRecord is the canonical persisted record of one operator
type OperatorRecord struct {
	Email           string                    `json:"email"`       // normalized, unique key
	DisplayName     string                    `json:"displayName"`
	LastUpdatedAt   time.Time                 `json:"lastUpdatedAt"` // also the optimistic version
	Months          map[Month]*MonthlyMetrics `json:"months"`
	CurrentSnapshot *MonthlyMetrics           `json:"currentSnapshot"` // mirrors the most recent month
}

// NormalizeEmail returns the lookup key for an operator email
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewOperatorRecord creates an empty record for the given operator
func NewOperatorRecord(email, displayName string) *OperatorRecord {
	return &OperatorRecord{
		Email:       NormalizeEmail(email),
		DisplayName: strings.TrimSpace(displayName),
		Months:      make(map[Month]*MonthlyMetrics),
	}
}

// Clone returns a copy whose month map can be modified independently.
// Month values are shared; writers replace them wholesale, never in place.
func (r *OperatorRecord) Clone() *OperatorRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Months = make(map[Month]*MonthlyMetrics, len(r.Months))
	for m, metrics := range r.Months {
		out.Months[m] = metrics
	}
	return &out
}
