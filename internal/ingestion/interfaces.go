package ingestion

import (
	"context"

	"github.com/dennisdiepolder/monti/feedback/internal/types"
)

// RowSource yields the data rows of one metrics sheet
type RowSource interface {
	Rows(ctx context.Context) ([]Row, error)
}

// MonthStore persists one month of metrics for an operator
type MonthStore interface {
	WriteMonth(ctx context.Context, email, displayName string, month types.Month, metrics *types.MonthlyMetrics) (*types.OperatorRecord, error)
}
