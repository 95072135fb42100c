package ingestion

import (
	"context"
	"fmt"

	"github.com/dennisdiepolder/monti/feedback/internal/metrics"
	"github.com/dennisdiepolder/monti/feedback/internal/normalize"
	"github.com/dennisdiepolder/monti/feedback/internal/types"
	"github.com/rs/zerolog"
)

// Outcome is what happened to one sheet row
type Outcome string

const (
	OutcomeWritten         Outcome = "written"
	OutcomeBlankName       Outcome = "blank name"
	OutcomeUnknownOperator Outcome = "unknown operator"
	OutcomeNoData          Outcome = "no data"
)

// RowResult reports the processing of one sheet row
type RowResult struct {
	Row         int     `json:"row"`
	Name        string  `json:"name"`
	Email       string  `json:"email,omitempty"`
	Outcome     Outcome `json:"outcome"`
	NulledCells int     `json:"nulledCells"`
}

// DecodeRow converts a sheet row into month metrics. A cell that cannot be
// interpreted leaves only its own field nil; nulled counts such cells.
func DecodeRow(row Row) (m *types.MonthlyMetrics, nulled int) {
	m = &types.MonthlyMetrics{}
	for i, col := range metricColumns {
		cell := row.Cells[i]
		v := normalize.Normalize(cell.Raw, col.kind, normalize.Hint(cell.Display))
		if cell.Raw != nil && v.IsNull() {
			nulled++
		}
		col.assign(m, v)
	}
	return m, nulled
}

// Processor decodes rows and hands known operators to a MonthStore
type Processor struct {
	roster *Roster
	store  MonthStore
	logger zerolog.Logger
}

// NewProcessor creates a new Processor
func NewProcessor(roster *Roster, store MonthStore, logger zerolog.Logger) *Processor {
	return &Processor{
		roster: roster,
		store:  store,
		logger: logger,
	}
}

// ProcessRow decodes row and writes it as month. Rows that cannot be
// attributed to an operator are reported, not treated as errors.
func (p *Processor) ProcessRow(ctx context.Context, month types.Month, row Row) (RowResult, error) {
	result := RowResult{Row: row.Number, Name: row.Name}
	m := metrics.Get()

	if row.Name == "" {
		result.Outcome = OutcomeBlankName
		m.RecordRowSkipped()
		return result, nil
	}

	entry, ok := p.roster.Lookup(row.Name)
	if !ok {
		result.Outcome = OutcomeUnknownOperator
		m.RecordRowSkipped()
		p.logger.Warn().
			Int("row", row.Number).
			Str("name", row.Name).
			Msg("operator not in roster")
		return result, nil
	}
	result.Email = entry.Email

	decoded, nulled := DecodeRow(row)
	result.NulledCells = nulled
	m.RecordRowDecoded(nulled)

	if !decoded.HasData() {
		result.Outcome = OutcomeNoData
		m.RecordRowSkipped()
		return result, nil
	}

	if _, err := p.store.WriteMonth(ctx, entry.Email, entry.Name, month, decoded); err != nil {
		return result, fmt.Errorf("row %d (%s): %w", row.Number, entry.Email, err)
	}
	result.Outcome = OutcomeWritten

	p.logger.Debug().
		Int("row", row.Number).
		Str("email", entry.Email).
		Str("month", string(month)).
		Int("nulled_cells", nulled).
		Msg("row written")

	return result, nil
}
