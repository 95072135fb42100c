package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/dennisdiepolder/monti/feedback/internal/metrics"
	"github.com/dennisdiepolder/monti/feedback/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ImportResult summarizes one sheet import
type ImportResult struct {
	ImportID    string        `json:"importId"`
	Month       types.Month   `json:"month"`
	RowsRead    int           `json:"rowsRead"`
	Written     int           `json:"written"`
	Skipped     []RowResult   `json:"skipped"`
	NulledCells int           `json:"nulledCells"`
	Duration    time.Duration `json:"duration"`
}

// Importer loads a metrics sheet into operator records
type Importer struct {
	processor *Processor
	logger    zerolog.Logger
}

// NewImporter creates a new Importer
func NewImporter(roster *Roster, store MonthStore, logger zerolog.Logger) *Importer {
	logger = logger.With().Str("component", "importer").Logger()
	return &Importer{
		processor: NewProcessor(roster, store, logger),
		logger:    logger,
	}
}

// Import writes every row of source as month. It stops at the first
// storage error; rows already written stay written.
func (i *Importer) Import(ctx context.Context, source RowSource, month types.Month) (*ImportResult, error) {
	if !month.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownMonth, month)
	}

	start := time.Now()
	result := &ImportResult{ImportID: uuid.New().String(), Month: month}
	logger := i.logger.With().Str("import_id", result.ImportID).Logger()

	rows, err := source.Rows(ctx)
	if err != nil {
		metrics.Get().RecordImport(time.Since(start), true)
		return nil, err
	}
	result.RowsRead = len(rows)

	logger.Info().
		Str("month", string(month)).
		Int("rows", len(rows)).
		Msg("import started")

	for _, row := range rows {
		rr, err := i.processor.ProcessRow(ctx, month, row)
		result.NulledCells += rr.NulledCells
		if err != nil {
			result.Duration = time.Since(start)
			metrics.Get().RecordImport(result.Duration, true)
			logger.Error().Err(err).Int("written", result.Written).Msg("import aborted")
			return result, err
		}
		if rr.Outcome == OutcomeWritten {
			result.Written++
		} else {
			result.Skipped = append(result.Skipped, rr)
		}
	}

	result.Duration = time.Since(start)
	metrics.Get().RecordImport(result.Duration, false)

	logger.Info().
		Int("written", result.Written).
		Int("skipped", len(result.Skipped)).
		Int("nulled_cells", result.NulledCells).
		Dur("duration", result.Duration).
		Msg("import finished")

	return result, nil
}
