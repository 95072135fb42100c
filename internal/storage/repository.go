package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dennisdiepolder/monti/feedback/internal/metrics"
	"github.com/dennisdiepolder/monti/feedback/internal/resolver"
	"github.com/dennisdiepolder/monti/feedback/internal/types"
	"github.com/rs/zerolog"
)

var (
	// ErrConflict is returned by Put when the stored record changed since
	// the caller read it
	ErrConflict = errors.New("operator record was modified concurrently")
	// ErrInvalidRecord is returned by Put for records without an email
	ErrInvalidRecord = errors.New("operator record has no email")
)

// Repository persists operator records.
//
// Put is conditional: expected is the LastUpdatedAt the caller read, and the
// write fails with ErrConflict unless the stored record still carries it. A
// zero expected time matches an absent record or one that was never versioned.
type Repository interface {
	Get(ctx context.Context, email string) (*types.OperatorRecord, error)
	Put(ctx context.Context, rec *types.OperatorRecord, expected time.Time) error
	List(ctx context.Context) ([]*types.OperatorRecord, error)
	Close() error
}

// NewRepository creates the backend selected by cfg.Mode
func NewRepository(ctx context.Context, cfg Config, logger zerolog.Logger) (Repository, error) {
	switch cfg.Mode {
	case ModeFile:
		return NewFileStore(cfg.Path, logger)
	case ModeSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(db, logger)
	case ModeDynamo:
		return NewDynamoDBStore(ctx, cfg.Dynamo, logger)
	case ModeNone:
		logger.Info().Msg("persistence disabled (STORE_MODE=none)")
		return NewNoopStore(), nil
	default:
		return nil, fmt.Errorf("unknown store mode %q", cfg.Mode)
	}
}

// checkVersion compares the stored version against the one the writer read
func checkVersion(current *types.OperatorRecord, expected time.Time) error {
	var stored time.Time
	if current != nil {
		stored = current.LastUpdatedAt
	}
	if !stored.Equal(expected) {
		metrics.Get().RecordWriteConflict()
		return fmt.Errorf("%w: stored %s, expected %s", ErrConflict,
			formatVersion(stored), formatVersion(expected))
	}
	return nil
}

// canonical returns the record as it is written: normalized email, Direct shape
func canonical(rec *types.OperatorRecord) (*types.OperatorRecord, []byte, error) {
	if rec == nil {
		return nil, nil, ErrInvalidRecord
	}
	out := rec.Clone()
	out.Email = types.NormalizeEmail(rec.Email)
	if out.Email == "" {
		return nil, nil, ErrInvalidRecord
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal operator record: %w", err)
	}
	return out, data, nil
}

// decodeStored reads one stored document through the resolver so rows
// written by older layouts still load
func decodeStored(key string, data []byte, email string) *types.OperatorRecord {
	doc := resolver.Document{key: json.RawMessage(data)}
	rec, strategy := resolver.Decode(doc).Resolve(email)
	metrics.Get().RecordResolution(strategy.String())
	return rec
}

// formatVersion renders a version for storage and messages; zero is empty
func formatVersion(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
