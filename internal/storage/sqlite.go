package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dennisdiepolder/monti/feedback/internal/types"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// operatorRow is one operator in the operator_records table. Version is
// LastUpdatedAt in unix nanoseconds, 0 when the record was never versioned.
type operatorRow struct {
	Email       string `gorm:"primaryKey"`
	DisplayName string
	Version     int64  `gorm:"column:last_updated_at;not null;default:0"`
	Document    string `gorm:"not null"`
}

func (operatorRow) TableName() string { return "operator_records" }

// OpenSQLite opens the database file at path, creating its directory
func OpenSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite store requires SQLITE_PATH")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("failed to configure sqlite database: %w", err)
	}
	return db, nil
}

// SQLiteStore keeps one row per operator
type SQLiteStore struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewSQLiteStore creates a store on db and migrates its table
func NewSQLiteStore(db *gorm.DB, logger zerolog.Logger) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&operatorRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate operator_records: %w", err)
	}

	logger = logger.With().Str("component", "sqlite_store").Logger()
	logger.Info().Msg("sqlite store initialized")

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, email string) (*types.OperatorRecord, error) {
	key := types.NormalizeEmail(email)
	if key == "" {
		return nil, nil
	}

	var row operatorRow
	if err := s.db.WithContext(ctx).Where("email = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load operator record: %w", err)
	}
	return decodeStored(row.Email, []byte(row.Document), key), nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec *types.OperatorRecord, expected time.Time) error {
	out, data, err := canonical(rec)
	if err != nil {
		return err
	}
	row := operatorRow{
		Email:       out.Email,
		DisplayName: out.DisplayName,
		Version:     versionOf(out.LastUpdatedAt),
		Document:    string(data),
	}

	db := s.db.WithContext(ctx)
	if expected.IsZero() {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return fmt.Errorf("failed to insert operator record: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			return nil
		}
	}

	res := db.Model(&operatorRow{}).
		Where("email = ? AND last_updated_at = ?", row.Email, versionOf(expected)).
		Updates(map[string]interface{}{
			"display_name":    row.DisplayName,
			"last_updated_at": row.Version,
			"document":        row.Document,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update operator record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := s.Get(ctx, row.Email)
		if err != nil {
			return err
		}
		if err := checkVersion(current, expected); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*types.OperatorRecord, error) {
	var rows []operatorRow
	if err := s.db.WithContext(ctx).Order("email").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list operator records: %w", err)
	}

	records := make([]*types.OperatorRecord, 0, len(rows))
	for _, row := range rows {
		if rec := decodeStored(row.Email, []byte(row.Document), row.Email); rec != nil {
			records = append(records, rec)
		} else {
			s.logger.Warn().Str("email", row.Email).Msg("skipping unreadable operator record")
		}
	}
	return records, nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func versionOf(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
