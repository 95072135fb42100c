package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	store, err := NewSQLiteStore(db, zerolog.Nop())
	if err != nil {
		t.Fatalf("create sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStorePutGet(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	if rec, err := store.Get(ctx, "ana.souza@example.com"); err != nil || rec != nil {
		t.Fatalf("expected not found, got %v, %v", rec, err)
	}

	want := sampleRecord()
	if err := store.Put(ctx, want, time.Time{}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "Ana.Souza@Example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want.Email = "ana.souza@example.com"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStoreConflicts(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	rec := sampleRecord()
	if err := store.Put(ctx, rec, time.Time{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, rec, time.Time{}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected conflict on duplicate create, got %v", err)
	}

	next := rec.Clone()
	next.LastUpdatedAt = secondWrite
	if err := store.Put(ctx, next, secondWrite); !errors.Is(err, ErrConflict) {
		t.Errorf("expected conflict for stale version, got %v", err)
	}
	if err := store.Put(ctx, next, firstWrite); err != nil {
		t.Fatalf("versioned write: %v", err)
	}

	got, err := store.Get(ctx, rec.Email)
	if err != nil || !got.LastUpdatedAt.Equal(secondWrite) {
		t.Errorf("expected updated version, got %+v, %v", got, err)
	}

	missing := sampleRecord()
	missing.Email = "nobody@example.com"
	if err := store.Put(ctx, missing, firstWrite); !errors.Is(err, ErrConflict) {
		t.Errorf("expected conflict for versioned write of absent record, got %v", err)
	}
}

func TestSQLiteStoreReadsLegacyDocuments(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	row := operatorRow{
		Email:    "ana.souza@example.com",
		Document: `{"login": {"email": "ana.souza@example.com", "name": "Ana Souza"}, "calls": {"count": 12}}`,
	}
	if err := store.db.Create(&row).Error; err != nil {
		t.Fatalf("seed row: %v", err)
	}

	rec, err := store.Get(ctx, "ana.souza@example.com")
	if err != nil || rec == nil {
		t.Fatalf("expected legacy record, got %v, %v", rec, err)
	}
	if rec.DisplayName != "Ana Souza" || rec.CurrentSnapshot == nil || *rec.CurrentSnapshot.Calls.Count != 12 {
		t.Errorf("unexpected legacy record: %+v", rec)
	}

	// unversioned rows accept a zero expected version
	rec.LastUpdatedAt = firstWrite
	if err := store.Put(ctx, rec, time.Time{}); err != nil {
		t.Errorf("expected write over unversioned row, got %v", err)
	}
}

func TestSQLiteStoreList(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	for _, email := range []string{"zeca@example.com", "ana.souza@example.com"} {
		rec := sampleRecord()
		rec.Email = email
		if err := store.Put(ctx, rec, time.Time{}); err != nil {
			t.Fatalf("put %s: %v", email, err)
		}
	}
	if err := store.db.Create(&operatorRow{Email: "broken@example.com", Document: "[]"}).Error; err != nil {
		t.Fatalf("seed row: %v", err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 || records[0].Email != "ana.souza@example.com" || records[1].Email != "zeca@example.com" {
		t.Errorf("unexpected records: %+v", records)
	}
}
