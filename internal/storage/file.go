package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dennisdiepolder/monti/feedback/internal/metrics"
	"github.com/dennisdiepolder/monti/feedback/internal/resolver"
	"github.com/dennisdiepolder/monti/feedback/internal/types"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

// lockRetryDelay is how often a blocked writer retries the store lock
const lockRetryDelay = 20 * time.Millisecond

// singletonFields are the top-level keys of a document that holds a single
// operator's record instead of a keyed map
var singletonFields = []string{
	"login", "email", "displayName", "name", "lastUpdatedAt", "months",
	"currentSnapshot", "calls", "tickets", "quality", "attendance",
}

// FileStore keeps every operator in one JSON document on disk. Writes hold
// an in-process mutex and an advisory lock on path+".lock", so writers in
// other processes sharing the document are serialized too.
type FileStore struct {
	path   string
	mu     sync.Mutex
	lock   *flock.Flock
	logger zerolog.Logger
}

// NewFileStore creates a store backed by the document at path
func NewFileStore(path string, logger zerolog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store requires STORE_PATH")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	logger = logger.With().Str("component", "file_store").Logger()
	logger.Info().Str("path", path).Msg("file store initialized")

	return &FileStore{path: path, lock: flock.New(path + ".lock"), logger: logger}, nil
}

func (s *FileStore) Get(ctx context.Context, email string) (*types.OperatorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	rec, strategy := resolver.Decode(doc).Resolve(email)
	metrics.Get().RecordResolution(strategy.String())
	if strategy != resolver.StrategyDirect && rec != nil {
		s.logger.Debug().
			Str("email", rec.Email).
			Str("strategy", strategy.String()).
			Msg("record resolved from legacy layout")
	}
	return rec, nil
}

func (s *FileStore) Put(ctx context.Context, rec *types.OperatorRecord, expected time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out, data, err := canonical(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock store: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to lock store %s", s.path)
	}
	defer s.lock.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}

	entry, strategy := resolver.Decode(doc).Lookup(out.Email)
	var current *types.OperatorRecord
	if entry != nil {
		current = entry.Record
	}
	if err := checkVersion(current, expected); err != nil {
		return err
	}

	// the record moves to its direct key; drop the legacy copy
	switch strategy {
	case resolver.StrategySingleton:
		for _, k := range singletonFields {
			delete(doc, k)
		}
	case resolver.StrategyScan:
		delete(doc, entry.Key)
	}
	doc[out.Email] = data

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	if err := writeAtomic(s.path, encoded); err != nil {
		return err
	}

	s.logger.Debug().
		Str("email", out.Email).
		Str("previous_strategy", strategy.String()).
		Time("last_updated_at", out.LastUpdatedAt).
		Msg("record written")
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]*types.OperatorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return resolver.Decode(doc).Records(), nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() (resolver.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return resolver.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return resolver.Document{}, nil
	}

	var doc resolver.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode store %s: %w", s.path, err)
	}
	if doc == nil {
		doc = resolver.Document{}
	}
	return doc, nil
}

// writeAtomic replaces path so readers see either the old or the new
// document, never a partial one
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
