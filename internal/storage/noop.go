package storage

import (
	"context"
	"time"

	"github.com/dennisdiepolder/monti/feedback/internal/types"
)

// NoopStore is a no-op implementation when persistence is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) Get(_ context.Context, _ string) (*types.OperatorRecord, error) { return nil, nil }
func (s *NoopStore) Put(_ context.Context, _ *types.OperatorRecord, _ time.Time) error { return nil }
func (s *NoopStore) List(_ context.Context) ([]*types.OperatorRecord, error)          { return nil, nil }
func (s *NoopStore) Close() error                                                     { return nil }
