package store

import (
	"context"
	"sync"

	"github.com/fraudguard/fraud-pipeline/internal/config"
	"github.com/fraudguard/fraud-pipeline/pkg/dataset"
	"gorm.io/gorm"
)

// Source reads tables from the source database and connects on the first
// Scan, so connection failures surface from the export itself.
type Source struct {
	cfg *config.Config

	mu    sync.Mutex
	db    *gorm.DB
	table Table
}

// Make sure we conform to Table interface
var _ Table = (*Source)(nil)

func NewSource(cfg *config.Config) *Source {
	return &Source{cfg: cfg}
}

func (s *Source) Scan(ctx context.Context, name string) (*dataset.Dataset, error) {
	table, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	return table.Scan(ctx, name)
}

func (s *Source) connect(ctx context.Context) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table != nil {
		return s.table, nil
	}

	db, err := InitDB(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	s.db = db
	s.table = NewTableStore(db)

	return s.table, nil
}

// Close releases the session. It is a no-op when Scan never connected.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.db, s.table = nil, nil
	return sqlDB.Close()
}
