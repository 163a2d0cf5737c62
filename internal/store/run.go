package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fraudguard/fraud-pipeline/internal/store/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Run persists the history of pipeline runs.
type Run interface {
	Create(ctx context.Context, run model.Run) (*model.Run, error)
	Update(ctx context.Context, run model.Run) (*model.Run, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Run, error)
	List(ctx context.Context, filter *RunQueryFilter) (model.RunList, error)
	CountByState(ctx context.Context) (map[string]int, error)
}

type RunStore struct {
	db *gorm.DB
}

// Make sure we conform to Run interface
var _ Run = (*RunStore)(nil)

func NewRunStore(db *gorm.DB) Run {
	return &RunStore{db: db}
}

func (r *RunStore) Create(ctx context.Context, run model.Run) (*model.Run, error) {
	result := r.db.WithContext(ctx).Create(&run)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating run: %w", result.Error)
	}
	return &run, nil
}

func (r *RunStore) Update(ctx context.Context, run model.Run) (*model.Run, error) {
	result := r.db.WithContext(ctx).Model(&run).Select("*").Omit("created_at").Updates(&run)
	if result.Error != nil {
		return nil, fmt.Errorf("updating run %s: %w", run.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return r.Get(ctx, run.ID)
}

func (r *RunStore) Get(ctx context.Context, id uuid.UUID) (*model.Run, error) {
	var run model.Run
	result := r.db.WithContext(ctx).First(&run, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &run, nil
}

func (r *RunStore) List(ctx context.Context, filter *RunQueryFilter) (model.RunList, error) {
	var runs model.RunList
	tx := r.db.WithContext(ctx).Model(&runs).Order("created_at DESC")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&runs)
	if result.Error != nil {
		return nil, result.Error
	}
	return runs, nil
}

func (r *RunStore) CountByState(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		State string
		Total int
	}
	result := r.db.WithContext(ctx).Model(&model.Run{}).Select("state, count(*) as total").Group("state").Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Total
	}
	return counts, nil
}
