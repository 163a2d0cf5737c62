package store

import (
	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type RunQueryFilter BaseQuerier

func NewRunQueryFilter() *RunQueryFilter {
	return &RunQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *RunQueryFilter) ByState(state string) *RunQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("state = ?", state)
	})
	return qf
}

func (qf *RunQueryFilter) ByPipeline(name string) *RunQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("pipeline = ?", name)
	})
	return qf
}

func (qf *RunQueryFilter) WithLimit(limit int) *RunQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	})
	return qf
}
