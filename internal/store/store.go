package store

import (
	"gorm.io/gorm"
)

type Store interface {
	Table() Table
	Run() Run
	Close() error
}

type DataStore struct {
	db    *gorm.DB
	table Table
	run   Run
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:    db,
		table: NewTableStore(db),
		run:   NewRunStore(db),
	}
}

func (s *DataStore) Table() Table {
	return s.table
}

func (s *DataStore) Run() Run {
	return s.run
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
