package store

import (
	"database/sql"
)

// Store persists the pipeline's stage-run history.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}
