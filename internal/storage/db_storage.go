package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DBStorage keeps keys in the key_values table.
type DBStorage struct {
	db *sqlx.DB
}

var _ KeyValueStore = (*DBStorage)(nil)

func NewDBStorage(db *sqlx.DB) *DBStorage {
	return &DBStorage{db: db}
}

func (s *DBStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, "SELECT value FROM key_values WHERE name = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get", Key: key, Err: fmt.Errorf("db.GetContext(key_values) > %w", err)}
	}
	return value, nil
}

func (s *DBStorage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO key_values (name, value) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)`,
		key, value)
	if err != nil {
		return &StorageError{Op: "set", Key: key, Err: fmt.Errorf("db.ExecContext(upsert key_values) > %w", err)}
	}
	return nil
}
