package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	queryGetValue = `SELECT value FROM kv WHERE key = :key`
	querySetValue = `INSERT INTO kv (key, value, updated_at) VALUES (:key, :value, :updated_at)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

// KVRepository reads and writes string values in the kv table.
type KVRepository struct {
	db *sqlx.DB
}

// KV returns the key-value repository for this store.
func (s *Store) KV() *KVRepository {
	return &KVRepository{db: s.db}
}

// Get returns the value for key and whether it exists.
func (r *KVRepository) Get(key string) (string, bool, error) {
	query, args, err := sqlx.Named(queryGetValue, map[string]interface{}{"key": key})
	if err != nil {
		return "", false, err
	}

	var value string
	if err := r.db.QueryRowx(r.db.Rebind(query), args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}

	return value, true, nil
}

// Set overwrites the value for key.
func (r *KVRepository) Set(key, value string) error {
	query, args, err := sqlx.Named(querySetValue, map[string]interface{}{
		"key":        key,
		"value":      value,
		"updated_at": time.Now(),
	})
	if err != nil {
		return err
	}

	_, err = r.db.Exec(r.db.Rebind(query), args...)
	return err
}

