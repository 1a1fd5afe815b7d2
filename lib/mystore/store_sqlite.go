package mystore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	uid   TEXT NOT NULL PRIMARY KEY,
	value TEXT NOT NULL
)`

// sqliteStore is the local durable store: one JSON document per row in a single file.
// Transactions take the write lock up front (_txlock=immediate), which also serializes
// writers in other processes sharing the file.
type sqliteStore[T any] struct {
	db *sqlx.DB
}

func newSQLiteStore[T any](c context.Context, path string) (*sqliteStore[T], func(), error) {
	db, err := sqlx.ConnectContext(c, "sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, nil, fmt.Errorf("error opening sqlite database %s: %w", path, err)
	}
	// One connection: sqlite has a single writer anyway.
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(c, sqliteSchema)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("error creating sqlite schema: %w", err)
	}

	return &sqliteStore[T]{
			db: db,
		}, func() {
			db.Close()
		}, nil
}

type sqliteExecQueryer interface {
	sqlx.ExecerContext
	sqlx.QueryerContext
}

func (s *sqliteStore[T]) conn(c context.Context) sqliteExecQueryer {
	tx, ok := c.Value(ctxTransactionKey{}).(*sqlx.Tx)
	if ok {
		return tx
	}
	return s.db
}

func (s *sqliteStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	tx, err := s.db.BeginTxx(c, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	err = f(context.WithValue(c, ctxTransactionKey{}, tx))
	if err != nil {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			return errors.Join(err, rollbackErr)
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func (s *sqliteStore[T]) Put(c context.Context, uid string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error marshalling value with uid %s: %w", uid, err)
	}

	_, err = s.conn(c).ExecContext(c,
		`INSERT INTO documents (uid, value) VALUES (?, ?)
		 ON CONFLICT (uid) DO UPDATE SET value = excluded.value`,
		uid, string(data))
	if err != nil {
		return fmt.Errorf("error storing value with uid %s: %w", uid, err)
	}

	return nil
}

func (s *sqliteStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	var value T

	var data string
	err := sqlx.GetContext(c, s.conn(c), &data, `SELECT value FROM documents WHERE uid = ?`, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("error fetching value with uid %s: %w", uid, err)
	}

	err = json.Unmarshal([]byte(data), &value)
	if err != nil {
		return value, false, fmt.Errorf("error unmarshalling value with uid %s: %w", uid, err)
	}

	return value, true, nil
}
