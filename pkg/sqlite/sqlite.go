package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

const _defaultPragmas = "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"

type SQLite struct {
	Builder squirrel.StatementBuilderType
	DB      *sql.DB
}

func New(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?"+_defaultPragmas)
	if err != nil {
		return nil, fmt.Errorf("SQLite - New - sql.Open: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("SQLite - New - db.PingContext: %w", err)
	}

	return &SQLite{
		Builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		DB:      db,
	}, nil
}

func (s *SQLite) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
