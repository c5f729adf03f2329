package db

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending goose migration found at dir inside fsys. It opens a short-lived
// database/sql handle from the pool's connection config; the pool itself is left untouched.
func Migrate(ctx context.Context, pool *Pool, fsys fs.FS, dir string) error {
	if pool == nil || pool.Pool == nil {
		return fmt.Errorf("migrate: db not configured")
	}
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
