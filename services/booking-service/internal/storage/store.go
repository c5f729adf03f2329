// Package storage is the Postgres implementation of the booking repositories.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/agenda/libs/db"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/storage/migrations"
)

type Store struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

var _ booking.Store = (*Store)(nil)

func New(pool *db.Pool, events *outbox.Repository) *Store {
	return &Store{pool: pool, outbox: events}
}

// Migrate applies the embedded schema.
func Migrate(ctx context.Context, pool *db.Pool) error {
	return db.Migrate(ctx, pool, migrations.FS, migrations.Dir)
}

// inTx runs fn in a transaction and commits when fn returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// notFound maps a missing row, or an id that is not even a valid uuid, to booking.ErrNotFound.
func notFound(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) || db.HasCode(err, db.CodeInvalidText) {
		return fmt.Errorf("%s %s: %w", what, id, booking.ErrNotFound)
	}
	return err
}
