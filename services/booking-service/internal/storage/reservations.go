package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/agenda/libs/db"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/outbox"
)

const reservationColumns = `id::text, client_id, company_id, service_id::text, reservation_date, start_minute, end_minute,
	status, price::text, notes, COALESCE(idempotency_key, ''), created_at, updated_at`

func scanReservation(row pgx.Row) (model.Reservation, error) {
	var (
		r          model.Reservation
		day        time.Time
		start, end int
		status     string
	)
	err := row.Scan(
		&r.ID,
		&r.ClientID,
		&r.CompanyID,
		&r.ServiceID,
		&day,
		&start,
		&end,
		&status,
		&r.Price,
		&r.Notes,
		&r.IdempotencyKey,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return model.Reservation{}, err
	}
	r.Date = day.Format(model.DateLayout)
	r.Start = availability.Clock(start)
	r.End = availability.Clock(end)
	r.Status = model.Status(status)
	return r, nil
}

// activeStatuses is model.ActiveStatuses as a text[] argument. The exclusion constraint in the
// migration lists the same statuses.
func activeStatuses() []string {
	out := make([]string, len(model.ActiveStatuses))
	for i, st := range model.ActiveStatuses {
		out[i] = string(st)
	}
	return out
}

func collectReservations(rows pgx.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (s *Store) ListActiveReservations(ctx context.Context, companyID, date string) ([]model.Reservation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE company_id = $1
			AND reservation_date = $2::date
			AND status = ANY($3)
		ORDER BY start_minute ASC
	`, companyID, date, activeStatuses())
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// InsertReservation serialises writers for one company and date with a transaction-scoped advisory
// lock, re-checks for overlaps under it and inserts the row together with its outbox event. The
// exclusion constraint on reservations backs this up for writers that bypass the lock.
func (s *Store) InsertReservation(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	var out model.Reservation
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`, r.CompanyID, r.Date); err != nil {
			return fmt.Errorf("lock company day: %w", err)
		}

		if r.IdempotencyKey != "" {
			prev, err := scanReservation(tx.QueryRow(ctx, `
				SELECT `+reservationColumns+`
				FROM reservations
				WHERE client_id = $1 AND idempotency_key = $2
			`, r.ClientID, r.IdempotencyKey))
			if err == nil {
				out = prev
				return nil
			}
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
		}

		var taken bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1
				FROM reservations
				WHERE company_id = $1
					AND reservation_date = $2::date
					AND status = ANY($5)
					AND start_minute < $4
					AND end_minute > $3
			)
		`, r.CompanyID, r.Date, r.Start.Minutes(), r.End.Minutes(), activeStatuses()).Scan(&taken)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%s %s-%s: %w", r.Date, r.Start, r.End, booking.ErrSlotUnavailable)
		}

		inserted, err := scanReservation(tx.QueryRow(ctx, `
			INSERT INTO reservations
				(id, client_id, company_id, service_id, reservation_date, start_minute, end_minute,
				 status, price, notes, idempotency_key, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9::numeric, $10, NULLIF($11, ''), $12, $13)
			RETURNING `+reservationColumns+`
		`, r.ID, r.ClientID, r.CompanyID, r.ServiceID, r.Date, r.Start.Minutes(), r.End.Minutes(),
			string(r.Status), r.Price, r.Notes, r.IdempotencyKey, r.CreatedAt, r.UpdatedAt))
		if err != nil {
			if db.HasCode(err, db.CodeExclusionViolation) {
				return fmt.Errorf("%s %s-%s: %w", r.Date, r.Start, r.End, booking.ErrSlotUnavailable)
			}
			return err
		}

		evt, err := outbox.ReservationCreated(inserted)
		if err != nil {
			return err
		}
		if err := s.outbox.Insert(ctx, tx, evt); err != nil {
			return err
		}
		out = inserted
		return nil
	})
	if err != nil {
		// A concurrent request with the same key on another day won the unique index.
		if r.IdempotencyKey != "" && db.HasCode(err, db.CodeUniqueViolation) {
			return s.FindByIdempotencyKey(ctx, r.ClientID, r.IdempotencyKey)
		}
		return model.Reservation{}, err
	}
	return out, nil
}

func (s *Store) GetReservation(ctx context.Context, reservationID string) (model.Reservation, error) {
	r, err := scanReservation(s.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1
	`, reservationID))
	if err != nil {
		return model.Reservation{}, notFound(err, "reservation", reservationID)
	}
	return r, nil
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, clientID, key string) (model.Reservation, error) {
	r, err := scanReservation(s.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE client_id = $1 AND idempotency_key = $2
	`, clientID, key))
	if err != nil {
		return model.Reservation{}, notFound(err, "idempotency key", key)
	}
	return r, nil
}

// UpdateReservationStatus is a compare-and-set on the current status, so two concurrent transitions
// from the same status cannot both succeed.
func (s *Store) UpdateReservationStatus(ctx context.Context, reservationID string, from, to model.Status) (model.Reservation, error) {
	var out model.Reservation
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		updated, err := scanReservation(tx.QueryRow(ctx, `
			UPDATE reservations
			SET status = $3,
				updated_at = now()
			WHERE id = $1 AND status = $2
			RETURNING `+reservationColumns+`
		`, reservationID, string(from), string(to)))
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, reservationID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("reservation %s: %w", reservationID, booking.ErrNotFound)
			}
			return fmt.Errorf("reservation %s is no longer %s: %w", reservationID, from, booking.ErrInvalidTransition)
		}
		if err != nil {
			return err
		}

		evt, err := outbox.ReservationStatusChanged(updated, from)
		if err != nil {
			return err
		}
		if err := s.outbox.Insert(ctx, tx, evt); err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return out, nil
}

func (s *Store) ListByClient(ctx context.Context, clientID string) ([]model.Reservation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE client_id = $1
		ORDER BY reservation_date ASC, start_minute ASC
	`, clientID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (s *Store) ListByCompany(ctx context.Context, companyID string, filter model.ReservationFilter) ([]model.Reservation, error) {
	var (
		where = []string{"company_id = $1"}
		args  = []any{companyID}
	)
	if filter.Date != "" {
		args = append(args, filter.Date)
		where = append(where, fmt.Sprintf("reservation_date = $%d::date", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY reservation_date ASC, start_minute ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}
