package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/booking"
)

func (s *Store) GetWeeklySchedule(ctx context.Context, companyID string) (availability.WeeklySchedule, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT schedule FROM companies WHERE id = $1`, companyID).Scan(&raw)
	if err != nil {
		return nil, notFound(err, "company", companyID)
	}
	var schedule availability.WeeklySchedule
	if err := json.Unmarshal(raw, &schedule); err != nil {
		return nil, fmt.Errorf("company %s schedule: %v: %w", companyID, err, booking.ErrConfiguration)
	}
	return schedule, nil
}

func (s *Store) PutWeeklySchedule(ctx context.Context, companyID string, schedule availability.WeeklySchedule) error {
	raw, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO companies (id, schedule)
		VALUES ($1, $2)
		ON CONFLICT (id)
		DO UPDATE SET schedule = EXCLUDED.schedule,
		              updated_at = now()
	`, companyID, raw)
	return err
}

func (s *Store) EnsureCompany(ctx context.Context, companyID string, schedule availability.WeeklySchedule) error {
	raw, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO companies (id, schedule)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, companyID, raw)
	return err
}
