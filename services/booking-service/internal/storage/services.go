package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/agenda/libs/db"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"
)

const serviceColumns = `id::text, company_id, name, duration_minutes, price::text, active, created_at, updated_at`

func scanService(row pgx.Row) (model.Service, error) {
	var svc model.Service
	err := row.Scan(
		&svc.ID,
		&svc.CompanyID,
		&svc.Name,
		&svc.DurationMinutes,
		&svc.Price,
		&svc.Active,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	)
	return svc, err
}

func (s *Store) GetService(ctx context.Context, serviceID string) (model.Service, error) {
	svc, err := scanService(s.pool.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE id = $1
	`, serviceID))
	if err != nil {
		return model.Service{}, notFound(err, "service", serviceID)
	}
	return svc, nil
}

func (s *Store) ListServices(ctx context.Context, companyID string) ([]model.Service, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE company_id = $1
		ORDER BY name ASC, created_at ASC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []model.Service{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return services, nil
}

func (s *Store) CreateService(ctx context.Context, svc model.Service) (model.Service, error) {
	created, err := scanService(s.pool.QueryRow(ctx, `
		INSERT INTO services (id, company_id, name, duration_minutes, price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
		RETURNING `+serviceColumns+`
	`, svc.ID, svc.CompanyID, svc.Name, svc.DurationMinutes, svc.Price, svc.Active, svc.CreatedAt, svc.UpdatedAt))
	if err != nil {
		if db.HasCode(err, db.CodeForeignKeyViolation) {
			return model.Service{}, fmt.Errorf("company %s: %w", svc.CompanyID, booking.ErrNotFound)
		}
		return model.Service{}, err
	}
	return created, nil
}

func (s *Store) UpdateService(ctx context.Context, companyID, serviceID string, patch model.ServicePatch) (model.Service, error) {
	svc, err := scanService(s.pool.QueryRow(ctx, `
		UPDATE services
		SET name = COALESCE($3, name),
			duration_minutes = COALESCE($4, duration_minutes),
			price = COALESCE($5::numeric, price),
			active = COALESCE($6, active),
			updated_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING `+serviceColumns+`
	`, serviceID, companyID, patch.Name, patch.DurationMinutes, patch.Price, patch.Active))
	if err != nil {
		return model.Service{}, notFound(err, "service", serviceID)
	}
	return svc, nil
}
