package booking

import (
	"context"

	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"
)

// Repositories report missing rows with ErrNotFound.

type ServiceRepository interface {
	GetService(ctx context.Context, serviceID string) (model.Service, error)
	ListServices(ctx context.Context, companyID string) ([]model.Service, error)
	CreateService(ctx context.Context, svc model.Service) (model.Service, error)
	UpdateService(ctx context.Context, companyID, serviceID string, patch model.ServicePatch) (model.Service, error)
}

type ScheduleRepository interface {
	GetWeeklySchedule(ctx context.Context, companyID string) (availability.WeeklySchedule, error)
	// PutWeeklySchedule creates the company when it does not exist yet.
	PutWeeklySchedule(ctx context.Context, companyID string, schedule availability.WeeklySchedule) error
	// EnsureCompany creates the company with the given schedule unless it already exists.
	EnsureCompany(ctx context.Context, companyID string, schedule availability.WeeklySchedule) error
}

type ReservationRepository interface {
	ListActiveReservations(ctx context.Context, companyID, date string) ([]model.Reservation, error)
	// InsertReservation re-checks for overlapping active reservations and inserts atomically,
	// returning ErrSlotUnavailable when another reservation holds the interval. When the
	// reservation carries an idempotency key already used by the same client, the earlier
	// reservation is returned instead, whatever slot it holds.
	InsertReservation(ctx context.Context, r model.Reservation) (model.Reservation, error)
	GetReservation(ctx context.Context, reservationID string) (model.Reservation, error)
	FindByIdempotencyKey(ctx context.Context, clientID, key string) (model.Reservation, error)
	// UpdateReservationStatus sets to only while the stored status still equals from,
	// otherwise it returns ErrInvalidTransition.
	UpdateReservationStatus(ctx context.Context, reservationID string, from, to model.Status) (model.Reservation, error)
	ListByClient(ctx context.Context, clientID string) ([]model.Reservation, error)
	ListByCompany(ctx context.Context, companyID string, filter model.ReservationFilter) ([]model.Reservation, error)
}

// Store is everything the engine needs from persistence.
type Store interface {
	ServiceRepository
	ScheduleRepository
	ReservationRepository
}
