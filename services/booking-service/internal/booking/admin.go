package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"
)

func (e *Engine) GetSchedule(ctx context.Context, companyID string) (availability.WeeklySchedule, error) {
	return e.store.GetWeeklySchedule(ctx, companyID)
}

// PutSchedule replaces the company's weekly hours. Existing reservations are left untouched.
func (e *Engine) PutSchedule(ctx context.Context, companyID string, schedule availability.WeeklySchedule) error {
	if err := schedule.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	if err := e.store.PutWeeklySchedule(ctx, companyID, schedule); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "company schedule updated", "company_id", companyID)
	return nil
}

type NewService struct {
	CompanyID       string
	Name            string
	DurationMinutes int
	Price           string
}

// CreateService adds an active service. A company seen for the first time gets the default schedule.
func (e *Engine) CreateService(ctx context.Context, req NewService) (model.Service, error) {
	if err := validateService(req.Name, req.DurationMinutes, req.Price); err != nil {
		return model.Service{}, err
	}
	if err := e.store.EnsureCompany(ctx, req.CompanyID, availability.DefaultSchedule()); err != nil {
		return model.Service{}, err
	}
	now := e.now().UTC()
	svc, err := e.store.CreateService(ctx, model.Service{
		ID:              uuid.NewString(),
		CompanyID:       req.CompanyID,
		Name:            strings.TrimSpace(req.Name),
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return model.Service{}, err
	}
	e.logger.InfoContext(ctx, "service created", "company_id", svc.CompanyID, "service_id", svc.ID)
	return svc, nil
}

// CompanyProfile is the public view of a company: its weekly hours, slot step and the services a
// client can book. Inactive services are left out.
func (e *Engine) CompanyProfile(ctx context.Context, companyID string) (model.Company, error) {
	schedule, err := e.store.GetWeeklySchedule(ctx, companyID)
	if err != nil {
		return model.Company{}, err
	}
	all, err := e.store.ListServices(ctx, companyID)
	if err != nil {
		return model.Company{}, err
	}
	services := make([]model.Service, 0, len(all))
	for _, svc := range all {
		if svc.Active {
			services = append(services, svc)
		}
	}
	return model.Company{ID: companyID, Schedule: schedule, StepMinutes: e.step, Services: services}, nil
}

func (e *Engine) ListServices(ctx context.Context, companyID string) ([]model.Service, error) {
	return e.store.ListServices(ctx, companyID)
}

// UpdateService changes a service. Reservations already made keep their end time and price snapshot.
func (e *Engine) UpdateService(ctx context.Context, companyID, serviceID string, patch model.ServicePatch) (model.Service, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return model.Service{}, fmt.Errorf("name must not be empty: %w", ErrInvalidInput)
	}
	if patch.DurationMinutes != nil && (*patch.DurationMinutes <= 0 || *patch.DurationMinutes > availability.MinutesPerDay) {
		return model.Service{}, fmt.Errorf("duration %d out of range: %w", *patch.DurationMinutes, ErrInvalidInput)
	}
	if patch.Price != nil && !model.ValidPrice(*patch.Price) {
		return model.Service{}, fmt.Errorf("price %q: %w", *patch.Price, ErrInvalidInput)
	}
	svc, err := e.store.UpdateService(ctx, companyID, serviceID, patch)
	if err != nil {
		return model.Service{}, err
	}
	e.logger.InfoContext(ctx, "service updated", "company_id", companyID, "service_id", serviceID)
	return svc, nil
}

func validateService(name string, duration int, price string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("name must not be empty: %w", ErrInvalidInput)
	case duration <= 0 || duration > availability.MinutesPerDay:
		return fmt.Errorf("duration %d out of range: %w", duration, ErrInvalidInput)
	case !model.ValidPrice(price):
		return fmt.Errorf("price %q: %w", price, ErrInvalidInput)
	}
	return nil
}
