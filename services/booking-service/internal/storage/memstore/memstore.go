// Package memstore keeps companies, services and reservations in process memory. It backs
// STORAGE_DRIVER=memory and the engine tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"
)

type Store struct {
	mu           sync.RWMutex
	schedules    map[string]availability.WeeklySchedule
	services     map[string]model.Service
	reservations map[string]model.Reservation
	now          func() time.Time
}

var _ booking.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		schedules:    map[string]availability.WeeklySchedule{},
		services:     map[string]model.Service{},
		reservations: map[string]model.Reservation{},
		now:          time.Now,
	}
}

func cloneSchedule(s availability.WeeklySchedule) availability.WeeklySchedule {
	out := make(availability.WeeklySchedule, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func (s *Store) GetWeeklySchedule(_ context.Context, companyID string) (availability.WeeklySchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sched, ok := s.schedules[companyID]
	if !ok {
		return nil, fmt.Errorf("company %s: %w", companyID, booking.ErrNotFound)
	}
	return cloneSchedule(sched), nil
}

func (s *Store) PutWeeklySchedule(_ context.Context, companyID string, schedule availability.WeeklySchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[companyID] = cloneSchedule(schedule)
	return nil
}

func (s *Store) EnsureCompany(_ context.Context, companyID string, schedule availability.WeeklySchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[companyID]; !ok {
		s.schedules[companyID] = cloneSchedule(schedule)
	}
	return nil
}

func (s *Store) GetService(_ context.Context, serviceID string) (model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[serviceID]
	if !ok {
		return model.Service{}, fmt.Errorf("service %s: %w", serviceID, booking.ErrNotFound)
	}
	return svc, nil
}

func (s *Store) ListServices(_ context.Context, companyID string) ([]model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Service{}
	for _, svc := range s.services {
		if svc.CompanyID == companyID {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateService(_ context.Context, svc model.Service) (model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[svc.CompanyID]; !ok {
		return model.Service{}, fmt.Errorf("company %s: %w", svc.CompanyID, booking.ErrNotFound)
	}
	s.services[svc.ID] = svc
	return svc, nil
}

func (s *Store) UpdateService(_ context.Context, companyID, serviceID string, patch model.ServicePatch) (model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[serviceID]
	if !ok || svc.CompanyID != companyID {
		return model.Service{}, fmt.Errorf("service %s: %w", serviceID, booking.ErrNotFound)
	}
	if patch.Name != nil {
		svc.Name = *patch.Name
	}
	if patch.DurationMinutes != nil {
		svc.DurationMinutes = *patch.DurationMinutes
	}
	if patch.Price != nil {
		svc.Price = *patch.Price
	}
	if patch.Active != nil {
		svc.Active = *patch.Active
	}
	svc.UpdatedAt = s.now().UTC()
	s.services[serviceID] = svc
	return svc, nil
}

func (s *Store) ListActiveReservations(_ context.Context, companyID, date string) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(r model.Reservation) bool {
		return r.CompanyID == companyID && r.Date == date && r.Status.Active()
	}, 0), nil
}

// InsertReservation checks and inserts under the write lock, so at most one of several overlapping
// concurrent inserts succeeds.
func (s *Store) InsertReservation(_ context.Context, r model.Reservation) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.IdempotencyKey != "" {
		if prev, ok := s.byIdempotencyKey(r.ClientID, r.IdempotencyKey); ok {
			return prev, nil
		}
	}
	for _, existing := range s.reservations {
		if existing.CompanyID != r.CompanyID || existing.Date != r.Date || !existing.Status.Active() {
			continue
		}
		if availability.Overlaps(existing.Interval(), r.Interval()) {
			return model.Reservation{}, fmt.Errorf("%s %s-%s: %w", r.Date, r.Start, r.End, booking.ErrSlotUnavailable)
		}
	}
	s.reservations[r.ID] = r
	return r, nil
}

func (s *Store) GetReservation(_ context.Context, reservationID string) (model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[reservationID]
	if !ok {
		return model.Reservation{}, fmt.Errorf("reservation %s: %w", reservationID, booking.ErrNotFound)
	}
	return r, nil
}

func (s *Store) FindByIdempotencyKey(_ context.Context, clientID, key string) (model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.byIdempotencyKey(clientID, key); ok {
		return r, nil
	}
	return model.Reservation{}, fmt.Errorf("idempotency key %s: %w", key, booking.ErrNotFound)
}

func (s *Store) UpdateReservationStatus(_ context.Context, reservationID string, from, to model.Status) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[reservationID]
	if !ok {
		return model.Reservation{}, fmt.Errorf("reservation %s: %w", reservationID, booking.ErrNotFound)
	}
	if r.Status != from {
		return model.Reservation{}, fmt.Errorf("reservation %s is no longer %s: %w", reservationID, from, booking.ErrInvalidTransition)
	}
	r.Status = to
	r.UpdatedAt = s.now().UTC()
	s.reservations[reservationID] = r
	return r, nil
}

func (s *Store) ListByClient(_ context.Context, clientID string) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(r model.Reservation) bool { return r.ClientID == clientID }, 0), nil
}

func (s *Store) ListByCompany(_ context.Context, companyID string, f model.ReservationFilter) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(r model.Reservation) bool {
		return r.CompanyID == companyID &&
			(f.Date == "" || r.Date == f.Date) &&
			(f.Status == "" || r.Status == f.Status)
	}, f.Limit), nil
}

// filter returns matching reservations ordered by date then start. Caller holds mu.
func (s *Store) filter(keep func(model.Reservation) bool, limit int) []model.Reservation {
	out := []model.Reservation{}
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// byIdempotencyKey looks up an earlier reservation by client and key. Caller holds mu.
func (s *Store) byIdempotencyKey(clientID, key string) (model.Reservation, bool) {
	for _, r := range s.reservations {
		if r.ClientID == clientID && r.IdempotencyKey == key {
			return r, true
		}
	}
	return model.Reservation{}, false
}
