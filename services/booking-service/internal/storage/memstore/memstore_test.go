package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetWeeklySchedule(ctx, "c1")
	require.ErrorIs(t, err, booking.ErrNotFound)

	require.NoError(t, s.EnsureCompany(ctx, "c1", availability.DefaultSchedule()))
	require.NoError(t, s.EnsureCompany(ctx, "c1", availability.WeeklySchedule{}))
	got, err := s.GetWeeklySchedule(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "08:00-18:00", got[time.Monday], "EnsureCompany must not overwrite")

	got[time.Monday] = "changed"
	again, _ := s.GetWeeklySchedule(ctx, "c1")
	assert.Equal(t, "08:00-18:00", again[time.Monday], "callers get a copy")
}

func TestCreateServiceRequiresCompany(t *testing.T) {
	_, err := New().CreateService(context.Background(), model.Service{ID: "s1", CompanyID: "ghost"})
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestUpdateServiceScopedToCompany(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.EnsureCompany(ctx, "c1", availability.DefaultSchedule()))
	_, err := s.CreateService(ctx, model.Service{ID: "s1", CompanyID: "c1", Name: "Cut", DurationMinutes: 30, Price: "10.00", Active: true})
	require.NoError(t, err)

	off := false
	_, err = s.UpdateService(ctx, "c2", "s1", model.ServicePatch{Active: &off})
	require.ErrorIs(t, err, booking.ErrNotFound)

	svc, err := s.UpdateService(ctx, "c1", "s1", model.ServicePatch{Active: &off})
	require.NoError(t, err)
	assert.False(t, svc.Active)
	assert.Equal(t, "Cut", svc.Name)
}

func TestInsertReservationRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := model.Reservation{CompanyID: "c1", Date: "2026-03-02", Status: model.StatusPending}

	first := base
	first.ID, first.Start, first.End = "r1", 600, 660
	_, err := s.InsertReservation(ctx, first)
	require.NoError(t, err)

	overlap := base
	overlap.ID, overlap.Start, overlap.End = "r2", 630, 690
	_, err = s.InsertReservation(ctx, overlap)
	require.ErrorIs(t, err, booking.ErrSlotUnavailable)

	otherDay := overlap
	otherDay.Date = "2026-03-03"
	_, err = s.InsertReservation(ctx, otherDay)
	require.NoError(t, err)
}

func TestUpdateReservationStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.InsertReservation(ctx, model.Reservation{ID: "r1", CompanyID: "c1", Date: "2026-03-02", Start: 600, End: 660, Status: model.StatusPending})
	require.NoError(t, err)

	_, err = s.UpdateReservationStatus(ctx, "r1", model.StatusPending, model.StatusCancelled)
	require.NoError(t, err)

	_, err = s.UpdateReservationStatus(ctx, "r1", model.StatusPending, model.StatusConfirmed)
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)

	_, err = s.UpdateReservationStatus(ctx, "nope", model.StatusPending, model.StatusConfirmed)
	assert.ErrorIs(t, err, booking.ErrNotFound)
}
