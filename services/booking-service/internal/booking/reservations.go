package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
)

type NewReservation struct {
	ClientID  string
	CompanyID string
	ServiceID string
	Date      string
	StartTime string
	Notes     string
	// IdempotencyKey makes retries of the same request return the first reservation.
	IdempotencyKey string
}

// CreateReservation validates the requested slot against the company's hours and active reservations
// and persists it as pending. The final overlap check happens inside the store's atomic insert.
func (e *Engine) CreateReservation(ctx context.Context, req NewReservation) (res model.Reservation, err error) {
	ctx, span := tracer.Start(ctx, "booking.CreateReservation")
	span.SetAttributes(
		attribute.String("company_id", req.CompanyID),
		attribute.String("service_id", req.ServiceID),
		attribute.String("date", req.Date),
		attribute.String("start_time", req.StartTime),
	)
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(req.ClientID) == "" {
		return model.Reservation{}, fmt.Errorf("client id is required: %w", ErrInvalidInput)
	}
	day, err := parseDate(req.Date)
	if err != nil {
		return model.Reservation{}, err
	}
	start, err := availability.ParseStart(req.StartTime)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("start time: %v: %w", err, ErrInvalidInput)
	}

	if req.IdempotencyKey != "" {
		prev, err := e.store.FindByIdempotencyKey(ctx, req.ClientID, req.IdempotencyKey)
		switch {
		case err == nil:
			span.SetAttributes(attribute.Bool("idempotent_replay", true))
			return replay(prev, req, start)
		case !errors.Is(err, ErrNotFound):
			return model.Reservation{}, err
		}
	}

	svc, err := e.bookableService(ctx, req.CompanyID, req.ServiceID)
	if err != nil {
		return model.Reservation{}, err
	}
	hours, open, err := e.openHours(ctx, req.CompanyID, day)
	if err != nil {
		return model.Reservation{}, err
	}
	if !open {
		return model.Reservation{}, e.reject(ctx, req, "company is closed on this day")
	}
	if !availability.OnGrid(hours, start, svc.DurationMinutes, e.step) {
		return model.Reservation{}, e.reject(ctx, req, "start is not a slot of this day")
	}

	candidate := availability.Interval{Start: start, End: start.Add(svc.DurationMinutes)}
	active, err := e.store.ListActiveReservations(ctx, req.CompanyID, req.Date)
	if err != nil {
		return model.Reservation{}, err
	}
	if availability.HasConflict(candidate, intervals(active)) {
		return model.Reservation{}, e.reject(ctx, req, "slot overlaps an active reservation")
	}

	now := e.now().UTC()
	id := uuid.NewString()
	res, err = e.store.InsertReservation(ctx, model.Reservation{
		ID:             id,
		ClientID:       req.ClientID,
		CompanyID:      req.CompanyID,
		ServiceID:      req.ServiceID,
		Date:           req.Date,
		Start:          candidate.Start,
		End:            candidate.End,
		Status:         model.StatusPending,
		Price:          svc.Price,
		Notes:          req.Notes,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			e.logger.InfoContext(ctx, "reservation lost race for slot",
				"company_id", req.CompanyID,
				"date", req.Date,
				"start_time", req.StartTime,
			)
		}
		return model.Reservation{}, err
	}
	if res.ID != id {
		// A concurrent request with the same key committed first.
		span.SetAttributes(attribute.Bool("idempotent_replay", true))
		return replay(res, req, start)
	}

	e.logger.InfoContext(ctx, "reservation created",
		"reservation_id", res.ID,
		"company_id", res.CompanyID,
		"service_id", res.ServiceID,
		"date", res.Date,
		"start_time", res.Start.String(),
	)
	return res, nil
}

// replay answers a retried request with the reservation its idempotency key produced. A key first
// used for another company, service, date or start is a conflict, not a retry.
func replay(prev model.Reservation, req NewReservation, start availability.Clock) (model.Reservation, error) {
	if prev.CompanyID != req.CompanyID || prev.ServiceID != req.ServiceID || prev.Date != req.Date || prev.Start != start {
		return model.Reservation{}, fmt.Errorf("key %q already booked %s %s %s: %w",
			req.IdempotencyKey, prev.CompanyID, prev.Date, prev.Start, ErrIdempotencyConflict)
	}
	return prev, nil
}

func (e *Engine) reject(ctx context.Context, req NewReservation, reason string) error {
	e.logger.InfoContext(ctx, "reservation rejected",
		"reason", reason,
		"company_id", req.CompanyID,
		"service_id", req.ServiceID,
		"date", req.Date,
		"start_time", req.StartTime,
	)
	return fmt.Errorf("%s %s: %s: %w", req.Date, req.StartTime, reason, ErrSlotUnavailable)
}

// UpdateReservationStatus moves a reservation along the status machine. A non-empty companyID limits the
// update to that company's reservations.
func (e *Engine) UpdateReservationStatus(ctx context.Context, companyID, reservationID string, next model.Status) (res model.Reservation, err error) {
	ctx, span := tracer.Start(ctx, "booking.UpdateReservationStatus")
	span.SetAttributes(
		attribute.String("reservation_id", reservationID),
		attribute.String("status", string(next)),
	)
	defer func() { endSpan(span, err) }()

	if !next.Valid() {
		return model.Reservation{}, fmt.Errorf("status %q: %w", next, ErrInvalidInput)
	}
	cur, err := e.store.GetReservation(ctx, reservationID)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("get reservation %s: %w", reservationID, err)
	}
	if companyID != "" && cur.CompanyID != companyID {
		return model.Reservation{}, fmt.Errorf("reservation %s: %w", reservationID, ErrNotFound)
	}
	if !CanTransition(cur.Status, next) {
		return model.Reservation{}, fmt.Errorf("%s -> %s: %w", cur.Status, next, ErrInvalidTransition)
	}

	res, err = e.store.UpdateReservationStatus(ctx, reservationID, cur.Status, next)
	if err != nil {
		return model.Reservation{}, err
	}
	e.logger.InfoContext(ctx, "reservation status changed",
		"reservation_id", res.ID,
		"company_id", res.CompanyID,
		"from", string(cur.Status),
		"to", string(res.Status),
	)
	return res, nil
}

// GetClientReservation returns one of the client's reservations. Another client's reservation reads
// as not found.
func (e *Engine) GetClientReservation(ctx context.Context, clientID, reservationID string) (model.Reservation, error) {
	return e.getScoped(ctx, reservationID, func(r model.Reservation) bool { return r.ClientID == clientID })
}

// GetCompanyReservation returns one of the company's reservations. Another company's reservation
// reads as not found.
func (e *Engine) GetCompanyReservation(ctx context.Context, companyID, reservationID string) (model.Reservation, error) {
	return e.getScoped(ctx, reservationID, func(r model.Reservation) bool { return r.CompanyID == companyID })
}

func (e *Engine) getScoped(ctx context.Context, reservationID string, visible func(model.Reservation) bool) (model.Reservation, error) {
	r, err := e.store.GetReservation(ctx, reservationID)
	if err != nil {
		return model.Reservation{}, err
	}
	if !visible(r) {
		return model.Reservation{}, fmt.Errorf("reservation %s: %w", reservationID, ErrNotFound)
	}
	return r, nil
}

// ListClientReservations returns the client's reservations ordered by date then start.
func (e *Engine) ListClientReservations(ctx context.Context, clientID string) ([]model.Reservation, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, fmt.Errorf("client id is required: %w", ErrInvalidInput)
	}
	return e.store.ListByClient(ctx, clientID)
}

// ListCompanyReservations returns the company's reservations ordered by date then start.
func (e *Engine) ListCompanyReservations(ctx context.Context, companyID string, filter model.ReservationFilter) ([]model.Reservation, error) {
	if filter.Date != "" {
		if _, err := parseDate(filter.Date); err != nil {
			return nil, err
		}
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("status %q: %w", filter.Status, ErrInvalidInput)
	}
	return e.store.ListByCompany(ctx, companyID, filter)
}
