package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("booking")

type Options struct {
	// Step is the slot grid spacing in minutes. Zero means availability.DefaultStep.
	Step   int
	Logger *slog.Logger
	Now    func() time.Time
}

// Engine computes availability and writes reservations. It holds no per-request state.
type Engine struct {
	store  Store
	step   int
	logger *slog.Logger
	now    func() time.Time
}

func NewEngine(store Store, opts Options) *Engine {
	if opts.Step <= 0 {
		opts.Step = availability.DefaultStep
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{store: store, step: opts.Step, logger: opts.Logger, now: opts.Now}
}

func (e *Engine) Step() int { return e.step }

// bookableService loads a service and checks that companyID may sell it.
// An inactive service and one owned by another company both read as not found.
func (e *Engine) bookableService(ctx context.Context, companyID, serviceID string) (model.Service, error) {
	svc, err := e.store.GetService(ctx, serviceID)
	if err != nil {
		return model.Service{}, fmt.Errorf("get service %s: %w", serviceID, err)
	}
	if svc.CompanyID != companyID {
		return model.Service{}, fmt.Errorf("service %s does not belong to company %s: %w", serviceID, companyID, ErrNotFound)
	}
	if !svc.Active {
		return model.Service{}, fmt.Errorf("service %s is inactive: %w", serviceID, ErrNotFound)
	}
	if svc.DurationMinutes <= 0 {
		return model.Service{}, fmt.Errorf("service %s has duration %d: %w", serviceID, svc.DurationMinutes, ErrConfiguration)
	}
	return svc, nil
}

// openHours resolves the company's hours for date. open is false on a closed day.
func (e *Engine) openHours(ctx context.Context, companyID string, date time.Time) (availability.Interval, bool, error) {
	schedule, err := e.store.GetWeeklySchedule(ctx, companyID)
	if err != nil {
		return availability.Interval{}, false, fmt.Errorf("get schedule for company %s: %w", companyID, err)
	}
	hours, open, err := schedule.Resolve(date)
	if err != nil {
		e.logger.ErrorContext(ctx, "company schedule is malformed",
			"company_id", companyID,
			"weekday", date.Weekday().String(),
			"err", err,
		)
		return availability.Interval{}, false, fmt.Errorf("company %s: %v: %w", companyID, err, ErrConfiguration)
	}
	return hours, open, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD: %w", s, ErrInvalidInput)
	}
	return d, nil
}

func intervals(rs []model.Reservation) []availability.Interval {
	out := make([]availability.Interval, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Interval())
	}
	return out
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorKind(err))
	}
	span.End()
}

// errorKind names the sentinel behind err for spans and logs.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
