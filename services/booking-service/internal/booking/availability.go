package booking

import (
	"context"

	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
	"go.opentelemetry.io/otel/attribute"
)

// GetAvailableSlots lists every grid slot of date for the service, flagging the ones that overlap
// an active reservation. A closed day yields an empty list.
func (e *Engine) GetAvailableSlots(ctx context.Context, companyID, serviceID, date string) (slots []availability.Slot, err error) {
	ctx, span := tracer.Start(ctx, "booking.GetAvailableSlots")
	span.SetAttributes(
		attribute.String("company_id", companyID),
		attribute.String("service_id", serviceID),
		attribute.String("date", date),
	)
	defer func() { endSpan(span, err) }()

	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	svc, err := e.bookableService(ctx, companyID, serviceID)
	if err != nil {
		return nil, err
	}
	hours, open, err := e.openHours(ctx, companyID, day)
	if err != nil {
		return nil, err
	}
	if !open {
		return []availability.Slot{}, nil
	}

	active, err := e.store.ListActiveReservations(ctx, companyID, date)
	if err != nil {
		return nil, err
	}

	candidates := availability.GenerateSlots(hours, svc.DurationMinutes, e.step)
	slots = availability.MarkAvailability(candidates, intervals(active))
	span.SetAttributes(attribute.Int("slots", len(slots)))
	return slots, nil
}
