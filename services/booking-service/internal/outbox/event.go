package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"
)

const AggregateReservation = "reservation"

// Event types double as Kafka topics.
const (
	EventReservationCreated       = "booking.reservation.created.v1"
	EventReservationStatusChanged = "booking.reservation.status_changed.v1"
)

type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type ReservationPayload struct {
	ReservationID  string    `json:"reservation_id"`
	ClientID       string    `json:"client_id"`
	CompanyID      string    `json:"company_id"`
	ServiceID      string    `json:"service_id"`
	Date           string    `json:"date"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Price          string    `json:"price"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func ReservationCreated(r model.Reservation) (Event, error) {
	return reservationEvent(EventReservationCreated, r, "", r.CreatedAt)
}

func ReservationStatusChanged(r model.Reservation, from model.Status) (Event, error) {
	return reservationEvent(EventReservationStatusChanged, r, from, r.UpdatedAt)
}

func reservationEvent(eventType string, r model.Reservation, from model.Status, at time.Time) (Event, error) {
	payload, err := json.Marshal(ReservationPayload{
		ReservationID:  r.ID,
		ClientID:       r.ClientID,
		CompanyID:      r.CompanyID,
		ServiceID:      r.ServiceID,
		Date:           r.Date,
		StartTime:      r.Start.String(),
		EndTime:        r.End.String(),
		Status:         string(r.Status),
		PreviousStatus: string(from),
		Price:          r.Price,
		OccurredAt:     at.UTC(),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateReservation,
		AggregateID:   r.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
