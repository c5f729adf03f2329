package model

import (
	"slices"
	"time"

	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
)

// DateLayout is the wire and storage format of a reservation date.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ActiveStatuses are the statuses that occupy time on the calendar.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func (s Status) Active() bool {
	return slices.Contains(ActiveStatuses, s)
}

type Reservation struct {
	ID             string             `json:"id"`
	ClientID       string             `json:"client_id"`
	CompanyID      string             `json:"company_id"`
	ServiceID      string             `json:"service_id"`
	Date           string             `json:"date"`
	Start          availability.Clock `json:"start_time"`
	End            availability.Clock `json:"end_time"`
	Status         Status             `json:"status"`
	Price          string             `json:"price"`
	Notes          string             `json:"notes,omitempty"`
	IdempotencyKey string             `json:"-"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func (r Reservation) Interval() availability.Interval {
	return availability.Interval{Start: r.Start, End: r.End}
}

// ParseDate parses a YYYY-MM-DD calendar date. The result is midnight UTC and only its weekday and
// calendar fields are meaningful.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
