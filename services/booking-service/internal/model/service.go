package model

import (
	"regexp"
	"time"

	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
)

type Service struct {
	ID              string    `json:"id"`
	CompanyID       string    `json:"company_id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           string    `json:"price"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ServicePatch holds the optional fields of a service update.
type ServicePatch struct {
	Name            *string
	DurationMinutes *int
	Price           *string
	Active          *bool
}

// Company is what a client sees before booking.
type Company struct {
	ID          string                      `json:"id"`
	Schedule    availability.WeeklySchedule `json:"schedule"`
	StepMinutes int                         `json:"slot_step_minutes"`
	Services    []Service                   `json:"services"`
}

// ReservationFilter narrows a company listing. Zero values match everything.
type ReservationFilter struct {
	Date   string
	Status Status
	Limit  int
}

var priceRe = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

// ValidPrice reports whether s is a non-negative decimal with at most two fraction digits.
func ValidPrice(s string) bool {
	return priceRe.MatchString(s)
}
