package booking

import "github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"

var transitions = map[model.Status][]model.Status{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted},
}

// CanTransition reports whether a reservation may move from one status to another.
// Cancelled and completed are terminal, and a status never transitions to itself.
func CanTransition(from, to model.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
