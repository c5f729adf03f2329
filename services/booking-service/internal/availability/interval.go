package availability

// Interval is a half-open time-of-day range [Start, End).
type Interval struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

func (i Interval) Len() int { return int(i.End - i.Start) }

// Contains reports whether [start, start+minutes) lies inside i.
func (i Interval) Contains(start Clock, minutes int) bool {
	return start >= i.Start && start.Add(minutes) <= i.End
}

// Overlaps reports whether two half-open intervals share any minute. Back-to-back intervals do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// HasConflict reports whether candidate overlaps any of existing.
func HasConflict(candidate Interval, existing []Interval) bool {
	for _, e := range existing {
		if Overlaps(candidate, e) {
			return true
		}
	}
	return false
}
