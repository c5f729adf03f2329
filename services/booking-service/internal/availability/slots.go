package availability

// DefaultStep is the slot grid spacing in minutes.
const DefaultStep = 30

// Slot is one candidate booking window.
type Slot struct {
	Start     Clock `json:"start"`
	End       Clock `json:"end"`
	Available bool  `json:"available"`
}

// GenerateSlots returns candidate intervals of the given duration starting at open.Start and advancing by step
// while the slot still ends by open.End. A step <= 0 means DefaultStep.
func GenerateSlots(open Interval, duration, step int) []Interval {
	if duration <= 0 || open.End <= open.Start {
		return nil
	}
	if step <= 0 {
		step = DefaultStep
	}

	var out []Interval
	for t := open.Start; t.Add(duration) <= open.End; t = t.Add(step) {
		out = append(out, Interval{Start: t, End: t.Add(duration)})
	}
	return out
}

// OnGrid reports whether start is one of the slot starts GenerateSlots would produce for open.
func OnGrid(open Interval, start Clock, duration, step int) bool {
	if step <= 0 {
		step = DefaultStep
	}
	if duration <= 0 || !open.Contains(start, duration) {
		return false
	}
	return int(start-open.Start)%step == 0
}

// MarkAvailability flags each candidate as available when it overlaps none of busy.
func MarkAvailability(candidates, busy []Interval) []Slot {
	out := make([]Slot, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Slot{Start: c.Start, End: c.End, Available: !HasConflict(c, busy)})
	}
	return out
}
