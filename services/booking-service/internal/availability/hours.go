package availability

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrMalformedSchedule marks a stored schedule entry that cannot be interpreted.
var ErrMalformedSchedule = errors.New("malformed schedule")

const closedValue = "closed"

// WeeklySchedule maps a weekday to "HH:MM-HH:MM" or "closed". A missing weekday is closed.
type WeeklySchedule map[time.Weekday]string

// DefaultSchedule is assigned to a company that has not configured its hours yet.
func DefaultSchedule() WeeklySchedule {
	return WeeklySchedule{
		time.Monday:    "08:00-18:00",
		time.Tuesday:   "08:00-18:00",
		time.Wednesday: "08:00-18:00",
		time.Thursday:  "08:00-18:00",
		time.Friday:    "08:00-18:00",
		time.Saturday:  "08:00-17:00",
		time.Sunday:    closedValue,
	}
}

// Resolve returns the open interval for the weekday of date. open is false on a closed day.
func (s WeeklySchedule) Resolve(date time.Time) (Interval, bool, error) {
	return s.ResolveWeekday(date.Weekday())
}

func (s WeeklySchedule) ResolveWeekday(day time.Weekday) (Interval, bool, error) {
	raw, ok := s[day]
	if !ok {
		return Interval{}, false, nil
	}
	return parseEntry(day, raw)
}

// Validate checks every configured day.
func (s WeeklySchedule) Validate() error {
	for day := time.Sunday; day <= time.Saturday; day++ {
		if _, _, err := s.ResolveWeekday(day); err != nil {
			return err
		}
	}
	for day := range s {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("%w: weekday %d out of range", ErrMalformedSchedule, int(day))
		}
	}
	return nil
}

func parseEntry(day time.Weekday, raw string) (Interval, bool, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" || v == closedValue || v == "fechado" {
		return Interval{}, false, nil
	}
	from, to, ok := strings.Cut(v, "-")
	if !ok {
		return Interval{}, false, fmt.Errorf("%w: %s: %q", ErrMalformedSchedule, day, raw)
	}
	start, err := ParseStart(from)
	if err != nil {
		return Interval{}, false, fmt.Errorf("%w: %s: %v", ErrMalformedSchedule, day, err)
	}
	end, err := ParseClock(to)
	if err != nil {
		return Interval{}, false, fmt.Errorf("%w: %s: %v", ErrMalformedSchedule, day, err)
	}
	if end <= start {
		return Interval{}, false, fmt.Errorf("%w: %s: close %s is not after open %s", ErrMalformedSchedule, day, end, start)
	}
	return Interval{Start: start, End: end}, true, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"domingo":   time.Sunday,
	"segunda":   time.Monday,
	"terca":     time.Tuesday,
	"terça":     time.Tuesday,
	"quarta":    time.Wednesday,
	"quinta":    time.Thursday,
	"sexta":     time.Friday,
	"sabado":    time.Saturday,
	"sábado":    time.Saturday,
}

// ParseWeekday accepts English weekday names and the Portuguese names older records use.
func ParseWeekday(name string) (time.Weekday, bool) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// MarshalJSON writes lowercase English weekday keys in a stable order.
func (s WeeklySchedule) MarshalJSON() ([]byte, error) {
	days := make([]int, 0, len(s))
	for d := range s {
		days = append(days, int(d))
	}
	sort.Ints(days)

	var b strings.Builder
	b.WriteByte('{')
	for i, d := range days {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(strings.ToLower(time.Weekday(d).String()))
		val, _ := json.Marshal(s[time.Weekday(d)])
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON accepts English and Portuguese weekday keys. Two keys naming the same weekday are
// rejected.
func (s *WeeklySchedule) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(WeeklySchedule, len(raw))
	for k, v := range raw {
		day, ok := ParseWeekday(k)
		if !ok {
			return fmt.Errorf("%w: unknown weekday %q", ErrMalformedSchedule, k)
		}
		if _, dup := out[day]; dup {
			return fmt.Errorf("%w: duplicate weekday %s", ErrMalformedSchedule, strings.ToLower(day.String()))
		}
		if strings.EqualFold(strings.TrimSpace(v), "fechado") {
			v = closedValue
		}
		out[day] = v
	}
	*s = out
	return nil
}
