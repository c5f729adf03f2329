package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Clock is a time of day in minutes since midnight. EndOfDay (24:00) is only valid as an interval end.
type Clock int

const (
	MinutesPerDay       = 24 * 60
	EndOfDay      Clock = MinutesPerDay
)

var ErrInvalidClock = errors.New("invalid time of day")

// ParseClock parses "HH:MM". "24:00" is accepted; use ParseStart when the value is a start time.
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if hh < 0 || mm < 0 || mm > 59 || hh > 24 || (hh == 24 && mm != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock(hh*60 + mm), nil
}

// ParseStart parses a start-of-slot time, rejecting 24:00.
func ParseStart(s string) (Clock, error) {
	c, err := ParseClock(s)
	if err != nil {
		return 0, err
	}
	if c == EndOfDay {
		return 0, fmt.Errorf("%w: %q is not a valid start", ErrInvalidClock, s)
	}
	return c, nil
}

func (c Clock) Add(minutes int) Clock { return c + Clock(minutes) }

func (c Clock) Minutes() int { return int(c) }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
