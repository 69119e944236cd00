package stocktax

import (
	"fmt"
	"time"
)

// Broker exports carry event times as text with or without fractional
// seconds. Both shapes are accepted, nothing else.
const (
	eventTimeFracFormat = "2006-01-02 15:04:05.999999"
	eventTimeFormat     = "2006-01-02 15:04:05"
)

// ParseEventTime parses a broker event timestamp. It first attempts the
// fractional-second form and falls back to the whole-second form; anything
// else is an error for the caller to surface, never a silent default.
func ParseEventTime(s string) (time.Time, error) {
	if t, err := time.Parse(eventTimeFracFormat, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(eventTimeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid event time %q: want %q or %q", s, eventTimeFracFormat, eventTimeFormat)
	}
	return t, nil
}
