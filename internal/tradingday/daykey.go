// Package tradingday converts instants into calendar-day keys under an
// account's IANA timezone. The day key is the only notion of "day" used by
// the drawdown logic; days are calendar days, not 24-hour windows.
package tradingday

import (
	"log"
	"sync"
	"time"
)

const keyLayout = "2006-01-02"

var (
	mu        sync.RWMutex
	locations = map[string]*time.Location{}
	warned    = map[string]bool{}
)

// DayKey returns the YYYY-MM-DD calendar day of t in the given IANA
// timezone. An unresolvable timezone falls back to UTC with a logged
// warning; DayKey never fails.
func DayKey(t time.Time, tz string) string {
	return t.In(resolve(tz)).Format(keyLayout)
}

// DayStart returns the first instant of t's calendar day in tz.
func DayStart(t time.Time, tz string) time.Time {
	loc := resolve(tz)
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in tz.
func SameDay(a, b time.Time, tz string) bool {
	return DayKey(a, tz) == DayKey(b, tz)
}

func resolve(tz string) *time.Location {
	if tz == "" || tz == "UTC" {
		return time.UTC
	}

	mu.RLock()
	loc, ok := locations[tz]
	mu.RUnlock()
	if ok {
		return loc
	}

	loc, err := time.LoadLocation(tz)

	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		if !warned[tz] {
			log.Printf("[tradingday] unknown timezone %q, falling back to UTC", tz)
			warned[tz] = true
		}
		loc = time.UTC
	}
	locations[tz] = loc
	return loc
}
