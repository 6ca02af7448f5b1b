package tradingday

import (
	"testing"
	"time"
)

func TestDayKey_UTC(t *testing.T) {
	instant := time.Date(2024, 3, 5, 23, 59, 59, 0, time.UTC)

	if got := DayKey(instant, "UTC"); got != "2024-03-05" {
		t.Errorf("expected 2024-03-05, got %s", got)
	}
}

// An instant late in the New York evening is already the next day in UTC;
// the account timezone decides the bucket.
func TestDayKey_TimezoneShiftsDay(t *testing.T) {
	instant := time.Date(2024, 3, 6, 2, 30, 0, 0, time.UTC)

	if got := DayKey(instant, "America/New_York"); got != "2024-03-05" {
		t.Errorf("expected 2024-03-05 in New York, got %s", got)
	}
	if got := DayKey(instant, "UTC"); got != "2024-03-06" {
		t.Errorf("expected 2024-03-06 in UTC, got %s", got)
	}
}

func TestDayKey_InvalidTimezoneFallsBackToUTC(t *testing.T) {
	instant := time.Date(2024, 3, 6, 2, 30, 0, 0, time.UTC)

	if got := DayKey(instant, "Not/AZone"); got != "2024-03-06" {
		t.Errorf("expected UTC fallback 2024-03-06, got %s", got)
	}
}

func TestDayKey_EmptyTimezoneIsUTC(t *testing.T) {
	instant := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

	if got := DayKey(instant, ""); got != "2024-03-06" {
		t.Errorf("expected 2024-03-06, got %s", got)
	}
}

func TestDayStart(t *testing.T) {
	instant := time.Date(2024, 3, 6, 2, 30, 0, 0, time.UTC)

	start := DayStart(instant, "America/New_York")

	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Errorf("expected midnight, got %v", start)
	}
	if start.Day() != 5 {
		t.Errorf("expected day 5 in New York, got %d", start.Day())
	}
	if !start.Before(instant) {
		t.Error("day start must precede the instant")
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)
	c := time.Date(2024, 3, 6, 1, 0, 0, 0, time.UTC)

	if !SameDay(a, b, "UTC") {
		t.Error("expected same UTC day")
	}
	if SameDay(a, c, "UTC") {
		t.Error("expected different UTC days")
	}
	// In New York, 23:00 UTC on the 5th and 01:00 UTC on the 6th are both
	// the evening of the 5th.
	if !SameDay(b, c, "America/New_York") {
		t.Error("expected same New York day")
	}
}
