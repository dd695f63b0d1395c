package ics

import (
	"testing"
	"time"
)

var testZone = time.FixedZone("EST", -5*60*60)

func newTestParser(now time.Time) *Parser {
	p := NewParser(testZone)
	p.Now = func() time.Time { return now }
	return p
}

func TestParseBasePlusExtraDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.January, 8, 10, 0, 0, 0, testZone)
	p := newTestParser(now)

	payload := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"DTSTART:20260108T090000\r\n" +
		"DTEND:20260108T100000\r\n" +
		"RDATE:20260115T090000\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR"

	windows, err := p.Parse(payload, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2 (base + extra date)", len(windows))
	}

	wantBase := time.Date(2026, time.January, 8, 14, 0, 0, 0, time.UTC)
	if !windows[0].Start.Equal(wantBase) {
		t.Fatalf("base start = %v, want %v", windows[0].Start, wantBase)
	}
	if got := windows[0].End.Sub(windows[0].Start); got != time.Hour {
		t.Fatalf("base duration = %v, want 1h", got)
	}

	wantExtra := time.Date(2026, time.January, 15, 14, 0, 0, 0, time.UTC)
	if !windows[1].Start.Equal(wantExtra) {
		t.Fatalf("extra start = %v, want %v", windows[1].Start, wantExtra)
	}
	// Extra dates inherit the base duration when no override is given.
	if got := windows[1].End.Sub(windows[1].Start); got != time.Hour {
		t.Fatalf("extra duration = %v, want 1h", got)
	}
}

func TestParseOverrideDuration(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.January, 8, 10, 0, 0, 0, testZone)
	p := newTestParser(now)

	payload := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"DTSTART:20260108T090000\r\n" +
		"DTEND:20260108T100000\r\n" +
		"RDATE:20260115T090000\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR"

	windows, err := p.Parse(payload, 30)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	// The base window keeps its own span; only derived windows take the override.
	if got := windows[0].End.Sub(windows[0].Start); got != time.Hour {
		t.Fatalf("base duration = %v, want 1h", got)
	}
	if got := windows[1].End.Sub(windows[1].Start); got != 30*time.Minute {
		t.Fatalf("extra duration = %v, want 30m", got)
	}
}

func TestParseBareVEvent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.January, 8, 10, 0, 0, 0, testZone)
	p := newTestParser(now)

	payload := "BEGIN:VEVENT\r\nDTSTART:20260108T090000\r\nDTEND:20260108T100000\r\nEND:VEVENT"

	windows, err := p.Parse(payload, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
}

func TestParseUTCTimestamps(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.January, 8, 10, 0, 0, 0, testZone)
	p := newTestParser(now)

	payload := "BEGIN:VEVENT\r\nDTSTART:20260108T140000Z\r\nDTEND:20260108T150000Z\r\nEND:VEVENT"

	windows, err := p.Parse(payload, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := time.Date(2026, time.January, 8, 14, 0, 0, 0, time.UTC)
	if !windows[0].Start.Equal(want) {
		t.Fatalf("start = %v, want %v", windows[0].Start, want)
	}
}

func TestParseRepeatRuleEmitsSingleNextInstance(t *testing.T) {
	t.Parallel()

	// Thursday 18:30 local; the daily 18:00 event is in progress.
	now := time.Date(2026, time.January, 8, 18, 30, 0, 0, testZone)
	p := newTestParser(now)

	payload := "BEGIN:VEVENT\r\n" +
		"DTSTART:20260105T180000\r\n" +
		"DTEND:20260105T190000\r\n" +
		"RRULE:FREQ=DAILY\r\n" +
		"END:VEVENT"

	windows, err := p.Parse(payload, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2 (base + next repeat)", len(windows))
	}

	// The repeat instance is searched after now minus the duration, so
	// the in-progress 18:00 instance today is still the one returned.
	want := time.Date(2026, time.January, 8, 23, 0, 0, 0, time.UTC)
	if !windows[1].Start.Equal(want) {
		t.Fatalf("repeat start = %v, want %v", windows[1].Start, want)
	}
}

func TestParseFreezesCurrentZoneOffset(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("no tz database: %v", err)
	}

	// "Now" is in July (EDT, -04:00); the event is in January, where the
	// zone's real offset would be -05:00. The parser applies the frozen
	// July offset, so the January date lands one hour off true local —
	// this is the documented approximation.
	p := NewParser(loc)
	p.Now = func() time.Time {
		return time.Date(2026, time.July, 10, 12, 0, 0, 0, loc)
	}

	payload := "BEGIN:VEVENT\r\nDTSTART:20260108T090000\r\nDTEND:20260108T100000\r\nEND:VEVENT"
	windows, err := p.Parse(payload, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := time.Date(2026, time.January, 8, 13, 0, 0, 0, time.UTC) // 09:00 -04:00
	if !windows[0].Start.Equal(want) {
		t.Fatalf("start = %v, want %v (frozen -04:00 offset)", windows[0].Start, want)
	}
}

func TestBounds(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.January, 8, 10, 0, 0, 0, testZone)
	p := newTestParser(now)

	payload := "BEGIN:VEVENT\r\nDTSTART:20260101T090000\r\nDTEND:20260101T090001\r\nEND:VEVENT"
	start, end, err := p.Bounds(payload)
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if got := end.Sub(start); got != time.Second {
		t.Fatalf("duration = %v, want 1s", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	p := newTestParser(time.Date(2026, time.January, 8, 10, 0, 0, 0, testZone))

	if _, err := p.Parse("", 0); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, err := p.Parse("BEGIN:VEVENT\r\nDTEND:20260101T090000\r\nEND:VEVENT", 0); err == nil {
		t.Fatal("expected error for payload without DTSTART")
	}
}
