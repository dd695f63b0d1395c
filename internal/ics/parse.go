package ics

import (
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// Window is one concrete occurrence span. Start and End are UTC.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Parser turns calendar-rule payloads into occurrence windows.
//
// The payloads carry naive local timestamps (no UTC offset); the CMS
// authors them in one canonical zone. Parsing applies that zone's
// *current* UTC offset as a fixed zone to every naive timestamp, so all
// generated instances share one unambiguous offset. This mirrors the
// upstream payload-rewrite behavior and carries the same known
// limitation: the offset is frozen at "now" rather than resolved per
// occurrence, so instances on the far side of a DST transition keep the
// near-side offset.
type Parser struct {
	loc *time.Location

	// Now returns the current time; replace it for deterministic tests.
	Now func() time.Time
}

func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{loc: loc, Now: time.Now}
}

// Parse expands a calendar-rule payload into windows, in UTC:
//
//   - the base DTSTART/DTEND span, always
//   - one window per explicit RDATE entry
//   - the single next repeat instance strictly after now minus the
//     effective duration, if an RRULE is present — an event still in
//     progress therefore remains "current"
//
// overrideMinutes, when positive, replaces the base duration for RDATE
// and RRULE windows. No future-filtering happens here; callers filter.
func (p *Parser) Parse(payload string, overrideMinutes int) ([]Window, error) {
	ve, start, end, err := p.parseEvent(payload)
	if err != nil {
		return nil, err
	}

	dur := end.Sub(start)
	effDur := dur
	if overrideMinutes > 0 {
		effDur = time.Duration(overrideMinutes) * time.Minute
	}

	windows := []Window{{Start: start.UTC(), End: end.UTC()}}

	fixed := p.frozenZone()
	for _, prop := range ve.GetProperties("RDATE") {
		for _, part := range strings.Split(prop.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			d, perr := parseRuleTime(part, fixed)
			if perr != nil {
				return nil, perr
			}
			windows = append(windows, Window{Start: d.UTC(), End: d.Add(effDur).UTC()})
		}
	}

	if prop := ve.GetProperty(ical.ComponentPropertyRrule); prop != nil && prop.Value != "" {
		r, rerr := rrule.StrToRRule(prop.Value)
		if rerr != nil {
			return nil, rerr
		}
		r.DTStart(start)
		if next := r.After(p.Now().Add(-effDur), false); !next.IsZero() {
			windows = append(windows, Window{Start: next.UTC(), End: next.Add(effDur).UTC()})
		}
	}

	return windows, nil
}

// Bounds returns the payload's raw start and end without expanding
// anything. The classifier uses the span between them.
func (p *Parser) Bounds(payload string) (time.Time, time.Time, error) {
	_, start, end, err := p.parseEvent(payload)
	return start, end, err
}

func (p *Parser) parseEvent(payload string) (*ical.VEvent, time.Time, time.Time, error) {
	var zero time.Time

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, zero, zero, errors.New("empty calendar rule")
	}
	// Some CMS records store a bare VEVENT block.
	if !strings.Contains(payload, "BEGIN:VCALENDAR") {
		payload = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\n" + payload + "\r\nEND:VCALENDAR"
	}

	cal, err := ical.ParseCalendar(strings.NewReader(payload))
	if err != nil {
		return nil, zero, zero, err
	}
	events := cal.Events()
	if len(events) == 0 {
		return nil, zero, zero, errors.New("calendar rule has no VEVENT")
	}
	ve := events[0]

	fixed := p.frozenZone()

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil || startProp.Value == "" {
		return nil, zero, zero, errors.New("calendar rule has no DTSTART")
	}
	start, err := parseRuleTime(startProp.Value, fixed)
	if err != nil {
		return nil, zero, zero, err
	}

	end := start
	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil && endProp.Value != "" {
		end, err = parseRuleTime(endProp.Value, fixed)
		if err != nil {
			return nil, zero, zero, err
		}
	}

	return ve, start, end, nil
}

// frozenZone is the configured zone's current offset as a fixed zone.
func (p *Parser) frozenZone() *time.Location {
	name, offset := p.Now().In(p.loc).Zone()
	return time.FixedZone(name, offset)
}

// parseRuleTime parses an iCalendar date or date-time value. Naive
// values land in the given fixed zone; trailing-Z values are UTC.
func parseRuleTime(v string, fixed *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, fixed)
	}
	return time.ParseInLocation("20060102", v, fixed)
}
