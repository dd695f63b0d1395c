package model

import "time"

// Schedule is a CMS schedule record as returned by the API. The engine
// only ever reads it; the CMS owns its lifecycle.
//
// At most one resolution basis is expected to be populated: an
// ICalendarContent payload (short-duration marker or full rule), or the
// WeeklyDayOfWeek / WeeklyTimeOfDay pair. A record with neither resolves
// to no occurrence.
type Schedule struct {
	ID   int
	GUID string
	Name string

	// ICalendarContent is the raw calendar-rule payload, empty if unset.
	ICalendarContent string

	// WeeklyDayOfWeek is 0 (Sunday) through 6 (Saturday); nil if unset.
	WeeklyDayOfWeek *int
	// WeeklyTimeOfDay is an "HH:MM:SS" clock time paired with WeeklyDayOfWeek.
	WeeklyTimeOfDay string

	// Check-in offsets in minutes. Zero or nil means unset; defaults apply.
	CheckInStartOffsetMinutes *int
	CheckInEndOffsetMinutes   *int
}

// ScheduleType selects the resolution strategy for a Schedule.
type ScheduleType int

const (
	ScheduleNone ScheduleType = iota
	ScheduleWeekly
	ScheduleCustom
	ScheduleNamed
)

func (t ScheduleType) String() string {
	switch t {
	case ScheduleWeekly:
		return "weekly"
	case ScheduleCustom:
		return "custom"
	case ScheduleNamed:
		return "named"
	default:
		return "none"
	}
}

// Occurrence is one concrete instance derived from a Schedule. All
// instants are UTC; JSON encoding yields RFC 3339 strings. Occurrences
// are recomputed on every call and never persisted here.
type Occurrence struct {
	ScheduleID int `json:"scheduleId"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// StartWithOffset is Start minus StartOffsetMinutes; callers test it
	// to decide whether check-in is currently open.
	StartWithOffset time.Time `json:"startWithOffset"`

	StartOffsetMinutes int `json:"startOffsetMinutes"`
	EndOffsetMinutes   int `json:"endOffsetMinutes"`
}

// NamedScheduleResult is the CMS formula engine's answer for a named
// schedule. NextStartDateTime is a timestamp string in the CMS's own
// format; offsets of zero or less mean unset.
type NamedScheduleResult struct {
	NextStartDateTime  string
	StartOffsetMinutes int
	EndOffsetMinutes   int
}
