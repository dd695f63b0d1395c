package schedule

import (
	"strings"
	"time"

	appLog "schedcore/internal/log"
	"schedcore/internal/model"
)

// classify picks the resolution strategy for a schedule record. The
// order matters: the weekly pair only applies when no calendar rule is
// present, and the ad-hoc duration check is the only signal separating
// one-off markers from full recurring events.
func (e *Engine) classify(s *model.Schedule) model.ScheduleType {
	rule := strings.TrimSpace(s.ICalendarContent)

	if rule == "" {
		if s.WeeklyDayOfWeek != nil && strings.TrimSpace(s.WeeklyTimeOfDay) != "" {
			return model.ScheduleWeekly
		}
		return model.ScheduleNone
	}

	start, end, err := e.parser.Bounds(rule)
	if err != nil {
		appLog.Warn("unparsable calendar rule, schedule unclassifiable", "schedule", s.ID, "err", err)
		return model.ScheduleNone
	}

	if adHocDuration(end.Sub(start)) {
		return model.ScheduleCustom
	}
	return model.ScheduleNamed
}

// adHocDuration reports whether a calendar rule's span marks a one-off
// date rather than a timed event. The convention is a duration of one
// second or less.
func adHocDuration(d time.Duration) bool {
	return d <= time.Second
}
