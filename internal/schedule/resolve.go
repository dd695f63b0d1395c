package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"schedcore/internal/cache"
	appLog "schedcore/internal/log"
	"schedcore/internal/model"
)

// resolveNamed delegates to the CMS formula engine. Offsets of zero or
// less from the evaluator are "unset", not "no window", and take the
// configured defaults. An unparseable date degrades to no occurrence.
func (e *Engine) resolveNamed(ctx context.Context, s *model.Schedule) (*model.Occurrence, error) {
	res, err := cache.Cached(e.memo, e.cacheKey("named", s.ID), e.cacheTTL,
		func() (model.NamedScheduleResult, error) { return e.eval.EvaluateNamedSchedule(ctx, s.ID) })
	if err != nil {
		return nil, err
	}

	start, err := parseEvalTime(res.NextStartDateTime, e.loc)
	if err != nil {
		appLog.Warn("named schedule returned unparseable date",
			"schedule", s.ID, "value", res.NextStartDateTime, "err", err)
		return nil, nil
	}

	startOffset := res.StartOffsetMinutes
	if startOffset <= 0 {
		startOffset = e.startOffset
	}
	endOffset := res.EndOffsetMinutes
	if endOffset <= 0 {
		endOffset = e.endOffset
	}

	return e.occurrence(s.ID, start, startOffset, endOffset), nil
}

// resolveCustom expands the calendar rule and keeps the earliest window
// starting on or after the start of today — not "after right now", so a
// same-day event already underway still counts.
func (e *Engine) resolveCustom(s *model.Schedule) (*model.Occurrence, error) {
	windows, err := e.parser.Parse(s.ICalendarContent, e.endOffset)
	if err != nil {
		appLog.Warn("custom schedule rule failed to parse", "schedule", s.ID, "err", err)
		return nil, nil
	}

	nowLocal := e.now().In(e.loc)
	dayStart := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, e.loc)

	sort.Slice(windows, func(i, j int) bool { return windows[i].Start.Before(windows[j].Start) })
	for _, w := range windows {
		if !w.Start.Before(dayStart) {
			return e.occurrence(s.ID, w.Start, e.startOffset, e.endOffset), nil
		}
	}
	return nil, nil
}

// resolveWeekly computes the configured weekday's occurrence in the
// current Sunday-started week and advances exactly seven days once that
// day has fully elapsed. It never consults the calendar-rule parser.
func (e *Engine) resolveWeekly(s *model.Schedule) (*model.Occurrence, error) {
	dow := *s.WeeklyDayOfWeek
	if dow < 0 || dow > 6 {
		appLog.Warn("weekly schedule has invalid day of week", "schedule", s.ID, "day", dow)
		return nil, nil
	}

	nowLocal := e.now().In(e.loc)
	day := nowLocal.AddDate(0, 0, dow-int(nowLocal.Weekday()))

	start, err := applyTimeOfDay(day, s.WeeklyTimeOfDay)
	if err != nil {
		appLog.Warn("weekly schedule has invalid time of day",
			"schedule", s.ID, "time", s.WeeklyTimeOfDay, "err", err)
		return nil, nil
	}

	dayEnd := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, e.loc).AddDate(0, 0, 1)
	if !dayEnd.After(nowLocal) {
		start = start.AddDate(0, 0, 7)
	}

	return e.occurrence(s.ID, start, e.startOffset, e.endOffset), nil
}

// applyTimeOfDay returns date's day with the clock set to the given
// "HH:MM:SS" value, in date's own location.
func applyTimeOfDay(date time.Time, tod string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(tod), ":")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("time of day %q is not HH:MM:SS", tod)
	}

	var hms [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("time of day %q is not HH:MM:SS", tod)
		}
		hms[i] = n
	}
	if hms[0] < 0 || hms[0] > 23 || hms[1] < 0 || hms[1] > 59 || hms[2] < 0 || hms[2] > 59 {
		return time.Time{}, fmt.Errorf("time of day %q is out of range", tod)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hms[0], hms[1], hms[2], 0, date.Location()), nil
}

// parseEvalTime accepts the CMS formula engine's date formats: RFC 3339
// or a naive local timestamp in the configured zone.
func parseEvalTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty date")
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", v, loc)
}
