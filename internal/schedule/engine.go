package schedule

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"schedcore/internal/cache"
	"schedcore/internal/ics"
	"schedcore/internal/ident"
	appLog "schedcore/internal/log"
	"schedcore/internal/model"
)

// Store reads schedule records from the CMS. Both methods return
// (nil, nil) when no record matches.
type Store interface {
	ScheduleByID(ctx context.Context, id int) (*model.Schedule, error)
	ScheduleByGUID(ctx context.Context, guid string) (*model.Schedule, error)
}

// NamedEvaluator runs the CMS-side formula engine for a named schedule.
type NamedEvaluator interface {
	EvaluateNamedSchedule(ctx context.Context, id int) (model.NamedScheduleResult, error)
}

// Options configures an Engine. Zero values fall back to the standard
// defaults: local zone, 15-minute start offset, 720-minute end offset.
type Options struct {
	Location                  *time.Location
	DefaultStartOffsetMinutes int
	DefaultEndOffsetMinutes   int
	CacheTTL                  time.Duration
}

// Engine derives concrete occurrence windows from CMS schedule records.
// It holds no mutable state of its own; every resolution is a pure
// function of the schedule record and the current time.
type Engine struct {
	store Store
	eval  NamedEvaluator

	loc         *time.Location
	startOffset int
	endOffset   int
	cacheTTL    time.Duration

	memo   *cache.Memo
	parser *ics.Parser

	now func() time.Time
}

func NewEngine(store Store, eval NamedEvaluator, opts Options) *Engine {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	startOffset := opts.DefaultStartOffsetMinutes
	if startOffset <= 0 {
		startOffset = 15
	}
	endOffset := opts.DefaultEndOffsetMinutes
	if endOffset <= 0 {
		endOffset = 720
	}

	return &Engine{
		store:       store,
		eval:        eval,
		loc:         loc,
		startOffset: startOffset,
		endOffset:   endOffset,
		cacheTTL:    opts.CacheTTL,
		memo:        cache.New(),
		parser:      ics.NewParser(loc),
		now:         time.Now,
	}
}

// Resolve fetches, classifies and resolves one schedule identifier into
// its next occurrence. A nil occurrence with a nil error means "no
// applicable occurrence" — unknown record, unresolvable identifier, or
// a malformed schedule that degraded.
func (e *Engine) Resolve(ctx context.Context, id string) (*model.Occurrence, error) {
	sched, err := e.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, nil
	}

	switch e.classify(sched) {
	case model.ScheduleWeekly:
		return e.resolveWeekly(sched)
	case model.ScheduleCustom:
		return e.resolveCustom(sched)
	case model.ScheduleNamed:
		return e.resolveNamed(ctx, sched)
	default:
		return nil, nil
	}
}

// ParseCalendarRule exposes the calendar-rule parser directly.
func (e *Engine) ParseCalendarRule(payload string, overrideMinutes int) ([]ics.Window, error) {
	return e.parser.Parse(payload, overrideMinutes)
}

func (e *Engine) fetch(ctx context.Context, raw string) (*model.Schedule, error) {
	r := ident.Classify(raw)
	switch r.Kind {
	case ident.KindInt:
		return cache.Cached(e.memo, "schedule:id:"+strconv.Itoa(r.IntValue), e.cacheTTL,
			func() (*model.Schedule, error) { return e.store.ScheduleByID(ctx, r.IntValue) })
	case ident.KindGUID:
		return cache.Cached(e.memo, "schedule:guid:"+r.GUID, e.cacheTTL,
			func() (*model.Schedule, error) { return e.store.ScheduleByGUID(ctx, r.GUID) })
	default:
		appLog.Debug("identifier has no lookup predicate", "id", r.Raw)
		return nil, nil
	}
}

// occurrence builds the final window. End and StartWithOffset both hang
// off the start instant, per the check-in window rules.
func (e *Engine) occurrence(scheduleID int, start time.Time, startOffset, endOffset int) *model.Occurrence {
	start = start.UTC()
	return &model.Occurrence{
		ScheduleID:         scheduleID,
		Start:              start,
		End:                start.Add(time.Duration(endOffset) * time.Minute),
		StartWithOffset:    start.Add(-time.Duration(startOffset) * time.Minute),
		StartOffsetMinutes: startOffset,
		EndOffsetMinutes:   endOffset,
	}
}

func (e *Engine) cacheKey(kind string, id int) string {
	return fmt.Sprintf("%s:%d", kind, id)
}
