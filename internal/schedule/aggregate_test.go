package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"schedcore/internal/model"
)

func TestResolveManySortsByStartWithOffset(t *testing.T) {
	t.Parallel()

	store := &fakeStore{byID: map[int]*model.Schedule{
		1: weeklySchedule(1, 6, "09:00:00"), // Saturday
		2: weeklySchedule(2, 5, "09:00:00"), // Friday — sooner
	}}
	// Thursday.
	now := time.Date(2026, time.January, 8, 10, 0, 0, 0, testZone)
	e := newTestEngine(store, &fakeEvaluator{}, now)

	occs := e.ResolveMany(context.Background(), []string{"1", "2"})
	if len(occs) != 2 {
		t.Fatalf("got %d occurrences, want 2", len(occs))
	}
	if occs[0].ScheduleID != 2 || occs[1].ScheduleID != 1 {
		t.Fatalf("order = [%d %d], want [2 1]", occs[0].ScheduleID, occs[1].ScheduleID)
	}
	if occs[0].StartWithOffset.After(occs[1].StartWithOffset) {
		t.Fatal("occurrences not sorted ascending by StartWithOffset")
	}
}

func TestResolveManyToleratesFailedSiblings(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		byID: map[int]*model.Schedule{
			2: weeklySchedule(2, 5, "09:00:00"),
		},
		errIDs: map[int]error{1: errors.New("cms down")},
	}
	now := time.Date(2026, time.January, 8, 10, 0, 0, 0, testZone)
	e := newTestEngine(store, &fakeEvaluator{}, now)

	occs := e.ResolveMany(context.Background(), []string{"1", "2", "not-resolvable"})
	if len(occs) != 1 || occs[0].ScheduleID != 2 {
		t.Fatalf("occs = %+v, want only schedule 2", occs)
	}
}

func TestResolveManyEmpty(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.January, 8, 10, 0, 0, 0, testZone)
	e := newTestEngine(&fakeStore{}, &fakeEvaluator{}, now)

	if occs := e.ResolveMany(context.Background(), nil); len(occs) != 0 {
		t.Fatalf("occs = %+v, want empty", occs)
	}
}

func TestIsTimeWithinSchedules(t *testing.T) {
	t.Parallel()

	store := &fakeStore{byID: map[int]*model.Schedule{
		1: weeklySchedule(1, 5, "09:00:00"),
	}}
	now := time.Date(2026, time.January, 8, 10, 0, 0, 0, testZone)
	e := newTestEngine(store, &fakeEvaluator{}, now)

	occ, err := e.Resolve(context.Background(), "1")
	if err != nil || occ == nil {
		t.Fatalf("Resolve = (%+v, %v)", occ, err)
	}

	ctx := context.Background()
	ids := []string{"1"}

	if !e.IsTimeWithinSchedules(ctx, ids, occ.StartWithOffset) {
		t.Fatal("instant at StartWithOffset should be within")
	}
	if e.IsTimeWithinSchedules(ctx, ids, occ.StartWithOffset.Add(-time.Second)) {
		t.Fatal("one second before StartWithOffset should not be within")
	}
	if !e.IsTimeWithinSchedules(ctx, ids, occ.Start.Add(time.Hour)) {
		t.Fatal("instant inside the window should be within")
	}
	if e.IsTimeWithinSchedules(ctx, ids, occ.End) {
		t.Fatal("End is exclusive")
	}
}

// Only the globally earliest occurrence is consulted: an instant inside
// a later schedule's window but outside the earliest one reports false.
func TestIsTimeWithinSchedulesChecksEarliestOnly(t *testing.T) {
	t.Parallel()

	store := &fakeStore{byID: map[int]*model.Schedule{
		1: weeklySchedule(1, 5, "09:00:00"), // Friday
		2: weeklySchedule(2, 6, "09:00:00"), // Saturday
	}}
	now := time.Date(2026, time.January, 8, 10, 0, 0, 0, testZone)
	e := newTestEngine(store, &fakeEvaluator{}, now)

	ctx := context.Background()
	// Saturday 10:00 local is inside schedule 2's window, but the
	// earliest occurrence (Friday's) has already ended by then.
	saturday := time.Date(2026, time.January, 10, 10, 0, 0, 0, testZone)
	if e.IsTimeWithinSchedules(ctx, []string{"1", "2"}, saturday) {
		t.Fatal("only the earliest occurrence's window may match")
	}

	if e.IsTimeWithinSchedules(ctx, nil, now) {
		t.Fatal("empty id set is never within")
	}
}
