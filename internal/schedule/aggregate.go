package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	appLog "schedcore/internal/log"
	"schedcore/internal/model"
)

// ResolveMany resolves every identifier concurrently and returns the
// surviving occurrences sorted ascending by StartWithOffset. One
// schedule failing or resolving to nothing never aborts its siblings;
// it is simply absent from the result.
func (e *Engine) ResolveMany(ctx context.Context, ids []string) []model.Occurrence {
	results := make([]*model.Occurrence, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		i, id := i, id
		wg.Add(1)
		go func() {
			defer wg.Done()
			occ, err := e.Resolve(ctx, id)
			if err != nil {
				appLog.Error("schedule resolution failed", err, "schedule", id)
				return
			}
			results[i] = occ
		}()
	}
	wg.Wait()

	out := make([]model.Occurrence, 0, len(ids))
	for _, occ := range results {
		if occ != nil {
			out = append(out, *occ)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartWithOffset.Before(out[j].StartWithOffset)
	})
	return out
}

// IsTimeWithinSchedules reports whether at falls inside the window
// [StartWithOffset, End) of the earliest occurrence across the whole
// id set. Only the globally earliest occurrence is checked, not any.
func (e *Engine) IsTimeWithinSchedules(ctx context.Context, ids []string, at time.Time) bool {
	occs := e.ResolveMany(ctx, ids)
	if len(occs) == 0 {
		return false
	}
	first := occs[0]
	return !at.Before(first.StartWithOffset) && at.Before(first.End)
}
