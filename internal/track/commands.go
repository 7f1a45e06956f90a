package track

import (
	"context"
	"fmt"
	"time"

	"github.com/loykin/harvestd/internal/farm"
	"github.com/loykin/harvestd/internal/history"
	"github.com/loykin/harvestd/internal/metrics"
)

// Patch carries the optional fields of an edit; nil means keep.
type Patch struct {
	Coords  *string        `json:"coords,omitempty"`
	Output  *string        `json:"output,omitempty"`
	Runtime *time.Duration `json:"runtime,omitempty"`
	Regrow  *time.Duration `json:"regrow,omitempty"`
}

// AddFarm registers a new farm. New farms start Unknown with no pending
// timer until the feed (or an edit) says otherwise.
func (t *Tracker) AddFarm(ctx context.Context, rec farm.Record) error {
	if rec.Name == "" {
		return fmt.Errorf("farm name is required")
	}
	if rec.Runtime <= 0 || rec.Regrow <= 0 {
		return fmt.Errorf("farm %q: runtime and regrow must be positive", rec.Name)
	}
	rec.Status = farm.StatusUnknown
	rec.NextReady = nil

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.reg.Add(rec); err != nil {
		return err
	}
	if err := t.persistLocked(); err != nil {
		return err
	}
	t.refreshBoardLocked(ctx)
	t.emitLocked(history.Event{Type: history.EventAdded, OccurredAt: t.now().UTC(), Farm: rec.Name, Status: string(rec.Status)})
	t.logger.Info("farm added", "farm", rec.Name, "runtime", rec.Runtime, "regrow", rec.Regrow)
	return nil
}

// resolveOneLocked finds a single farm by exact or partial name, the same
// matching users get on the command surface. Ambiguity is an error here,
// never a guess.
func (t *Tracker) resolveOneLocked(name string) (farm.Record, error) {
	if rec, err := t.reg.Get(name); err == nil {
		return rec, nil
	}
	matches := t.reg.Resolve(name)
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return farm.Record{}, farm.ErrNotFound
	default:
		return farm.Record{}, fmt.Errorf("farm name %q is ambiguous (%d matches)", name, len(matches))
	}
}

// EditFarm updates static fields of an existing farm. Lifecycle state and
// pending timers are untouched; use the feed or RemoveFarm for those.
func (t *Tracker) EditFarm(ctx context.Context, name string, p Patch) (farm.Record, error) {
	if p.Runtime != nil && *p.Runtime <= 0 {
		return farm.Record{}, fmt.Errorf("farm %q: runtime must be positive", name)
	}
	if p.Regrow != nil && *p.Regrow <= 0 {
		return farm.Record{}, fmt.Errorf("farm %q: regrow must be positive", name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	rec, err := t.resolveOneLocked(name)
	if err != nil {
		return farm.Record{}, err
	}
	if err := t.reg.Update(rec.Name, func(r farm.Record) farm.Record {
		if p.Coords != nil {
			r.Coords = *p.Coords
		}
		if p.Output != nil {
			r.Output = *p.Output
		}
		if p.Runtime != nil {
			r.Runtime = *p.Runtime
		}
		if p.Regrow != nil {
			r.Regrow = *p.Regrow
		}
		return r
	}); err != nil {
		return farm.Record{}, err
	}
	// New durations apply to future transitions only. An armed readiness
	// timer keeps its stored fire time; re-arm at that same instant in case
	// the timer handle went missing.
	if cur, err := t.reg.Get(rec.Name); err == nil && cur.NextReady != nil {
		t.armReadyLocked(cur.Name, *cur.NextReady)
	}
	if err := t.persistLocked(); err != nil {
		return farm.Record{}, err
	}
	t.refreshBoardLocked(ctx)
	return t.reg.Get(rec.Name)
}

// RemoveFarm drops a farm and cancels any pending timer for it.
func (t *Tracker) RemoveFarm(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, err := t.resolveOneLocked(name)
	if err != nil {
		return err
	}
	if err := t.reg.Remove(rec.Name); err != nil {
		return err
	}
	t.timers.Cancel(rec.Name)
	metrics.SetTimersArmed(t.timers.Len())
	if err := t.persistLocked(); err != nil {
		return err
	}
	t.refreshBoardLocked(ctx)
	t.emitLocked(history.Event{Type: history.EventRemoved, OccurredAt: t.now().UTC(), Farm: rec.Name})
	t.logger.Info("farm removed", "farm", rec.Name)
	return nil
}

// GetFarm returns one farm by exact or partial name.
func (t *Tracker) GetFarm(name string) (farm.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolveOneLocked(name)
}

// ListNames returns farm names with the given prefix, at most limit.
func (t *Tracker) ListNames(prefix string, limit int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reg.Names(prefix, limit)
}

// Statuses returns a copy of every tracked farm in insertion order.
func (t *Tracker) Statuses() []farm.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reg.Snapshot()
}
