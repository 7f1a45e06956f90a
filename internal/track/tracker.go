// Package track is the lifecycle state machine for tracked farms. It owns
// the only mutation path: chat-feed events, manual commands, and timer
// expiries all funnel through the Tracker, which serializes transitions,
// persists the snapshot before any notification leaves the process, and
// keeps at most one pending timer per farm.
package track

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loykin/harvestd/internal/config"
	"github.com/loykin/harvestd/internal/farm"
	"github.com/loykin/harvestd/internal/feed"
	"github.com/loykin/harvestd/internal/history"
	"github.com/loykin/harvestd/internal/metrics"
	"github.com/loykin/harvestd/internal/sched"
	"github.com/loykin/harvestd/internal/store"
)

// Options configures a Tracker. Notifier, Board, and Sinks are optional;
// a nil collaborator simply drops the corresponding side effect.
type Options struct {
	Registry  *farm.Registry
	Scheduler *sched.Scheduler
	Store     *store.Store
	Notifier  feed.Notifier
	Board     feed.Board
	Sinks     []history.Sink
	Logger    *slog.Logger
	Chat      config.ChatConfig
	Catchup   int              // max feed messages replayed at startup
	Now       func() time.Time // test clock; defaults to time.Now
}

type Tracker struct {
	mu       sync.Mutex
	reg      *farm.Registry
	timers   *sched.Scheduler
	st       *store.Store
	notifier feed.Notifier
	board    feed.Board
	sinks    []history.Sink
	logger   *slog.Logger
	chat     config.ChatConfig
	catchup  int
	now      func() time.Time

	lastMessageID   string
	statusMessageID string
}

func New(opts Options) *Tracker {
	t := &Tracker{
		reg:      opts.Registry,
		timers:   opts.Scheduler,
		st:       opts.Store,
		notifier: opts.Notifier,
		board:    opts.Board,
		sinks:    opts.Sinks,
		logger:   opts.Logger,
		chat:     opts.Chat,
		catchup:  opts.Catchup,
		now:      opts.Now,
	}
	if t.reg == nil {
		t.reg = farm.NewRegistry()
	}
	if t.timers == nil {
		t.timers = sched.New()
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.catchup <= 0 {
		t.catchup = 200
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// Load reads the persisted snapshot into the registry and restores the
// checkpoint. It must run before Reconcile.
func (t *Tracker) Load() error {
	snap, err := t.st.Load()
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reg.Replace(snap.Farms)
	t.lastMessageID = snap.LastMessageID
	t.statusMessageID = snap.StatusMessageID
	return nil
}

// Seed adds the given records when the registry is empty (first run) and
// persists them immediately.
func (t *Tracker) Seed(recs []farm.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reg.Len() > 0 || len(recs) == 0 {
		return nil
	}
	for _, rec := range recs {
		if rec.Status == "" {
			rec.Status = farm.StatusUnknown
		}
		if err := t.reg.Add(rec); err != nil {
			return fmt.Errorf("seed farm %q: %w", rec.Name, err)
		}
	}
	return t.persistLocked()
}

// Reconcile restores timers after a restart. Farms whose ready time already
// elapsed while offline transition straight to Ready without re-sending the
// missed notification; future ready times re-arm for the remaining delay.
// Farms left mid-cycle with no ready time are not given a fresh failsafe:
// they wait for a finish event or manual intervention.
func (t *Tracker) Reconcile(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now().UTC()
	dirty := false
	for _, rec := range t.reg.Snapshot() {
		if rec.NextReady == nil {
			continue
		}
		if rec.NextReady.After(now) {
			t.armReadyLocked(rec.Name, *rec.NextReady)
			continue
		}
		name := rec.Name
		if err := t.reg.Update(name, func(r farm.Record) farm.Record {
			r.Status = farm.StatusReady
			r.NextReady = nil
			return r
		}); err != nil {
			return err
		}
		dirty = true
		t.logger.Info("farm became ready while offline", "farm", name)
	}
	if dirty {
		if err := t.persistLocked(); err != nil {
			return err
		}
	}
	t.refreshBoardLocked(ctx)
	return nil
}

// Stop cancels all pending timers. State is already durable; a later start
// reconciles from the snapshot.
func (t *Tracker) Stop() {
	t.timers.CancelAll()
	metrics.SetTimersArmed(0)
}

// StatusMessageID exposes the current board message id for diagnostics.
func (t *Tracker) StatusMessageID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusMessageID
}

// Checkpoint exposes the last processed feed message id.
func (t *Tracker) Checkpoint() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastMessageID
}

// --- event application ---

// Apply runs one parsed lifecycle event against the named farm records.
// The farm phrase is resolved here so that ambiguity is decided in exactly
// one place: zero or multiple matches drop the event with a diagnostic.
// It reports whether the event was actually applied; dropped events must
// not advance the feed checkpoint, so a farm registered later can still
// pick them up from a restart replay.
func (t *Tracker) Apply(ctx context.Context, ev feed.Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	matches := t.reg.Resolve(ev.FarmPhrase)
	switch len(matches) {
	case 1:
	case 0:
		t.logger.Warn("feed event for unknown farm", "phrase", ev.FarmPhrase, "actor", ev.Actor)
		metrics.IncFeedLine("unresolved")
		return false
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.Name)
		}
		t.logger.Warn("feed event is ambiguous", "phrase", ev.FarmPhrase, "matches", names)
		metrics.IncFeedLine("ambiguous")
		return false
	}
	rec := matches[0]

	switch ev.Kind {
	case feed.EventStarted:
		t.applyStartedLocked(ctx, rec, ev)
	case feed.EventFinished:
		t.applyFinishedLocked(ctx, rec, ev)
	}
	return true
}

func (t *Tracker) applyStartedLocked(ctx context.Context, rec farm.Record, ev feed.Event) {
	name := rec.Name
	_ = t.reg.Update(name, func(r farm.Record) farm.Record {
		r.Status = farm.StatusFarming
		r.NextReady = nil
		return r
	})
	// Failsafe bounds how long we wait for a matching finish event. It is
	// anchored to the wall clock, not the event timestamp, so a backdated
	// replayed start still gets a full window.
	fireAt := t.now().UTC().Add(2 * rec.Runtime)
	t.timers.Arm(name, fireAt, func() { t.onFailsafe(name) })
	metrics.SetTimersArmed(t.timers.Len())
	metrics.IncEvent(string(feed.EventStarted))

	if err := t.persistLocked(); err != nil {
		t.logger.Error("persist after start event", "farm", name, "error", err)
	}
	t.refreshBoardLocked(ctx)
	t.notifyLocked(ctx, "started", fmt.Sprintf("%s has started farming %s (feed time %s).", ev.Actor, name, ev.Clock))
	t.emitLocked(history.Event{Type: history.EventStarted, OccurredAt: t.now().UTC(), Farm: name, Actor: ev.Actor, Status: string(farm.StatusFarming)})
}

func (t *Tracker) applyFinishedLocked(ctx context.Context, rec farm.Record, ev feed.Event) {
	name := rec.Name
	// The ready time derives from the event's own timestamp so that
	// replaying a backdated finish during catch-up lands on the same
	// instant it would have live.
	ready := ev.At.UTC().Add(rec.Regrow)
	_ = t.reg.Update(name, func(r farm.Record) farm.Record {
		r.Status = farm.StatusFarming
		r.NextReady = &ready
		return r
	})
	t.armReadyLocked(name, ready)
	metrics.IncEvent(string(feed.EventFinished))

	if err := t.persistLocked(); err != nil {
		t.logger.Error("persist after finish event", "farm", name, "error", err)
	}
	t.refreshBoardLocked(ctx)
	t.notifyLocked(ctx, "finished", fmt.Sprintf("%s has finished farming %s. Next ready %s.", ev.Actor, name, fmtTime(ready)))
	t.emitLocked(history.Event{Type: history.EventFinished, OccurredAt: t.now().UTC(), Farm: name, Actor: ev.Actor, Status: string(farm.StatusFarming), NextReady: ready})
}

// armReadyLocked replaces any pending timer for name with the readiness
// timer. A ready time in the past fires immediately instead of being lost.
func (t *Tracker) armReadyLocked(name string, ready time.Time) {
	t.timers.Arm(name, ready, func() { t.onReady(name) })
	metrics.SetTimersArmed(t.timers.Len())
}

// onReady fires when a farm's regrow period has elapsed.
func (t *Tracker) onReady(name string) {
	ctx := context.Background()
	t.mu.Lock()
	defer t.mu.Unlock()

	// A start event can land between the scheduler firing and this callback
	// taking the lock; it clears NextReady, which makes this timer stale.
	rec, err := t.reg.Get(name)
	if err != nil || rec.NextReady == nil {
		return
	}

	if err := t.reg.Update(name, func(r farm.Record) farm.Record {
		r.Status = farm.StatusReady
		r.NextReady = nil
		return r
	}); err != nil {
		// removed while the timer was in flight
		return
	}
	metrics.SetTimersArmed(t.timers.Len())
	metrics.IncEvent(string(history.EventReady))

	if err := t.persistLocked(); err != nil {
		t.logger.Error("persist after ready transition", "farm", name, "error", err)
	}
	t.refreshBoardLocked(ctx)
	t.notifyLocked(ctx, "ready", fmt.Sprintf("@%s %s is ready to be farmed again!", t.chat.PingRole, name))
	t.emitLocked(history.Event{Type: history.EventReady, OccurredAt: t.now().UTC(), Farm: name, Status: string(farm.StatusReady)})
}

// onFailsafe fires when a started farm never reported a finish within twice
// its runtime. If a finish arrived meanwhile (ready time set) the failsafe
// has been superseded and does nothing.
func (t *Tracker) onFailsafe(name string) {
	ctx := context.Background()
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.reg.Get(name)
	if err != nil {
		return
	}
	if rec.NextReady != nil {
		return
	}
	ready := t.now().UTC().Add(rec.Regrow)
	_ = t.reg.Update(name, func(r farm.Record) farm.Record {
		r.Status = farm.StatusFarming
		r.NextReady = &ready
		return r
	})
	t.armReadyLocked(name, ready)
	metrics.IncFailsafeRecovery()
	metrics.IncEvent(string(history.EventAutoRecovered))

	if err := t.persistLocked(); err != nil {
		t.logger.Error("persist after failsafe", "farm", name, "error", err)
	}
	t.refreshBoardLocked(ctx)
	t.notifyLocked(ctx, "auto_recovered", fmt.Sprintf("@%s %s has auto-switched to regrowing (failsafe). Next ready %s.", t.chat.PingRole, name, fmtTime(ready)))
	t.emitLocked(history.Event{Type: history.EventAutoRecovered, OccurredAt: t.now().UTC(), Farm: name, Status: string(farm.StatusFarming), NextReady: ready})
}

// --- side effects (all called with t.mu held) ---

// persistLocked rewrites the whole snapshot. It runs before any notification
// for the same transition so a crash never leaves durable state behind what
// an observer has already been told.
func (t *Tracker) persistLocked() error {
	snap := store.Snapshot{
		LastMessageID:   t.lastMessageID,
		StatusMessageID: t.statusMessageID,
		Farms:           t.reg.Snapshot(),
	}
	if err := t.st.Save(snap); err != nil {
		return err
	}
	metrics.IncSnapshotSave()
	metrics.SetTrackedFarms(t.reg.Len())
	return nil
}

func (t *Tracker) notifyLocked(ctx context.Context, kind, text string) {
	if t.notifier == nil || t.chat.UpdatesChannel == "" {
		return
	}
	if err := t.notifier.Send(ctx, t.chat.UpdatesChannel, text); err != nil {
		t.logger.Warn("notification dropped", "kind", kind, "error", err)
		metrics.IncNotifyFailure()
		return
	}
	metrics.IncNotification(kind)
}

func (t *Tracker) emitLocked(e history.Event) {
	for _, s := range t.sinks {
		if err := s.Send(context.Background(), e); err != nil {
			t.logger.Warn("history sink send failed", "type", e.Type, "farm", e.Farm, "error", err)
		}
	}
}

func fmtTime(ts time.Time) string {
	return ts.UTC().Format("2006-01-02 15:04:05 UTC")
}
