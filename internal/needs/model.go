package needs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/desk-pet/internal/engine"
	"github.com/talgya/desk-pet/internal/events"
)

const (
	reasonTick      = "time decay"
	reasonOffline   = "offline time"
	reasonReset     = "reset"
	reasonRecovered = "store recovered"
)

// Store persists the snapshot under a single key.
type Store interface {
	Load(ctx context.Context, key string) (value []byte, found bool, err error)
	Save(ctx context.Context, key string, value []byte) error
}

// record is the persisted shape. Pointer fields let a partial record fall
// back to defaults field by field.
type record struct {
	Happiness   *float64 `json:"happiness,omitempty"`
	Hunger      *float64 `json:"hunger,omitempty"`
	Energy      *float64 `json:"energy,omitempty"`
	Health      *float64 `json:"health,omitempty"`
	Cleanliness *float64 `json:"cleanliness,omitempty"`
	LastUpdated *int64   `json:"lastUpdated,omitempty"` // unix milliseconds
}

// Model owns the live resource state, decays it on a fixed tick and persists
// every mutation.
type Model struct {
	cfg     Config
	sched   engine.Scheduler
	store   Store
	state   Snapshot
	offline []Delta
	// degraded is set when the stored record could not be read. Saves are
	// held back so the defaults in memory never overwrite it.
	degraded bool
	tasks    engine.Tasks
	updates *events.Registry[Update]
	closed  bool
}

// New loads the saved snapshot (or defaults) and applies offline catch-up
// when the pet has been away longer than cfg.OfflineThreshold. A nil store
// keeps everything in memory. If the store cannot be read the model runs on
// defaults without saving until a later load succeeds or the stats are
// changed directly. Call Start to begin live decay.
func New(ctx context.Context, cfg Config, store Store, sched engine.Scheduler) *Model {
	m := &Model{
		cfg:     cfg,
		sched:   sched,
		store:   store,
		updates: events.NewRegistry[Update]("needs"),
	}

	snap, found, err := m.load(ctx)
	if err != nil {
		slog.Error("load needs snapshot failed, running on defaults", "key", cfg.StorageKey, "error", err)
		m.degraded = true
		m.state = snap
		m.state.LastUpdated = sched.Now()
		return m
	}

	m.state = snap
	if found {
		m.offline = m.catchUp()
	}
	m.state.LastUpdated = sched.Now()
	m.save(ctx)
	return m
}

// catchUp decays m.state by the time elapsed since its LastUpdated, if that
// exceeds the offline threshold.
func (m *Model) catchUp() []Delta {
	last := m.state.LastUpdated
	if last.IsZero() {
		return nil
	}
	away := m.sched.Now().Sub(last)
	if away <= m.cfg.OfflineThreshold {
		return nil
	}
	deltas := decay(&m.state, away.Minutes(), reasonOffline, reasonOffline, m.cfg.Rates, m.cfg.Rules)
	slog.Info("applied offline decay",
		"last_seen", humanize.Time(last),
		"minutes", fmt.Sprintf("%.1f", away.Minutes()),
		"changes", len(deltas),
	)
	return deltas
}

// load reads the stored record. A store fault is returned with the defaults;
// an undecodable record is logged and treated as absent, so the next save
// replaces it.
func (m *Model) load(ctx context.Context) (Snapshot, bool, error) {
	snap := m.cfg.Defaults
	if m.store == nil {
		return snap, false, nil
	}

	raw, found, err := m.store.Load(ctx, m.cfg.StorageKey)
	if err != nil {
		return snap, false, err
	}
	if !found {
		return snap, false, nil
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		slog.Error("decode needs snapshot failed, replacing with defaults", "key", m.cfg.StorageKey, "error", err)
		return snap, false, nil
	}

	merge := func(stat Stat, v *float64) {
		if v != nil {
			snap.set(stat, clamp(*v, MinValue, MaxValue))
		}
	}
	merge(Happiness, rec.Happiness)
	merge(Hunger, rec.Hunger)
	merge(Energy, rec.Energy)
	merge(Health, rec.Health)
	merge(Cleanliness, rec.Cleanliness)
	if rec.LastUpdated != nil {
		snap.LastUpdated = time.UnixMilli(*rec.LastUpdated)
	}
	return snap, true, nil
}

// retryLoad retries the load while degraded. On success the stored record
// replaces the in-memory defaults and is caught up to now.
func (m *Model) retryLoad(ctx context.Context) {
	snap, found, err := m.load(ctx)
	if err != nil {
		slog.Debug("needs store still unavailable", "error", err)
		return
	}
	m.degraded = false
	if !found {
		return
	}
	prev := m.state
	m.state = snap
	m.catchUp()
	m.state.LastUpdated = m.sched.Now()
	slog.Info("needs store recovered", "condition", m.OverallCondition())

	// One update covers the switch from defaults, catch-up included.
	var changes []Delta
	for _, stat := range Stats {
		if d := m.state.Get(stat) - prev.Get(stat); d != 0 {
			changes = append(changes, Delta{Stat: stat, Amount: d, Reason: reasonRecovered})
		}
	}
	m.save(ctx)
	if len(changes) > 0 {
		m.updates.Notify(Update{Snapshot: m.state, Deltas: changes})
	}
}

func (m *Model) save(ctx context.Context) {
	if m.store == nil || m.degraded {
		return
	}
	s := m.state
	ms := s.LastUpdated.UnixMilli()
	rec := record{
		Happiness:   &s.Happiness,
		Hunger:      &s.Hunger,
		Energy:      &s.Energy,
		Health:      &s.Health,
		Cleanliness: &s.Cleanliness,
		LastUpdated: &ms,
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		slog.Error("encode needs snapshot failed", "error", err)
		return
	}
	if err := m.store.Save(ctx, m.cfg.StorageKey, raw); err != nil {
		slog.Error("save needs snapshot failed", "key", m.cfg.StorageKey, "error", err)
	}
}

// Start begins the live decay ticker.
func (m *Model) Start() {
	if m.closed {
		return
	}
	m.tasks.Replace("decay", m.sched.Every(m.cfg.TickInterval, m.tick))
}

func (m *Model) tick() {
	if m.degraded {
		m.retryLoad(context.Background())
	}
	next := m.state
	deltas := Decay(&next, m.cfg.TickMinutes, reasonTick, m.cfg.Rates, m.cfg.Rules)
	m.commit(next, deltas)
}

// commit stamps, persists and publishes next. A commit without deltas still
// refreshes LastUpdated so offline catch-up measures from the latest tick.
func (m *Model) commit(next Snapshot, deltas []Delta) {
	next.LastUpdated = m.sched.Now()
	m.state = next
	m.save(context.Background())
	if len(deltas) > 0 {
		m.updates.Notify(Update{Snapshot: m.state, Deltas: deltas})
	}
}

// ChangeStat applies one change. Changes that clamp to nothing are dropped
// without a notification.
func (m *Model) ChangeStat(stat Stat, amount float64, reason string) {
	m.ChangeStats([]Delta{{Stat: stat, Amount: amount, Reason: reason}})
}

// ChangeStats applies several changes in order against the running state and
// publishes a single update.
func (m *Model) ChangeStats(changes []Delta) {
	if m.closed {
		return
	}
	next := m.state
	var deltas []Delta
	for _, c := range changes {
		if !c.Stat.Valid() {
			slog.Warn("ignoring change to unknown stat", "stat", c.Stat, "reason", c.Reason)
			continue
		}
		deltas = apply(&next, c.Stat, c.Amount, c.Reason, deltas)
	}
	if len(deltas) == 0 {
		return
	}
	// A direct change makes the in-memory state authoritative.
	m.degraded = false
	m.commit(next, deltas)
}

// Reset restores the default snapshot.
func (m *Model) Reset() {
	if m.closed {
		return
	}
	next := m.state
	var deltas []Delta
	for _, stat := range Stats {
		deltas = apply(&next, stat, m.cfg.Defaults.Get(stat)-next.Get(stat), reasonReset, deltas)
	}
	m.degraded = false
	m.commit(next, deltas)
}

// Snapshot returns a copy of the current state.
func (m *Model) Snapshot() Snapshot {
	return m.state
}

// Get returns one resource value.
func (m *Model) Get(stat Stat) float64 {
	return m.state.Get(stat)
}

// OverallCondition classifies the mean of the five resources.
func (m *Model) OverallCondition() Condition {
	return ClassifyCondition(m.state.Mean())
}

// Degraded reports whether the stored snapshot could not be read and saves
// are being held back.
func (m *Model) Degraded() bool {
	return m.degraded
}

// OfflineDeltas returns the catch-up changes applied at construction.
func (m *Model) OfflineDeltas() []Delta {
	return m.offline
}

// Subscribe registers fn for every committed update.
func (m *Model) Subscribe(fn func(Update)) (unsubscribe func()) {
	return m.updates.Subscribe(fn)
}

// Close stops decay and drops listeners. Later mutations are ignored.
func (m *Model) Close() {
	m.closed = true
	m.tasks.StopAll()
	m.updates.Clear()
}
