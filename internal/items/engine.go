package items

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/desk-pet/internal/events"
	"github.com/talgya/desk-pet/internal/geom"
)

// Refusal reasons surfaced through Availability.
var (
	ErrNotFound   = errors.New("not found")
	ErrUsageLimit = errors.New("usage limit exceeded")
	ErrOnCooldown = errors.New("on cooldown")
)

// Clock supplies the current time. engine.Scheduler satisfies it.
type Clock interface {
	Now() time.Time
}

// Availability is the answer to "can this item be used now".
type Availability struct {
	CanUse            bool          `json:"can_use"`
	Reason            string        `json:"reason,omitempty"`
	CooldownRemaining time.Duration `json:"cooldown_remaining,omitempty"`
	Err               error         `json:"-"`
}

func refuse(err error, remaining time.Duration) Availability {
	return Availability{Reason: err.Error(), CooldownRemaining: remaining, Err: err}
}

// Engine applies item effects. Like every other component it is driven
// from a single goroutine and takes no locks.
type Engine struct {
	clock   Clock
	catalog map[string]Definition
	order   []string

	usage     map[string]*UsageRecord
	active    map[string]ActiveEffect
	reactions *events.Registry[Reaction]
}

// NewEngine creates an engine over catalog. Later duplicates of an ID
// replace earlier ones.
func NewEngine(catalog []Definition, clock Clock) *Engine {
	e := &Engine{
		clock:     clock,
		catalog:   make(map[string]Definition, len(catalog)),
		usage:     make(map[string]*UsageRecord),
		active:    make(map[string]ActiveEffect),
		reactions: events.NewRegistry[Reaction]("reactions"),
	}
	for _, d := range catalog {
		if _, dup := e.catalog[d.ID]; !dup {
			e.order = append(e.order, d.ID)
		}
		e.catalog[d.ID] = d
	}
	return e
}

// OnReaction registers fn for reactions to successful uses.
func (e *Engine) OnReaction(fn func(Reaction)) (unsubscribe func()) {
	return e.reactions.Subscribe(fn)
}

// Item looks up a catalog entry.
func (e *Engine) Item(id string) (Definition, bool) {
	d, ok := e.catalog[id]
	return d, ok
}

// Catalog returns the catalog in definition order.
func (e *Engine) Catalog() []Definition {
	out := make([]Definition, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.catalog[id])
	}
	return out
}

// CanUseItem checks existence, usage limit and cooldown, in that order.
func (e *Engine) CanUseItem(id string) Availability {
	d, ok := e.catalog[id]
	if !ok {
		return refuse(ErrNotFound, 0)
	}
	rec := e.usage[id]
	if rec == nil {
		return Availability{CanUse: true}
	}
	if d.UsageLimit > 0 && rec.UsageCount >= d.UsageLimit {
		return refuse(ErrUsageLimit, 0)
	}
	if remaining := e.remaining(d, rec); remaining > 0 {
		return refuse(ErrOnCooldown, remaining)
	}
	return Availability{CanUse: true}
}

// UseItem applies an item. It returns nil without touching any state when
// the item cannot be used.
func (e *Engine) UseItem(id string, pos *geom.Point) *Reaction {
	if av := e.CanUseItem(id); !av.CanUse {
		slog.Debug("item refused", "item", id, "reason", av.Reason)
		return nil
	}
	d := e.catalog[id]
	now := e.clock.Now()

	rec := e.usage[id]
	if rec == nil {
		rec = &UsageRecord{ItemID: id}
		e.usage[id] = rec
	}
	rec.UsageCount++
	rec.LastUsedAt = now

	r := Reaction{ID: uuid.NewString(), ItemID: id, At: now}
	if pos != nil {
		p := *pos
		r.Position = &p
	}
	for _, eff := range d.Effects {
		switch eff.Type {
		case EffectTextDisplay:
			r.Message = eff.Text
			r.Duration = max(r.Duration, eff.Duration)
		case EffectStateChange, EffectAnimationTrigger:
			r.Animation = eff.Text
			r.Duration = max(r.Duration, eff.Duration)
		case EffectSoundPlay:
			r.Sound = eff.Text
		}
		if eff.Type.AffectsStats() {
			r.StatEffects = append(r.StatEffects, eff)
		}
		if eff.Type.Timed() && eff.Duration > 0 {
			key := id + "_" + string(eff.Type)
			e.active[key] = ActiveEffect{Key: key, ItemID: id, Effect: eff, ExpiresAt: now.Add(eff.Duration)}
		}
	}

	slog.Info("item used", "item", id, "count", rec.UsageCount, "reaction", r.ID)
	e.reactions.Notify(r)
	return &r
}

// ActiveEffects evicts expired effects and returns the rest ordered by
// expiry.
func (e *Engine) ActiveEffects() []ActiveEffect {
	now := e.clock.Now()
	out := make([]ActiveEffect, 0, len(e.active))
	for key, a := range e.active {
		if !now.Before(a.ExpiresAt) {
			delete(e.active, key)
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out
}

// CooldownRemaining is 0 for unknown, never-used or cooldown-free items.
func (e *Engine) CooldownRemaining(id string) time.Duration {
	d, ok := e.catalog[id]
	if !ok {
		return 0
	}
	rec := e.usage[id]
	if rec == nil {
		return 0
	}
	return e.remaining(d, rec)
}

func (e *Engine) remaining(d Definition, rec *UsageRecord) time.Duration {
	if d.Cooldown <= 0 {
		return 0
	}
	return max(0, rec.LastUsedAt.Add(d.Cooldown).Sub(e.clock.Now()))
}

// Usage returns a copy of the usage record for id.
func (e *Engine) Usage(id string) (UsageRecord, bool) {
	rec := e.usage[id]
	if rec == nil {
		return UsageRecord{}, false
	}
	return *rec, true
}

// ResetUsage forgets the usage record and active effects of one item.
func (e *Engine) ResetUsage(id string) {
	delete(e.usage, id)
	for key, a := range e.active {
		if a.ItemID == id {
			delete(e.active, key)
		}
	}
}

// ResetAll forgets every usage record and active effect.
func (e *Engine) ResetAll() {
	clear(e.usage)
	clear(e.active)
}

// Close drops listeners.
func (e *Engine) Close() {
	e.reactions.Clear()
}
