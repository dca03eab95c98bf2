// Package pet composes the five simulation components into one companion:
// it routes clicks into the behavior machine, item reactions into the needs
// model and walking steps into the window position, and re-publishes every
// component notification on a single tagged stream.
package pet

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/talgya/desk-pet/internal/behavior"
	"github.com/talgya/desk-pet/internal/engine"
	"github.com/talgya/desk-pet/internal/entropy"
	"github.com/talgya/desk-pet/internal/events"
	"github.com/talgya/desk-pet/internal/geom"
	"github.com/talgya/desk-pet/internal/interaction"
	"github.com/talgya/desk-pet/internal/items"
	"github.com/talgya/desk-pet/internal/needs"
	"github.com/talgya/desk-pet/internal/pointer"
)

const (
	taskWalk = "walk"

	// Needs below this are reported as urgent in Status.
	urgentThreshold = 30
)

// History records stat changes. persistence.DB satisfies it.
type History interface {
	SaveStatEvents(ctx context.Context, at time.Time, deltas []needs.Delta) error
}

// Options configures a Companion.
type Options struct {
	Behavior    behavior.Config
	Interaction interaction.Config
	Pointer     pointer.Config
	Needs       needs.Config
	Catalog     []items.Definition
	WalkFrame   time.Duration // interval between walking steps

	Store   needs.Store    // nil keeps needs in memory
	History History        // nil disables stat history
	Random  entropy.Source // nil uses crypto/rand
}

// DefaultOptions returns every component's defaults and the built-in
// catalog.
func DefaultOptions() Options {
	return Options{
		Behavior:    behavior.DefaultConfig(),
		Interaction: interaction.DefaultConfig(),
		Pointer:     pointer.DefaultConfig(),
		Needs:       needs.DefaultConfig(),
		Catalog:     items.DefaultCatalog(),
		WalkFrame:   50 * time.Millisecond,
	}
}

// Companion owns one instance of each component. Like the components, it
// must only be used from the scheduler's goroutine.
type Companion struct {
	Behavior    *behavior.Machine
	Interaction *interaction.Detector
	Pointer     *pointer.Tracker
	Items       *items.Engine
	Needs       *needs.Model

	sched   engine.Scheduler
	history History
	walk    time.Duration
	window  behavior.WalkContext
	size    geom.Size
	started time.Time

	tasks  engine.Tasks
	unsub  []func()
	notes  *events.Registry[Notification]
	closed bool
}

// New builds and wires a companion. The needs snapshot is loaded (with any
// offline catch-up) during construction. Call Start to run the tickers.
func New(ctx context.Context, opts Options, sched engine.Scheduler) *Companion {
	rnd := entropy.Or(opts.Random)
	if opts.WalkFrame <= 0 {
		opts.WalkFrame = DefaultOptions().WalkFrame
	}
	c := &Companion{
		Behavior:    behavior.New(opts.Behavior, sched, rnd),
		Interaction: interaction.New(opts.Interaction, sched, rnd),
		Pointer:     pointer.New(opts.Pointer, sched),
		Items:       items.NewEngine(opts.Catalog, sched),
		Needs:       needs.New(ctx, opts.Needs, opts.Store, sched),
		sched:       sched,
		history:     opts.History,
		walk:        opts.WalkFrame,
		started:     sched.Now(),
		notes:       events.NewRegistry[Notification]("companion"),
	}

	if offline := c.Needs.OfflineDeltas(); len(offline) > 0 {
		c.record(c.Needs.Snapshot().LastUpdated, offline)
	}

	c.unsub = append(c.unsub,
		c.Behavior.Subscribe(c.onBehavior),
		c.Interaction.OnClassification(c.onClick),
		c.Interaction.OnEmotion(func(e interaction.EmotionEvent) { c.publish(KindEmotion, e) }),
		c.Pointer.Subscribe(func(d pointer.TrackingData) { c.publish(KindTracking, d) }),
		c.Items.OnReaction(c.onReaction),
		c.Needs.Subscribe(c.onNeeds),
	)
	return c
}

// Start runs the behavior, needs and emotion tickers.
func (c *Companion) Start() {
	if c.closed {
		return
	}
	c.Behavior.Start()
	c.Needs.Start()
	c.Interaction.Start()
	slog.Info("companion started",
		"state", c.Behavior.State(),
		"condition", c.Needs.OverallCondition(),
	)
}

// Subscribe registers fn for every tagged notification.
func (c *Companion) Subscribe(fn func(Notification)) (unsubscribe func()) {
	return c.notes.Subscribe(fn)
}

func (c *Companion) publish(kind Kind, payload any) {
	c.notes.Notify(Notification{Kind: kind, Payload: payload, At: c.sched.Now()})
}

func (c *Companion) onClick(cl interaction.Classification) {
	if cl.Pattern != interaction.PatternLongPress {
		c.Behavior.OnUserInteraction()
	}
	c.notes.Notify(Notification{
		Kind:      KindClick,
		Payload:   cl,
		EasterEgg: cl.Pattern.EasterEgg(),
		At:        c.sched.Now(),
	})
}

func (c *Companion) onBehavior(e behavior.Event) {
	if e.Type == behavior.EventStateChange {
		if e.State == behavior.StateWalking {
			c.tasks.Replace(taskWalk, c.sched.Every(c.walk, c.step))
		} else {
			c.tasks.Stop(taskWalk)
		}
	}
	c.publish(KindBehavior, e)
}

// step advances one walking frame inside the last reported window bounds.
func (c *Companion) step() {
	if c.window.Bounds.Width <= 0 || c.window.Bounds.Height <= 0 {
		return
	}
	c.window.Position = c.Behavior.UpdateWalkingPosition(c.window)
	c.Pointer.UpdatePetData(c.window.Position, c.size)
}

func (c *Companion) onReaction(r items.Reaction) {
	c.publish(KindReaction, r)
	var deltas []needs.Delta
	for _, eff := range r.StatEffects {
		stat, ok := effectStats[eff.Type]
		if !ok {
			continue
		}
		deltas = append(deltas, needs.Delta{Stat: stat, Amount: eff.Value, Reason: "item:" + r.ItemID})
	}
	c.Needs.ChangeStats(deltas)
}

func (c *Companion) onNeeds(u needs.Update) {
	c.record(u.Snapshot.LastUpdated, u.Deltas)
	c.publish(KindNeeds, u)
}

func (c *Companion) record(at time.Time, deltas []needs.Delta) {
	if c.history == nil {
		return
	}
	if err := c.history.SaveStatEvents(context.Background(), at, deltas); err != nil {
		slog.Error("save stat history failed", "changes", len(deltas), "error", err)
	}
}

// Click feeds a host click into the detector.
func (c *Companion) Click() interaction.Classification {
	return c.Interaction.HandleClick()
}

// Hover moves the pet into or out of the external hover state. Entering
// hover counts as an interaction.
func (c *Companion) Hover(on bool) {
	if on {
		c.Behavior.OnUserInteraction()
		c.Behavior.SetState(behavior.StateHover)
		return
	}
	if c.Behavior.State() == behavior.StateHover {
		c.Behavior.SetState(behavior.StateIdle)
	}
}

// PointerMove records a host pointer sample.
func (c *Companion) PointerMove(p geom.Point) {
	c.Pointer.MouseMove(p)
}

// SetWindow records the pet window's position, size and movement bounds.
// Tracking starts on the first report.
func (c *Companion) SetWindow(pos geom.Point, size geom.Size, bounds geom.Rect) {
	c.window = behavior.WalkContext{Position: pos, Bounds: bounds}
	c.size = size
	if !c.Pointer.IsTracking() && !c.closed {
		c.Pointer.StartTracking(pos, size)
		return
	}
	c.Pointer.UpdatePetData(pos, size)
}

// Window returns the last known window state.
func (c *Companion) Window() (behavior.WalkContext, geom.Size) {
	return c.window, c.size
}

// SetState forces a behavior state.
func (c *Companion) SetState(s behavior.State) {
	c.Behavior.SetState(s)
}

// TriggerEmotion shows an emotion immediately.
func (c *Companion) TriggerEmotion(e interaction.Emotion, text string, d time.Duration) interaction.EmotionEvent {
	return c.Interaction.TriggerSpecialEmotion(e, text, d)
}

// UseItem applies an item; stat effects flow into the needs model.
func (c *Companion) UseItem(id string, pos *geom.Point) (*items.Reaction, items.Availability) {
	av := c.Items.CanUseItem(id)
	if !av.CanUse {
		return nil, av
	}
	return c.Items.UseItem(id, pos), av
}

// Status is a point-in-time summary. Durations are encoded in milliseconds.
type Status struct {
	State         behavior.State       `json:"state"`
	Position      geom.Point           `json:"position"`
	Target        *geom.Point          `json:"target,omitempty"`
	Pointer       geom.Point           `json:"pointer"`
	Needs         needs.Snapshot       `json:"needs"`
	Condition     needs.Condition      `json:"condition"`
	Urgent        needs.Stat           `json:"urgent,omitempty"`
	StoreDegraded bool                 `json:"store_degraded,omitempty"`
	ActiveEffects []items.ActiveEffect `json:"active_effects"`
	Clicks        int                  `json:"clicks"`
	Tracking      bool                 `json:"tracking"`
	Interacting   bool                 `json:"interacting"`
	IdleFor       time.Duration        `json:"idle_for"`
	Uptime        time.Duration        `json:"uptime"`
}

func (s Status) MarshalJSON() ([]byte, error) {
	type alias Status
	return json.Marshal(struct {
		alias
		IdleFor int64 `json:"idle_for"`
		Uptime  int64 `json:"uptime"`
	}{alias(s), s.IdleFor.Milliseconds(), s.Uptime.Milliseconds()})
}

func (s *Status) UnmarshalJSON(b []byte) error {
	type alias Status
	aux := struct {
		*alias
		IdleFor int64 `json:"idle_for"`
		Uptime  int64 `json:"uptime"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.IdleFor = time.Duration(aux.IdleFor) * time.Millisecond
	s.Uptime = time.Duration(aux.Uptime) * time.Millisecond
	return nil
}

// Status summarizes the companion.
func (c *Companion) Status() Status {
	snap := c.Needs.Snapshot()
	s := Status{
		State:         c.Behavior.State(),
		Position:      c.window.Position,
		Pointer:       c.Pointer.Mouse(),
		Needs:         snap,
		Condition:     c.Needs.OverallCondition(),
		StoreDegraded: c.Needs.Degraded(),
		ActiveEffects: c.Items.ActiveEffects(),
		Clicks:        c.Interaction.ClickCount(),
		Tracking:      c.Pointer.IsTracking(),
		Interacting:   c.Behavior.IsUserInteracting(),
		IdleFor:       c.Behavior.IdleDuration(),
		Uptime:        c.sched.Now().Sub(c.started),
	}
	if t, ok := c.Behavior.Target(); ok {
		s.Target = &t
	}
	if stat, ok := snap.Urgent(urgentThreshold); ok {
		s.Urgent = stat
	}
	return s
}

// Close tears everything down. No notification fires afterwards.
func (c *Companion) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.tasks.StopAll()
	for _, u := range c.unsub {
		u()
	}
	c.Behavior.Close()
	c.Interaction.Close()
	c.Pointer.Close()
	c.Items.Close()
	c.Needs.Close()
	c.notes.Clear()
	slog.Info("companion closed")
}
