package pet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/talgya/desk-pet/internal/behavior"
	"github.com/talgya/desk-pet/internal/engine"
	"github.com/talgya/desk-pet/internal/entropy"
	"github.com/talgya/desk-pet/internal/geom"
	"github.com/talgya/desk-pet/internal/interaction"
	"github.com/talgya/desk-pet/internal/items"
	"github.com/talgya/desk-pet/internal/needs"
	"github.com/talgya/desk-pet/internal/persistence"
)

var epoch = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

type fakeHistory struct {
	rows []needs.Delta
	err  error
}

func (h *fakeHistory) SaveStatEvents(_ context.Context, _ time.Time, deltas []needs.Delta) error {
	h.rows = append(h.rows, deltas...)
	return h.err
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Behavior.Walking.NoiseSeed = 1
	opts.Behavior.Walking.StepVariation = 0
	opts.Interaction.Location = time.UTC
	opts.Random = entropy.NewSequence(0.5)
	return opts
}

func newCompanion(t *testing.T, opts Options) (*Companion, *engine.Virtual, *[]Notification) {
	t.Helper()
	sched := engine.NewVirtual(epoch)
	c := New(context.Background(), opts, sched)
	t.Cleanup(c.Close)
	var got []Notification
	c.Subscribe(func(n Notification) { got = append(got, n) })
	return c, sched, &got
}

func kinds(ns []Notification) map[Kind]int {
	out := make(map[Kind]int)
	for _, n := range ns {
		out[n.Kind]++
	}
	return out
}

func TestClick_InterruptsBusyState(t *testing.T) {
	c, _, got := newCompanion(t, testOptions())
	c.SetState(behavior.StateSleeping)

	cl := c.Click()
	if cl.Pattern != interaction.PatternClick {
		t.Fatalf("expected plain click, got %s", cl.Pattern)
	}
	if c.Behavior.State() != behavior.StateIdle {
		t.Errorf("click should force idle, got %s", c.Behavior.State())
	}
	if !c.Behavior.IsUserInteracting() {
		t.Error("click should count as interaction")
	}
	if k := kinds(*got); k[KindClick] != 1 || k[KindBehavior] < 2 {
		t.Errorf("unexpected notifications %v", k)
	}
}

func TestUseItem_FeedsNeedsAndHistory(t *testing.T) {
	hist := &fakeHistory{}
	opts := testOptions()
	opts.History = hist
	c, _, got := newCompanion(t, opts)

	r, av := c.UseItem("fish", nil)
	if r == nil || !av.CanUse {
		t.Fatalf("expected fish to be usable, got %+v", av)
	}
	if h := c.Needs.Get(needs.Happiness); h != 100 {
		t.Errorf("expected happiness 100 after fish, got %v", h)
	}
	if len(hist.rows) != 1 || hist.rows[0].Reason != "item:fish" || hist.rows[0].Amount != 20 {
		t.Errorf("unexpected history %+v", hist.rows)
	}
	k := kinds(*got)
	if k[KindReaction] != 1 || k[KindNeeds] != 1 {
		t.Errorf("unexpected notifications %v", k)
	}
	if (*got)[0].Kind != KindReaction {
		t.Errorf("reaction should publish before the needs update, got %s first", (*got)[0].Kind)
	}
}

func TestUseItem_Refused(t *testing.T) {
	c, _, got := newCompanion(t, testOptions())
	r, av := c.UseItem("unicorn", nil)
	if r != nil || av.CanUse || !errors.Is(av.Err, items.ErrNotFound) {
		t.Errorf("expected not found, got %+v", av)
	}
	if len(*got) != 0 {
		t.Errorf("refusal must not notify, got %+v", *got)
	}
}

func TestWalking_MovesWindow(t *testing.T) {
	opts := testOptions()
	opts.Behavior.IdleStateChangeInterval = time.Second
	opts.Behavior.Probabilities = behavior.Probabilities{Walking: 1}
	c, sched, got := newCompanion(t, opts)

	start := geom.Point{X: 100, Y: 100}
	c.SetWindow(start, geom.Size{Width: 50, Height: 50}, geom.Rect{Width: 800, Height: 600})
	c.Start()

	sched.Advance(time.Second)
	if c.Behavior.State() != behavior.StateWalking {
		t.Fatalf("expected walking, got %s", c.Behavior.State())
	}
	target, ok := c.Behavior.Target()
	if ok {
		t.Fatalf("target should be picked on the first step, got %+v", target)
	}

	sched.Advance(500 * time.Millisecond)
	win, _ := c.Window()
	target, ok = c.Behavior.Target()
	if !ok {
		t.Fatal("expected a walk target")
	}
	if win.Position == start {
		t.Fatal("window did not move")
	}
	if win.Position.Distance(target) >= start.Distance(target) {
		t.Errorf("pet should approach target %+v, at %+v", target, win.Position)
	}
	if k := kinds(*got); k[KindTracking] < 2 {
		t.Errorf("walking should refresh tracking, got %v", k)
	}

	sched.Advance(opts.Behavior.Durations.Walking)
	if c.Behavior.State() == behavior.StateWalking {
		t.Fatal("walk should have ended")
	}
	stopped, _ := c.Window()
	sched.Advance(100 * time.Millisecond)
	if after, _ := c.Window(); after.Position != stopped.Position {
		t.Error("window moved after walking ended")
	}
}

func TestWalking_WaitsForWindowBounds(t *testing.T) {
	c, sched, _ := newCompanion(t, testOptions())
	c.SetState(behavior.StateWalking)
	sched.Advance(time.Second)
	if _, ok := c.Behavior.Target(); ok {
		t.Error("no target should be picked without window bounds")
	}
}

func TestNew_RecordsOfflineDecay(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewMemoryStore()
	away := epoch.Add(-10 * time.Minute).UnixMilli()
	raw := fmt.Sprintf(`{"happiness":80,"hunger":80,"energy":80,"health":100,"cleanliness":80,"lastUpdated":%d}`, away)
	store.Save(ctx, "pet_needs", []byte(raw))

	hist := &fakeHistory{}
	opts := testOptions()
	opts.Store = store
	opts.History = hist
	c, _, _ := newCompanion(t, opts)

	if len(hist.rows) != len(needs.Stats) {
		t.Fatalf("expected one offline delta per stat, got %+v", hist.rows)
	}
	for _, d := range hist.rows {
		if d.Reason != "offline time" {
			t.Errorf("unexpected reason %q", d.Reason)
		}
	}
	if h := c.Needs.Get(needs.Hunger); h != 72 {
		t.Errorf("expected hunger 72 after 10 minutes, got %v", h)
	}
}

func TestHistoryFailureIsLogged(t *testing.T) {
	opts := testOptions()
	opts.History = &fakeHistory{err: errors.New("disk full")}
	c, _, _ := newCompanion(t, opts)
	c.Needs.ChangeStat(needs.Energy, -10, "test")
	if e := c.Needs.Get(needs.Energy); e != 70 {
		t.Errorf("needs must keep working, got %v", e)
	}
}

func TestHover(t *testing.T) {
	c, _, _ := newCompanion(t, testOptions())
	c.SetState(behavior.StateObserving)
	c.Hover(true)
	if c.Behavior.State() != behavior.StateHover {
		t.Fatalf("expected hover, got %s", c.Behavior.State())
	}
	c.Hover(false)
	if c.Behavior.State() != behavior.StateIdle {
		t.Errorf("expected idle after hover, got %s", c.Behavior.State())
	}
}

func TestStatus(t *testing.T) {
	c, sched, _ := newCompanion(t, testOptions())
	c.SetWindow(geom.Point{X: 5, Y: 6}, geom.Size{Width: 10, Height: 10}, geom.Rect{Width: 100, Height: 100})
	c.UseItem("coffee", nil)
	sched.Advance(time.Minute / 2)

	s := c.Status()
	if s.State != behavior.StateIdle || s.Position != (geom.Point{X: 5, Y: 6}) {
		t.Errorf("unexpected status %+v", s)
	}
	if !s.Tracking {
		t.Error("window report should start tracking")
	}
	if len(s.ActiveEffects) != 1 {
		t.Errorf("expected coffee effect, got %+v", s.ActiveEffects)
	}
	if s.Uptime != 30*time.Second {
		t.Errorf("uptime = %v", s.Uptime)
	}
}

func TestClose_SilencesEverything(t *testing.T) {
	c, sched, got := newCompanion(t, testOptions())
	c.SetWindow(geom.Point{}, geom.Size{Width: 10, Height: 10}, geom.Rect{Width: 100, Height: 100})
	c.Start()
	c.SetState(behavior.StateWalking)
	c.Click()
	n := len(*got)

	c.Close()
	sched.Advance(time.Hour)
	c.Needs.ChangeStat(needs.Happiness, -5, "late")
	if len(*got) != n {
		t.Errorf("notifications after Close: %+v", (*got)[n:])
	}
	if sched.Pending() != 0 {
		t.Errorf("expected no pending tasks, got %d", sched.Pending())
	}
}

func TestClick_TagsEasterEggs(t *testing.T) {
	c, _, got := newCompanion(t, testOptions())
	c.Click()
	if cl := c.Click(); cl.Pattern != interaction.PatternDoubleClick {
		t.Fatalf("expected double click, got %s", cl.Pattern)
	}

	var tags []bool
	for _, n := range *got {
		if n.Kind == KindClick {
			tags = append(tags, n.EasterEgg)
		}
	}
	if len(tags) != 2 || tags[0] || !tags[1] {
		t.Errorf("expected only the double click tagged, got %v", tags)
	}
}

func TestStatus_UrgentAndPointer(t *testing.T) {
	c, _, _ := newCompanion(t, testOptions())
	c.PointerMove(geom.Point{X: 40, Y: 41})
	c.Needs.ChangeStat(needs.Hunger, -70, "test")

	s := c.Status()
	if s.Urgent != needs.Hunger {
		t.Errorf("expected hunger urgent, got %q", s.Urgent)
	}
	if s.Pointer != (geom.Point{X: 40, Y: 41}) {
		t.Errorf("pointer = %+v", s.Pointer)
	}

	c.Needs.Reset()
	if s := c.Status(); s.Urgent != "" {
		t.Errorf("default needs should not be urgent, got %q", s.Urgent)
	}
}

func TestStatusJSON_Milliseconds(t *testing.T) {
	c, sched, _ := newCompanion(t, testOptions())
	sched.Advance(90 * time.Second)

	raw, err := json.Marshal(c.Status())
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatal(err)
	}
	if fields["uptime"] != float64(90000) {
		t.Errorf("uptime not in ms: %v", fields["uptime"])
	}
	var back Status
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back.Uptime != 90*time.Second || back.State != behavior.StateIdle {
		t.Errorf("decode mismatch: %+v", back)
	}
}

func TestEmotionNotificationJSON_Milliseconds(t *testing.T) {
	c, _, got := newCompanion(t, testOptions())
	c.TriggerEmotion(interaction.EmotionHappy, "やった", 0)

	var raw []byte
	for _, n := range *got {
		if n.Kind == KindEmotion {
			b, err := json.Marshal(n)
			if err != nil {
				t.Fatal(err)
			}
			raw = b
		}
	}
	if raw == nil {
		t.Fatal("no emotion notification")
	}
	var decoded struct {
		Payload map[string]any `json:"payload"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Payload["duration"] != float64(10000) {
		t.Errorf("emotion duration not in ms: %s", raw)
	}
}
