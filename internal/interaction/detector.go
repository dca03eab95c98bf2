// Package interaction classifies the user's clicks on the pet into plain,
// double, triple and rapid-click patterns plus long presses, and runs the
// calendar/time-of-day emotion ticker that gives the pet something to say.
package interaction

import (
	"time"

	"github.com/talgya/desk-pet/internal/engine"
	"github.com/talgya/desk-pet/internal/entropy"
	"github.com/talgya/desk-pet/internal/events"
)

const (
	taskLongPress  = "long-press"
	taskRapidReset = "rapid-reset"
	taskEmotion    = "emotion"
)

// Pattern is a click classification.
type Pattern string

const (
	PatternClick       Pattern = "click"
	PatternDoubleClick Pattern = "doubleClick"
	PatternTripleClick Pattern = "tripleClick"
	PatternRapidClick  Pattern = "rapidClick"
	PatternLongPress   Pattern = "longPress"
)

// EasterEgg reports whether p is one of the special multi-click patterns.
func (p Pattern) EasterEgg() bool {
	return p == PatternDoubleClick || p == PatternTripleClick || p == PatternRapidClick
}

// Classification is published for every click and for long presses.
type Classification struct {
	Pattern Pattern   `json:"pattern"`
	Message string    `json:"message"`
	Clicks  int       `json:"clicks"` // clicks inside the rolling window
	At      time.Time `json:"at"`
}

// Config holds the click timing thresholds. All gaps are exclusive.
type Config struct {
	HistoryWindow time.Duration
	RapidGap      time.Duration
	RapidCount    int
	RapidReset    time.Duration
	TripleSpan    time.Duration
	DoubleGap     time.Duration
	LongPress     time.Duration

	EmotionInterval time.Duration
	EmotionDuration time.Duration
	Location        *time.Location // nil = time.Local
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		HistoryWindow:   5000 * time.Millisecond,
		RapidGap:        500 * time.Millisecond,
		RapidCount:      10,
		RapidReset:      2000 * time.Millisecond,
		TripleSpan:      800 * time.Millisecond,
		DoubleGap:       400 * time.Millisecond,
		LongPress:       1000 * time.Millisecond,
		EmotionInterval: 30 * time.Minute,
		EmotionDuration: 10 * time.Second,
	}
}

// Detector owns the click history and emotion schedule.
type Detector struct {
	cfg   Config
	sched engine.Scheduler
	rnd   entropy.Source

	history   []time.Time
	rapid     int
	lastClick time.Time

	tasks    engine.Tasks
	clicks   *events.Registry[Classification]
	emotions *events.Registry[EmotionEvent]
	closed   bool
}

// New creates a detector. Call Start to run the emotion ticker.
func New(cfg Config, sched engine.Scheduler, rnd entropy.Source) *Detector {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Detector{
		cfg:      cfg,
		sched:    sched,
		rnd:      entropy.Or(rnd),
		clicks:   events.NewRegistry[Classification]("clicks"),
		emotions: events.NewRegistry[EmotionEvent]("emotions"),
	}
}

// OnClassification registers fn for click classifications.
func (d *Detector) OnClassification(fn func(Classification)) (unsubscribe func()) {
	return d.clicks.Subscribe(fn)
}

// OnEmotion registers fn for emotion notifications.
func (d *Detector) OnEmotion(fn func(EmotionEvent)) (unsubscribe func()) {
	return d.emotions.Subscribe(fn)
}

// HandleClick records a click and classifies it against recent history.
// Priority: rapid, triple, double, plain.
func (d *Detector) HandleClick() Classification {
	now := d.sched.Now()
	d.history = append(d.history, now)
	d.prune(now)
	d.tasks.Stop(taskLongPress)

	if !d.lastClick.IsZero() && now.Sub(d.lastClick) < d.cfg.RapidGap {
		d.rapid++
	} else {
		d.rapid = 1
	}
	d.lastClick = now
	if !d.closed {
		d.tasks.Replace(taskRapidReset, d.sched.AfterFunc(d.cfg.RapidReset, func() {
			d.tasks.Forget(taskRapidReset)
			d.rapid = 0
		}))
	}

	c := Classification{At: now, Clicks: len(d.history)}
	switch {
	case d.rapid >= d.cfg.RapidCount:
		c.Pattern = PatternRapidClick
		d.rapid = 0
	case d.isTriple():
		c.Pattern = PatternTripleClick
	case d.isDouble():
		c.Pattern = PatternDoubleClick
	default:
		c.Pattern = PatternClick
		if !d.closed {
			d.tasks.Replace(taskLongPress, d.sched.AfterFunc(d.cfg.LongPress, d.longPress))
		}
	}
	c.Message = d.message(c.Pattern)
	d.clicks.Notify(c)
	return c
}

func (d *Detector) longPress() {
	d.tasks.Forget(taskLongPress)
	now := d.sched.Now()
	d.prune(now)
	d.clicks.Notify(Classification{
		Pattern: PatternLongPress,
		Message: d.message(PatternLongPress),
		Clicks:  len(d.history),
		At:      now,
	})
}

// prune drops clicks older than the history window.
func (d *Detector) prune(now time.Time) {
	keep := 0
	for keep < len(d.history) && now.Sub(d.history[keep]) > d.cfg.HistoryWindow {
		keep++
	}
	if keep > 0 {
		d.history = append(d.history[:0], d.history[keep:]...)
	}
}

func (d *Detector) isTriple() bool {
	n := len(d.history)
	if n < 3 {
		return false
	}
	a, b, c := d.history[n-3], d.history[n-2], d.history[n-1]
	return c.Sub(a) < d.cfg.TripleSpan && b.Sub(a) < d.cfg.DoubleGap && c.Sub(b) < d.cfg.DoubleGap
}

func (d *Detector) isDouble() bool {
	n := len(d.history)
	if n < 2 {
		return false
	}
	return d.history[n-1].Sub(d.history[n-2]) < d.cfg.DoubleGap
}

// ClickCount returns the number of clicks in the rolling window.
func (d *Detector) ClickCount() int {
	d.prune(d.sched.Now())
	return len(d.history)
}

func (d *Detector) message(p Pattern) string {
	return entropy.Pick(d.rnd, clickMessages[p])
}

// Close cancels every timer and drops listeners.
func (d *Detector) Close() {
	d.closed = true
	d.tasks.StopAll()
	d.clicks.Clear()
	d.emotions.Clear()
}
