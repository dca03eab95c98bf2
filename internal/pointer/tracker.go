// Package pointer turns host pointer samples into gaze data for the pet's
// eyes: where the cursor is, whether it is close enough to look at, and in
// which direction.
package pointer

import (
	"math"
	"time"

	"github.com/talgya/desk-pet/internal/engine"
	"github.com/talgya/desk-pet/internal/events"
	"github.com/talgya/desk-pet/internal/geom"
)

const taskFrame = "frame"

// Config tunes the tracker.
type Config struct {
	Radius        float64       // gaze radius in pixels, inclusive
	FrameInterval time.Duration // emission coalescing window
}

// DefaultConfig returns a 200px radius at roughly 60 fps.
func DefaultConfig() Config {
	return Config{Radius: 200, FrameInterval: 16 * time.Millisecond}
}

// TrackingData is one gaze sample.
type TrackingData struct {
	MousePosition     geom.Point `json:"mouse_position"`
	PetPosition       geom.Point `json:"pet_position"`
	PetSize           geom.Size  `json:"pet_size"`
	IsInTrackingRange bool       `json:"is_in_tracking_range"`
	LookAngle         float64    `json:"look_angle"`
	LookDirection     geom.Point `json:"look_direction"`
}

// Tracker samples the pointer between StartTracking and StopTracking.
type Tracker struct {
	cfg   Config
	sched engine.Scheduler

	mouse    geom.Point
	petPos   geom.Point
	petSize  geom.Size
	tracking bool

	tasks   engine.Tasks
	samples *events.Registry[TrackingData]
}

// New creates an inactive tracker.
func New(cfg Config, sched engine.Scheduler) *Tracker {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultConfig().FrameInterval
	}
	return &Tracker{
		cfg:     cfg,
		sched:   sched,
		samples: events.NewRegistry[TrackingData]("pointer"),
	}
}

// Subscribe registers fn for tracking samples.
func (t *Tracker) Subscribe(fn func(TrackingData)) (unsubscribe func()) {
	return t.samples.Subscribe(fn)
}

// MouseMove records a host pointer sample. The position is always kept so
// a later StartTracking sees it; emission only happens while tracking.
func (t *Tracker) MouseMove(p geom.Point) {
	t.mouse = p
	if t.tracking {
		t.scheduleFrame()
	}
}

// Mouse returns the last known pointer position.
func (t *Tracker) Mouse() geom.Point {
	return t.mouse
}

// CalculateTrackingData computes the gaze sample for a pet at petPos
// (top-left) with the given size against the last pointer position.
func (t *Tracker) CalculateTrackingData(petPos geom.Point, petSize geom.Size) TrackingData {
	center := geom.Center(petPos, petSize)
	delta := t.mouse.Sub(center)
	dist := delta.Len()
	return TrackingData{
		MousePosition:     t.mouse,
		PetPosition:       petPos,
		PetSize:           petSize,
		IsInTrackingRange: dist <= t.cfg.Radius,
		LookAngle:         math.Atan2(delta.Y, delta.X),
		LookDirection:     delta.Unit(),
	}
}

// StartTracking begins sampling and emits one sample synchronously.
func (t *Tracker) StartTracking(petPos geom.Point, petSize geom.Size) {
	t.petPos, t.petSize = petPos, petSize
	t.tracking = true
	t.emit()
}

// StopTracking ends sampling and drops any pending frame.
func (t *Tracker) StopTracking() {
	t.tracking = false
	t.tasks.StopAll()
}

// UpdatePetData moves the pet reference point. No-op while inactive.
func (t *Tracker) UpdatePetData(petPos geom.Point, petSize geom.Size) {
	if !t.tracking {
		return
	}
	t.petPos, t.petSize = petPos, petSize
	t.scheduleFrame()
}

// IsTracking reports whether sampling is active.
func (t *Tracker) IsTracking() bool {
	return t.tracking
}

// scheduleFrame coalesces updates: at most one pending emission at a time.
func (t *Tracker) scheduleFrame() {
	if t.tasks.Has(taskFrame) {
		return
	}
	t.tasks.Replace(taskFrame, t.sched.AfterFunc(t.cfg.FrameInterval, func() {
		t.tasks.Forget(taskFrame)
		if t.tracking {
			t.emit()
		}
	}))
}

func (t *Tracker) emit() {
	t.samples.Notify(t.CalculateTrackingData(t.petPos, t.petSize))
}

// Close stops tracking and drops listeners.
func (t *Tracker) Close() {
	t.StopTracking()
	t.samples.Clear()
}
