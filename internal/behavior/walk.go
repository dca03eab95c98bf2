package behavior

import (
	"math"

	"github.com/talgya/desk-pet/internal/geom"
)

// WalkContext is what the host knows about the pet window each frame.
type WalkContext struct {
	Position geom.Point `json:"position"`
	Bounds   geom.Rect  `json:"bounds"` // area the pet may move in
}

// UpdateWalkingPosition advances one walking step and returns the new
// position. Outside the walking state it returns the position unchanged.
// On arrival a fresh target is picked and the position is held for a step.
func (m *Machine) UpdateWalkingPosition(ctx WalkContext) geom.Point {
	if m.closed || m.state != StateWalking {
		return ctx.Position
	}
	if m.target == nil {
		t := m.randomTarget(ctx.Bounds)
		m.target = &t
	}

	to := m.target.Sub(ctx.Position)
	dist := to.Len()
	if dist < m.cfg.ArrivalRadius {
		t := m.randomTarget(ctx.Bounds)
		m.target = &t
		return ctx.Position
	}

	step := to.Unit().Scale(math.Min(m.cfg.Walking.Speed, dist))
	next := ctx.Bounds.Clamp(ctx.Position.Add(step).Add(m.jitter()))
	m.events.Notify(Event{Type: EventPositionUpdate, State: StateWalking, Position: &next})
	return next
}

// Target returns the current walk target, if any.
func (m *Machine) Target() (geom.Point, bool) {
	if m.target == nil {
		return geom.Point{}, false
	}
	return *m.target, true
}

func (m *Machine) randomTarget(bounds geom.Rect) geom.Point {
	area := bounds.Inset(m.cfg.Walking.BoundaryMargin)
	return geom.Point{
		X: area.X + m.rnd.Float64()*area.Width,
		Y: area.Y + m.rnd.Float64()*area.Height,
	}
}

// jitter samples smooth noise along the walk clock so the gait wanders
// instead of shaking. Each axis stays within ±StepVariation.
func (m *Machine) jitter() geom.Point {
	v := m.cfg.Walking.StepVariation
	if v == 0 {
		return geom.Point{}
	}
	m.walkClock += noiseStep
	return geom.Point{
		X: (m.noise.Eval2(m.walkClock, 0)*2 - 1) * v,
		Y: (m.noise.Eval2(m.walkClock, 100)*2 - 1) * v,
	}
}
