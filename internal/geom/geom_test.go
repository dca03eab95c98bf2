package geom

import (
	"math"
	"testing"
)

func TestUnitZeroVector(t *testing.T) {
	if u := (Point{}).Unit(); u != (Point{}) {
		t.Errorf("expected zero vector, got %+v", u)
	}
	u := Point{X: 3, Y: 4}.Unit()
	if math.Abs(u.X-0.6) > 1e-9 || math.Abs(u.Y-0.8) > 1e-9 {
		t.Errorf("unexpected unit vector %+v", u)
	}
}

func TestInsetCollapses(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 100, Height: 40}
	in := r.Inset(30)
	if in.X != 30 || in.Width != 40 {
		t.Errorf("x axis: got %+v", in)
	}
	if in.Y != 20 || in.Height != 0 {
		t.Errorf("y axis should collapse to centre, got %+v", in)
	}
}

func TestClamp(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 100, Height: 100}
	got := r.Clamp(Point{X: -5, Y: 500})
	if got != (Point{X: 10, Y: 110}) {
		t.Errorf("got %+v", got)
	}
	if !r.Contains(got) {
		t.Error("clamped point should be inside")
	}
}
