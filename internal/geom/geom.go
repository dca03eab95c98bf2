// Package geom provides the screen-space point, size and rectangle types
// shared by walking movement and pointer tracking.
package geom

import "math"

// Point is a position in screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p*k.
func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// Len returns the vector length of p.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return q.Sub(p).Len()
}

// Unit returns p scaled to length 1, or the zero vector when p has no length.
func (p Point) Unit() Point {
	l := p.Len()
	if l == 0 {
		return Point{}
	}
	return Point{X: p.X / l, Y: p.Y / l}
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of a box anchored at its top-left corner.
func Center(topLeft Point, s Size) Point {
	return Point{X: topLeft.X + s.Width/2, Y: topLeft.Y + s.Height/2}
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Min returns the top-left corner.
func (r Rect) Min() Point {
	return Point{X: r.X, Y: r.Y}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Inset shrinks r by m on every side. An axis too small to shrink collapses
// to its centre line.
func (r Rect) Inset(m float64) Rect {
	out := Rect{X: r.X + m, Y: r.Y + m, Width: r.Width - 2*m, Height: r.Height - 2*m}
	if out.Width < 0 {
		out.X = r.X + r.Width/2
		out.Width = 0
	}
	if out.Height < 0 {
		out.Y = r.Y + r.Height/2
		out.Height = 0
	}
	return out
}

// Clamp returns the point of r closest to p.
func (r Rect) Clamp(p Point) Point {
	maxP := r.Max()
	return Point{
		X: math.Min(math.Max(p.X, r.X), maxP.X),
		Y: math.Min(math.Max(p.Y, r.Y), maxP.Y),
	}
}

// Contains reports whether p lies inside r (edges included).
func (r Rect) Contains(p Point) bool {
	maxP := r.Max()
	return p.X >= r.X && p.X <= maxP.X && p.Y >= r.Y && p.Y <= maxP.Y
}
