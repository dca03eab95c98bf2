// Package entropy provides the random sources behind behavior selection,
// walk targets and phrase choice. Components take a Source so tests can
// script the draws; production uses a seeded generator or crypto/rand.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source yields uniform floats in [0, 1).
type Source interface {
	Float64() float64
}

// Seeded is a math/rand backed Source. Not safe for concurrent use; every
// consumer runs on the event loop.
type Seeded struct {
	rng *mrand.Rand
}

// NewSeeded creates a reproducible source.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

// Float64 returns the next draw.
func (s *Seeded) Float64() float64 {
	return s.rng.Float64()
}

// Crypto draws from crypto/rand.
type Crypto struct{}

// Float64 returns a crypto/rand draw.
func (Crypto) Float64() float64 {
	return cryptoRandFloat()
}

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Sequence replays a fixed list of draws, cycling when exhausted.
// An empty sequence always returns 0.
type Sequence struct {
	Values []float64
	i      int
}

// NewSequence creates a scripted source.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{Values: values}
}

// Float64 returns the next scripted value.
func (s *Sequence) Float64() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.i%len(s.Values)]
	s.i++
	return v
}

// Intn returns a uniform int in [0, n). n must be positive.
func Intn(src Source, n int) int {
	i := int(src.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Pick returns a uniformly chosen element. The zero value is returned for an
// empty slice.
func Pick[T any](src Source, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[Intn(src, len(items))]
}

// Or returns src, or a crypto source when src is nil.
func Or(src Source) Source {
	if src == nil {
		return Crypto{}
	}
	return src
}
