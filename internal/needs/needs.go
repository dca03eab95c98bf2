// Package needs implements the pet's five decaying resources: happiness,
// hunger, energy, health and cleanliness. Values range from 0 (completely
// unmet) to 100 (fully satisfied) and never leave that range.
package needs

import (
	"time"

	"golang.org/x/exp/constraints"
)

const (
	MinValue = 0
	MaxValue = 100
)

// Stat names one resource.
type Stat string

const (
	Happiness   Stat = "happiness"
	Hunger      Stat = "hunger" // satiety: 100 = full
	Energy      Stat = "energy"
	Health      Stat = "health"
	Cleanliness Stat = "cleanliness"
)

// Stats lists every resource in decay order.
var Stats = []Stat{Happiness, Hunger, Energy, Health, Cleanliness}

// Valid reports whether s is a known resource.
func (s Stat) Valid() bool {
	switch s {
	case Happiness, Hunger, Energy, Health, Cleanliness:
		return true
	}
	return false
}

// Snapshot is the full resource state at one instant.
type Snapshot struct {
	Happiness   float64   `json:"happiness"`
	Hunger      float64   `json:"hunger"`
	Energy      float64   `json:"energy"`
	Health      float64   `json:"health"`
	Cleanliness float64   `json:"cleanliness"`
	LastUpdated time.Time `json:"last_updated"`
}

// Get returns the value of one resource. Unknown stats read as 0.
func (s *Snapshot) Get(stat Stat) float64 {
	switch stat {
	case Happiness:
		return s.Happiness
	case Hunger:
		return s.Hunger
	case Energy:
		return s.Energy
	case Health:
		return s.Health
	case Cleanliness:
		return s.Cleanliness
	}
	return 0
}

func (s *Snapshot) set(stat Stat, v float64) {
	switch stat {
	case Happiness:
		s.Happiness = v
	case Hunger:
		s.Hunger = v
	case Energy:
		s.Energy = v
	case Health:
		s.Health = v
	case Cleanliness:
		s.Cleanliness = v
	}
}

// Mean returns the unweighted average of the five resources.
func (s *Snapshot) Mean() float64 {
	return (s.Happiness + s.Hunger + s.Energy + s.Health + s.Cleanliness) / 5
}

// Urgent returns the most pressing resource below threshold.
// Evaluated bottom-up: a sick pet needs care before it needs play.
func (s *Snapshot) Urgent(threshold float64) (Stat, bool) {
	for _, stat := range []Stat{Health, Hunger, Energy, Cleanliness, Happiness} {
		if s.Get(stat) < threshold {
			return stat, true
		}
	}
	return "", false
}

// Delta is one applied change. Amount is the change actually made after
// clamping, so it may be smaller than what was requested.
type Delta struct {
	Stat   Stat    `json:"stat"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

// Update is published once per committed mutation.
type Update struct {
	Snapshot Snapshot `json:"snapshot"`
	Deltas   []Delta  `json:"deltas"`
}

// Condition summarizes overall wellbeing.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionNormal    Condition = "normal"
	ConditionPoor      Condition = "poor"
	ConditionCritical  Condition = "critical"
)

// ClassifyCondition maps a mean resource value to a Condition.
func ClassifyCondition(mean float64) Condition {
	switch {
	case mean >= 90:
		return ConditionExcellent
	case mean >= 75:
		return ConditionGood
	case mean >= 50:
		return ConditionNormal
	case mean >= 25:
		return ConditionPoor
	default:
		return ConditionCritical
	}
}

func clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// apply adds amount to stat on s, clamped, and appends the resulting delta
// unless nothing changed.
func apply(s *Snapshot, stat Stat, amount float64, reason string, deltas []Delta) []Delta {
	old := s.Get(stat)
	next := clamp(old+amount, MinValue, MaxValue)
	if next == old {
		return deltas
	}
	s.set(stat, next)
	return append(deltas, Delta{Stat: stat, Amount: next - old, Reason: reason})
}
