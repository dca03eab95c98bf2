package needs

import (
	"fmt"
	"time"
)

// InfluenceRule lets a depleted resource drag another one down: whenever
// Source is below Threshold after base decay, Effect is added to Target.
type InfluenceRule struct {
	Source    Stat    `json:"source"`
	Target    Stat    `json:"target"`
	Threshold float64 `json:"threshold"`
	Effect    float64 `json:"effect"`
}

func (r InfluenceRule) reason() string {
	return fmt.Sprintf("low %s", r.Source)
}

// DefaultRates are per-minute decay amounts.
var DefaultRates = map[Stat]float64{
	Happiness:   0.5,
	Hunger:      0.8,
	Energy:      0.3,
	Health:      0.1,
	Cleanliness: 0.4,
}

// DefaultRules run in order after base decay, each reading the running state.
var DefaultRules = []InfluenceRule{
	{Source: Hunger, Target: Health, Threshold: 20, Effect: -0.5},
	{Source: Hunger, Target: Happiness, Threshold: 30, Effect: -0.3},
	{Source: Cleanliness, Target: Health, Threshold: 20, Effect: -0.3},
	{Source: Energy, Target: Happiness, Threshold: 15, Effect: -0.2},
	{Source: Health, Target: Happiness, Threshold: 30, Effect: -0.5},
}

// DefaultSnapshot is the state of a brand new pet.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Happiness:   80,
		Hunger:      80,
		Energy:      80,
		Health:      100,
		Cleanliness: 80,
	}
}

// Config tunes the model.
type Config struct {
	TickInterval     time.Duration    // real time between decay ticks
	TickMinutes      float64          // simulated minutes one tick represents
	Rates            map[Stat]float64 // per-minute decay
	Rules            []InfluenceRule
	Defaults         Snapshot
	StorageKey       string
	OfflineThreshold time.Duration // minimum absence that triggers catch-up
}

// DefaultConfig returns the standard tuning: a 30 s tick standing for half a
// minute of decay.
func DefaultConfig() Config {
	rates := make(map[Stat]float64, len(DefaultRates))
	for k, v := range DefaultRates {
		rates[k] = v
	}
	return Config{
		TickInterval:     30 * time.Second,
		TickMinutes:      0.5,
		Rates:            rates,
		Rules:            append([]InfluenceRule(nil), DefaultRules...),
		Defaults:         DefaultSnapshot(),
		StorageKey:       "pet_needs",
		OfflineThreshold: time.Minute,
	}
}

// Decay applies minutes of base decay followed by the influence rules to s
// and returns the deltas produced. Rule deltas carry the rule's own reason.
func Decay(s *Snapshot, minutes float64, reason string, rates map[Stat]float64, rules []InfluenceRule) []Delta {
	return decay(s, minutes, reason, "", rates, rules)
}

// decay is Decay with an optional ruleReason overriding every rule's reason,
// so a batched catch-up is recorded under one reason.
func decay(s *Snapshot, minutes float64, reason, ruleReason string, rates map[Stat]float64, rules []InfluenceRule) []Delta {
	var deltas []Delta
	for _, stat := range Stats {
		rate := rates[stat]
		if rate == 0 {
			continue
		}
		deltas = apply(s, stat, -rate*minutes, reason, deltas)
	}
	for _, r := range rules {
		if s.Get(r.Source) < r.Threshold {
			why := ruleReason
			if why == "" {
				why = r.reason()
			}
			deltas = apply(s, r.Target, r.Effect, why, deltas)
		}
	}
	return deltas
}
