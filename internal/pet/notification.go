package pet

import (
	"time"

	"github.com/talgya/desk-pet/internal/items"
	"github.com/talgya/desk-pet/internal/needs"
)

// Kind tags a Notification with the component that produced it.
type Kind string

const (
	KindBehavior Kind = "behavior"
	KindClick    Kind = "click"
	KindEmotion  Kind = "emotion"
	KindTracking Kind = "tracking"
	KindReaction Kind = "reaction"
	KindNeeds    Kind = "needs"
)

// Notification is one event on the companion's combined stream.
type Notification struct {
	Kind      Kind      `json:"kind"`
	Payload   any       `json:"payload"`
	EasterEgg bool      `json:"easter_egg,omitempty"` // double, triple and rapid clicks
	At        time.Time `json:"at"`
}

var effectStats = map[items.EffectType]needs.Stat{
	items.EffectHappinessIncrease:  needs.Happiness,
	items.EffectMoodChange:         needs.Happiness,
	items.EffectEnergyBoost:        needs.Energy,
	items.EffectHungerRestore:      needs.Hunger,
	items.EffectHealthRestore:      needs.Health,
	items.EffectCleanlinessRestore: needs.Cleanliness,
}
