// Package behavior implements the pet's autonomous life-state machine.
// The pet idles until a background ticker picks a weighted-random behavior;
// each behavior runs for its configured duration and then returns to idle.
// User interaction cuts any behavior short.
package behavior

import (
	"time"

	"github.com/talgya/desk-pet/internal/geom"
)

// State is the pet's current life state.
type State string

// Autonomous states, owned by the machine.
const (
	StateIdle       State = "idle"
	StateWalking    State = "walking"
	StateSleeping   State = "sleeping"
	StateObserving  State = "observing"
	StateYawning    State = "yawning"
	StateStretching State = "stretching"
)

// Presentation-driven states. The machine never enters these on its own and
// user interaction leaves them alone.
const (
	StateHover   State = "hover"
	StateActive  State = "active"
	StateLoading State = "loading"
)

// Behaviors lists the states the ticker chooses between, in weight order.
var Behaviors = []State{StateWalking, StateSleeping, StateObserving, StateYawning, StateStretching}

// Busy reports whether s is one of the autonomous non-idle behaviors.
func (s State) Busy() bool {
	switch s {
	case StateWalking, StateSleeping, StateObserving, StateYawning, StateStretching:
		return true
	}
	return false
}

// Autonomous reports whether the machine owns s.
func (s State) Autonomous() bool {
	return s == StateIdle || s.Busy()
}

// Valid reports whether s is any known state.
func (s State) Valid() bool {
	return s.Autonomous() || s == StateHover || s == StateActive || s == StateLoading
}

// EventType tags a machine notification.
type EventType string

const (
	EventStateChange    EventType = "stateChange"
	EventPositionUpdate EventType = "positionUpdate"
	EventCompleted      EventType = "completed"
)

// Event is published to machine listeners.
type Event struct {
	Type     EventType   `json:"type"`
	State    State       `json:"state"`
	Previous State       `json:"previous,omitempty"`
	Position *geom.Point `json:"position,omitempty"`
}

// Probabilities are relative weights; they need not sum to 1.
type Probabilities struct {
	Walking    float64 `json:"walking"`
	Sleeping   float64 `json:"sleeping"`
	Observing  float64 `json:"observing"`
	Yawning    float64 `json:"yawning"`
	Stretching float64 `json:"stretching"`
}

// Durations sets how long each behavior lasts before returning to idle.
// Zero means the behavior lasts until something else changes the state.
type Durations struct {
	Walking    time.Duration
	Sleeping   time.Duration
	Observing  time.Duration
	Yawning    time.Duration
	Stretching time.Duration
}

// WalkingConfig tunes movement.
type WalkingConfig struct {
	Speed          float64 // pixels per step
	StepVariation  float64 // max jitter per axis per step
	BoundaryMargin float64 // keep targets this far from the bounds
	NoiseSeed      int64   // 0 = seed from the clock
}

// Config is read once at construction.
type Config struct {
	IdleStateChangeInterval time.Duration
	Durations               Durations
	LongIdleThreshold       time.Duration
	InteractionCooldown     time.Duration
	ArrivalRadius           float64
	Probabilities           Probabilities
	Walking                 WalkingConfig
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		IdleStateChangeInterval: 30 * time.Second,
		Durations: Durations{
			Walking:    10 * time.Second,
			Sleeping:   60 * time.Second,
			Observing:  8 * time.Second,
			Yawning:    3 * time.Second,
			Stretching: 4 * time.Second,
		},
		LongIdleThreshold:   2 * time.Minute,
		InteractionCooldown: 5 * time.Second,
		ArrivalRadius:       10,
		Probabilities: Probabilities{
			Walking:    0.3,
			Sleeping:   0.1,
			Observing:  0.25,
			Yawning:    0.15,
			Stretching: 0.2,
		},
		Walking: WalkingConfig{
			Speed:          2,
			StepVariation:  0.5,
			BoundaryMargin: 50,
		},
	}
}

func (c Config) duration(s State) time.Duration {
	switch s {
	case StateWalking:
		return c.Durations.Walking
	case StateSleeping:
		return c.Durations.Sleeping
	case StateObserving:
		return c.Durations.Observing
	case StateYawning:
		return c.Durations.Yawning
	case StateStretching:
		return c.Durations.Stretching
	}
	return 0
}
