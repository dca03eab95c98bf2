package behavior

import (
	"log/slog"
	"math"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/desk-pet/internal/engine"
	"github.com/talgya/desk-pet/internal/entropy"
	"github.com/talgya/desk-pet/internal/events"
	"github.com/talgya/desk-pet/internal/geom"
)

const (
	taskTick   = "tick"
	taskReturn = "return"

	// Walk clock advance per step when sampling jitter noise.
	noiseStep = 0.15
)

// Machine is the behavior state machine. All methods must be called from
// the scheduler's goroutine.
type Machine struct {
	cfg   Config
	sched engine.Scheduler
	rnd   entropy.Source
	noise opensimplex.Noise

	state           State
	target          *geom.Point
	idleSince       time.Time
	lastInteraction time.Time
	walkClock       float64

	tasks  engine.Tasks
	events *events.Registry[Event]
	closed bool
}

// New creates a machine in the idle state. Call Start to run the ticker.
func New(cfg Config, sched engine.Scheduler, rnd entropy.Source) *Machine {
	seed := cfg.Walking.NoiseSeed
	if seed == 0 {
		seed = sched.Now().UnixNano()
	}
	return &Machine{
		cfg:       cfg,
		sched:     sched,
		rnd:       entropy.Or(rnd),
		noise:     opensimplex.NewNormalized(seed),
		state:     StateIdle,
		idleSince: sched.Now(),
		events:    events.NewRegistry[Event]("behavior"),
	}
}

// Start begins the background behavior ticker.
func (m *Machine) Start() {
	if m.closed {
		return
	}
	m.tasks.Replace(taskTick, m.sched.Every(m.cfg.IdleStateChangeInterval, m.tick))
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Subscribe registers fn for every machine event.
func (m *Machine) Subscribe(fn func(Event)) (unsubscribe func()) {
	return m.events.Subscribe(fn)
}

// SetState moves to s. Entering a behavior with a configured duration
// schedules the return to idle, announced by a completed event.
func (m *Machine) SetState(s State) {
	if m.closed || s == m.state {
		return
	}
	prev := m.state
	m.state = s
	m.target = nil
	m.tasks.Stop(taskReturn)
	if s == StateIdle {
		m.idleSince = m.sched.Now()
	}

	m.events.Notify(Event{Type: EventStateChange, State: s, Previous: prev})
	if m.state != s {
		// A listener already moved us on.
		return
	}

	if d := m.cfg.duration(s); d > 0 {
		m.tasks.Replace(taskReturn, m.sched.AfterFunc(d, func() {
			m.tasks.Forget(taskReturn)
			m.events.Notify(Event{Type: EventCompleted, State: s})
			m.SetState(StateIdle)
		}))
	}
}

// OnUserInteraction records the interaction and interrupts any autonomous
// behavior. Presentation-driven states are left alone.
func (m *Machine) OnUserInteraction() {
	if m.closed {
		return
	}
	m.lastInteraction = m.sched.Now()
	if m.state.Busy() {
		m.SetState(StateIdle)
	}
}

// IsUserInteracting reports whether the last interaction is recent enough to
// hold off automatic transitions.
func (m *Machine) IsUserInteracting() bool {
	if m.lastInteraction.IsZero() {
		return false
	}
	return m.sched.Now().Sub(m.lastInteraction) < m.cfg.InteractionCooldown
}

// IdleDuration returns how long the pet has been idle and left alone.
func (m *Machine) IdleDuration() time.Duration {
	if m.state != StateIdle {
		return 0
	}
	since := m.idleSince
	if m.lastInteraction.After(since) {
		since = m.lastInteraction
	}
	return m.sched.Now().Sub(since)
}

func (m *Machine) tick() {
	if m.IsUserInteracting() || m.state != StateIdle {
		return
	}
	next, ok := chooseWeighted(m.rnd, m.weights())
	if !ok || next == m.state {
		return
	}
	slog.Debug("autonomous behavior chosen", "from", m.state, "to", next, "idle", m.IdleDuration())
	m.SetState(next)
}

type weighted struct {
	state  State
	weight float64
}

// weights returns the ticker's choices. A pet left idle past the long-idle
// threshold is twice as likely to sleep and half again as likely to yawn.
func (m *Machine) weights() []weighted {
	p := m.cfg.Probabilities
	sleeping, yawning := p.Sleeping, p.Yawning
	if m.IdleDuration() > m.cfg.LongIdleThreshold {
		sleeping *= 2
		yawning *= 1.5
	}
	return []weighted{
		{StateWalking, p.Walking},
		{StateSleeping, sleeping},
		{StateObserving, p.Observing},
		{StateYawning, yawning},
		{StateStretching, p.Stretching},
	}
}

// chooseWeighted walks the cumulative weights against one uniform draw and
// returns the first bucket whose cumulative weight exceeds it. Negative
// weights count as zero; a zero total chooses nothing.
func chooseWeighted(src entropy.Source, choices []weighted) (State, bool) {
	total := 0.0
	for _, c := range choices {
		total += math.Max(c.weight, 0)
	}
	if total <= 0 || len(choices) == 0 {
		return "", false
	}

	draw := src.Float64() * total
	cumulative := 0.0
	for _, c := range choices {
		cumulative += math.Max(c.weight, 0)
		if cumulative > draw {
			return c.state, true
		}
	}
	return choices[len(choices)-1].state, true
}

// Close cancels all timers and drops listeners.
func (m *Machine) Close() {
	m.closed = true
	m.tasks.StopAll()
	m.events.Clear()
}
