package engine

import (
	"time"
)

// Virtual is a deterministic Scheduler whose clock only moves when told to.
// Due tasks run on the caller's goroutine inside Advance, earliest first,
// ties broken by scheduling order.
type Virtual struct {
	now   time.Time
	seq   uint64
	tasks []*virtualTask
}

type virtualTask struct {
	at      time.Time
	every   time.Duration
	fn      func()
	seq     uint64
	stopped bool
}

func (t *virtualTask) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewVirtual creates a virtual scheduler starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the virtual clock.
func (v *Virtual) Now() time.Time {
	return v.now
}

// AfterFunc schedules fn once at Now()+d.
func (v *Virtual) AfterFunc(d time.Duration, fn func()) Task {
	return v.add(d, 0, fn)
}

// Every schedules fn at every multiple of d from Now().
func (v *Virtual) Every(d time.Duration, fn func()) Task {
	if d <= 0 {
		d = time.Millisecond
	}
	return v.add(d, d, fn)
}

func (v *Virtual) add(d, every time.Duration, fn func()) *virtualTask {
	v.seq++
	t := &virtualTask{at: v.now.Add(d), every: every, fn: fn, seq: v.seq}
	v.tasks = append(v.tasks, t)
	return t
}

// Advance moves the clock forward by d, running every task that falls due.
func (v *Virtual) Advance(d time.Duration) {
	target := v.now.Add(d)
	for {
		next := v.next(target)
		if next == nil {
			break
		}
		v.now = next.at
		if next.every > 0 {
			next.at = next.at.Add(next.every)
		} else {
			next.stopped = true
		}
		next.fn()
	}
	v.now = target
	v.compact()
}

// Set jumps the clock to t. Moving forward runs due tasks; moving backward
// only changes the clock.
func (v *Virtual) Set(t time.Time) {
	if t.After(v.now) {
		v.Advance(t.Sub(v.now))
		return
	}
	v.now = t
}

// Pending returns the number of live tasks.
func (v *Virtual) Pending() int {
	n := 0
	for _, t := range v.tasks {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (v *Virtual) next(limit time.Time) *virtualTask {
	var best *virtualTask
	for _, t := range v.tasks {
		if t.stopped || t.at.After(limit) {
			continue
		}
		if best == nil || t.at.Before(best.at) || (t.at.Equal(best.at) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (v *Virtual) compact() {
	live := v.tasks[:0]
	for _, t := range v.tasks {
		if !t.stopped {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(v.tasks); i++ {
		v.tasks[i] = nil
	}
	v.tasks = live
}
