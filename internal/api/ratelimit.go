// Item-use throttling. Items already carry their own cooldowns; this caps
// how many items one front-end may hand the pet per window regardless of
// which items they are, so a stuck button cannot drain the catalog.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter counts item uses per client in fixed windows.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*useWindow
	limit   int
	span    time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type useWindow struct {
	used    int
	started time.Time
}

// NewRateLimiter allows limit uses per client every span. Idle clients are
// forgotten after two spans until Stop is called.
func NewRateLimiter(limit int, span time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*useWindow),
		limit:   limit,
		span:    span,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *RateLimiter) sweepLoop() {
	t := time.NewTicker(rl.span)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

// Stop ends the sweep goroutine.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Allow records one use by client. When the client is over its limit it
// returns false and the time until its window reopens.
func (rl *RateLimiter) Allow(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[client]
	if !ok || now.Sub(w.started) >= rl.span {
		rl.windows[client] = &useWindow{used: 1, started: now}
		return true, 0
	}
	if w.used < rl.limit {
		w.used++
		return true, 0
	}
	return false, w.started.Add(rl.span).Sub(now)
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for client, w := range rl.windows {
		if now.Sub(w.started) > 2*rl.span {
			delete(rl.windows, client)
		}
	}
}

// clientIP prefers the first X-Forwarded-For hop, then RemoteAddr without
// its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		ip = ip[:i]
	}
	return ip
}

// limitItemUse answers 429 with an availability body once the client has
// used too many items, so front-ends can show it like a cooldown.
func limitItemUse(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.Allow(clientIP(r))
		if !ok {
			secs := int((wait + time.Second - 1) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeJSONStatus(w, http.StatusTooManyRequests, availability{
				Reason:              "too many items",
				CooldownRemainingMs: wait.Milliseconds(),
			})
			return
		}
		next(w, r)
	}
}
