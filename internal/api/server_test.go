package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/desk-pet/internal/behavior"
	"github.com/talgya/desk-pet/internal/engine"
	"github.com/talgya/desk-pet/internal/entropy"
	"github.com/talgya/desk-pet/internal/interaction"
	"github.com/talgya/desk-pet/internal/needs"
	"github.com/talgya/desk-pet/internal/persistence"
	"github.com/talgya/desk-pet/internal/pet"
)

var epoch = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

// lockedRunner serializes calls like the event loop does.
type lockedRunner struct {
	mu      sync.Mutex
	stopped bool
}

func (r *lockedRunner) Do(fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return engine.ErrStopped
	}
	fn()
	return nil
}

type fakeHistory struct {
	rows    []persistence.StatEvent
	err     error
	cleared int
}

func (h *fakeHistory) ClearStatEvents(context.Context) error {
	h.cleared++
	h.rows = nil
	return h.err
}

func (h *fakeHistory) RecentStatEvents(_ context.Context, limit int) ([]persistence.StatEvent, error) {
	if len(h.rows) > limit {
		return h.rows[:limit], h.err
	}
	return h.rows, h.err
}

func newTestServer(t *testing.T, db HistoryReader) (*Server, *httptest.Server, *lockedRunner) {
	t.Helper()
	opts := pet.DefaultOptions()
	opts.Random = entropy.NewSequence(0.5)
	opts.Interaction.Location = time.UTC
	p := pet.New(context.Background(), opts, engine.NewVirtual(epoch))
	run := &lockedRunner{}
	s, err := NewServer(p, run, db, 0)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
		run.Do(p.Close)
	})
	return s, ts, run
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestStatus(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	resp := get(t, ts.URL+"/api/v1/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	st := decode[pet.Status](t, resp)
	if st.State != behavior.StateIdle || st.Condition != needs.ConditionGood {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestClickAndState(t *testing.T) {
	s, ts, run := newTestServer(t, nil)

	resp := post(t, ts.URL+"/api/v1/state", `{"state":"sleeping"}`)
	if got := decode[stateRequest](t, resp); got.State != behavior.StateSleeping {
		t.Fatalf("expected sleeping, got %s", got.State)
	}

	resp = post(t, ts.URL+"/api/v1/click", "")
	c := decode[interaction.Classification](t, resp)
	if c.Pattern != interaction.PatternClick {
		t.Errorf("expected click, got %s", c.Pattern)
	}
	var state behavior.State
	run.Do(func() { state = s.Pet.Behavior.State() })
	if state != behavior.StateIdle {
		t.Errorf("click should interrupt sleeping, got %s", state)
	}

	resp = post(t, ts.URL+"/api/v1/state", `{"state":"flying"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown state, got %d", resp.StatusCode)
	}
}

func TestUseItem(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)

	resp := post(t, ts.URL+"/api/v1/items/fish/use", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fish: status %d", resp.StatusCode)
	}
	var r struct {
		Message string `json:"message"`
	}
	json.NewDecoder(resp.Body).Decode(&r)
	if r.Message != "おいしい！" {
		t.Errorf("unexpected message %q", r.Message)
	}

	resp = post(t, ts.URL+"/api/v1/items/unicorn/use", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}

	post(t, ts.URL+"/api/v1/items/apple/use", `{"position":{"x":1,"y":2}}`)
	resp = post(t, ts.URL+"/api/v1/items/apple/use", "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on cooldown, got %d", resp.StatusCode)
	}
	av := decode[availability](t, resp)
	if av.CanUse || av.Reason != "on cooldown" || av.CooldownRemainingMs != 10000 {
		t.Errorf("unexpected availability %+v", av)
	}

	items := decode[[]ItemView](t, get(t, ts.URL+"/api/v1/items"))
	for _, v := range items {
		if v.Item.ID == "apple" && (v.Usage == nil || v.Usage.UsageCount != 1) {
			t.Errorf("apple usage not reported: %+v", v)
		}
	}

	needsView := decode[NeedsView](t, get(t, ts.URL+"/api/v1/needs"))
	if needsView.Needs.Happiness != 100 || needsView.Needs.Hunger != 95 {
		t.Errorf("item effects not applied: %+v", needsView.Needs)
	}

	resp = post(t, ts.URL+"/api/v1/reset", "")
	if v := decode[NeedsView](t, resp); v.Needs.Hunger != 80 {
		t.Errorf("reset did not restore defaults: %+v", v.Needs)
	}
	if resp := post(t, ts.URL+"/api/v1/items/apple/use", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("reset should clear cooldowns, got %d", resp.StatusCode)
	}
}

func TestBadBody(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	if resp := post(t, ts.URL+"/api/v1/hover", "{"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if resp := post(t, ts.URL+"/api/v1/window", `{"width":-1}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNeedsHistory(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	if resp := get(t, ts.URL+"/api/v1/needs/history"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without DB, got %d", resp.StatusCode)
	}

	db := &fakeHistory{rows: []persistence.StatEvent{
		{ID: 2, Stat: needs.Hunger, Amount: -0.4, Reason: "time decay"},
		{ID: 1, Stat: needs.Happiness, Amount: 20, Reason: "item:fish"},
	}}
	_, ts, _ = newTestServer(t, db)
	rows := decode[[]persistence.StatEvent](t, get(t, ts.URL+"/api/v1/needs/history?limit=1"))
	if len(rows) != 1 || rows[0].ID != 2 {
		t.Errorf("unexpected rows %+v", rows)
	}

	db.err = errors.New("locked")
	rows = decode[[]persistence.StatEvent](t, get(t, ts.URL+"/api/v1/needs/history"))
	if rows == nil {
		t.Error("expected empty array on query failure")
	}
}

func TestStoppedLoop(t *testing.T) {
	_, ts, run := newTestServer(t, nil)
	run.mu.Lock()
	run.stopped = true
	run.mu.Unlock()
	if resp := get(t, ts.URL+"/api/v1/status"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestCORS(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/click", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("unexpected origin header %q", got)
	}
}

func TestStream_ClickRoundTrip(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(ClientMessage{Type: "click"}); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var n struct {
			Kind    pet.Kind        `json:"kind"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&n); err != nil {
			t.Fatalf("read: %v", err)
		}
		if n.Kind != pet.KindClick {
			continue
		}
		var c interaction.Classification
		json.Unmarshal(n.Payload, &c)
		if c.Pattern != interaction.PatternClick {
			t.Errorf("unexpected pattern %s", c.Pattern)
		}
		return
	}
}

func TestResetItem(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	post(t, ts.URL+"/api/v1/items/apple/use", "")
	if resp := post(t, ts.URL+"/api/v1/items/apple/use", ""); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected cooldown, got %d", resp.StatusCode)
	}

	v := decode[ItemView](t, post(t, ts.URL+"/api/v1/items/apple/reset", ""))
	if v.Item.ID != "apple" || !v.Availability.CanUse {
		t.Errorf("expected apple usable after reset, got %+v", v)
	}
	if resp := post(t, ts.URL+"/api/v1/items/unicorn/reset", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown item, got %d", resp.StatusCode)
	}
}

func TestReset_ClearHistory(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	if resp := post(t, ts.URL+"/api/v1/reset?history=clear", ""); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without DB, got %d", resp.StatusCode)
	}

	db := &fakeHistory{rows: []persistence.StatEvent{{ID: 1, Stat: needs.Hunger, Amount: -1, Reason: "time decay"}}}
	_, ts, _ = newTestServer(t, db)
	post(t, ts.URL+"/api/v1/reset", "")
	if db.cleared != 0 {
		t.Error("plain reset should keep history")
	}
	if resp := post(t, ts.URL+"/api/v1/reset?history=clear", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if db.cleared != 1 || len(db.rows) != 0 {
		t.Errorf("history not cleared: %+v", db)
	}
}
