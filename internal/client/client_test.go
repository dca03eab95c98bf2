package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/talgya/desk-pet/internal/behavior"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func TestObserve(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/status":
			w.Write([]byte(`{"state":"walking","clicks":2}`))
		case "/api/v1/items":
			w.Write([]byte(`[{"item":{"id":"fish"},"availability":{"can_use":true}}]`))
		case "/api/v1/needs/history":
			http.Error(w, "database not available", http.StatusServiceUnavailable)
		}
	})

	snap, err := c.Observe(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Status.State != behavior.StateWalking || snap.Status.Clicks != 2 {
		t.Errorf("unexpected status %+v", snap.Status)
	}
	if len(snap.Items) != 1 || snap.Items[0].Item.ID != "fish" || !snap.Items[0].Availability.CanUse {
		t.Errorf("unexpected items %+v", snap.Items)
	}
	if snap.History != nil {
		t.Errorf("history should be empty without a database")
	}
}

func TestUseItem_Refused(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"can_use":false,"reason":"on cooldown"}`))
	})
	_, err := c.UseItem(context.Background(), "apple")
	if !errors.Is(err, ErrRefused) {
		t.Fatalf("expected ErrRefused, got %v", err)
	}
	if got := err.Error(); got != "item refused: on cooldown" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "pet is shutting down", http.StatusServiceUnavailable)
	})
	_, err := c.Status(context.Background())
	if err == nil || errors.Is(err, ErrRefused) {
		t.Errorf("expected a plain error, got %v", err)
	}
}

func TestReset_ClearHistoryQuery(t *testing.T) {
	var queries []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		w.Write([]byte(`{"needs":{"hunger":80},"condition":"good"}`))
	})
	if _, err := c.Reset(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	v, err := c.Reset(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if v.Needs.Hunger != 80 {
		t.Errorf("unexpected view %+v", v)
	}
	if len(queries) != 2 || queries[0] != "" || queries[1] != "history=clear" {
		t.Errorf("unexpected queries %q", queries)
	}
}

func TestResetItem_UnknownItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/items/unicorn/reset" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		http.Error(w, "unknown item: unicorn", http.StatusNotFound)
	})
	_, err := c.ResetItem(context.Background(), "unicorn")
	if !errors.Is(err, ErrRefused) {
		t.Fatalf("expected ErrRefused, got %v", err)
	}
	if got := err.Error(); got != "item refused: not found" {
		t.Errorf("unexpected message %q", got)
	}
}
