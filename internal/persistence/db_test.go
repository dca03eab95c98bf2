package persistence

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/talgya/desk-pet/internal/engine"
	"github.com/talgya/desk-pet/internal/needs"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "pet.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMeta_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if _, err := db.GetMeta(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
	if err := db.SaveMeta(ctx, "k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta(ctx, "k", "v2"); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetMeta(ctx, "k")
	if err != nil || got != "v2" {
		t.Fatalf("got %q, %v", got, err)
	}
	if err := db.DeleteMeta(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, found, err := db.Load(ctx, "k"); found || err != nil {
		t.Errorf("expected not found after delete, got found=%v err=%v", found, err)
	}
}

func TestStatEvents_NewestFirst(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	at := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	if err := db.SaveStatEvents(ctx, at, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	err := db.SaveStatEvents(ctx, at, []needs.Delta{
		{Stat: needs.Hunger, Amount: -0.4, Reason: "time decay"},
		{Stat: needs.Happiness, Amount: 20, Reason: "item:fish"},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := db.RecentStatEvents(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Stat != needs.Happiness || got[0].Reason != "item:fish" || got[0].Amount != 20 {
		t.Errorf("unexpected newest event %+v", got[0])
	}
	if !got[1].At.Equal(at) {
		t.Errorf("timestamp not preserved: %v", got[1].At)
	}

	limited, _ := db.RecentStatEvents(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("limit not applied, got %d", len(limited))
	}

	if err := db.ClearStatEvents(ctx); err != nil {
		t.Fatal(err)
	}
	if rest, _ := db.RecentStatEvents(ctx, 10); len(rest) != 0 {
		t.Errorf("expected empty history, got %d", len(rest))
	}
}

func TestDB_BacksNeedsModel(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pet.db")
	start := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := needs.DefaultConfig()
	m := needs.New(ctx, cfg, db, engine.NewVirtual(start))
	m.ChangeStat(needs.Happiness, -30, "test")
	m.Close()
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	m = needs.New(ctx, cfg, db, engine.NewVirtual(start.Add(30*time.Second)))
	defer m.Close()
	if got := m.Get(needs.Happiness); got != 50 {
		t.Errorf("expected persisted happiness 50, got %v", got)
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	if err := s.Save(ctx, "k", buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'x'
	got, found, _ := s.Load(ctx, "k")
	if !found || string(got) != "abc" {
		t.Errorf("got %q found=%v", got, found)
	}
	if _, found, _ := s.Load(ctx, "nope"); found {
		t.Error("expected missing key")
	}
}
