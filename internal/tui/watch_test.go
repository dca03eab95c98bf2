package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/talgya/desk-pet/internal/api"
	"github.com/talgya/desk-pet/internal/behavior"
	"github.com/talgya/desk-pet/internal/client"
	"github.com/talgya/desk-pet/internal/items"
	"github.com/talgya/desk-pet/internal/needs"
	"github.com/talgya/desk-pet/internal/pet"
)

type fakeObserver struct {
	used   []string
	clicks int
}

func (f *fakeObserver) Observe(context.Context) (*client.Snapshot, error) {
	return testSnapshot(), nil
}

func (f *fakeObserver) UseItem(_ context.Context, id string) error {
	f.used = append(f.used, id)
	return nil
}

func (f *fakeObserver) Click(context.Context) error {
	f.clicks++
	return errors.New("daemon gone")
}

func testSnapshot() *client.Snapshot {
	return &client.Snapshot{
		Status: pet.Status{
			State:     behavior.StateWalking,
			Needs:     needs.DefaultSnapshot(),
			Condition: needs.ConditionGood,
		},
		Items: []api.ItemView{
			{Item: items.Definition{ID: "fish"}},
			{Item: items.Definition{ID: "apple"}},
		},
	}
}

func TestWatch_RendersSnapshot(t *testing.T) {
	m := newWatchModel(context.Background(), &fakeObserver{}, time.Second)
	next, _ := m.Update(snapshotMsg{snap: testSnapshot()})
	view := next.View()
	for _, want := range []string{"walking", "good", "fish", "apple", "hunger"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestWatch_UseSelectedItem(t *testing.T) {
	obs := &fakeObserver{}
	var m tea.Model = newWatchModel(context.Background(), obs, time.Second)
	m, _ = m.Update(snapshotMsg{snap: testSnapshot()})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd().(actionMsg)
	if len(obs.used) != 1 || obs.used[0] != "apple" {
		t.Errorf("expected apple to be used, got %v", obs.used)
	}
	if msg.log != "Used apple." {
		t.Errorf("unexpected log %q", msg.log)
	}
}

func TestWatch_ActionErrorShown(t *testing.T) {
	obs := &fakeObserver{}
	var m tea.Model = newWatchModel(context.Background(), obs, time.Second)
	m, _ = m.Update(snapshotMsg{snap: testSnapshot()})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m, _ = m.Update(cmd())
	if !strings.Contains(m.View(), "daemon gone") {
		t.Error("expected error in status line")
	}
}

func TestWatch_Quit(t *testing.T) {
	m := newWatchModel(context.Background(), &fakeObserver{}, time.Second)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
