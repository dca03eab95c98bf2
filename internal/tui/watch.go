// Package tui is the live terminal view of a running pet.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/talgya/desk-pet/internal/client"
	"github.com/talgya/desk-pet/internal/needs"
	"github.com/talgya/desk-pet/internal/ui"
)

// Observer is the subset of client.Client the view needs.
type Observer interface {
	Observe(ctx context.Context) (*client.Snapshot, error)
	UseItem(ctx context.Context, id string) error
	Click(ctx context.Context) error
}

type watchModel struct {
	ctx      context.Context
	obs      Observer
	interval time.Duration

	width int
	snap  *client.Snapshot
	item  int

	lastLog string
	err     error
}

type snapshotMsg struct {
	snap *client.Snapshot
	err  error
}

type actionMsg struct {
	log string
	err error
}

type tickMsg time.Time

func newWatchModel(ctx context.Context, obs Observer, interval time.Duration) watchModel {
	return watchModel{ctx: ctx, obs: obs, interval: interval, lastLog: "Connecting…"}
}

func (m watchModel) Init() tea.Cmd {
	return m.observeCmd()
}

func (m watchModel) observeCmd() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.obs.Observe(m.ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m watchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) selectedItem() string {
	if m.snap == nil || len(m.snap.Items) == 0 {
		return ""
	}
	return m.snap.Items[m.item%len(m.snap.Items)].Item.ID
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case snapshotMsg:
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
			m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
		} else {
			m.lastLog = "Poll failed: " + msg.err.Error()
		}
		return m, m.tickCmd()
	case tickMsg:
		return m, m.observeCmd()
	case actionMsg:
		if msg.err != nil {
			m.lastLog = msg.err.Error()
		} else {
			m.lastLog = msg.log
		}
		return m, m.observeCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "c":
			return m, func() tea.Msg {
				return actionMsg{log: "Clicked.", err: m.obs.Click(m.ctx)}
			}
		case "up", "k":
			if m.item > 0 {
				m.item--
			}
			return m, nil
		case "down", "j":
			if m.snap != nil && m.item < len(m.snap.Items)-1 {
				m.item++
			}
			return m, nil
		case "enter", "u":
			id := m.selectedItem()
			if id == "" {
				return m, nil
			}
			return m, func() tea.Msg {
				return actionMsg{log: "Used " + id + ".", err: m.obs.UseItem(m.ctx, id)}
			}
		}
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(ui.Heading(ui.IconPet, "desk-pet"))
	b.WriteString("\n\n")

	if m.snap == nil {
		b.WriteString(ui.Muted.Render(m.lastLog))
		b.WriteString("\n")
		return b.String()
	}
	st := m.snap.Status

	var left strings.Builder
	left.WriteString(ui.PanelTitle.Render("Pet") + "\n")
	left.WriteString(ui.LabelValue("State", ui.StateText(st.State)) + "\n")
	left.WriteString(ui.LabelValue("Condition", ui.ConditionText(st.Condition)) + "\n")
	left.WriteString(ui.LabelValue("Position", fmt.Sprintf("%.0f, %.0f", st.Position.X, st.Position.Y)) + "\n")
	left.WriteString(ui.LabelValue("Clicks", st.Clicks) + "\n")
	if st.State == "idle" {
		left.WriteString(ui.LabelValue("Idle for", st.IdleFor.Truncate(time.Second)) + "\n")
	}
	left.WriteString(ui.LabelValue("Up", st.Uptime.Truncate(time.Second)) + "\n\n")
	for _, stat := range needs.Stats {
		left.WriteString(fmt.Sprintf("%-12s %s\n", stat, ui.Bar(st.Needs.Get(stat), 20)))
	}

	var right strings.Builder
	right.WriteString(ui.PanelTitle.Render("Items") + "\n")
	for i, v := range m.snap.Items {
		cursor := "  "
		if i == m.item%len(m.snap.Items) {
			cursor = ui.Gold.Render("▸ ")
		}
		avail := ui.Good.Render("ready")
		if !v.Availability.CanUse {
			avail = ui.Muted.Render(v.Availability.Reason)
			if ms := v.Availability.CooldownRemainingMs; ms > 0 {
				avail += ui.Muted.Render(fmt.Sprintf(" %ds", (ms+999)/1000))
			}
		}
		right.WriteString(fmt.Sprintf("%s%-12s %s\n", cursor, v.Item.ID, avail))
	}
	if len(st.ActiveEffects) > 0 {
		right.WriteString("\n" + ui.PanelTitle.Render("Effects") + "\n")
		for _, e := range st.ActiveEffects {
			right.WriteString(fmt.Sprintf("%s %s\n", e.Key, ui.Muted.Render("until "+e.ExpiresAt.Format("15:04:05"))))
		}
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		ui.Panel.Render(strings.TrimRight(left.String(), "\n")),
		" ",
		ui.Panel.Render(strings.TrimRight(right.String(), "\n")),
	))
	b.WriteString("\n")

	if len(m.snap.History) > 0 {
		b.WriteString("\n" + ui.H2.Render("Recent changes") + "\n")
		for _, e := range m.snap.History {
			b.WriteString(fmt.Sprintf("  %-12s %+6.1f  %s %s\n",
				e.Stat, e.Amount, e.Reason, ui.Muted.Render(humanize.Time(e.At))))
		}
	}

	b.WriteString("\n" + ui.Muted.Render(m.lastLog) + "\n")
	b.WriteString(ui.Muted.Render("c click · ↑/↓ select · enter use item · q quit") + "\n")
	return b.String()
}

// RunWatch opens the live view and blocks until the user quits.
func RunWatch(ctx context.Context, obs Observer, interval time.Duration, out io.Writer) error {
	m := newWatchModel(ctx, obs, interval)
	p := tea.NewProgram(m, tea.WithOutput(out), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Adapter wraps a client.Client as an Observer.
type Adapter struct {
	*client.Client
}

// UseItem discards the reaction.
func (a Adapter) UseItem(ctx context.Context, id string) error {
	_, err := a.Client.UseItem(ctx, id)
	return err
}

// Click discards the classification.
func (a Adapter) Click(ctx context.Context) error {
	_, err := a.Client.Click(ctx)
	return err
}
