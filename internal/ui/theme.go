// Package ui holds the lipgloss styles shared by the CLI and the watch view.
package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/talgya/desk-pet/internal/behavior"
	"github.com/talgya/desk-pet/internal/needs"
)

const (
	IconPet   = "🐱"
	IconHeart = "💗"
	IconFood  = "🐟"
	IconZzz   = "💤"
	IconWalk  = "🐾"
	IconEye   = "👀"
	IconSpark = "✨"
	IconWarn  = "⚠️"
	IconError = "🧨"
	IconClock = "⏳"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel      = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	PanelTitle = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
)

// Heading renders an icon-prefixed title.
func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

// LabelValue renders "label: value".
func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// StateText colours a behavior state.
func StateText(s behavior.State) string {
	switch s {
	case behavior.StateIdle:
		return Muted.Render(string(s))
	case behavior.StateWalking:
		return Good.Render(IconWalk + " " + string(s))
	case behavior.StateSleeping, behavior.StateYawning:
		return H2.Render(IconZzz + " " + string(s))
	case behavior.StateObserving:
		return Gold.Render(IconEye + " " + string(s))
	default:
		return Title.Render(string(s))
	}
}

// ConditionText colours an overall condition.
func ConditionText(c needs.Condition) string {
	switch c {
	case needs.ConditionExcellent, needs.ConditionGood:
		return Good.Render(string(c))
	case needs.ConditionNormal:
		return Gold.Render(string(c))
	case needs.ConditionPoor:
		return Warn.Render(string(c))
	default:
		return Bad.Render(string(c))
	}
}

// Bar renders a 0-100 value as a fixed-width gauge.
func Bar(value float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int(math.Round(value / needs.MaxValue * float64(width)))
	filled = max(0, min(width, filled))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	style := Good
	switch {
	case value < 25:
		style = Bad
	case value < 50:
		style = Warn
	}
	return style.Render(bar) + Muted.Render(fmt.Sprintf(" %5.1f", value))
}
