package root

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/desk-pet/internal/needs"
	"github.com/talgya/desk-pet/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var history int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running pet's state and needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			st, err := c.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconPet, "Desk pet"))
			fmt.Fprintln(out, ui.LabelValue("State", ui.StateText(st.State)))
			fmt.Fprintln(out, ui.LabelValue("Condition", ui.ConditionText(st.Condition)))
			if st.Urgent != "" {
				fmt.Fprintln(out, ui.LabelValue("Needs", ui.Warn.Render(ui.IconWarn+" "+string(st.Urgent))))
			}
			if st.StoreDegraded {
				fmt.Fprintln(out, ui.Warn.Render(ui.IconWarn+" saved state unreadable, running on defaults"))
			}
			fmt.Fprintln(out, ui.LabelValue("Position", fmt.Sprintf("%.0f, %.0f", st.Position.X, st.Position.Y)))
			if st.Target != nil {
				fmt.Fprintln(out, ui.LabelValue("Target", fmt.Sprintf("%.0f, %.0f", st.Target.X, st.Target.Y)))
			}
			fmt.Fprintln(out, ui.LabelValue("Clicks", st.Clicks))
			fmt.Fprintln(out, ui.LabelValue("Uptime", st.Uptime.Truncate(time.Second)))
			fmt.Fprintln(out)
			for _, stat := range needs.Stats {
				fmt.Fprintf(out, "%-12s %s %5.1f\n", stat, ui.Bar(st.Needs.Get(stat), 20), st.Needs.Get(stat))
			}
			for _, e := range st.ActiveEffects {
				fmt.Fprintf(out, "%s %s %s\n", ui.IconSpark, e.Key, ui.Muted.Render("until "+humanize.Time(e.ExpiresAt)))
			}

			if history <= 0 {
				return nil
			}
			events, err := c.History(cmd.Context(), history)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, ui.H2.Render("Recent changes"))
			for _, ev := range events {
				fmt.Fprintf(out, "%+6.1f %-12s %-16s %s\n", ev.Amount, ev.Stat, ev.Reason, ui.Muted.Render(humanize.Time(ev.At)))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&history, "history", 0, "also show the N most recent stat changes")
	return cmd
}
