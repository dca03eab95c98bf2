package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talgya/desk-pet/internal/ui"
)

func newResetCmd() *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore all needs to defaults and clear item usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			v, err := c.Reset(cmd.Context(), history)
			if err != nil {
				return err
			}
			msg := "reset"
			if history {
				msg += " (history cleared)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconSpark+" "+msg), ui.ConditionText(v.Condition))
			return nil
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "also clear the stat history")
	return cmd
}
