package root

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/desk-pet/internal/tui"
)

func newWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live terminal view of the running pet",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			return tui.RunWatch(cmd.Context(), tui.Adapter{Client: c}, interval, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "poll interval")
	return cmd
}
