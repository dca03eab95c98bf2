package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talgya/desk-pet/internal/client"
	"github.com/talgya/desk-pet/internal/ui"
)

func newItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List items and their availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			views, err := c.Items(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconFood, "Items"))
			for _, v := range views {
				avail := ui.Good.Render("ready")
				if !v.Availability.CanUse {
					avail = ui.Muted.Render(v.Availability.Reason)
					if ms := v.Availability.CooldownRemainingMs; ms > 0 {
						avail += ui.Muted.Render(fmt.Sprintf(" (%ds)", (ms+999)/1000))
					}
				}
				used := 0
				if v.Usage != nil {
					used = v.Usage.UsageCount
				}
				fmt.Fprintf(out, "%-12s %-10s %-10s used %-3d %s\n", v.Item.ID, v.Item.Type, v.Item.Rarity, used, avail)
			}
			return nil
		},
	}
	cmd.AddCommand(newUseCmd(), newItemResetCmd())
	return cmd
}

func newItemResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <item-id>",
		Short: "Clear one item's usage count and cooldown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			v, err := c.ResetItem(cmd.Context(), args[0])
			if errors.Is(err, client.ErrRefused) {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render(ui.IconWarn+" "+err.Error()))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconSpark+" "+v.Item.ID+" ready"))
			return nil
		},
	}
}

func newUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <item-id>",
		Short: "Give an item to the pet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			r, err := c.UseItem(cmd.Context(), args[0])
			if errors.Is(err, client.ErrRefused) {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render(ui.IconWarn+" "+err.Error()))
				return nil
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Good.Render(ui.IconHeart+" "+r.ItemID+" used"))
			if r.Message != "" {
				fmt.Fprintln(out, ui.LabelValue("Says", r.Message))
			}
			if r.Animation != "" {
				fmt.Fprintln(out, ui.LabelValue("Animation", r.Animation))
			}
			for _, e := range r.StatEffects {
				fmt.Fprintf(out, "  %s %+.0f\n", e.Type, e.Value)
			}
			return nil
		},
	}
}
