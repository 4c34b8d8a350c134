package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/store"
)

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or clear saved screen preferences",
		Long: `The interactive browser remembers each screen's status filter and filter
text, plus recent filter queries, per server. These commands inspect and clear them.`,
	}
	cmd.AddCommand(newPrefsShowCmd(a), newPrefsResetCmd(a))
	return cmd
}

func newPrefsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print saved preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prefs, err := a.openPrefs()
			if err != nil {
				return err
			}
			defer prefs.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RESOURCE\tSTATUS\tFILTER\tUPDATED")
			for _, r := range domain.Resources() {
				p, ok := prefs.Screen(r)
				if !ok {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r, orDash(p.Status), orDash(p.Query), domain.FormatTime(p.UpdatedAt))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			recent := prefs.RecentQueries()
			if len(recent) == 0 {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nRecent filters:")
			for _, q := range recent {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", q)
			}
			return nil
		},
	}
}

func newPrefsResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset [resource]...",
		Short: "Forget saved preferences",
		Long:  "Without arguments every preference and the recent filter history are cleared.",
		Example: `  palmgate prefs reset
  palmgate prefs reset devices reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resources []domain.Resource
			for _, arg := range args {
				r, err := domain.ParseResource(arg)
				if err != nil {
					return err
				}
				resources = append(resources, r)
			}

			prefs, err := a.openPrefs()
			if err != nil {
				return err
			}
			defer prefs.Close()

			if len(resources) == 0 {
				if err := prefs.Reset(); err != nil {
					return fmt.Errorf("failed to reset preferences: %w", err)
				}
				cmd.Println("All preferences cleared")
				return nil
			}
			for _, r := range resources {
				if err := prefs.ForgetScreen(r); err != nil {
					return fmt.Errorf("failed to forget %s: %w", r, err)
				}
				cmd.Printf("Forgot %s\n", r)
			}
			return nil
		},
	}
}

// openPrefs opens the preferences database for the configured server.
func (a *app) openPrefs() (*store.PrefsStore, error) {
	prefs, err := store.NewPrefsStore(a.cfg.Store.Path, a.cfg.Server.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	return prefs, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
