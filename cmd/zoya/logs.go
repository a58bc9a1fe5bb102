package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ent0n29/zoya/internal/interactionlog"
)

func newLogsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect or clear the interaction log",
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List logged interactions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeFn, err := openInteractions(cmd, opts)
			if err != nil {
				return err
			}
			defer closeFn()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing interactions: %w", err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "    ")
				if entries == nil {
					entries = []interactionlog.Entry{}
				}
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No interactions logged.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tMODE\tQUERY\tREPLY")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Mode, clip(e.UserQuery, 40), clip(e.AIReply, 60))
			}
			return w.Flush()
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every logged interaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeFn, err := openInteractions(cmd, opts)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clearing interactions: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Interaction log cleared.")
			return nil
		},
	}

	cmd.AddCommand(listCmd, clearCmd)
	return cmd
}

func openInteractions(cmd *cobra.Command, opts *rootOptions) (interactionlog.Store, func(), error) {
	res, err := buildApp(cmd, opts)
	if err != nil {
		return nil, nil, err
	}
	if res.Interactions == nil {
		_ = res.Close()
		return nil, nil, fmt.Errorf("interaction log is unavailable (check INTERACTION_LOG_PATH and DATABASE_URL)")
	}
	return res.Interactions, func() { _ = res.Close() }, nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
