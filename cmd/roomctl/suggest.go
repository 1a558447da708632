package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSuggestCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Print generated room content without broadcasting it",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "themes TOPIC",
			Short: "Suggest theme sets for a topic",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sets, fallback := newSuggester(g.cfg.Content, g).SuggestThemeSets(cmd.Context(), args[0])
				reportFallback(cmd, "theme sets", fallback)
				for i, s := range sets {
					fmt.Fprintf(cmd.OutOrStdout(), "%d. [%s] %s\n   %q\n", i+1, s.Theme, s.Prompt, s.Statement.Text)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "checkins",
			Short: "Suggest check-in items",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				items, fallback := newSuggester(g.cfg.Content, g).SuggestCheckinItems(cmd.Context())
				reportFallback(cmd, "check-in items", fallback)
				for _, it := range items {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", it.Icon, it.Text)
				}
				return nil
			},
		},
	)
	return cmd
}
