package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"roomsync/internal/authority"
	"roomsync/internal/config"
	"roomsync/internal/content"
	"roomsync/internal/room"
	"roomsync/pkg/events"
)

type teachFlags struct {
	phase           int
	activity        string
	prompt          int
	actors          string
	suggestThemes   string
	suggestCheckins bool
}

func newTeachCmd(g *globals) *cobra.Command {
	var f teachFlags
	cmd := &cobra.Command{
		Use:   "teach --phase N [flags]",
		Short: "Move the room as the teacher",
		Long: "Opens the room as a teacher and broadcasts the navigation state.\n" +
			"Content (theme sets, check-in items, actor set) is applied before\n" +
			"the phase so that one full state reaches every student.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("phase") {
				return fmt.Errorf("--phase is required")
			}
			c, err := g.open(cmd, events.RoleTeacher)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := teach(cmd, g, c, f, cmd.Flags().Changed("prompt")); err != nil {
				return err
			}
			printNavigation(cmd.OutOrStdout(), c.NavigationState())
			return nil
		},
	}
	cmd.Flags().IntVar(&f.phase, "phase", 0, "phase index (0-4)")
	cmd.Flags().StringVar(&f.activity, "activity", "", "activity id allowed in the phase")
	cmd.Flags().IntVar(&f.prompt, "prompt", 0, "theme set index")
	cmd.Flags().StringVar(&f.actors, "actors", "", "actor set id for the power map")
	cmd.Flags().StringVar(&f.suggestThemes, "suggest-themes", "", "generate theme sets for this topic first")
	cmd.Flags().BoolVar(&f.suggestCheckins, "suggest-checkins", false, "generate check-in items first")
	return cmd
}

func teach(cmd *cobra.Command, g *globals, c *room.Client, f teachFlags, setPrompt bool) error {
	b := c.Teacher()
	if b == nil {
		return fmt.Errorf("client has no teacher capability")
	}
	suggester := newSuggester(g.cfg.Content, g)

	if f.suggestThemes != "" {
		sets, fallback := suggester.SuggestThemeSets(cmd.Context(), f.suggestThemes)
		reportFallback(cmd, "theme sets", fallback)
		if err := b.SetThemeSets(sets); err != nil {
			return err
		}
	}
	if f.suggestCheckins {
		items, fallback := suggester.SuggestCheckinItems(cmd.Context())
		reportFallback(cmd, "check-in items", fallback)
		if err := b.SetCheckinItems(items); err != nil {
			return err
		}
	}
	if f.actors != "" {
		if err := b.SetActorSet(f.actors); err != nil {
			return err
		}
	}
	if err := b.SetPhase(f.phase); err != nil {
		return err
	}
	if f.activity != "" {
		if err := b.SetActivity(f.activity); err != nil {
			return err
		}
	}
	if setPrompt {
		if err := b.SetPromptIndex(f.prompt); err != nil {
			return err
		}
	}
	return nil
}

func newSuggester(cfg *config.ContentConfig, g *globals) *content.Suggester {
	if cfg == nil || cfg.APIKey == "" {
		return content.NewSuggester(nil, g.logger)
	}
	return content.NewSuggester(content.NewGenerator(cfg), g.logger)
}

func reportFallback(cmd *cobra.Command, what string, fallback bool) {
	if fallback {
		fmt.Fprintf(cmd.ErrOrStderr(), "content service unavailable: using built-in %s\n", what)
	}
}

func printNavigation(w io.Writer, n authority.Navigation) {
	phase := "not started"
	if n.Started() {
		phase = fmt.Sprintf("%d (%s)", n.Phase, content.Phases[n.Phase].Label)
	}
	fmt.Fprintf(w, "phase:    %s\n", phase)
	fmt.Fprintf(w, "activity: %s\n", n.Activity)
	if set, ok := n.CurrentThemeSet(); ok {
		fmt.Fprintf(w, "prompt:   %d/%d %s\n", n.SetIndex()+1, len(n.ThemeSets), set.Prompt)
	}
	fmt.Fprintf(w, "actors:   %s\n", n.ActorSetID)
	fmt.Fprintf(w, "checkins: %d items\n", len(n.CheckinItems))
}
