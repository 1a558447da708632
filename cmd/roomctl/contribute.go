package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"roomsync/internal/content"
	"roomsync/internal/room"
	"roomsync/internal/store"
)

// contribute opens a client with the configured role, runs fn and closes.
func contribute(g *globals, cmd *cobra.Command, fn func(c *room.Client) (string, error)) error {
	c, err := g.open(cmd, g.defaultRole())
	if err != nil {
		return err
	}
	defer c.Close()

	id, err := fn(c)
	if err != nil {
		return err
	}
	if id != "" {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func newVoiceCmd(g *globals) *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "voice TEXT",
		Short: "Post a voice to the stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return contribute(g, cmd, func(c *room.Client) (string, error) {
				v, err := c.SubmitVoice(args[0], tags)
				return v.ID, err
			})
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "theme tags in addition to those found in the text")
	return cmd
}

func newReactCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "react VOICE_ID KEY",
		Short: "React to a voice with one of: " + reactionKeys(),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return contribute(g, cmd, func(c *room.Client) (string, error) {
				return "", c.React(args[0], args[1])
			})
		},
	}
}

func newVoteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "vote VALUE",
		Short: "Place a vote on the value line (0-100)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("vote value: %w", err)
			}
			return contribute(g, cmd, func(c *room.Client) (string, error) {
				v, err := c.SubmitVote(value)
				return v.ID, err
			})
		},
	}
}

func newCheckinCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "checkin ITEM...",
		Short: "Submit the check-in items that apply to you",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return contribute(g, cmd, func(c *room.Client) (string, error) {
				return "", c.SubmitCheckin(args)
			})
		},
	}
}

func newDotCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "dot ACTOR_ID X Y",
		Short: "Place an actor on the power map (0-100 on both axes)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("x: %w", err)
			}
			y, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("y: %w", err)
			}
			return contribute(g, cmd, func(c *room.Client) (string, error) {
				d, err := c.SubmitMapDot(args[0], x, y)
				return d.ID, err
			})
		},
	}
}

func newNoteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:       "note blindspot|commit|insight TEXT",
		Short:     "Post a blind spot, a commitment or a dialogue insight",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"blindspot", "commit", "insight"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return contribute(g, cmd, func(c *room.Client) (string, error) {
				submit := map[string]func(string) (store.Note, error){
					"blindspot": c.SubmitBlindSpot,
					"commit":    c.SubmitCommitment,
					"insight":   c.SubmitInsight,
				}[args[0]]
				if submit == nil {
					return "", fmt.Errorf("unknown note kind %q", args[0])
				}
				n, err := submit(args[1])
				return n.ID, err
			})
		},
	}
}

func newRoleCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "role NAME",
		Short: "Propose a new perspective role for the room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return contribute(g, cmd, func(c *room.Client) (string, error) {
				r, err := c.ProposeRole(args[0])
				return r.Name, err
			})
		},
	}
}

func reactionKeys() string {
	keys := make([]string, 0, len(content.Reactions))
	for _, r := range content.Reactions {
		keys = append(keys, r.Key)
	}
	return strings.Join(keys, ", ")
}
