package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"roomsync/internal/authority"
	"roomsync/internal/room"
	"roomsync/internal/store"
	"roomsync/pkg/events"
)

func newWatchCmd(g *globals) *cobra.Command {
	var (
		role     string
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print room activity as it arrives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := g.defaultRole()
			if role != "" {
				r = events.Role(role)
				if !r.Valid() {
					return fmt.Errorf("invalid role %q", role)
				}
			}
			c, err := g.open(cmd, r)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			stop := watch(cmd.OutOrStdout(), c)
			defer stop()

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "teacher or student (default from config)")
	cmd.Flags().DurationVar(&duration, "for", 0, "stop after this long (default until interrupted)")
	return cmd
}

// watch prints every store change and navigation move of c to w. The
// returned func unsubscribes from the store.
func watch(w io.Writer, c *room.Client) func() {
	var mu sync.Mutex
	printf := func(format string, args ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	c.OnNavigation(func(ch authority.Change) {
		n := ch.Navigation
		printf("[state] phase=%d activity=%s prompt=%d\n", n.Phase, n.Activity, n.PromptIndex)
	})

	var unsubs []func()
	for _, kind := range events.Kinds {
		if kind == events.KindState {
			continue
		}
		kind := kind
		unsubs = append(unsubs, c.Subscribe(kind, func(ch store.Change) {
			printf("%s\n", describe(c.Store(), kind, ch))
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func describe(s *store.Store, kind events.Kind, ch store.Change) string {
	who := "peer"
	if ch.Own {
		who = "me"
	}
	switch kind {
	case events.KindVoice:
		if v, ok := s.Voice(ch.ID); ok {
			return fmt.Sprintf("[voice/%s] %s %s", who, v.Text, hashtags(v.Tags))
		}
	case events.KindReaction:
		if v, ok := s.Voice(ch.ID); ok {
			return fmt.Sprintf("[reaction] %q now %v", v.Text, v.Reactions)
		}
	case events.KindJoin:
		return fmt.Sprintf("[join] %d participants", s.Participants())
	case events.KindVote:
		return fmt.Sprintf("[vote/%s] %d votes", who, s.Len(events.KindVote))
	case events.KindCheckin:
		return fmt.Sprintf("[checkin/%s] %v", who, s.Checkins())
	}
	return fmt.Sprintf("[%s/%s] %s", kind, who, ch.ID)
}

func hashtags(tags []string) string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = "#" + t
	}
	return strings.Join(out, " ")
}
