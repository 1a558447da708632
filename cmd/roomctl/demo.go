package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"

	"roomsync/internal/content"
	"roomsync/internal/room"
	"roomsync/internal/transport"
	"roomsync/pkg/events"
)

var demoVoices = []string{
	"makt er usynlig for de som har den",
	"stemmen til barnet forsvinner i møtet",
	"foreldre har mer makt enn vi tror",
	"tillit bygges i det små",
	"rammene styrer mer enn personene",
	"hvem bestemmer hva som er normalt",
}

func newDemoCmd(g *globals) *cobra.Command {
	var (
		students int
		seed     int64
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Simulate a teacher and a class on an in-memory bus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if students < 1 {
				return fmt.Errorf("--students must be at least 1")
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), g.topic, students, rand.New(rand.NewSource(seed)))
		},
	}
	cmd.Flags().IntVar(&students, "students", 24, "number of simulated students")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	return cmd
}

// runDemo plays one short session on a MemoryBus and prints what the
// teacher's screen would aggregate.
func runDemo(ctx context.Context, w io.Writer, topic string, students int, rng *rand.Rand) error {
	bus := transport.NewMemoryBus()
	join := func(role events.Role) (*room.Client, error) {
		c, err := room.New(room.Options{Topic: topic, Role: role, Transport: bus.NewTransport()})
		if err != nil {
			return nil, err
		}
		return c, c.Connect(ctx)
	}

	teacher, err := join(events.RoleTeacher)
	if err != nil {
		return err
	}
	defer teacher.Close()

	class := make([]*room.Client, 0, students)
	defer func() {
		for _, s := range class {
			_ = s.Close()
		}
	}()
	for i := 0; i < students; i++ {
		s, err := join(events.RoleStudent)
		if err != nil {
			return err
		}
		class = append(class, s)
	}

	b := teacher.Teacher()
	if err := b.SetPhase(1); err != nil {
		return err
	}
	for _, s := range class {
		if rng.Intn(3) == 0 {
			continue
		}
		if _, err := s.SubmitVoice(demoVoices[rng.Intn(len(demoVoices))], nil); err != nil {
			return err
		}
	}

	if err := b.SetActivity(content.ActivityPowerMap); err != nil {
		return err
	}
	actors := content.LookupActorSet(teacher.NavigationState().ActorSetID).Actors
	focus := actors[0]
	for _, s := range class {
		if _, err := s.SubmitMapDot(focus.ID, 60+rng.NormFloat64()*15, 30+rng.NormFloat64()*15); err != nil {
			return err
		}
	}

	if err := b.SetActivity(content.ActivityValueLine); err != nil {
		return err
	}
	for _, s := range class {
		if _, err := s.SubmitVote(rng.Float64() * 100); err != nil {
			return err
		}
	}

	st := teacher.Store()
	fmt.Fprintf(w, "participants: %d\n", st.Participants())
	fmt.Fprintf(w, "voices:       %d\n", st.Len(events.KindVoice))
	for _, tc := range st.TagCloud(5) {
		fmt.Fprintf(w, "  #%-12s %d\n", tc.Tag, tc.Count)
	}

	agg := st.MapAggregate(focus.ID)
	fmt.Fprintf(w, "map %s: n=%d mean=(%.1f, %.1f) sd=(%.1f, %.1f) contested=%t\n",
		focus.Name, agg.Count, agg.MeanX, agg.MeanY, agg.StdDevX, agg.StdDevY, agg.Contested)

	h := st.VoteHistogram(teacher.NavigationState().SetIndex())
	fmt.Fprintf(w, "votes: n=%d mean=%.1f\n", h.Count, h.Mean)
	for i, n := range h.Buckets {
		fmt.Fprintf(w, "  %3d-%-3d %s\n", i*10, i*10+9, strings.Repeat("█", n))
	}
	return nil
}
