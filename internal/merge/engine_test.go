package merge

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsync/internal/authority"
	"roomsync/internal/identity"
	"roomsync/internal/store"
	"roomsync/pkg/events"
)

func setup(t *testing.T) (*Engine, *store.Store, identity.ID, *authority.Broadcaster) {
	t.Helper()
	self := identity.New()
	st := store.New()
	nav := authority.NewBroadcaster(self, nil, nil, nil)
	return New(self, st, nav, nil), st, self, nav
}

func frame(t *testing.T, sender string, p events.Payload) events.Envelope {
	t.Helper()
	env, err := events.Encode(sender, p)
	require.NoError(t, err)
	return env
}

func TestApply_IdempotentMerge(t *testing.T) {
	e, st, _, _ := setup(t)
	env := frame(t, "peer", events.Voice{ID: "v1", Text: "hei", Timestamp: 1})

	assert.True(t, e.Apply(env))
	assert.False(t, e.Apply(env))
	assert.Equal(t, 1, st.Len(events.KindVoice))

	vote := frame(t, "peer", events.Vote{ID: "x1", Value: 30})
	e.Apply(vote)
	e.Apply(vote)
	assert.Equal(t, 1, st.Len(events.KindVote))

	stats := e.Stats()
	assert.Equal(t, int64(2), stats.Applied)
	assert.Equal(t, int64(2), stats.Duplicates)
}

func TestApply_SelfEchoSuppressed(t *testing.T) {
	e, st, self, _ := setup(t)

	for _, p := range []events.Payload{
		events.Voice{ID: "v1", Text: "eget"},
		events.Vote{ID: "x1", Value: 10},
		events.MapDot{ID: "d1", ActorID: "ba", X: 10, Y: 10},
		events.Join{},
		events.Checkin{Items: []string{"a"}},
	} {
		assert.False(t, e.Apply(frame(t, self.String(), p)))
	}

	assert.Equal(t, 0, st.Len(events.KindVoice))
	assert.Equal(t, 0, st.Len(events.KindVote))
	assert.Equal(t, 0, st.Len(events.KindMapDot))
	assert.Equal(t, 0, st.Participants())
	assert.Empty(t, st.Checkins())
	assert.Equal(t, int64(5), e.Stats().Echoes)
}

func TestApply_CapInvariant(t *testing.T) {
	e, st, _, _ := setup(t)
	for i := 0; i < store.CapVoices+25; i++ {
		e.Apply(frame(t, "peer", events.Voice{ID: fmt.Sprintf("v%d", i), Text: "t"}))
	}
	for i := 0; i < store.CapMapDots+10; i++ {
		e.Apply(frame(t, "peer", events.MapDot{ID: fmt.Sprintf("d%d", i), ActorID: "ba", X: 50, Y: 50}))
	}
	assert.Equal(t, store.CapVoices, st.Len(events.KindVoice))
	assert.Equal(t, store.CapMapDots, st.Len(events.KindMapDot))

	voices := st.Voices()
	assert.Equal(t, fmt.Sprintf("v%d", store.CapVoices+24), voices[0].ID)
	dots := st.MapDots()
	assert.Equal(t, "d10", dots[0].ID)
}

func TestApply_ClampsValues(t *testing.T) {
	e, st, _, _ := setup(t)
	e.Apply(frame(t, "peer", events.Vote{ID: "hi", Value: 140}))
	e.Apply(frame(t, "peer", events.Vote{ID: "lo", Value: -5}))
	e.Apply(frame(t, "peer", events.MapDot{ID: "d", ActorID: "ba", X: -10, Y: 120}))

	votes := st.Votes()
	require.Len(t, votes, 2)
	assert.Equal(t, 100.0, votes[0].Value)
	assert.Equal(t, 0.0, votes[1].Value)

	dot := st.MapDots()[0]
	assert.Equal(t, 2.0, dot.X)
	assert.Equal(t, 98.0, dot.Y)
	assert.False(t, dot.Own)
}

func TestApply_VoteHistogram(t *testing.T) {
	e, st, _, _ := setup(t)
	for i, v := range []float64{5, 15, 25, 95} {
		e.Apply(frame(t, "peer", events.Vote{ID: fmt.Sprintf("v%d", i), Value: v}))
	}
	h := st.VoteHistogram(0)
	assert.Equal(t, 4, h.Count)
	assert.Equal(t, 35.0, h.Mean)
	assert.Equal(t, 1, h.Buckets[0])
	assert.Equal(t, 1, h.Buckets[1])
	assert.Equal(t, 1, h.Buckets[2])
	assert.Equal(t, 1, h.Buckets[9])
}

func TestApply_MapAggregate(t *testing.T) {
	e, st, _, _ := setup(t)
	e.Apply(frame(t, "a", events.MapDot{ID: "1", ActorID: "ba", X: 10, Y: 10}))
	e.Apply(frame(t, "b", events.MapDot{ID: "2", ActorID: "ba", X: 20, Y: 20}))
	assert.False(t, st.MapAggregate("ba").Visible)

	e.Apply(frame(t, "c", events.MapDot{ID: "3", ActorID: "ba", X: 30, Y: 30}))
	agg := st.MapAggregate("ba")
	assert.True(t, agg.Visible)
	assert.Equal(t, 3, agg.Count)
	assert.InDelta(t, 20.0, agg.MeanX, 1e-9)
	assert.InDelta(t, 20.0, agg.MeanY, 1e-9)
	assert.Greater(t, agg.StdDevX, 0.0)
}

func TestApply_ReactionBeforeTargetIsDropped(t *testing.T) {
	e, st, _, _ := setup(t)

	assert.False(t, e.Apply(frame(t, "peer", events.Reaction{TargetID: "v1", ReactionKey: "utfordrer"})))
	assert.True(t, e.Apply(frame(t, "peer", events.Voice{ID: "v1", Text: "sen"})))

	v, ok := st.Voice("v1")
	require.True(t, ok)
	assert.Zero(t, v.Reactions["utfordrer"])
	assert.Equal(t, int64(1), e.Stats().Dropped)

	assert.True(t, e.Apply(frame(t, "peer", events.Reaction{TargetID: "v1", ReactionKey: "utfordrer"})))
	v, _ = st.Voice("v1")
	assert.Equal(t, 1, v.Reactions["utfordrer"])
}

func TestApply_JoinCheckinAndRoles(t *testing.T) {
	e, st, _, _ := setup(t)
	e.Apply(frame(t, "s1", events.Join{}))
	e.Apply(events.Envelope{Kind: events.KindJoin, Sender: "s2"})
	assert.Equal(t, 2, st.Participants())

	e.Apply(frame(t, "s1", events.Checkin{Items: []string{"a", "b"}}))
	e.Apply(frame(t, "s2", events.Checkin{Items: []string{"a"}}))
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, st.Checkins())

	assert.True(t, e.Apply(frame(t, "s1", events.NewRole{RoleName: "Tolken", Emoji: "👤", Color: "#C06840"})))
	assert.False(t, e.Apply(frame(t, "s2", events.NewRole{RoleName: "Tolken"})))
	roles := st.Roles()
	require.Len(t, roles, 1)
	assert.Equal(t, "Tolken", roles[0].Name)
}

func TestApply_Feeds(t *testing.T) {
	e, st, _, _ := setup(t)
	e.Apply(frame(t, "p", events.Perspective{ID: "p1", RoleName: "Barnet (5 år)", Text: "jeg ser", Timestamp: 3}))
	e.Apply(frame(t, "p", events.BlindSpot{ID: "b1", Text: "foreldrene", Timestamp: 4}))
	e.Apply(frame(t, "p", events.Commit{ID: "c1", Text: "lytte mer", Timestamp: 5}))
	e.Apply(frame(t, "p", events.Insight{ID: "i1", Text: "makt er relasjonell"}))

	assert.Equal(t, "jeg ser", st.Perspectives()[0].Text)
	assert.Equal(t, "foreldrene", st.BlindSpots()[0].Text)
	assert.Equal(t, "lytte mer", st.Commitments()[0].Text)
	ins := st.Insights()[0]
	assert.Equal(t, "makt er relasjonell", ins.Text)
	assert.NotZero(t, ins.Timestamp)
}

func TestApply_MalformedFramesDropped(t *testing.T) {
	e, st, _, _ := setup(t)

	cases := []events.Envelope{
		{Kind: "bogus", Sender: "p", Payload: json.RawMessage(`{}`)},
		{Kind: events.KindVoice, Sender: "p", Payload: json.RawMessage(`{not json`)},
		{Kind: events.KindVoice, Sender: "p", Payload: json.RawMessage(`{"text":"no id"}`)},
		{Kind: events.KindVoice, Sender: "", Payload: json.RawMessage(`{"id":"x","text":"t"}`)},
		{Kind: events.KindCheckin, Sender: "p", Payload: json.RawMessage(`{"items":[]}`)},
		{Kind: events.KindMapDot, Sender: "p"},
	}
	for _, env := range cases {
		assert.False(t, e.Apply(env))
	}
	assert.Equal(t, int64(len(cases)), e.Stats().Dropped)
	assert.Equal(t, 0, st.Len(events.KindVoice))
}

func TestApply_StateDelegatedToBroadcaster(t *testing.T) {
	e, _, self, nav := setup(t)
	pi := 5
	assert.True(t, e.Apply(frame(t, "teacher", events.State{PromptIndex: &pi})))
	assert.Equal(t, 5, nav.Navigation().PromptIndex)

	phase := 2
	e.Apply(frame(t, self.String(), events.State{Phase: &phase}))
	assert.Equal(t, authority.NotStarted, nav.Navigation().Phase)

	noState := New(identity.New(), store.New(), nil, nil)
	assert.False(t, noState.Apply(frame(t, "teacher", events.State{PromptIndex: &pi})))
}
