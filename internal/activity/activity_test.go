package activity

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsync/internal/content"
)

type manualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.once.Do(func() { close(m.stopped) }) }

type manualClock struct {
	ticker *manualTicker
}

func newManualClock() *manualClock {
	return &manualClock{ticker: &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}}
}

func (c *manualClock) NewTicker(time.Duration) Ticker { return c.ticker }

func (c *manualClock) tick() { c.ticker.ch <- time.Time{} }

func seeded() *rand.Rand { return rand.New(rand.NewSource(7)) }

func TestDialogue_PhysicalRound(t *testing.T) {
	var insights []string
	d := NewDialogue(func(text string) error {
		insights = append(insights, text)
		return nil
	}, seeded())

	var states []DialogueState
	d.OnChange(func(s DialogueSnapshot) {
		if len(states) == 0 || states[len(states)-1] != s.State {
			states = append(states, s.State)
		}
	})

	tok, err := d.StartPhysical()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, tok.Number, 1)
	assert.LessOrEqual(t, tok.Number, MaxPairingNumber)
	assert.Contains(t, content.PairingColors, tok.Color)

	snap := d.Snapshot()
	assert.Equal(t, DialoguePairedPhysical, snap.State)
	require.NotNil(t, snap.Token)
	assert.Equal(t, 300, snap.Remaining)
	assert.Equal(t, 1, snap.Round)
	assert.Equal(t, content.DialoguePrompts[0], snap.Prompt)

	// No countdown until the partners confirm.
	d.Tick()
	assert.Equal(t, 300, d.Snapshot().Remaining)

	require.NoError(t, d.ConfirmPairing())
	for i := 0; i < 299; i++ {
		d.Tick()
	}
	assert.Equal(t, DialogueActive, d.Snapshot().State)
	assert.Equal(t, 1, d.Snapshot().Remaining)

	d.Tick()
	assert.Equal(t, DialogueInsight, d.Snapshot().State)
	assert.Equal(t, 0, d.Snapshot().Remaining)

	assert.ErrorIs(t, d.SubmitInsight("   "), ErrEmptyInsight)
	require.NoError(t, d.SubmitInsight("makt handler om hvem som får snakke"))
	assert.Equal(t, DialogueDebrief, d.Snapshot().State)
	assert.Equal(t, []string{"makt handler om hvem som får snakke"}, insights)

	require.NoError(t, d.NewRound())
	assert.Equal(t, DialogueLobby, d.Snapshot().State)
	assert.Nil(t, d.Snapshot().Token)

	assert.Equal(t, []DialogueState{
		DialoguePairedPhysical, DialogueActive, DialogueTimeout,
		DialogueInsight, DialogueDebrief, DialogueLobby,
	}, states)
}

func TestDialogue_RemoteStartsImmediately(t *testing.T) {
	d := NewDialogue(nil, seeded())
	var seen []DialogueState
	d.OnChange(func(s DialogueSnapshot) { seen = append(seen, s.State) })

	require.NoError(t, d.StartRemote())
	assert.Equal(t, []DialogueState{DialoguePairedRemote, DialogueActive}, seen)
	snap := d.Snapshot()
	assert.Equal(t, DialogueActive, snap.State)
	assert.True(t, snap.Remote)
	assert.Nil(t, snap.Token)
	assert.Equal(t, 300, snap.Remaining)

	d.Tick()
	snap = d.Snapshot()
	assert.Equal(t, DialogueActive, snap.State)
	assert.Equal(t, 299, snap.Remaining)
	assert.ErrorIs(t, d.ConfirmPairing(), ErrInvalidTransition)
}

func TestDialogue_InvalidTransitions(t *testing.T) {
	d := NewDialogue(nil, seeded())
	assert.ErrorIs(t, d.ConfirmPairing(), ErrInvalidTransition)
	assert.ErrorIs(t, d.SubmitInsight("x"), ErrInvalidTransition)
	assert.ErrorIs(t, d.NewRound(), ErrInvalidTransition)

	require.NoError(t, d.StartRemote())
	_, err := d.StartPhysical()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, d.StartRemote(), ErrInvalidTransition)
}

func TestDialogue_AbandonSkipsInsight(t *testing.T) {
	called := false
	d := NewDialogue(func(string) error { called = true; return nil }, seeded())
	_, err := d.StartPhysical()
	require.NoError(t, err)
	require.NoError(t, d.ConfirmPairing())
	d.Tick()

	d.Abandon()
	assert.Equal(t, DialogueLobby, d.Snapshot().State)
	assert.False(t, called)
}

func TestDialogue_RoundsRotatePrompts(t *testing.T) {
	d := NewDialogue(nil, seeded())
	for round := 1; round <= len(content.DialoguePrompts)+1; round++ {
		require.NoError(t, d.StartRemote())
		snap := d.Snapshot()
		assert.Equal(t, round, snap.Round)
		assert.Equal(t, content.DialoguePrompts[(round-1)%len(content.DialoguePrompts)], snap.Prompt)
		d.Abandon()
	}
}

func TestDialogue_InsightCallbackError(t *testing.T) {
	boom := errors.New("boom")
	d := NewDialogue(func(string) error { return boom }, seeded())
	require.NoError(t, d.StartRemote())
	for i := 0; i < 300; i++ {
		d.Tick()
	}
	assert.ErrorIs(t, d.SubmitInsight("x"), boom)
	assert.Equal(t, DialogueDebrief, d.Snapshot().State)
}

func TestDialogue_RunDrivesTicks(t *testing.T) {
	d := NewDialogue(nil, seeded())
	require.NoError(t, d.StartRemote())

	clock := newManualClock()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx, clock)
		close(done)
	}()

	clock.tick()
	clock.tick()
	clock.tick()
	assert.Eventually(t, func() bool { return d.Snapshot().Remaining == 297 }, time.Second, time.Millisecond)

	cancel()
	<-done
	select {
	case <-clock.ticker.stopped:
	default:
		t.Fatal("ticker not stopped")
	}
}

func TestMapPlacement_Flow(t *testing.T) {
	set := content.LookupActorSet(content.DefaultActorSet)
	type placement struct {
		actor string
		x, y  float64
	}
	var committed []placement
	cleared := 0
	m := NewMapPlacement(set, func(id string, x, y float64) error {
		committed = append(committed, placement{id, x, y})
		return nil
	}, func() int { cleared++; return 0 })

	assert.Equal(t, MapIntro, m.Stage())
	assert.ErrorIs(t, m.Place(10, 10), ErrNotPlacing)
	require.NoError(t, m.Begin())

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, set.Actors[0].ID, cur.ID)

	require.NoError(t, m.Place(-4, 130))
	assert.Equal(t, placement{set.Actors[0].ID, 2, 98}, committed[0])

	cur, _ = m.Current()
	assert.Equal(t, set.Actors[1].ID, cur.ID)

	for i := 1; i < len(set.Actors); i++ {
		require.NoError(t, m.Place(50, 50))
	}
	assert.Equal(t, MapResult, m.Stage())
	placed, total := m.Progress()
	assert.Equal(t, total, placed)
	_, ok = m.Current()
	assert.False(t, ok)

	require.NoError(t, m.Select(3))
	assert.Equal(t, MapPlacing, m.Stage())
	require.NoError(t, m.Place(20, 20))
	assert.Equal(t, MapResult, m.Stage())
	assert.Len(t, committed, len(set.Actors)+1)

	assert.ErrorIs(t, m.Select(99), ErrActorIndex)

	m.Reset()
	assert.Equal(t, 1, cleared)
	assert.Equal(t, MapPlacing, m.Stage())
	placed, _ = m.Progress()
	assert.Zero(t, placed)
}

func TestMapPlacement_SkipsPlacedActors(t *testing.T) {
	m := NewMapPlacement(content.ActorSets[0], nil, nil)
	require.NoError(t, m.Begin())
	require.NoError(t, m.Select(2))
	require.NoError(t, m.Place(30, 30))
	require.NoError(t, m.Select(0))
	require.NoError(t, m.Place(30, 30))
	require.NoError(t, m.Place(30, 30))

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, content.ActorSets[0].Actors[3].ID, cur.ID)
	assert.True(t, m.Placed(content.ActorSets[0].Actors[2].ID))
}

func TestMapPlacement_PlaceErrorKeepsActor(t *testing.T) {
	boom := errors.New("boom")
	m := NewMapPlacement(content.ActorSets[0], func(string, float64, float64) error { return boom }, nil)
	require.NoError(t, m.Begin())
	assert.ErrorIs(t, m.Place(1, 1), boom)
	cur, _ := m.Current()
	assert.Equal(t, content.ActorSets[0].Actors[0].ID, cur.ID)
}

func TestMapPlacement_SetActorSet(t *testing.T) {
	m := NewMapPlacement(content.ActorSets[0], nil, nil)
	require.NoError(t, m.Begin())
	require.NoError(t, m.Place(1, 1))
	m.SetActorSet(content.ActorSets[2])
	assert.Equal(t, MapIntro, m.Stage())
	assert.Equal(t, content.ActorSets[2].Actors, m.Actors())

	empty := NewMapPlacement(content.ActorSet{ID: "tom"}, nil, nil)
	assert.ErrorIs(t, empty.Begin(), ErrNoActors)
}

func TestDiamondRanking(t *testing.T) {
	pool := content.DiamondPools[0]
	r := NewDiamondRanking(pool)
	assert.Equal(t, pool.Topic, r.Topic())

	assert.ErrorIs(t, r.Toggle("ukjent"), ErrNotInPool)
	for _, it := range pool.Items[:8] {
		require.NoError(t, r.Toggle(it))
	}
	assert.ErrorIs(t, r.Submit(), ErrDiamondIncomplete)

	require.NoError(t, r.Toggle(pool.Items[2]))
	assert.Len(t, r.Order(), 7)
	require.NoError(t, r.Toggle(pool.Items[8]))
	require.NoError(t, r.Toggle(pool.Items[2]))
	assert.Len(t, r.Order(), DiamondSize)
	assert.Equal(t, pool.Items[2], r.Order()[8])

	rows := r.Rows()
	require.Len(t, rows, 5)
	for i, n := range DiamondShape {
		assert.Len(t, rows[i], n)
	}
	assert.Equal(t, []string{pool.Items[0]}, rows[0])

	require.NoError(t, r.Submit())
	assert.True(t, r.Submitted())
	assert.ErrorIs(t, r.Toggle(pool.Items[0]), ErrAlreadySubmitted)
	assert.ErrorIs(t, r.Submit(), ErrAlreadySubmitted)

	require.NoError(t, r.SetTopic(content.DiamondPools[1].Topic))
	assert.False(t, r.Submitted())
	assert.Empty(t, r.Order())
	assert.Equal(t, content.DiamondPools[1].Items, r.Pool())
	assert.ErrorIs(t, r.SetTopic("nope"), ErrUnknownTopic)
}

func TestDiamondRanking_FullAndPartialRows(t *testing.T) {
	pool := content.DiamondPools[1]
	r := NewDiamondRanking(pool)
	for _, it := range pool.Items[:4] {
		require.NoError(t, r.Toggle(it))
	}
	rows := r.Rows()
	require.Len(t, rows, 3)
	assert.Len(t, rows[2], 1)

	for _, it := range pool.Items[4:] {
		require.NoError(t, r.Toggle(it))
	}
	extra := NewDiamondRanking(content.DiamondPool{Topic: "x", Items: append(append([]string(nil), pool.Items...), "tiende")})
	for _, it := range pool.Items {
		require.NoError(t, extra.Toggle(it))
	}
	assert.ErrorIs(t, extra.Toggle("tiende"), ErrDiamondFull)
}
