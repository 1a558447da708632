package authority

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsync/internal/content"
	"roomsync/internal/identity"
	"roomsync/internal/transport"
	"roomsync/pkg/events"
	"roomsync/pkg/interfaces"
)

type fakePublisher struct {
	mu     sync.Mutex
	status interfaces.Status
	sent   []events.Envelope
}

func (p *fakePublisher) Send(env events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, env)
	return nil
}

func (p *fakePublisher) Status() interfaces.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *fakePublisher) states(t *testing.T) []events.State {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.State, 0, len(p.sent))
	for _, env := range p.sent {
		require.Equal(t, events.KindState, env.Kind)
		pl, err := events.Decode(env)
		require.NoError(t, err)
		out = append(out, pl.(events.State))
	}
	return out
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func newTeacher(pub Publisher) (*Broadcaster, identity.ID) {
	id := identity.New()
	return NewBroadcaster(id, pub, GrantTeacher(), nil), id
}

func TestDefaultNavigation(t *testing.T) {
	n := DefaultNavigation()
	assert.Equal(t, NotStarted, n.Phase)
	assert.False(t, n.Started())
	assert.Equal(t, content.ActivityVoices, n.Activity)
	assert.Equal(t, 0, n.PromptIndex)
	assert.Equal(t, "Barndom og barnehage", n.ActorSetID)
	assert.Len(t, n.ThemeSets, len(content.ThemeSets))
	assert.Len(t, n.CheckinItems, len(content.DefaultCheckins))

	ts, ok := n.CurrentThemeSet()
	require.True(t, ok)
	assert.Equal(t, content.ThemeSets[0], ts)
}

func TestBroadcaster_NoBroadcastBeforeStart(t *testing.T) {
	pub := &fakePublisher{status: interfaces.StatusConnected}
	b, _ := newTeacher(pub)

	require.NoError(t, b.SetActorSet("Utdanning og oppvekst"))
	require.NoError(t, b.SetPromptIndex(2))
	assert.Empty(t, pub.states(t))

	require.NoError(t, b.SetPhase(0))
	assert.Len(t, pub.states(t), 1)
}

func TestBroadcaster_EachMutationBroadcastsOnce(t *testing.T) {
	pub := &fakePublisher{status: interfaces.StatusConnected}
	b, id := newTeacher(pub)
	require.NoError(t, b.SetPhase(1))

	require.NoError(t, b.SetActivity(content.ActivityPowerMap))
	require.NoError(t, b.SetPromptIndex(3))
	require.NoError(t, b.NextPrompt())
	require.NoError(t, b.SetActorSet("Arbeidsliv og voksnes læring"))

	states := pub.states(t)
	require.Len(t, states, 5)
	last := states[4]
	assert.Equal(t, 1, *last.Phase)
	assert.Equal(t, content.ActivityPowerMap, *last.Activity)
	assert.Equal(t, 4, *last.PromptIndex)
	assert.Equal(t, "Arbeidsliv og voksnes læring", *last.ActorSetID)
	assert.Len(t, last.ThemeSets, len(content.ThemeSets))
	assert.Len(t, last.CheckinItems, len(content.DefaultCheckins))

	pub.mu.Lock()
	assert.Equal(t, id.String(), pub.sent[0].Sender)
	pub.mu.Unlock()
	assert.Equal(t, 5, b.Sent())
}

func TestBroadcaster_PhaseChangeSelectsAvailableActivity(t *testing.T) {
	b, _ := newTeacher(&fakePublisher{status: interfaces.StatusConnected})

	var changes []Change
	b.OnChange(func(c Change) { changes = append(changes, c) })

	require.NoError(t, b.SetPhase(1))
	assert.Equal(t, content.ActivityVoices, b.Navigation().Activity)

	require.NoError(t, b.SetPhase(2))
	assert.Equal(t, content.ActivityDialogue, b.Navigation().Activity)
	require.NotEmpty(t, changes)
	assert.True(t, changes[len(changes)-1].Fields.Has(FieldPhase))
	assert.True(t, changes[len(changes)-1].Fields.Has(FieldActivity))

	require.NoError(t, b.SetPhase(4))
	assert.Equal(t, content.ActivityCommitments, b.Navigation().Activity)

	// Phase 0 offers no activity; the current one is kept.
	require.NoError(t, b.SetPhase(0))
	assert.Equal(t, content.ActivityCommitments, b.Navigation().Activity)
}

func TestBroadcaster_RejectsInvalidMutations(t *testing.T) {
	b, _ := newTeacher(&fakePublisher{status: interfaces.StatusConnected})
	require.NoError(t, b.SetPhase(1))

	assert.ErrorIs(t, b.SetPhase(5), ErrInvalidPhase)
	assert.ErrorIs(t, b.SetPhase(-1), ErrInvalidPhase)
	assert.ErrorIs(t, b.SetActivity("nope"), ErrUnknownActivity)
	assert.ErrorIs(t, b.SetActivity(content.ActivityDiamond), ErrActivityUnavailable)
	assert.ErrorIs(t, b.SetPromptIndex(len(content.ThemeSets)), ErrPromptOutOfRange)
	assert.ErrorIs(t, b.SetActorSet("nope"), ErrUnknownActorSet)
	assert.ErrorIs(t, b.SetThemeSets(nil), ErrEmptyThemeSets)
	assert.ErrorIs(t, b.SetCheckinItems(nil), ErrEmptyCheckinItems)
}

func TestBroadcaster_NextPromptWraps(t *testing.T) {
	b, _ := newTeacher(nil)
	require.NoError(t, b.SetPromptIndex(len(content.ThemeSets)-1))
	require.NoError(t, b.NextPrompt())
	assert.Equal(t, 0, b.Navigation().PromptIndex)
}

func TestBroadcaster_ThemeAndCheckinSets(t *testing.T) {
	pub := &fakePublisher{status: interfaces.StatusConnected}
	b, _ := newTeacher(pub)
	require.NoError(t, b.SetPhase(0))
	require.NoError(t, b.SetPromptIndex(7))

	custom := []events.ThemeSet{{Prompt: "Hva er makt?", Statement: events.Statement{Text: "Makt er synlig", Left: "Uenig", Right: "Enig"}, Theme: "Makt"}}
	require.NoError(t, b.SetThemeSets(custom))
	n := b.Navigation()
	assert.Equal(t, custom, n.ThemeSets)
	assert.Equal(t, 0, n.PromptIndex)

	require.NoError(t, b.AddThemeSet(content.ThemeSets[1]))
	assert.Len(t, b.Navigation().ThemeSets, 2)

	require.NoError(t, b.SetCheckinItems(content.AlternateCheckins[0]))
	assert.Equal(t, content.AlternateCheckins[0], b.Navigation().CheckinItems)

	states := pub.states(t)
	require.Len(t, states, 5)
	assert.Len(t, states[4].ThemeSets, 2)
	assert.Equal(t, content.AlternateCheckins[0], states[4].CheckinItems)
}

func TestBroadcaster_NavigationIsACopy(t *testing.T) {
	b, _ := newTeacher(nil)
	n := b.Navigation()
	n.ThemeSets[0].Prompt = "changed"
	assert.NotEqual(t, "changed", b.Navigation().ThemeSets[0].Prompt)
}

func TestBroadcaster_OverridesAreMerged(t *testing.T) {
	pub := &fakePublisher{status: interfaces.StatusConnected}
	b, _ := newTeacher(pub)

	require.True(t, b.Broadcast(&events.State{PromptIndex: intPtr(6)}))
	s := pub.states(t)[0]
	assert.Equal(t, 6, *s.PromptIndex)
	assert.Equal(t, NotStarted, *s.Phase)
	assert.Equal(t, 0, b.Navigation().PromptIndex)
}

func TestBroadcaster_RequiresConnection(t *testing.T) {
	pub := &fakePublisher{status: interfaces.StatusUnavailable}
	b, _ := newTeacher(pub)

	require.NoError(t, b.SetPhase(1))
	assert.False(t, b.Broadcast(nil))
	assert.Empty(t, pub.states(t))
	assert.Equal(t, 1, b.Navigation().Phase)
}

func TestBroadcaster_NoAuthority(t *testing.T) {
	pub := &fakePublisher{status: interfaces.StatusConnected}
	student := NewBroadcaster(identity.New(), pub, nil, nil)

	assert.False(t, student.IsTeacher())
	assert.ErrorIs(t, student.SetPhase(1), ErrNotTeacher)
	assert.ErrorIs(t, student.SetActivity(content.ActivityPowerMap), ErrNotTeacher)
	assert.ErrorIs(t, student.NextPrompt(), ErrNotTeacher)
	assert.False(t, student.Broadcast(nil))
	assert.Empty(t, pub.states(t))

	forged := &Capability{}
	student = NewBroadcaster(identity.New(), pub, forged, nil)
	assert.False(t, student.Broadcast(nil))
	assert.Equal(t, DefaultNavigation(), student.Navigation())
}

func TestOnState_PartialOverride(t *testing.T) {
	b := NewBroadcaster(identity.New(), nil, nil, nil)
	before := b.Navigation()

	f := b.OnState("teacher-1", events.State{PromptIndex: intPtr(4)})
	assert.Equal(t, FieldPromptIndex, f)

	after := b.Navigation()
	assert.Equal(t, 4, after.PromptIndex)
	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, before.Activity, after.Activity)
	assert.Equal(t, before.ActorSetID, after.ActorSetID)
	assert.Equal(t, before.ThemeSets, after.ThemeSets)
	assert.Equal(t, before.CheckinItems, after.CheckinItems)
}

func TestBroadcaster_UnchangedMutationIsSilent(t *testing.T) {
	pub := &fakePublisher{status: interfaces.StatusConnected}
	b, _ := newTeacher(pub)
	require.NoError(t, b.SetPhase(1))
	require.Len(t, pub.states(t), 1)

	var changes []Change
	b.OnChange(func(c Change) { changes = append(changes, c) })
	require.NoError(t, b.SetPhase(1))
	require.NoError(t, b.SetActivity(content.ActivityVoices))
	require.NoError(t, b.SetActorSet(content.DefaultActorSet))
	require.NoError(t, b.SetPromptIndex(0))

	assert.Len(t, pub.states(t), 1)
	assert.Empty(t, changes)
	assert.Equal(t, 1, b.Sent())
}

func TestOnState_FirstRemoteChangeIsMarked(t *testing.T) {
	b := NewBroadcaster(identity.New(), nil, nil, nil)
	var got []Change
	b.OnChange(func(c Change) { got = append(got, c) })

	b.OnState("t", events.State{Phase: intPtr(1)})
	b.OnState("t", events.State{Phase: intPtr(2)})
	require.Len(t, got, 2)
	assert.True(t, got[0].First)
	assert.False(t, got[1].First)
}

func TestNavigation_SetIndexWraps(t *testing.T) {
	n := DefaultNavigation()
	n.PromptIndex = len(n.ThemeSets) + 3
	assert.Equal(t, 3, n.SetIndex())
	ts, ok := n.CurrentThemeSet()
	require.True(t, ok)
	assert.Equal(t, n.ThemeSets[3], ts)

	n.ThemeSets = nil
	assert.Equal(t, 0, n.SetIndex())
	_, ok = n.CurrentThemeSet()
	assert.False(t, ok)
}

func TestOnState_SelfEchoIgnored(t *testing.T) {
	b, id := newTeacher(nil)
	assert.Equal(t, Field(0), b.OnState(id.String(), events.State{Phase: intPtr(3)}))
	assert.Equal(t, NotStarted, b.Navigation().Phase)
}

func TestOnState_InvalidFieldsSkipped(t *testing.T) {
	b := NewBroadcaster(identity.New(), nil, nil, nil)
	f := b.OnState("t", events.State{
		Phase:      intPtr(9),
		Activity:   strPtr("nope"),
		ActorSetID: strPtr(""),
	})
	assert.Equal(t, Field(0), f)
	assert.Equal(t, DefaultNavigation(), b.Navigation())
}

func TestOnState_PhaseWithoutActivityFollowsAvailability(t *testing.T) {
	b := NewBroadcaster(identity.New(), nil, nil, nil)
	var got []Change
	b.OnChange(func(c Change) { got = append(got, c) })

	b.OnState("t", events.State{Phase: intPtr(3)})
	assert.Equal(t, content.ActivityDiamond, b.Navigation().Activity)
	require.Len(t, got, 1)
	assert.True(t, got[0].Remote)
	assert.True(t, got[0].Fields.Has(FieldActivity))
}

// Two clients both holding the capability race; each receiver keeps the last
// state it received.
func TestTwoTeachers_LastReceivedWins(t *testing.T) {
	bus := transport.NewMemoryBus()
	ctx := context.Background()

	wire := func(capability *Capability) *Broadcaster {
		tr := bus.NewTransport()
		b := NewBroadcaster(identity.New(), tr, capability, nil)
		tr.OnEvent(events.KindState, func(env events.Envelope) {
			p, err := events.Decode(env)
			if err == nil {
				b.OnState(env.Sender, p.(events.State))
			}
		})
		require.NoError(t, tr.Connect(ctx, "room"))
		return b
	}

	a := wire(GrantTeacher())
	c := wire(GrantTeacher())
	student := wire(nil)

	require.NoError(t, a.SetPhase(1))
	require.NoError(t, c.SetPhase(2))

	assert.Equal(t, 2, student.Navigation().Phase)
	assert.Equal(t, 2, a.Navigation().Phase)
	assert.Equal(t, content.ActivityDialogue, student.Navigation().Activity)

	require.NoError(t, a.SetPhase(3))
	assert.Equal(t, 3, student.Navigation().Phase)
	assert.Equal(t, 3, c.Navigation().Phase)
}
