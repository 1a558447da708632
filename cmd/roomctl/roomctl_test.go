package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsync/internal/config"
	"roomsync/internal/logging"
	"roomsync/internal/room"
	"roomsync/internal/transport"
	"roomsync/pkg/events"
)

// onBus returns globals whose clients join bus instead of dialing a relay.
func onBus(bus *transport.MemoryBus) *globals {
	cfg := config.DefaultConfig()
	cfg.Content.APIKey = ""
	return &globals{
		cfg:    cfg,
		logger: logging.Nop(),
		dial: func(ctx context.Context, g *globals, role events.Role) (*room.Client, error) {
			c, err := room.New(room.Options{Topic: g.topic, Role: role, Transport: bus.NewTransport()})
			if err != nil {
				return nil, err
			}
			_ = c.Connect(ctx)
			return c, nil
		},
	}
}

func observer(t *testing.T, bus *transport.MemoryBus, role events.Role) *room.Client {
	t.Helper()
	c, err := room.New(room.Options{Topic: config.DefaultTopic, Role: role, Transport: bus.NewTransport()})
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func execute(t *testing.T, g *globals, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmdWith(g)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVoiceReachesTheRoom(t *testing.T) {
	bus := transport.NewMemoryBus()
	teacher := observer(t, bus, events.RoleTeacher)

	out, _, err := execute(t, onBus(bus), "voice", "makt er usynlig", "--tag", "tillit")
	require.NoError(t, err)

	voices := teacher.Store().Voices()
	require.Len(t, voices, 1)
	assert.Equal(t, voices[0].ID+"\n", out)
	assert.ElementsMatch(t, []string{"tillit", "makt"}, voices[0].Tags)
	assert.Equal(t, 1, teacher.Store().Participants(), "the one-shot student announced itself")
}

func TestTeachBroadcastsNavigation(t *testing.T) {
	bus := transport.NewMemoryBus()
	student := observer(t, bus, events.RoleStudent)

	out, _, err := execute(t, onBus(bus), "teach", "--phase", "1", "--activity", "verdilinje", "--prompt", "2")
	require.NoError(t, err)

	nav := student.NavigationState()
	assert.Equal(t, 1, nav.Phase)
	assert.Equal(t, "verdilinje", nav.Activity)
	assert.Equal(t, 2, nav.PromptIndex)
	assert.Contains(t, out, "phase:    1 (Utforskning)")
}

func TestTeachRequiresPhase(t *testing.T) {
	_, _, err := execute(t, onBus(transport.NewMemoryBus()), "teach", "--activity", "stemmer")
	assert.ErrorContains(t, err, "--phase is required")
}

func TestTeachRejectsActivityOutsidePhase(t *testing.T) {
	_, _, err := execute(t, onBus(transport.NewMemoryBus()), "teach", "--phase", "4", "--activity", "stemmer")
	assert.Error(t, err)
}

func TestTeachWithSuggestedCheckinsFallsBack(t *testing.T) {
	bus := transport.NewMemoryBus()
	student := observer(t, bus, events.RoleStudent)
	before := student.NavigationState().CheckinItems

	_, stderr, err := execute(t, onBus(bus), "teach", "--phase", "0", "--suggest-checkins")
	require.NoError(t, err)
	assert.Contains(t, stderr, "using built-in check-in items")
	assert.NotEqual(t, before, student.NavigationState().CheckinItems)
}

func TestVoteAndNote(t *testing.T) {
	bus := transport.NewMemoryBus()
	teacher := observer(t, bus, events.RoleTeacher)
	g := onBus(bus)

	_, _, err := execute(t, g, "vote", "abc")
	assert.Error(t, err)

	_, _, err = execute(t, g, "vote", "140")
	require.NoError(t, err)
	require.Len(t, teacher.Store().Votes(), 1)
	assert.Equal(t, 100.0, teacher.Store().Votes()[0].Value)

	_, _, err = execute(t, g, "note", "blindspot", "ingen snakker om økonomi")
	require.NoError(t, err)
	assert.Len(t, teacher.Store().BlindSpots(), 1)

	_, _, err = execute(t, g, "note", "shout", "hei")
	assert.ErrorContains(t, err, "unknown note kind")
}

func TestSuggestCheckinsWithoutService(t *testing.T) {
	out, stderr, err := execute(t, onBus(transport.NewMemoryBus()), "suggest", "checkins")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Contains(t, stderr, "content service unavailable")
}

func TestDemo(t *testing.T) {
	out, _, err := execute(t, onBus(transport.NewMemoryBus()), "demo", "--students", "6", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "participants: 6")
	assert.Contains(t, out, "votes: n=6")
	assert.Contains(t, out, "map Barnet: n=6")
}
