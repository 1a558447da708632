// Package authority holds the shared navigation state and the teacher-side
// broadcaster that publishes it.
package authority

import (
	"roomsync/internal/content"
	"roomsync/pkg/events"
)

// NotStarted is the phase before the session begins.
const NotStarted = -1

// Navigation is the teacher-owned view every client follows.
type Navigation struct {
	Phase        int
	Activity     string
	PromptIndex  int
	ActorSetID   string
	ThemeSets    []events.ThemeSet
	CheckinItems []events.CheckinItem
}

func DefaultNavigation() Navigation {
	return Navigation{
		Phase:        NotStarted,
		Activity:     content.DefaultActivity,
		ActorSetID:   content.DefaultActorSet,
		ThemeSets:    append([]events.ThemeSet(nil), content.ThemeSets...),
		CheckinItems: append([]events.CheckinItem(nil), content.DefaultCheckins...),
	}
}

// Started reports whether the teacher has opened the session.
func (n Navigation) Started() bool { return n.Phase >= 0 }

// SetIndex is the prompt index folded into the theme sets. A teacher may
// publish any non-negative index; votes and prompts wrap around.
func (n Navigation) SetIndex() int {
	if len(n.ThemeSets) == 0 || n.PromptIndex < 0 {
		return 0
	}
	return n.PromptIndex % len(n.ThemeSets)
}

// CurrentThemeSet returns the theme set the prompt index points at.
func (n Navigation) CurrentThemeSet() (events.ThemeSet, bool) {
	if len(n.ThemeSets) == 0 {
		return events.ThemeSet{}, false
	}
	return n.ThemeSets[n.SetIndex()], true
}

// State renders the full navigation as a wire state.
func (n Navigation) State() events.State {
	phase, act, pi, actors := n.Phase, n.Activity, n.PromptIndex, n.ActorSetID
	return events.State{
		Phase:        &phase,
		Activity:     &act,
		PromptIndex:  &pi,
		ActorSetID:   &actors,
		ThemeSets:    append([]events.ThemeSet(nil), n.ThemeSets...),
		CheckinItems: append([]events.CheckinItem(nil), n.CheckinItems...),
	}
}

func (n Navigation) clone() Navigation {
	n.ThemeSets = append([]events.ThemeSet(nil), n.ThemeSets...)
	n.CheckinItems = append([]events.CheckinItem(nil), n.CheckinItems...)
	return n
}

// Field is a bit set naming the navigation fields touched by one change.
type Field uint8

const (
	FieldPhase Field = 1 << iota
	FieldActivity
	FieldPromptIndex
	FieldActorSet
	FieldThemeSets
	FieldCheckinItems
)

func (f Field) Has(x Field) bool { return f&x != 0 }

// Change is delivered to OnChange listeners after navigation moved.
type Change struct {
	Navigation Navigation
	Fields     Field
	// Remote is set when the change came from another client's state frame.
	Remote bool
	// First marks the first remote state this client applied.
	First bool
}

func firstActivity(phase int) (string, bool) {
	acts := content.ActivitiesForPhase(phase)
	if len(acts) == 0 {
		return "", false
	}
	return acts[0].ID, true
}

func validPhase(p int) bool {
	return p >= 0 && p < len(content.Phases)
}

func equalThemeSets(a, b []events.ThemeSet) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalCheckins(a, b []events.CheckinItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
