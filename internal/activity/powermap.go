package activity

import (
	"roomsync/internal/content"
	"roomsync/pkg/events"
)

type MapStage string

const (
	MapIntro   MapStage = "intro"
	MapPlacing MapStage = "placing"
	MapResult  MapStage = "result"
)

// PlaceFunc commits one placement; the room stores and shares it.
type PlaceFunc func(actorID string, x, y float64) error

// MapPlacement walks a participant through placing every actor of one set.
// It is not safe for concurrent use.
type MapPlacement struct {
	actors  []content.Actor
	placed  map[string]bool
	current int
	stage   MapStage
	place   PlaceFunc
	clear   func() int
}

// NewMapPlacement starts at the intro stage. clear removes this participant's
// committed placements and may be nil.
func NewMapPlacement(set content.ActorSet, place PlaceFunc, clear func() int) *MapPlacement {
	return &MapPlacement{
		actors: append([]content.Actor(nil), set.Actors...),
		placed: make(map[string]bool),
		stage:  MapIntro,
		place:  place,
		clear:  clear,
	}
}

func (m *MapPlacement) Stage() MapStage { return m.stage }

func (m *MapPlacement) Actors() []content.Actor {
	return append([]content.Actor(nil), m.actors...)
}

// Current returns the actor awaiting placement.
func (m *MapPlacement) Current() (content.Actor, bool) {
	if m.stage != MapPlacing || m.current >= len(m.actors) {
		return content.Actor{}, false
	}
	return m.actors[m.current], true
}

func (m *MapPlacement) Placed(actorID string) bool { return m.placed[actorID] }

func (m *MapPlacement) Progress() (placed, total int) {
	return len(m.placed), len(m.actors)
}

// Begin leaves the intro.
func (m *MapPlacement) Begin() error {
	if len(m.actors) == 0 {
		return ErrNoActors
	}
	if m.stage != MapIntro {
		return ErrInvalidTransition
	}
	m.stage = MapPlacing
	m.current = 0
	return nil
}

// Place commits the current actor at (x, y), clamped to the map surface, and
// moves to the next unplaced actor. Placing the last one shows the result.
func (m *MapPlacement) Place(x, y float64) error {
	actor, ok := m.Current()
	if !ok {
		return ErrNotPlacing
	}
	x, y = events.ClampCoord(x), events.ClampCoord(y)
	if m.place != nil {
		if err := m.place(actor.ID, x, y); err != nil {
			return err
		}
	}
	m.placed[actor.ID] = true
	m.advance()
	return nil
}

func (m *MapPlacement) advance() {
	for i := 1; i <= len(m.actors); i++ {
		next := (m.current + i) % len(m.actors)
		if !m.placed[m.actors[next].ID] {
			m.current = next
			return
		}
	}
	m.stage = MapResult
}

// Select jumps to actor i, placed or not, so it can be re-placed.
func (m *MapPlacement) Select(i int) error {
	if i < 0 || i >= len(m.actors) {
		return ErrActorIndex
	}
	m.current = i
	m.stage = MapPlacing
	return nil
}

// Reset clears own placements and restarts at the first actor.
func (m *MapPlacement) Reset() {
	if m.clear != nil {
		m.clear()
	}
	m.placed = make(map[string]bool)
	m.current = 0
	if len(m.actors) > 0 {
		m.stage = MapPlacing
	}
}

// SetActorSet swaps the actors and returns to the intro.
func (m *MapPlacement) SetActorSet(set content.ActorSet) {
	m.actors = append([]content.Actor(nil), set.Actors...)
	m.placed = make(map[string]bool)
	m.current = 0
	m.stage = MapIntro
}
