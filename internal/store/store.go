// Package store holds the merged, bounded contribution collections of one
// client and computes aggregate views on read.
package store

import (
	"sync"

	"roomsync/pkg/events"
)

// Store is safe for concurrent use. Subscriber callbacks run after the lock
// is released, on the goroutine that performed the mutation.
type Store struct {
	mu sync.RWMutex

	voices       *bounded[Voice]
	mapDots      *bounded[MapDot]
	votes        *bounded[Vote]
	perspectives *bounded[Perspective]
	blindSpots   *bounded[Note]
	insights     *bounded[Note]
	commitments  *bounded[Note]
	roles        *bounded[Role]

	checkins     map[string]int
	participants int

	subMu  sync.RWMutex
	subs   map[events.Kind]map[int]func(Change)
	nextID int
}

func New() *Store {
	noteKey := func(n Note) string { return n.ID }
	return &Store{
		voices:       newFeed(CapVoices, func(v Voice) string { return v.ID }),
		mapDots:      newSamples(CapMapDots, func(d MapDot) string { return d.ID }),
		votes:        newSamples(CapVotes, func(v Vote) string { return v.ID }),
		perspectives: newFeed(CapPerspectives, func(p Perspective) string { return p.ID }),
		blindSpots:   newFeed(CapBlindSpots, noteKey),
		insights:     newFeed(CapInsights, noteKey),
		commitments:  newFeed(CapCommitments, noteKey),
		roles:        newSamples(CapRoles, func(r Role) string { return r.Name }),
		checkins:     make(map[string]int),
		subs:         make(map[events.Kind]map[int]func(Change)),
	}
}

// Subscribe registers fn for mutations of kind and returns a func that
// removes the registration.
func (s *Store) Subscribe(kind events.Kind, fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	if s.subs[kind] == nil {
		s.subs[kind] = make(map[int]func(Change))
	}
	s.subs[kind][id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs[kind], id)
	}
}

func (s *Store) notify(c Change) {
	s.subMu.RLock()
	fns := make([]func(Change), 0, len(s.subs[c.Kind]))
	for _, fn := range s.subs[c.Kind] {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// AddVoice inserts v newest-first. Returns false on a duplicate id.
func (s *Store) AddVoice(v Voice) bool {
	if v.Reactions == nil {
		v.Reactions = make(map[string]int)
	}
	s.mu.Lock()
	ok := s.voices.insert(v.clone())
	s.mu.Unlock()
	if ok {
		s.notify(Change{Kind: events.KindVoice, ID: v.ID, Own: v.Own})
	}
	return ok
}

// React increments key on the voice with id target. A missing target is a
// no-op; the reaction is not kept for later.
func (s *Store) React(target, key string) bool {
	s.mu.Lock()
	i := s.voices.indexOf(target)
	if i < 0 || key == "" {
		s.mu.Unlock()
		return false
	}
	s.voices.items[i].Reactions[key]++
	s.mu.Unlock()

	s.notify(Change{Kind: events.KindReaction, ID: target})
	return true
}

// AddMapDot appends d. An own dot replaces the previous own dot for the same
// actor so a participant re-placing an actor keeps a single sample.
func (s *Store) AddMapDot(d MapDot) bool {
	s.mu.Lock()
	if s.mapDots.indexOf(d.ID) >= 0 {
		s.mu.Unlock()
		return false
	}
	if d.Own {
		s.mapDots.removeIf(func(m MapDot) bool { return m.Own && m.ActorID == d.ActorID })
	}
	ok := s.mapDots.insert(d)
	s.mu.Unlock()
	if ok {
		s.notify(Change{Kind: events.KindMapDot, ID: d.ID, Own: d.Own})
	}
	return ok
}

// ClearOwnDots removes this participant's placements. Peer dots stay.
func (s *Store) ClearOwnDots() int {
	s.mu.Lock()
	n := s.mapDots.removeIf(func(m MapDot) bool { return m.Own })
	s.mu.Unlock()
	if n > 0 {
		s.notify(Change{Kind: events.KindMapDot, Own: true})
	}
	return n
}

func (s *Store) AddVote(v Vote) bool {
	s.mu.Lock()
	ok := s.votes.insert(v)
	s.mu.Unlock()
	if ok {
		s.notify(Change{Kind: events.KindVote, ID: v.ID, Own: v.Own})
	}
	return ok
}

func (s *Store) AddPerspective(p Perspective) bool {
	s.mu.Lock()
	ok := s.perspectives.insert(p)
	s.mu.Unlock()
	if ok {
		s.notify(Change{Kind: events.KindPerspective, ID: p.ID, Own: p.Own})
	}
	return ok
}

func (s *Store) AddBlindSpot(n Note) bool {
	return s.addNote(s.blindSpots, events.KindBlindSpot, n)
}

func (s *Store) AddInsight(n Note) bool {
	return s.addNote(s.insights, events.KindInsight, n)
}

func (s *Store) AddCommitment(n Note) bool {
	return s.addNote(s.commitments, events.KindCommit, n)
}

func (s *Store) addNote(feed *bounded[Note], kind events.Kind, n Note) bool {
	s.mu.Lock()
	ok := feed.insert(n)
	s.mu.Unlock()
	if ok {
		s.notify(Change{Kind: kind, ID: n.ID, Own: n.Own})
	}
	return ok
}

// AddRole appends r to the shared role pool. Roles dedupe by name.
func (s *Store) AddRole(r Role) bool {
	if r.Name == "" {
		return false
	}
	s.mu.Lock()
	ok := s.roles.insert(r)
	s.mu.Unlock()
	if ok {
		s.notify(Change{Kind: events.KindNewRole, ID: r.Name, Own: r.Own})
	}
	return ok
}

// AddCheckin increments the tally once per item.
func (s *Store) AddCheckin(items []string, own bool) {
	if len(items) == 0 {
		return
	}
	s.mu.Lock()
	for _, it := range items {
		if it == "" {
			continue
		}
		s.checkins[it]++
	}
	s.mu.Unlock()
	s.notify(Change{Kind: events.KindCheckin, Own: own})
}

// ResetCheckins replaces the item set and zeroes every count.
func (s *Store) ResetCheckins(items []string) {
	s.mu.Lock()
	s.checkins = make(map[string]int, len(items))
	for _, it := range items {
		s.checkins[it] = 0
	}
	s.mu.Unlock()
	s.notify(Change{Kind: events.KindCheckin, Own: true})
}

// AdoptCheckins replaces the item set and keeps the counts already tallied.
// Items outside the new set survive only while they carry a count.
func (s *Store) AdoptCheckins(items []string) {
	s.mu.Lock()
	next := make(map[string]int, len(items))
	for it, n := range s.checkins {
		if n > 0 {
			next[it] = n
		}
	}
	for _, it := range items {
		next[it] = s.checkins[it]
	}
	s.checkins = next
	s.mu.Unlock()
	s.notify(Change{Kind: events.KindCheckin})
}

// Join counts one more announced participant.
func (s *Store) Join() {
	s.mu.Lock()
	s.participants++
	s.mu.Unlock()
	s.notify(Change{Kind: events.KindJoin})
}

func (s *Store) Participants() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.participants
}

func (s *Store) Voices() []Voice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Voice, 0, s.voices.len())
	for _, v := range s.voices.items {
		out = append(out, v.clone())
	}
	return out
}

// Voice returns a copy of the voice with id.
func (s *Store) Voice(id string) (Voice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.voices.indexOf(id)
	if i < 0 {
		return Voice{}, false
	}
	return s.voices.items[i].clone(), true
}

func (s *Store) MapDots() []MapDot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapDots.snapshot()
}

func (s *Store) Votes() []Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.votes.snapshot()
}

func (s *Store) Perspectives() []Perspective {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.perspectives.snapshot()
}

func (s *Store) BlindSpots() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blindSpots.snapshot()
}

func (s *Store) Insights() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.insights.snapshot()
}

func (s *Store) Commitments() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commitments.snapshot()
}

func (s *Store) Roles() []Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles.snapshot()
}

func (s *Store) Checkins() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.checkins))
	for k, n := range s.checkins {
		out[k] = n
	}
	return out
}

// Len returns the current size of the collection holding kind.
func (s *Store) Len(kind events.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch kind {
	case events.KindVoice:
		return s.voices.len()
	case events.KindMapDot:
		return s.mapDots.len()
	case events.KindVote:
		return s.votes.len()
	case events.KindPerspective:
		return s.perspectives.len()
	case events.KindBlindSpot:
		return s.blindSpots.len()
	case events.KindInsight:
		return s.insights.len()
	case events.KindCommit:
		return s.commitments.len()
	case events.KindNewRole:
		return s.roles.len()
	case events.KindCheckin:
		return len(s.checkins)
	case events.KindJoin:
		return s.participants
	}
	return 0
}
