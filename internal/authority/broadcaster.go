package authority

import (
	"sync"

	"go.uber.org/zap"

	"roomsync/internal/content"
	"roomsync/internal/identity"
	"roomsync/internal/logging"
	"roomsync/pkg/events"
	"roomsync/pkg/interfaces"
)

// Capability is the right to publish navigation state. It can only be
// obtained from GrantTeacher. Holding it is a local decision and not a
// distributed lock: two clients holding one each will race, and every
// receiver keeps the last state it saw.
type Capability struct {
	granted bool
}

func GrantTeacher() *Capability {
	return &Capability{granted: true}
}

func (c *Capability) valid() bool { return c != nil && c.granted }

// Publisher is the slice of a transport the broadcaster needs.
type Publisher interface {
	Send(env events.Envelope) error
	Status() interfaces.Status
}

// Broadcaster owns this client's navigation. Every client has one; only a
// broadcaster holding a Capability mutates it locally and publishes it.
type Broadcaster struct {
	self   identity.ID
	pub    Publisher
	cap    *Capability
	logger *zap.Logger

	mu        sync.RWMutex
	nav       Navigation
	listeners []func(Change)
	sent      int
	synced    bool
}

func NewBroadcaster(self identity.ID, pub Publisher, capability *Capability, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		self:   self,
		pub:    pub,
		cap:    capability,
		logger: logging.OrNop(logger),
		nav:    DefaultNavigation(),
	}
}

// IsTeacher reports whether this broadcaster may publish state.
func (b *Broadcaster) IsTeacher() bool { return b.cap.valid() }

func (b *Broadcaster) Navigation() Navigation {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nav.clone()
}

// Sent returns the number of state frames handed to the transport.
func (b *Broadcaster) Sent() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sent
}

// OnChange registers fn for every navigation change, local or remote.
func (b *Broadcaster) OnChange(fn func(Change)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

// Broadcast sends the full navigation merged with overrides. It is a no-op
// unless the capability is held and the transport is connected.
func (b *Broadcaster) Broadcast(overrides *events.State) bool {
	if !b.cap.valid() || b.pub == nil || b.pub.Status() != interfaces.StatusConnected {
		return false
	}

	b.mu.RLock()
	state := b.nav.State()
	b.mu.RUnlock()
	if overrides != nil {
		overlay(&state, *overrides)
	}

	env, err := events.Encode(b.self.String(), state)
	if err != nil {
		b.logger.Error("encode state", zap.Error(err))
		return false
	}
	if err := b.pub.Send(env); err != nil {
		b.logger.Debug("state not sent", zap.Error(err))
		return false
	}

	b.mu.Lock()
	b.sent++
	b.mu.Unlock()
	return true
}

func overlay(dst *events.State, src events.State) {
	if src.Phase != nil {
		dst.Phase = src.Phase
	}
	if src.Activity != nil {
		dst.Activity = src.Activity
	}
	if src.PromptIndex != nil {
		dst.PromptIndex = src.PromptIndex
	}
	if src.ActorSetID != nil {
		dst.ActorSetID = src.ActorSetID
	}
	if src.ThemeSets != nil {
		dst.ThemeSets = src.ThemeSets
	}
	if src.CheckinItems != nil {
		dst.CheckinItems = src.CheckinItems
	}
}

// mutate applies fn under the lock. When something changed it notifies
// listeners and publishes once the session has started.
func (b *Broadcaster) mutate(fn func(n *Navigation) (Field, error)) error {
	if !b.cap.valid() {
		return ErrNotTeacher
	}

	b.mu.Lock()
	fields, err := fn(&b.nav)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	nav := b.nav.clone()
	listeners := append([]func(Change){}, b.listeners...)
	b.mu.Unlock()

	if fields == 0 {
		return nil
	}
	for _, l := range listeners {
		l(Change{Navigation: nav, Fields: fields})
	}
	if nav.Started() {
		b.Broadcast(nil)
	}
	return nil
}

// SetPhase moves to phase p. If the current activity is not offered in p, the
// first activity that is becomes current.
func (b *Broadcaster) SetPhase(p int) error {
	return b.mutate(func(n *Navigation) (Field, error) {
		if !validPhase(p) {
			return 0, ErrInvalidPhase
		}
		var f Field
		if n.Phase != p {
			n.Phase = p
			f |= FieldPhase
		}
		if a, ok := content.LookupActivity(n.Activity); !ok || !a.AllowedIn(p) {
			if first, ok := firstActivity(p); ok && first != n.Activity {
				n.Activity = first
				f |= FieldActivity
			}
		}
		return f, nil
	})
}

func (b *Broadcaster) SetActivity(id string) error {
	return b.mutate(func(n *Navigation) (Field, error) {
		a, ok := content.LookupActivity(id)
		if !ok {
			return 0, ErrUnknownActivity
		}
		if n.Started() && !a.AllowedIn(n.Phase) {
			return 0, ErrActivityUnavailable
		}
		if n.Activity == id {
			return 0, nil
		}
		n.Activity = id
		return FieldActivity, nil
	})
}

func (b *Broadcaster) SetPromptIndex(i int) error {
	return b.mutate(func(n *Navigation) (Field, error) {
		if i < 0 || i >= len(n.ThemeSets) {
			return 0, ErrPromptOutOfRange
		}
		if n.PromptIndex == i {
			return 0, nil
		}
		n.PromptIndex = i
		return FieldPromptIndex, nil
	})
}

// NextPrompt advances the prompt index, wrapping at the end of the theme sets.
func (b *Broadcaster) NextPrompt() error {
	return b.mutate(func(n *Navigation) (Field, error) {
		if len(n.ThemeSets) == 0 {
			return 0, ErrPromptOutOfRange
		}
		n.PromptIndex = (n.PromptIndex + 1) % len(n.ThemeSets)
		return FieldPromptIndex, nil
	})
}

func (b *Broadcaster) SetActorSet(id string) error {
	return b.mutate(func(n *Navigation) (Field, error) {
		if !content.IsActorSet(id) {
			return 0, ErrUnknownActorSet
		}
		if n.ActorSetID == id {
			return 0, nil
		}
		n.ActorSetID = id
		return FieldActorSet, nil
	})
}

// SetThemeSets replaces the theme sets and rewinds the prompt index if it no
// longer points into them.
func (b *Broadcaster) SetThemeSets(sets []events.ThemeSet) error {
	return b.mutate(func(n *Navigation) (Field, error) {
		if len(sets) == 0 {
			return 0, ErrEmptyThemeSets
		}
		n.ThemeSets = append([]events.ThemeSet(nil), sets...)
		f := FieldThemeSets
		if n.PromptIndex >= len(n.ThemeSets) {
			n.PromptIndex = 0
			f |= FieldPromptIndex
		}
		return f, nil
	})
}

func (b *Broadcaster) AddThemeSet(set events.ThemeSet) error {
	return b.mutate(func(n *Navigation) (Field, error) {
		n.ThemeSets = append(n.ThemeSets, set)
		return FieldThemeSets, nil
	})
}

func (b *Broadcaster) SetCheckinItems(items []events.CheckinItem) error {
	return b.mutate(func(n *Navigation) (Field, error) {
		if len(items) == 0 {
			return 0, ErrEmptyCheckinItems
		}
		n.CheckinItems = append([]events.CheckinItem(nil), items...)
		return FieldCheckinItems, nil
	})
}

// OnState applies a state frame from sender. Frames from this client are
// discarded. Only present fields overwrite; invalid fields are skipped.
// Returns the fields that changed.
func (b *Broadcaster) OnState(sender string, s events.State) Field {
	if b.self.Is(sender) {
		return 0
	}

	b.mu.Lock()
	n := &b.nav
	var f Field
	if s.Phase != nil && (*s.Phase == NotStarted || validPhase(*s.Phase)) && *s.Phase != n.Phase {
		n.Phase = *s.Phase
		f |= FieldPhase
	}
	if s.Activity != nil {
		if _, ok := content.LookupActivity(*s.Activity); ok && *s.Activity != n.Activity {
			n.Activity = *s.Activity
			f |= FieldActivity
		}
	} else if f.Has(FieldPhase) && n.Started() {
		if a, ok := content.LookupActivity(n.Activity); !ok || !a.AllowedIn(n.Phase) {
			if first, ok := firstActivity(n.Phase); ok {
				n.Activity = first
				f |= FieldActivity
			}
		}
	}
	if s.ThemeSets != nil && !equalThemeSets(s.ThemeSets, n.ThemeSets) {
		n.ThemeSets = append([]events.ThemeSet(nil), s.ThemeSets...)
		f |= FieldThemeSets
	}
	if s.PromptIndex != nil && *s.PromptIndex >= 0 && *s.PromptIndex != n.PromptIndex {
		n.PromptIndex = *s.PromptIndex
		f |= FieldPromptIndex
	}
	if s.ActorSetID != nil && *s.ActorSetID != "" && *s.ActorSetID != n.ActorSetID {
		n.ActorSetID = *s.ActorSetID
		f |= FieldActorSet
	}
	if s.CheckinItems != nil && !equalCheckins(s.CheckinItems, n.CheckinItems) {
		n.CheckinItems = append([]events.CheckinItem(nil), s.CheckinItems...)
		f |= FieldCheckinItems
	}
	first := !b.synced
	b.synced = true
	nav := n.clone()
	listeners := append([]func(Change){}, b.listeners...)
	b.mu.Unlock()

	if f != 0 {
		b.logger.Debug("navigation updated", zap.String("sender", sender), zap.Int("phase", nav.Phase), zap.String("activity", nav.Activity))
		for _, l := range listeners {
			l(Change{Navigation: nav, Fields: f, Remote: true, First: first})
		}
	}
	return f
}
