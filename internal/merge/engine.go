// Package merge folds remote frames into the local store.
package merge

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"roomsync/internal/authority"
	"roomsync/internal/identity"
	"roomsync/internal/logging"
	"roomsync/internal/store"
	"roomsync/pkg/events"
	"roomsync/pkg/interfaces"
)

// StateHandler receives navigation frames.
type StateHandler interface {
	OnState(sender string, s events.State) authority.Field
}

// Stats counts the outcome of every frame handed to Apply.
type Stats struct {
	Applied    int64
	Echoes     int64
	Duplicates int64
	Dropped    int64
}

// Engine applies remote envelopes. Malformed frames are logged at debug level
// and counted; they never reach the caller.
type Engine struct {
	self   identity.ID
	store  *store.Store
	state  StateHandler
	logger *zap.Logger
	now    func() time.Time

	applied    atomic.Int64
	echoes     atomic.Int64
	duplicates atomic.Int64
	dropped    atomic.Int64
}

func New(self identity.ID, st *store.Store, state StateHandler, logger *zap.Logger) *Engine {
	return &Engine{
		self:   self,
		store:  st,
		state:  state,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// Attach routes every known kind received on t into Apply.
func (e *Engine) Attach(t interfaces.Transport) {
	for _, k := range events.Kinds {
		t.OnEvent(k, func(env events.Envelope) { e.Apply(env) })
	}
}

func (e *Engine) Stats() Stats {
	return Stats{
		Applied:    e.applied.Load(),
		Echoes:     e.echoes.Load(),
		Duplicates: e.duplicates.Load(),
		Dropped:    e.dropped.Load(),
	}
}

// Apply merges env into local state and reports whether anything changed.
func (e *Engine) Apply(env events.Envelope) bool {
	if e.self.Is(env.Sender) {
		e.echoes.Add(1)
		return false
	}
	if env.Sender == "" {
		return e.drop(env, events.ErrEmptySender)
	}

	p, err := events.Decode(env)
	if err != nil {
		return e.drop(env, err)
	}
	if err := events.ValidatePayload(p); err != nil {
		return e.drop(env, err)
	}

	var ok bool
	switch v := p.(type) {
	case events.State:
		if e.state == nil {
			return e.drop(env, errNoStateHandler)
		}
		e.state.OnState(env.Sender, v)
		ok = true
	case events.Join:
		e.store.Join()
		ok = true
	case events.Checkin:
		e.store.AddCheckin(v.Items, false)
		ok = true
	case events.Voice:
		ok = e.store.AddVoice(store.Voice{
			ID:        v.ID,
			Text:      v.Text,
			Tags:      v.Tags,
			Timestamp: v.Timestamp,
		})
	case events.Reaction:
		if !e.store.React(v.TargetID, v.ReactionKey) {
			return e.drop(env, errUnknownTarget)
		}
		ok = true
	case events.MapDot:
		ok = e.store.AddMapDot(store.MapDot{
			ID:      v.ID,
			ActorID: v.ActorID,
			X:       events.ClampCoord(v.X),
			Y:       events.ClampCoord(v.Y),
		})
	case events.Vote:
		ok = e.store.AddVote(store.Vote{
			ID:       v.ID,
			Value:    events.ClampVote(v.Value),
			SetIndex: v.SetIndex,
		})
	case events.Perspective:
		ok = e.store.AddPerspective(store.Perspective{
			ID:        v.ID,
			RoleName:  v.RoleName,
			Color:     v.Color,
			Emoji:     v.Emoji,
			Text:      v.Text,
			Timestamp: v.Timestamp,
		})
	case events.BlindSpot:
		ok = e.store.AddBlindSpot(store.Note{ID: v.ID, Text: v.Text, Timestamp: v.Timestamp})
	case events.Commit:
		ok = e.store.AddCommitment(store.Note{ID: v.ID, Text: v.Text, Timestamp: v.Timestamp})
	case events.Insight:
		ok = e.store.AddInsight(store.Note{ID: v.ID, Text: v.Text, Timestamp: e.now().UnixMilli()})
	case events.NewRole:
		ok = e.store.AddRole(store.Role{Name: v.RoleName, Emoji: v.Emoji, Color: v.Color})
	default:
		return e.drop(env, events.ErrUnknownKind)
	}

	if !ok {
		e.duplicates.Add(1)
		return false
	}
	e.applied.Add(1)
	return true
}

func (e *Engine) drop(env events.Envelope, err error) bool {
	e.dropped.Add(1)
	e.logger.Debug("dropping frame",
		zap.String("kind", env.Kind.String()),
		zap.String("sender", env.Sender),
		zap.Error(err))
	return false
}
