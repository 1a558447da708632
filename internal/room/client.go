// Package room is the client core: one participant's view of a live room.
package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"roomsync/internal/activity"
	"roomsync/internal/authority"
	"roomsync/internal/content"
	"roomsync/internal/identity"
	"roomsync/internal/logging"
	"roomsync/internal/merge"
	"roomsync/internal/store"
	"roomsync/internal/transport"
	"roomsync/pkg/events"
	"roomsync/pkg/interfaces"
)

// Options configures a Client. Transport defaults to local mode and ID to a
// fresh identity.
type Options struct {
	Topic     string
	Role      events.Role
	ID        identity.ID
	Transport interfaces.Transport
	Logger    *zap.Logger
}

// Client wires identity, store, transport, navigation and merge for one
// participant. Every Submit method updates local state first; sending is
// best effort and never fails the call.
type Client struct {
	id     identity.ID
	role   events.Role
	topic  string
	store  *store.Store
	tr     interfaces.Transport
	nav    *authority.Broadcaster
	merge  *merge.Engine
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	joined bool
}

func New(opts Options) (*Client, error) {
	if !opts.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if strings.TrimSpace(opts.Topic) == "" {
		return nil, ErrEmptyTopic
	}
	id := opts.ID
	if id == "" {
		id = identity.New()
	}
	tr := opts.Transport
	if tr == nil {
		tr = transport.NewLocal()
	}
	logger := logging.OrNop(opts.Logger).With(
		zap.String("participant", id.String()),
		zap.String("role", string(opts.Role)),
		zap.String("topic", opts.Topic))

	var capability *authority.Capability
	if opts.Role == events.RoleTeacher {
		capability = authority.GrantTeacher()
	}

	c := &Client{
		id:     id,
		role:   opts.Role,
		topic:  opts.Topic,
		store:  store.New(),
		tr:     tr,
		logger: logger,
		now:    time.Now,
	}
	c.nav = authority.NewBroadcaster(id, tr, capability, logger)
	c.merge = merge.New(id, c.store, c.nav, logger)

	c.store.ResetCheckins(content.CheckinTexts(c.nav.Navigation().CheckinItems))
	c.nav.OnChange(func(ch authority.Change) {
		if !ch.Fields.Has(authority.FieldCheckinItems) {
			return
		}
		items := content.CheckinTexts(ch.Navigation.CheckinItems)
		// A late joiner catching up keeps what peers already tallied.
		if ch.First {
			c.store.AdoptCheckins(items)
			return
		}
		c.store.ResetCheckins(items)
	})
	c.merge.Attach(tr)
	tr.OnStatus(func(s interfaces.Status) {
		if s == interfaces.StatusConnected {
			c.onConnected()
		}
	})
	// A transport handed over already connected, e.g. from transport.Dial.
	if tr.Status() == interfaces.StatusConnected {
		c.onConnected()
	}
	return c, nil
}

func (c *Client) ID() identity.ID   { return c.id }
func (c *Client) Role() events.Role { return c.role }
func (c *Client) Topic() string     { return c.topic }

// Store exposes the merged collections and aggregates for reading.
func (c *Client) Store() *store.Store { return c.store }

func (c *Client) Status() interfaces.Status { return c.tr.Status() }

func (c *Client) NavigationState() authority.Navigation { return c.nav.Navigation() }

// Teacher returns the navigation controls, or nil for a student.
func (c *Client) Teacher() *authority.Broadcaster {
	if !c.nav.IsTeacher() {
		return nil
	}
	return c.nav
}

// MergeStats reports how remote frames were handled.
func (c *Client) MergeStats() merge.Stats { return c.merge.Stats() }

// Subscribe registers cb for changes to kind; the returned func removes it.
func (c *Client) Subscribe(kind events.Kind, cb func(store.Change)) func() {
	return c.store.Subscribe(kind, cb)
}

// OnNavigation registers cb for navigation changes.
func (c *Client) OnNavigation(cb func(authority.Change)) {
	c.nav.OnChange(cb)
}

// Connect joins the room. On failure the client keeps working locally and the
// error is returned for display only.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.tr.Connect(ctx, c.topic); err != nil {
		c.logger.Info("realtime unavailable, continuing locally", zap.Error(err))
		return err
	}
	return nil
}

// onConnected announces a student once. A teacher republishes navigation so
// late joiners of an already started session catch up.
func (c *Client) onConnected() {
	if c.role == events.RoleTeacher {
		if c.nav.Navigation().Started() {
			c.nav.Broadcast(nil)
		}
		return
	}

	c.mu.Lock()
	first := !c.joined
	c.joined = true
	c.mu.Unlock()
	if !first {
		return
	}
	c.store.Join()
	c.send(events.Join{})
}

func (c *Client) Close() error {
	return c.tr.Disconnect()
}

func (c *Client) send(p events.Payload) {
	env, err := events.Encode(c.id.String(), p)
	if err != nil {
		c.logger.Error("encode frame", zap.String("kind", p.Kind().String()), zap.Error(err))
		return
	}
	if err := c.tr.Send(env); err != nil && !errors.Is(err, interfaces.ErrNotConnected) {
		c.logger.Debug("frame not sent", zap.String("kind", p.Kind().String()), zap.Error(err))
	}
}

func (c *Client) stamp() int64 { return c.now().UnixMilli() }

// SubmitVoice shares text tagged with chosen plus up to three vocabulary
// matches from the text.
func (c *Client) SubmitVoice(text string, chosen []string) (store.Voice, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return store.Voice{}, ErrEmptyText
	}
	v := store.Voice{
		ID:        identity.NewContributionID(),
		Text:      text,
		Tags:      content.MergeTags(chosen, text),
		Timestamp: c.stamp(),
		Own:       true,
	}
	c.store.AddVoice(v)
	c.send(events.Voice{ID: v.ID, Text: v.Text, Tags: v.Tags, Timestamp: v.Timestamp})
	return v, nil
}

func (c *Client) React(voiceID, key string) error {
	if !content.IsReactionKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownReaction, key)
	}
	if !c.store.React(voiceID, key) {
		return ErrUnknownVoice
	}
	c.send(events.Reaction{TargetID: voiceID, ReactionKey: key})
	return nil
}

func (c *Client) SubmitCheckin(items []string) error {
	var picked []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			picked = append(picked, it)
		}
	}
	if len(picked) == 0 {
		return ErrNoItems
	}
	c.store.AddCheckin(picked, true)
	c.send(events.Checkin{Items: picked})
	return nil
}

// SubmitMapDot places actorID, replacing this participant's previous dot for
// the same actor.
func (c *Client) SubmitMapDot(actorID string, x, y float64) (store.MapDot, error) {
	if actorID == "" {
		return store.MapDot{}, ErrUnknownActor
	}
	d := store.MapDot{
		ID:      identity.NewContributionID(),
		ActorID: actorID,
		X:       events.ClampCoord(x),
		Y:       events.ClampCoord(y),
		Own:     true,
	}
	c.store.AddMapDot(d)
	c.send(events.MapDot{ID: d.ID, ActorID: d.ActorID, X: d.X, Y: d.Y})
	return d, nil
}

// SubmitVote casts value on the statement of the current theme set.
func (c *Client) SubmitVote(value float64) (store.Vote, error) {
	v := store.Vote{
		ID:       identity.NewContributionID(),
		Value:    events.ClampVote(value),
		SetIndex: c.nav.Navigation().SetIndex(),
		Own:      true,
	}
	c.store.AddVote(v)
	c.send(events.Vote{ID: v.ID, Value: v.Value, SetIndex: v.SetIndex})
	return v, nil
}

// SubmitPerspective argues text from role.
func (c *Client) SubmitPerspective(role content.PerspectiveRole, text string) (store.Perspective, error) {
	if strings.TrimSpace(role.Name) == "" {
		return store.Perspective{}, ErrUnknownPerspective
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return store.Perspective{}, ErrEmptyText
	}
	emoji := role.Emoji
	if emoji == "" {
		emoji = content.NewRoleEmoji
	}
	p := store.Perspective{
		ID:        identity.NewContributionID(),
		RoleName:  role.Name,
		Color:     role.Color,
		Emoji:     emoji,
		Text:      text,
		Timestamp: c.stamp(),
		Own:       true,
	}
	c.store.AddPerspective(p)
	c.send(events.Perspective{ID: p.ID, RoleName: p.RoleName, Color: p.Color, Emoji: p.Emoji, Text: p.Text, Timestamp: p.Timestamp})
	return p, nil
}

// PerspectiveRoles lists the built-in roles followed by roles proposed in the room.
func (c *Client) PerspectiveRoles() []content.PerspectiveRole {
	out := append([]content.PerspectiveRole(nil), content.PerspectiveRoles...)
	for _, r := range c.store.Roles() {
		out = append(out, content.PerspectiveRole{Name: r.Name, Color: r.Color, Emoji: r.Emoji})
	}
	return out
}

func (c *Client) note(text string) (store.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return store.Note{}, ErrEmptyText
	}
	return store.Note{
		ID:        identity.NewContributionID(),
		Text:      text,
		Timestamp: c.stamp(),
		Own:       true,
	}, nil
}

func (c *Client) SubmitBlindSpot(text string) (store.Note, error) {
	n, err := c.note(text)
	if err != nil {
		return n, err
	}
	c.store.AddBlindSpot(n)
	c.send(events.BlindSpot{ID: n.ID, Text: n.Text, Timestamp: n.Timestamp})
	return n, nil
}

func (c *Client) SubmitCommitment(text string) (store.Note, error) {
	n, err := c.note(text)
	if err != nil {
		return n, err
	}
	c.store.AddCommitment(n)
	c.send(events.Commit{ID: n.ID, Text: n.Text, Timestamp: n.Timestamp})
	return n, nil
}

func (c *Client) SubmitInsight(text string) (store.Note, error) {
	n, err := c.note(text)
	if err != nil {
		return n, err
	}
	c.store.AddInsight(n)
	c.send(events.Insight{ID: n.ID, Text: n.Text})
	return n, nil
}

// ProposeRole adds a perspective role for the whole room and announces it
// in the blind-spot feed.
func (c *Client) ProposeRole(name string) (store.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Role{}, ErrEmptyText
	}
	r := store.Role{
		Name:  name,
		Emoji: content.NewRoleEmoji,
		Color: content.MarkerColors[c.store.Len(events.KindNewRole)%len(content.MarkerColors)],
		Own:   true,
	}
	if !c.store.AddRole(r) {
		return store.Role{}, ErrDuplicateRole
	}
	if _, err := c.SubmitBlindSpot("Ny rolle opprettet: " + name); err != nil {
		return r, err
	}
	c.send(events.NewRole{RoleName: r.Name, Emoji: r.Emoji, Color: r.Color})
	return r, nil
}

// NewDialogue returns a dialogue whose insights are shared with the room.
func (c *Client) NewDialogue(rng *rand.Rand) *activity.Dialogue {
	return activity.NewDialogue(func(text string) error {
		_, err := c.SubmitInsight(text)
		return err
	}, rng)
}

// NewMapPlacement returns a placement walk over the current actor set.
func (c *Client) NewMapPlacement() *activity.MapPlacement {
	set := content.LookupActorSet(c.nav.Navigation().ActorSetID)
	return activity.NewMapPlacement(set, func(actorID string, x, y float64) error {
		_, err := c.SubmitMapDot(actorID, x, y)
		return err
	}, c.store.ClearOwnDots)
}

// NewDiamondRanking returns a private ranking over the first diamond pool.
func (c *Client) NewDiamondRanking() *activity.DiamondRanking {
	return activity.NewDiamondRanking(content.DiamondPools[0])
}
