package events

import (
	"encoding/json"
	"fmt"
)

// MaxPayloadBytes bounds the encoded payload of a single frame.
const MaxPayloadBytes = 64 * 1024

// Envelope is the wire frame. Sender is merged in by the broadcaster before
// send; transports carry it untouched.
type Envelope struct {
	Kind    Kind            `json:"kind" validate:"required,eventkind"`
	Sender  string          `json:"sender" validate:"required,max=64"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode wraps p into an envelope tagged with sender.
func Encode(sender string, p Payload) (Envelope, error) {
	if p == nil {
		return Envelope{}, ErrMalformed
	}
	if sender == "" {
		return Envelope{}, ErrEmptySender
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", p.Kind(), err)
	}
	return Envelope{Kind: p.Kind(), Sender: sender, Payload: raw}, nil
}

// Decode returns the typed payload carried by env.
func Decode(env Envelope) (Payload, error) {
	var p Payload
	switch env.Kind {
	case KindState:
		p = &State{}
	case KindJoin:
		return Join{}, nil
	case KindCheckin:
		p = &Checkin{}
	case KindVoice:
		p = &Voice{}
	case KindReaction:
		p = &Reaction{}
	case KindMapDot:
		p = &MapDot{}
	case KindVote:
		p = &Vote{}
	case KindPerspective:
		p = &Perspective{}
	case KindBlindSpot:
		p = &BlindSpot{}
	case KindCommit:
		p = &Commit{}
	case KindNewRole:
		p = &NewRole{}
	case KindInsight:
		p = &Insight{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("%w: empty %s payload", ErrMalformed, env.Kind)
	}
	if err := json.Unmarshal(env.Payload, p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Kind, err)
	}
	return deref(p), nil
}

// Marshal encodes env as a single text frame.
func Marshal(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// Unmarshal parses a text frame into an envelope without decoding the payload.
func Unmarshal(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env, nil
}

func deref(p Payload) Payload {
	switch v := p.(type) {
	case *State:
		return *v
	case *Checkin:
		return *v
	case *Voice:
		return *v
	case *Reaction:
		return *v
	case *MapDot:
		return *v
	case *Vote:
		return *v
	case *Perspective:
		return *v
	case *BlindSpot:
		return *v
	case *Commit:
		return *v
	case *NewRole:
		return *v
	case *Insight:
		return *v
	}
	return p
}
