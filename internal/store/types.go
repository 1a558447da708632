package store

import "roomsync/pkg/events"

// Voice is an open-text contribution with its reaction counters.
type Voice struct {
	ID        string
	Text      string
	Tags      []string
	Timestamp int64
	Own       bool
	Reactions map[string]int
}

type MapDot struct {
	ID      string
	ActorID string
	X, Y    float64
	Own     bool
}

type Vote struct {
	ID       string
	Value    float64
	SetIndex int
	Own      bool
}

type Perspective struct {
	ID        string
	RoleName  string
	Color     string
	Emoji     string
	Text      string
	Timestamp int64
	Own       bool
}

// Note is a short text contribution: a blind spot, an insight or a commitment.
type Note struct {
	ID        string
	Text      string
	Timestamp int64
	Own       bool
}

type Role struct {
	Name  string
	Emoji string
	Color string
	Own   bool
}

// Change describes one successful mutation, delivered to subscribers of Kind.
type Change struct {
	Kind events.Kind
	ID   string
	Own  bool
}

func (v Voice) clone() Voice {
	if v.Tags != nil {
		v.Tags = append([]string(nil), v.Tags...)
	}
	r := make(map[string]int, len(v.Reactions))
	for k, n := range v.Reactions {
		r[k] = n
	}
	v.Reactions = r
	return v
}
