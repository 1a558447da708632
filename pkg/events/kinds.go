package events

// Kind tags every frame exchanged on a room topic.
type Kind string

const (
	KindState       Kind = "state"
	KindJoin        Kind = "join"
	KindCheckin     Kind = "checkin"
	KindVoice       Kind = "voice"
	KindReaction    Kind = "reaction"
	KindMapDot      Kind = "mapdot"
	KindVote        Kind = "vote"
	KindPerspective Kind = "perspective"
	KindBlindSpot   Kind = "blindspot"
	KindCommit      Kind = "commit"
	KindNewRole     Kind = "newrole"
	KindInsight     Kind = "insight"
)

// Kinds lists every kind in catalogue order.
var Kinds = []Kind{
	KindState,
	KindJoin,
	KindCheckin,
	KindVoice,
	KindReaction,
	KindMapDot,
	KindVote,
	KindPerspective,
	KindBlindSpot,
	KindCommit,
	KindNewRole,
	KindInsight,
}

// Valid reports whether k is one of the catalogue kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindState, KindJoin, KindCheckin, KindVoice, KindReaction, KindMapDot,
		KindVote, KindPerspective, KindBlindSpot, KindCommit, KindNewRole, KindInsight:
		return true
	default:
		return false
	}
}

func (k Kind) String() string { return string(k) }

// Role is the self-declared role of a participant. It is never arbitrated by a server.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}
