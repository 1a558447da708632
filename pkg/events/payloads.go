package events

// Payload is implemented by exactly one struct per Kind.
type Payload interface {
	Kind() Kind
}

// Contribution is a payload that carries a client-generated id.
type Contribution interface {
	Payload
	ContributionID() string
}

// State is a navigation override. Nil fields are absent and must be left
// untouched by receivers.
type State struct {
	Phase        *int          `json:"phase,omitempty"`
	Activity     *string       `json:"activity,omitempty"`
	PromptIndex  *int          `json:"promptIndex,omitempty"`
	ActorSetID   *string       `json:"actorSetId,omitempty"`
	ThemeSets    []ThemeSet    `json:"themeSet,omitempty"`
	CheckinItems []CheckinItem `json:"checkinSet,omitempty"`
}

// Empty reports whether no field is present.
func (s State) Empty() bool {
	return s.Phase == nil && s.Activity == nil && s.PromptIndex == nil &&
		s.ActorSetID == nil && s.ThemeSets == nil && s.CheckinItems == nil
}

type Join struct{}

type Checkin struct {
	Items []string `json:"items" validate:"required,min=1,dive,required"`
}

type Voice struct {
	ID        string   `json:"id" validate:"required"`
	Text      string   `json:"text" validate:"required"`
	Tags      []string `json:"tags"`
	Timestamp int64    `json:"timestamp"`
}

type Reaction struct {
	TargetID    string `json:"targetId" validate:"required"`
	ReactionKey string `json:"reactionKey" validate:"required"`
}

type MapDot struct {
	ID      string  `json:"id" validate:"required"`
	ActorID string  `json:"actorId" validate:"required"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type Vote struct {
	ID       string  `json:"id" validate:"required"`
	Value    float64 `json:"value"`
	SetIndex int     `json:"setIndex" validate:"min=0"`
}

type Perspective struct {
	ID        string `json:"id" validate:"required"`
	RoleName  string `json:"roleName" validate:"required"`
	Color     string `json:"color"`
	Emoji     string `json:"emoji"`
	Text      string `json:"text" validate:"required"`
	Timestamp int64  `json:"timestamp"`
}

type BlindSpot struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Timestamp int64  `json:"timestamp"`
}

type Commit struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Timestamp int64  `json:"timestamp"`
}

type NewRole struct {
	RoleName string `json:"roleName" validate:"required"`
	Emoji    string `json:"emoji"`
	Color    string `json:"color"`
}

type Insight struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text" validate:"required"`
}

func (State) Kind() Kind       { return KindState }
func (Join) Kind() Kind        { return KindJoin }
func (Checkin) Kind() Kind     { return KindCheckin }
func (Voice) Kind() Kind       { return KindVoice }
func (Reaction) Kind() Kind    { return KindReaction }
func (MapDot) Kind() Kind      { return KindMapDot }
func (Vote) Kind() Kind        { return KindVote }
func (Perspective) Kind() Kind { return KindPerspective }
func (BlindSpot) Kind() Kind   { return KindBlindSpot }
func (Commit) Kind() Kind      { return KindCommit }
func (NewRole) Kind() Kind     { return KindNewRole }
func (Insight) Kind() Kind     { return KindInsight }

func (v Voice) ContributionID() string       { return v.ID }
func (d MapDot) ContributionID() string      { return d.ID }
func (v Vote) ContributionID() string        { return v.ID }
func (p Perspective) ContributionID() string { return p.ID }
func (b BlindSpot) ContributionID() string   { return b.ID }
func (c Commit) ContributionID() string      { return c.ID }
func (i Insight) ContributionID() string     { return i.ID }
