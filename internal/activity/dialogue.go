package activity

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"roomsync/internal/content"
)

type DialogueState string

const (
	DialogueLobby          DialogueState = "lobby"
	DialoguePairedPhysical DialogueState = "paired-physical"
	DialoguePairedRemote   DialogueState = "paired-remote"
	DialogueActive         DialogueState = "active"
	DialogueTimeout        DialogueState = "timeout"
	DialogueInsight        DialogueState = "insight-capture"
	DialogueDebrief        DialogueState = "debrief"
)

// DialogueDuration is the length of one round.
const DialogueDuration = 300 * time.Second

// MaxPairingNumber bounds the number drawn for a physical pairing token.
const MaxPairingNumber = 50

// PairingToken is shown to both partners of a physical pair so they can find
// each other in the room.
type PairingToken struct {
	Color  content.PairingColor
	Number int
}

// DialogueSnapshot is a consistent read of the dialogue.
type DialogueSnapshot struct {
	State     DialogueState
	Remote    bool
	Token     *PairingToken
	Remaining int
	Round     int
	Prompt    content.DialoguePrompt
}

// Dialogue runs the timed pair conversation. Rounds are local; only the
// insight written at the end is shared, through the insight callback.
type Dialogue struct {
	mu        sync.Mutex
	state     DialogueState
	remote    bool
	token     *PairingToken
	remaining int
	round     int
	prompt    int
	rng       *rand.Rand
	onInsight func(text string) error
	listeners []func(DialogueSnapshot)
}

// NewDialogue returns a dialogue in the lobby. onInsight receives the text of
// every submitted insight; rng may be nil.
func NewDialogue(onInsight func(text string) error, rng *rand.Rand) *Dialogue {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Dialogue{
		state:     DialogueLobby,
		rng:       rng,
		onInsight: onInsight,
	}
}

// OnChange registers fn for every state transition and countdown tick.
func (d *Dialogue) OnChange(fn func(DialogueSnapshot)) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

func (d *Dialogue) Snapshot() DialogueSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Dialogue) snapshotLocked() DialogueSnapshot {
	s := DialogueSnapshot{
		State:     d.state,
		Remote:    d.remote,
		Remaining: d.remaining,
		Round:     d.round,
		Prompt:    content.DialoguePrompts[d.prompt%len(content.DialoguePrompts)],
	}
	if d.token != nil {
		tok := *d.token
		s.Token = &tok
	}
	return s
}

// emit releases the lock and notifies listeners with the state at release.
func (d *Dialogue) emit() {
	snap := d.snapshotLocked()
	listeners := append([]func(DialogueSnapshot){}, d.listeners...)
	d.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func (d *Dialogue) begin(remote bool) {
	d.round++
	if d.round > 1 {
		d.prompt = (d.prompt + 1) % len(content.DialoguePrompts)
	}
	d.remote = remote
	d.remaining = int(DialogueDuration / time.Second)
}

// StartPhysical draws a pairing token and waits for ConfirmPairing.
func (d *Dialogue) StartPhysical() (PairingToken, error) {
	d.mu.Lock()
	if d.state != DialogueLobby {
		d.mu.Unlock()
		return PairingToken{}, ErrInvalidTransition
	}
	d.begin(false)
	tok := PairingToken{
		Color:  content.PairingColors[d.rng.Intn(len(content.PairingColors))],
		Number: d.rng.Intn(MaxPairingNumber) + 1,
	}
	d.token = &tok
	d.state = DialoguePairedPhysical
	d.emit()
	return tok, nil
}

// StartRemote pairs without a token and passes straight through to active.
func (d *Dialogue) StartRemote() error {
	d.mu.Lock()
	if d.state != DialogueLobby {
		d.mu.Unlock()
		return ErrInvalidTransition
	}
	d.begin(true)
	d.token = nil
	d.state = DialoguePairedRemote
	d.emit()

	d.mu.Lock()
	if d.state != DialoguePairedRemote {
		d.mu.Unlock()
		return nil
	}
	d.state = DialogueActive
	d.emit()
	return nil
}

// ConfirmPairing starts the countdown once physical partners have met.
func (d *Dialogue) ConfirmPairing() error {
	d.mu.Lock()
	if d.state != DialoguePairedPhysical {
		d.mu.Unlock()
		return ErrInvalidTransition
	}
	d.state = DialogueActive
	d.emit()
	return nil
}

// Tick advances the countdown by one second. Reaching zero passes through
// timeout into insight capture. Ticks outside a running round are ignored.
func (d *Dialogue) Tick() {
	d.mu.Lock()
	if d.state != DialogueActive {
		d.mu.Unlock()
		return
	}
	d.remaining--
	if d.remaining > 0 {
		d.emit()
		return
	}
	d.remaining = 0
	d.state = DialogueTimeout
	d.emit()

	d.mu.Lock()
	if d.state != DialogueTimeout {
		d.mu.Unlock()
		return
	}
	d.state = DialogueInsight
	d.emit()
}

// SubmitInsight hands text to the insight callback and moves to debrief.
func (d *Dialogue) SubmitInsight(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInsight
	}
	d.mu.Lock()
	if d.state != DialogueInsight {
		d.mu.Unlock()
		return ErrInvalidTransition
	}
	d.state = DialogueDebrief
	cb := d.onInsight
	d.emit()

	if cb != nil {
		return cb(text)
	}
	return nil
}

// NewRound returns from debrief to the lobby.
func (d *Dialogue) NewRound() error {
	d.mu.Lock()
	if d.state != DialogueDebrief {
		d.mu.Unlock()
		return ErrInvalidTransition
	}
	d.reset()
	d.emit()
	return nil
}

// Abandon drops the current round without sharing anything.
func (d *Dialogue) Abandon() {
	d.mu.Lock()
	d.reset()
	d.emit()
}

func (d *Dialogue) reset() {
	d.state = DialogueLobby
	d.token = nil
	d.remaining = 0
	d.remote = false
}

// Run ticks the dialogue once per second until ctx is done.
func (d *Dialogue) Run(ctx context.Context, clock Clock) {
	if clock == nil {
		clock = SystemClock{}
	}
	t := clock.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			d.Tick()
		}
	}
}
