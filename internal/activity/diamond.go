package activity

import "roomsync/internal/content"

// DiamondSize is the number of items a complete ranking holds.
const DiamondSize = 9

// DiamondShape is the row layout of a ranking, most important first.
var DiamondShape = []int{1, 2, 3, 2, 1}

// DiamondRanking orders nine candidates into a 1-2-3-2-1 diamond. Rankings
// are private to the participant and never leave the client.
type DiamondRanking struct {
	topic     string
	pool      []string
	order     []string
	submitted bool
}

func NewDiamondRanking(pool content.DiamondPool) *DiamondRanking {
	return &DiamondRanking{topic: pool.Topic, pool: append([]string(nil), pool.Items...)}
}

func (r *DiamondRanking) Topic() string   { return r.topic }
func (r *DiamondRanking) Pool() []string  { return append([]string(nil), r.pool...) }
func (r *DiamondRanking) Order() []string { return append([]string(nil), r.order...) }
func (r *DiamondRanking) Submitted() bool { return r.submitted }

func (r *DiamondRanking) inPool(item string) bool {
	for _, p := range r.pool {
		if p == item {
			return true
		}
	}
	return false
}

// Toggle appends item in click order, or removes it if already ranked.
func (r *DiamondRanking) Toggle(item string) error {
	if r.submitted {
		return ErrAlreadySubmitted
	}
	if !r.inPool(item) {
		return ErrNotInPool
	}
	for i, it := range r.order {
		if it == item {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return nil
		}
	}
	if len(r.order) >= DiamondSize {
		return ErrDiamondFull
	}
	r.order = append(r.order, item)
	return nil
}

// Submit locks a complete ranking.
func (r *DiamondRanking) Submit() error {
	if r.submitted {
		return ErrAlreadySubmitted
	}
	if len(r.order) != DiamondSize {
		return ErrDiamondIncomplete
	}
	r.submitted = true
	return nil
}

// Rows groups the ranked items by DiamondShape. A partial ranking fills the
// leading rows only.
func (r *DiamondRanking) Rows() [][]string {
	rows := make([][]string, 0, len(DiamondShape))
	i := 0
	for _, n := range DiamondShape {
		if i >= len(r.order) {
			break
		}
		end := i + n
		if end > len(r.order) {
			end = len(r.order)
		}
		rows = append(rows, append([]string(nil), r.order[i:end]...))
		i = end
	}
	return rows
}

// SetTopic switches to the pool for topic and clears the ranking.
func (r *DiamondRanking) SetTopic(topic string) error {
	pool, ok := content.LookupDiamondPool(topic)
	if !ok {
		return ErrUnknownTopic
	}
	r.topic = pool.Topic
	r.pool = append([]string(nil), pool.Items...)
	r.order = nil
	r.submitted = false
	return nil
}
