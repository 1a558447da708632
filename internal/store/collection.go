package store

// Retention caps per contribution kind.
const (
	CapVoices       = 150
	CapMapDots      = 300
	CapVotes        = 200
	CapPerspectives = 20
	CapBlindSpots   = 40
	CapInsights     = 30
	CapCommitments  = 50
	CapRoles        = 50
)

// bounded is an id-deduplicated sequence capped at limit. Feed collections
// prepend and drop the oldest from the tail; sample collections append and
// drop from the head. Either way eviction is FIFO by local arrival.
type bounded[T any] struct {
	items   []T
	limit   int
	prepend bool
	key     func(T) string
}

func newFeed[T any](limit int, key func(T) string) *bounded[T] {
	return &bounded[T]{limit: limit, prepend: true, key: key}
}

func newSamples[T any](limit int, key func(T) string) *bounded[T] {
	return &bounded[T]{limit: limit, key: key}
}

func (b *bounded[T]) indexOf(k string) int {
	for i, it := range b.items {
		if b.key(it) == k {
			return i
		}
	}
	return -1
}

// insert adds v unless an item with the same key is present.
func (b *bounded[T]) insert(v T) bool {
	if b.indexOf(b.key(v)) >= 0 {
		return false
	}
	if b.prepend {
		b.items = append([]T{v}, b.items...)
		if len(b.items) > b.limit {
			b.items = b.items[:b.limit]
		}
		return true
	}
	b.items = append(b.items, v)
	if over := len(b.items) - b.limit; over > 0 {
		b.items = append([]T(nil), b.items[over:]...)
	}
	return true
}

func (b *bounded[T]) removeIf(drop func(T) bool) int {
	kept := b.items[:0]
	removed := 0
	for _, it := range b.items {
		if drop(it) {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	b.items = kept
	return removed
}

func (b *bounded[T]) snapshot() []T {
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

func (b *bounded[T]) len() int { return len(b.items) }
