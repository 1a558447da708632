package store

import (
	"math"
	"sort"
)

const (
	// MapAggregateMinSamples is the sample count below which no aggregate marker is shown.
	MapAggregateMinSamples = 3
	// ContestedSpread is the x standard deviation above which an actor is contested.
	ContestedSpread = 12.0
	// NeutralVote is the mean reported for an empty vote set.
	NeutralVote = 50.0
	// MaxDisplayedParticipants caps the participant count shown to the room.
	MaxDisplayedParticipants = 128
)

// MapAggregate summarises every placement of one actor.
type MapAggregate struct {
	ActorID   string
	Count     int
	MeanX     float64
	MeanY     float64
	StdDevX   float64
	StdDevY   float64
	Visible   bool
	Contested bool
}

// MapAggregate computes the mean and population standard deviation of all
// own and peer samples for actorID.
func (s *Store) MapAggregate(actorID string) MapAggregate {
	s.mu.RLock()
	var xs, ys []float64
	for _, d := range s.mapDots.items {
		if d.ActorID == actorID {
			xs = append(xs, d.X)
			ys = append(ys, d.Y)
		}
	}
	s.mu.RUnlock()

	agg := MapAggregate{ActorID: actorID, Count: len(xs)}
	if agg.Count == 0 {
		return agg
	}
	agg.MeanX, agg.StdDevX = meanStdDev(xs)
	agg.MeanY, agg.StdDevY = meanStdDev(ys)
	agg.Visible = agg.Count >= MapAggregateMinSamples
	agg.Contested = agg.Visible && agg.StdDevX > ContestedSpread
	return agg
}

func meanStdDev(vs []float64) (float64, float64) {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	mean := sum / float64(len(vs))
	var sq float64
	for _, v := range vs {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(vs)))
}

// VoteHistogram is a ten-bucket histogram over [0,100).
type VoteHistogram struct {
	SetIndex int
	Buckets  [10]int
	Count    int
	Mean     float64
}

// VoteBucket maps a value to its histogram bucket.
func VoteBucket(v float64) int {
	b := int(math.Floor(v / 10))
	if b < 0 {
		return 0
	}
	if b > 9 {
		return 9
	}
	return b
}

// VoteHistogram aggregates the votes cast for setIndex.
func (s *Store) VoteHistogram(setIndex int) VoteHistogram {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := VoteHistogram{SetIndex: setIndex, Mean: NeutralVote}
	var sum float64
	for _, v := range s.votes.items {
		if v.SetIndex != setIndex {
			continue
		}
		h.Buckets[VoteBucket(v.Value)]++
		h.Count++
		sum += v.Value
	}
	if h.Count > 0 {
		h.Mean = sum / float64(h.Count)
	}
	return h
}

// Participation estimates who has spoken from the voice count and the
// announced participant count.
type Participation struct {
	Participants int
	Contributors int
	Silent       int
	One          int
	TwoToThree   int
	FourPlus     int
}

func (s *Store) Participation() Participation {
	s.mu.RLock()
	voices := s.voices.len()
	studs := s.participants
	s.mu.RUnlock()

	if studs > MaxDisplayedParticipants {
		studs = MaxDisplayedParticipants
	}
	silent := studs - int(math.Floor(float64(voices)*0.8))
	if silent < 0 {
		silent = 0
	}
	return Participation{
		Participants: studs,
		Contributors: voices,
		Silent:       silent,
		One:          int(math.Floor(float64(voices) * 0.55)),
		TwoToThree:   int(math.Floor(float64(voices) * 0.25)),
		FourPlus:     int(math.Floor(float64(voices) * 0.15)),
	}
}

type TagCount struct {
	Tag   string
	Count int
}

// TagCloud returns tag frequencies across voices, most frequent first, ties
// alphabetical. limit <= 0 returns every tag.
func (s *Store) TagCloud(limit int) []TagCount {
	s.mu.RLock()
	counts := make(map[string]int)
	for _, v := range s.voices.items {
		for _, t := range v.Tags {
			counts[t]++
		}
	}
	s.mu.RUnlock()

	out := make([]TagCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TagCount{Tag: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
