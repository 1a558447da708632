package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"roomsync/internal/logging"
	"roomsync/pkg/events"
)

const (
	themeSetsPerSuggestion = 5
	checkinsPerSuggestion  = 8
)

// Suggester asks a Completer for new content and falls back to static sets
// on any failure. It never returns an error.
type Suggester struct {
	gen    Completer
	logger *zap.Logger

	mu sync.Mutex
	// alternate is the next AlternateCheckins index handed out on fallback.
	alternate int
}

// NewSuggester accepts a nil Completer, in which case every call falls back.
func NewSuggester(gen Completer, logger *zap.Logger) *Suggester {
	return &Suggester{gen: gen, logger: logging.OrNop(logger)}
}

// SuggestThemeSets returns theme sets for topic. fallback reports whether
// the static sets were used.
func (s *Suggester) SuggestThemeSets(ctx context.Context, topic string) (sets []events.ThemeSet, fallback bool) {
	topic = strings.TrimSpace(topic)
	if s.gen != nil {
		text, err := s.gen.Complete(ctx, themePrompt(topic), 1500)
		if err == nil {
			sets, err = parseThemeSets(text, topic)
		}
		if err == nil {
			return sets, false
		}
		s.logger.Warn("theme generation failed, using fallback", zap.String("topic", topic), zap.Error(err))
	}
	return FallbackThemeSets(topic), true
}

// SuggestCheckinItems returns a fresh check-in set. Fallbacks rotate through
// AlternateCheckins, one step per failed call.
func (s *Suggester) SuggestCheckinItems(ctx context.Context) (items []events.CheckinItem, fallback bool) {
	if s.gen != nil {
		text, err := s.gen.Complete(ctx, checkinPrompt, 1000)
		if err == nil {
			items, err = parseCheckins(text)
		}
		if err == nil {
			return items, false
		}
		s.logger.Warn("check-in generation failed, using fallback", zap.Error(err))
	}
	return s.nextAlternate(), true
}

func (s *Suggester) nextAlternate() []events.CheckinItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := AlternateCheckins[s.alternate%len(AlternateCheckins)]
	s.alternate++
	return append([]events.CheckinItem(nil), set...)
}

type generatedTheme struct {
	Prompt string `json:"prompt"`
	Stmt   string `json:"stmt"`
	Theme  string `json:"theme"`
	L      string `json:"l"`
	R      string `json:"r"`
}

func parseThemeSets(text, topic string) ([]events.ThemeSet, error) {
	var raw []generatedTheme
	if err := json.Unmarshal([]byte(StripFences(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	defaultTheme := topic
	if defaultTheme == "" {
		defaultTheme = "AI-generert"
	}
	var out []events.ThemeSet
	for _, g := range raw {
		if strings.TrimSpace(g.Prompt) == "" || strings.TrimSpace(g.Stmt) == "" {
			continue
		}
		ts := events.ThemeSet{
			Prompt:    g.Prompt,
			Statement: events.Statement{Text: g.Stmt, Left: g.L, Right: g.R},
			Theme:     g.Theme,
		}
		if ts.Statement.Left == "" {
			ts.Statement.Left = DefaultLeftLabel
		}
		if ts.Statement.Right == "" {
			ts.Statement.Right = DefaultRightLabel
		}
		if ts.Theme == "" {
			ts.Theme = defaultTheme
		}
		out = append(out, ts)
	}
	if len(out) == 0 {
		return nil, ErrEmptyResponse
	}
	return out, nil
}

func parseCheckins(text string) ([]events.CheckinItem, error) {
	var raw []events.CheckinItem
	if err := json.Unmarshal([]byte(StripFences(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	var out []events.CheckinItem
	for _, it := range raw {
		if strings.TrimSpace(it.Text) == "" {
			continue
		}
		out = append(out, it)
		if len(out) == checkinsPerSuggestion {
			break
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyResponse
	}
	return out, nil
}

var keywordFallbacks = []struct {
	keyword string
	sets    []events.ThemeSet
}{
	{"mangfold", []events.ThemeSet{
		themeSet("Hvem sitt mangfold er det egentlig plass til her?", "Mangfold handler mest om synlige forskjeller", "Mangfoldets grenser"),
		themeSet("Når sa noen sist at du 'ikke passer inn' — uten ord?", "En pedagog bør behandle alle barn likt uansett bakgrunn", "Likhet vs. rettferdighet"),
		themeSet("Hvilke kropper og språk føles hjemme i dette rommet?", "Barn tilpasser seg naturlig til norsk kultur over tid", "Tilpasning og tilhørighet"),
	}},
	{"barnehage", []events.ThemeSet{
		themeSet("Hvem bestemmer hva som er god barndom — og for hvem?", "Fri lek er viktigere enn strukturert læring i barnehagen", "Barndommens politikk"),
		themeSet("Hvilke barn blir sett først når du går inn i et rom?", "Noen barn trenger strengere grenser enn andre", "Synlighet og normer"),
		themeSet("Hva mister barnet når morsmålet forsvinner?", "Barnehagen bør prioritere norsk fremfor morsmålsstøtte", "Språk og makt"),
	}},
	{"makt", []events.ThemeSet{
		themeSet("Hvem slipper å tenke over sin egen makt — og hvorfor?", "Makt er noe man enten har eller ikke har", "Usynlig makt"),
		themeSet("Når var siste gang du fulgte en regel uten å spørre hvorfor?", "Regler beskytter de svakeste i systemet", "Regler og reproduksjon"),
		themeSet("Hva skjer med den som sier ifra i dette systemet?", "Det er mulig å endre systemet innenfra", "Motstand og pris"),
	}},
}

// FallbackThemeSets picks the first keyword set whose keyword occurs in
// topic, or topic-templated generic sets.
func FallbackThemeSets(topic string) []events.ThemeSet {
	lower := strings.ToLower(topic)
	for _, kf := range keywordFallbacks {
		if strings.Contains(lower, kf.keyword) {
			return append([]events.ThemeSet(nil), kf.sets...)
		}
	}
	t := topic
	if t == "" {
		t = "dette feltet"
	}
	return []events.ThemeSet{
		themeSet(fmt.Sprintf("Hvem har definert hva '%s' betyr — og hvem ble ikke spurt?", t), "Fagfolk vet best hva som trengs", "Definisjonsmakt"),
		themeSet(fmt.Sprintf("Hvem er usynlig i samtalen om %s?", t), "De mest berørte har størst innflytelse", "Stemme og stillhet"),
		themeSet(fmt.Sprintf("Hva tar vi for gitt som 'normalt' innen %s?", t), "Nøytralitet er mulig og ønskelig", "Normalitet og makt"),
		themeSet(fmt.Sprintf("Hvem betaler prisen når %s 'fungerer bra'?", t), "Systemet fungerer for de fleste", "Skjulte kostnader"),
		themeSet("Hva ville endret seg om den mest marginaliserte bestemte?", "Endring må komme gradvis, ikke radikalt", "Makt og endring"),
	}
}

func themePrompt(topic string) string {
	return fmt.Sprintf(`Du er ekspert på kritisk pedagogikk (Freire, hooks, Bourdieu) og lager tematiske sett for et digitalt læringsverktøy i norsk høyere utdanning.

TEMA: "%s"

Lag %d tematiske sett. Hvert sett har et problemposerende spørsmål (prompt, maks 15 ord) og en kontroversiell påstand for verdilinjen (stmt, maks 12 ord) om samme tema. Påstanden skal splitte rommet omtrent på midten.

Svar KUN med en JSON-array:
[{"prompt":"...","stmt":"...","theme":"...","l":"%s","r":"%s"}]`,
		topic, themeSetsPerSuggestion, DefaultLeftLabel, DefaultRightLabel)
}

var checkinPrompt = fmt.Sprintf(`Du er bell hooks. Generer %d innsjekk-utsagn for et modig læringsrom med 100+ studenter.

Hvert utsagn:
- Jeg-posisjonering (starter med "Jeg...")
- Dekk: beredskap, habitus, privilegium, mot, stemme, lytting, usynlighet, usikkerhet
- Maks 12 ord

Svar KUN med JSON-array: [{"text":"...","icon":"...","cat":"..."}]`, checkinsPerSuggestion)
