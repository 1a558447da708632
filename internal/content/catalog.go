// Package content holds the static room catalogues and the optional
// generative helper that proposes new theme sets and check-in items.
package content

import "roomsync/pkg/events"

type Phase struct {
	ID    string
	Label string
	Color string
}

// Phases in session order; the phase index on the wire points into this slice.
var Phases = []Phase{
	{ID: "ankomst", Label: "Ankomst", Color: "#C06840"},
	{ID: "utforskning", Label: "Utforskning", Color: "#4A6090"},
	{ID: "dialog", Label: "Dialog", Color: "#5A8060"},
	{ID: "refleksjon", Label: "Refleksjon", Color: "#907050"},
	{ID: "handling", Label: "Handling", Color: "#7A4A70"},
}

const (
	ActivityVoices      = "stemmer"
	ActivityPowerMap    = "maktkart"
	ActivityPerspective = "perspektiv"
	ActivityValueLine   = "verdilinje"
	ActivityDialogue    = "mikrodialog"
	ActivityBlindSpot   = "blindsone"
	ActivityDiamond     = "diamant"
	ActivityAnalysis    = "analyse"
	ActivityCommitments = "forplikt"
)

type Activity struct {
	ID     string
	Label  string
	Phases []int
}

// Activities in menu order.
var Activities = []Activity{
	{ID: ActivityVoices, Label: "Stemmestrøm", Phases: []int{1}},
	{ID: ActivityPowerMap, Label: "Maktkartet", Phases: []int{1}},
	{ID: ActivityPerspective, Label: "Perspektivbytte", Phases: []int{1}},
	{ID: ActivityValueLine, Label: "Verdilinjen", Phases: []int{1}},
	{ID: ActivityDialogue, Label: "Mikro-dialog", Phases: []int{2}},
	{ID: ActivityBlindSpot, Label: "Blindsonejakten", Phases: []int{2}},
	{ID: ActivityDiamond, Label: "Diamantrangering", Phases: []int{3}},
	{ID: ActivityAnalysis, Label: "Hvem snakker?", Phases: []int{3}},
	{ID: ActivityCommitments, Label: "Forpliktelsesmuren", Phases: []int{4}},
}

// DefaultActivity is selected before the teacher picks one.
const DefaultActivity = ActivityVoices

func LookupActivity(id string) (Activity, bool) {
	for _, a := range Activities {
		if a.ID == id {
			return a, true
		}
	}
	return Activity{}, false
}

// ActivitiesForPhase lists the activities available in phase.
func ActivitiesForPhase(phase int) []Activity {
	var out []Activity
	for _, a := range Activities {
		if a.AllowedIn(phase) {
			out = append(out, a)
		}
	}
	return out
}

func (a Activity) AllowedIn(phase int) bool {
	for _, p := range a.Phases {
		if p == phase {
			return true
		}
	}
	return false
}

// ThemeSets are the built-in prompt/statement pairs.
var ThemeSets = []events.ThemeSet{
	themeSet("Hvem har mest makt i et klasserom — og hvordan merkes det?", "En lærer bør alltid være nøytral", "Makt i rommet"),
	themeSet("Tenk på en gang du følte deg utenfor i utdanning. Hva skjedde?", "Inkludering betyr at alle skal behandles likt", "Tilhørighet og ekskludering"),
	themeSet("Hva gjør noen elever 'synlige' og andre 'usynlige'?", "Noen barn er naturlig mer stille — det må vi respektere", "Synlighet og stemme"),
	themeSet("Hvilke 'uskrevne regler' styrer hvem som lykkes?", "Skolesystemet gir alle like muligheter", "Reproduksjon av ulikhet"),
	themeSet("Hvem definerer hva som er 'normal' i barnehage og skole?", "Barnehagen bør prioritere norskopplæring fremfor morsmålsstøtte", "Normalitet og definisjonsmakt"),
	{Prompt: "Hvem sin stemme mangler i denne diskusjonen?", Statement: events.Statement{Text: "Det er mulig å være 'fargeblind' som pedagog", Left: "Umulig", Right: "Mulig og ønskelig"}, Theme: "Blindsoner og privilegium"},
	themeSet("Utfordre din egen første reaksjon — hva tar du for gitt?", "Profesjonell kompetanse er viktigere enn personlig erfaring", "Habitus og forforståelse"),
	themeSet("Hvis du byttet posisjon med den mest marginaliserte — hva ser du?", "Å snakke om rasisme i Norge er å importere amerikanske problemer", "Marginalisering og perspektiv"),
	themeSet("Hva ville Freire sagt om denne situasjonen?", "Undervisning kan aldri være politisk nøytral", "Pedagogikk og politikk"),
	themeSet("Hvem betaler prisen for 'harmoni' i klasserommet?", "Konflikter i klasserommet bør unngås så langt det er mulig", "Harmoni og makt"),
}

const (
	DefaultLeftLabel  = "Helt uenig"
	DefaultRightLabel = "Helt enig"
)

func themeSet(prompt, statement, theme string) events.ThemeSet {
	return events.ThemeSet{
		Prompt:    prompt,
		Statement: events.Statement{Text: statement, Left: DefaultLeftLabel, Right: DefaultRightLabel},
		Theme:     theme,
	}
}

// DefaultCheckins is the arrival check-in set.
var DefaultCheckins = []events.CheckinItem{
	{Text: "Jeg er klar til å bli utfordret i dag", Icon: "⚡", Category: "beredskap"},
	{Text: "Jeg holder meg vanligvis stille i slike rom", Icon: "◌", Category: "habitus"},
	{Text: "Jeg føler meg hjemme i et klasserom", Icon: "⌂", Category: "privilegium"},
	{Text: "Jeg er villig til å tåle ubehag", Icon: "◇", Category: "mot"},
	{Text: "Jeg tror min stemme har betydning her", Icon: "◉", Category: "verdi"},
	{Text: "Jeg vil lytte mer enn jeg snakker", Icon: "◠", Category: "kontrakt"},
	{Text: "Jeg bærer med meg noe som sjelden blir snakket om", Icon: "▪", Category: "usynlig"},
	{Text: "Jeg vet ikke helt hva jeg føler ennå — og det er greit", Icon: "~", Category: "usikkerhet"},
}

// AlternateCheckins are rotated through when generation fails.
var AlternateCheckins = [][]events.CheckinItem{
	{
		{Text: "Jeg merker at kroppen min er spent i dette rommet", Icon: "⊕", Category: "kroppsbevissthet"},
		{Text: "Jeg har noe å si men vet ikke om det er 'riktig'", Icon: "◌", Category: "selvsensur"},
		{Text: "Jeg er vant til å bli hørt når jeg snakker", Icon: "⌂", Category: "privilegium"},
		{Text: "Jeg velger i dag å sitte med ubehaget", Icon: "◇", Category: "mot"},
		{Text: "Jeg lurer på hvem som ikke er her i dag", Icon: "◉", Category: "synlighet"},
		{Text: "Jeg vil forstå før jeg mener noe", Icon: "◠", Category: "lytting"},
		{Text: "Jeg kjenner meg igjen i det som aldri sies høyt", Icon: "▪", Category: "usynlighet"},
		{Text: "Jeg er her — det er nok for nå", Icon: "~", Category: "tilstedeværelse"},
	},
	{
		{Text: "Jeg er forberedt på å endre mening i dag", Icon: "⚡", Category: "åpenhet"},
		{Text: "Jeg snakker sjelden i store grupper", Icon: "◌", Category: "habitus"},
		{Text: "Jeg har aldri trengt å forklare hvem jeg er", Icon: "⌂", Category: "privilegium"},
		{Text: "Jeg tåler å bli korrigert", Icon: "◇", Category: "sårbarhet"},
		{Text: "Jeg tviler på om stemmen min betyr noe her", Icon: "◉", Category: "stemme"},
		{Text: "Jeg vil lytte til den som er mest ulik meg", Icon: "◠", Category: "lytting"},
		{Text: "Jeg har erfaringer dette rommet ikke har språk for", Icon: "▪", Category: "usynlighet"},
		{Text: "Jeg vet ikke hva jeg føler ennå — og det er greit", Icon: "~", Category: "usikkerhet"},
	},
	{
		{Text: "Jeg tør å stille dumme spørsmål i dag", Icon: "⚡", Category: "mot"},
		{Text: "Jeg observerer vanligvis mer enn jeg deltar", Icon: "◌", Category: "habitus"},
		{Text: "Jeg kjenner meg trygg i akademiske rom", Icon: "⌂", Category: "kapital"},
		{Text: "Jeg er villig til å gi slipp på det jeg tror jeg vet", Icon: "◇", Category: "avlæring"},
		{Text: "Jeg lurer på hvem som former dette faget", Icon: "◉", Category: "definisjonsmakt"},
		{Text: "Jeg vil snakke mindre og lytte mer i dag", Icon: "◠", Category: "lyttekontrakt"},
		{Text: "Jeg bærer på noe tungt som hører hjemme i dette faget", Icon: "▪", Category: "erfaring"},
		{Text: "Jeg har mer spørsmål enn svar akkurat nå", Icon: "~", Category: "undring"},
	},
}

// CheckinTexts returns the item texts, which key the check-in tally.
func CheckinTexts(items []events.CheckinItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

type Reaction struct {
	Key   string
	Label string
	Icon  string
}

var Reactions = []Reaction{
	{Key: "utfordrer", Label: "Utfordrer meg", Icon: "⚡"},
	{Key: "gjenkjennelig", Label: "Gjenkjennelig", Icon: "◉"},
	{Key: "vilhoremer", Label: "Vil høre mer", Icon: "→"},
}

func IsReactionKey(key string) bool {
	for _, r := range Reactions {
		if r.Key == key {
			return true
		}
	}
	return false
}

type Actor struct {
	ID    string
	Name  string
	Emoji string
}

type ActorSet struct {
	ID     string
	Actors []Actor
}

// DefaultActorSet is the actor set selected before the teacher picks one.
const DefaultActorSet = "Barndom og barnehage"

var ActorSets = []ActorSet{
	{ID: "Utdanning og oppvekst", Actors: []Actor{
		{"la", "Læreren", "👩‍🏫"}, {"el", "Eleven", "🧑‍🎓"},
		{"fo", "Foresatte", "👨‍👩‍👧"}, {"re", "Rektor", "👔"},
		{"pp", "PP-tjenesten", "🔍"}, {"bv", "Barnevernet", "🛡️"},
		{"ko", "Skoleeier (kommunen)", "🏛️"}, {"hs", "Helsesykepleier", "🏥"},
		{"na", "NAV", "📋"}, {"po", "Politikere", "🗳️"},
	}},
	{ID: DefaultActorSet, Actors: []Actor{
		{"ba", "Barnet", "🧒"}, {"bl", "Barnehagelærer", "👩‍🏫"},
		{"fo", "Foreldre", "👨‍👩‍👧"}, {"as", "Assistenten", "🤝"},
		{"bv", "Barnevernet", "🛡️"}, {"pp", "PPT", "🔍"},
		{"ko", "Kommunen", "🏛️"}, {"he", "Helsestasjon", "🏥"},
		{"st", "Styreren", "👔"}, {"me", "Mediene", "📰"},
	}},
	{ID: "Rådgivning og veiledning", Actors: []Actor{
		{"ra", "Rådgiveren", "🗣️"}, {"kl", "Klienten/eleven", "🧑"},
		{"fo", "Foresatte", "👨‍👩‍👧"}, {"ag", "Arbeidsgiver", "🏢"},
		{"na", "NAV", "📋"}, {"pp", "PP-tjenesten", "🔍"},
		{"lp", "Lege/psykolog", "⚕️"}, {"sl", "Skoleledelsen", "👔"},
		{"bv", "Barnevernet", "🛡️"}, {"fs", "Forsikringsselskap", "📊"},
	}},
	{ID: "Arbeidsliv og voksnes læring", Actors: []Actor{
		{"at", "Arbeidstakeren", "👷"}, {"ag", "Arbeidsgiveren", "🏢"},
		{"tv", "Tillitsvalgt", "✊"}, {"hr", "HR-avdelingen", "📁"},
		{"na", "NAV", "📋"}, {"ff", "Fagforeningen", "🤝"},
		{"ui", "Utdanningsinstitusjon", "🎓"}, {"ku", "Kursarrangør", "📖"},
		{"po", "Politikere", "🗳️"}, {"fa", "Familie", "🏠"},
	}},
}

// LookupActorSet falls back to the first set for an unknown id.
func LookupActorSet(id string) ActorSet {
	for _, s := range ActorSets {
		if s.ID == id {
			return s
		}
	}
	return ActorSets[0]
}

func IsActorSet(id string) bool {
	for _, s := range ActorSets {
		if s.ID == id {
			return true
		}
	}
	return false
}

// PerspectiveRole is a role students can speak from in the perspective exercise.
type PerspectiveRole struct {
	Name        string
	Description string
	Color       string
	Emoji       string
}

var PerspectiveRoles = []PerspectiveRole{
	{"Nyankommet flyktningforelder", "Forstår ikke systemet, vil det beste for barnet", "#C06840", "🌍"},
	{"Erfaren assistent", "15 år i yrket. Vet hva som fungerer — tror du", "#4A6090", "🤝"},
	{"Pedagogisk leder", "Vil inkludere alle, kjenner press fra alle kanter", "#5A8060", "👩‍🏫"},
	{"Barnet (5 år)", "Forstår mer enn de voksne tror", "#907050", "🧒"},
	{"Kommunal rådgiver", "Ser tallene og budsjettene. Ikke enkeltbarn", "#7A4A70", "🏛️"},
	{"Nyutdannet bh-lærer", "Har lest teorien. Virkeligheten er annerledes", "#5A8A7A", "🎓"},
	{"Besteforelder", "Ser endringer over generasjoner. Bekymret og stolt", "#8A6A40", "👵"},
	{"Barnevernspedagog", "Ser det ingen andre ser. Bærer taushetsplikten tungt", "#6A5A8A", "🔍"},
	{"Politiker", "Vil vise handlekraft. Trenger tall og resultater", "#8A5050", "🗳️"},
	{"Flerspråklig barn (8 år)", "Snakker tre språk men blir vurdert på ett", "#4A7A7A", "💬"},
}

// MarkerColors is the palette for map actors and proposed roles.
var MarkerColors = []string{"#C06840", "#4A6090", "#5A8060", "#907050", "#7A4A70", "#5A8A7A", "#8A6A40", "#6A5A8A", "#8A5050", "#4A7A7A"}

// NewRoleEmoji marks roles proposed by participants.
const NewRoleEmoji = "👤"

type DialoguePrompt struct {
	Question string
	Source   string
}

var DialoguePrompts = []DialoguePrompt{
	{"Hvem har mest makt i rommet vi sitter i akkurat nå?", "Bourdieu"},
	{"Fortell om en gang du følte at systemet ikke var laget for deg.", "hooks"},
	{"Hva er det farligste du kan si i et klasserom? Hvorfor?", "Freire"},
	{"Hva tar du for gitt om 'god' utdanning?", "Bourdieu: Kulturell kapital"},
	{"Hva er forskjellen mellom å 'inkludere' og å 'endre rommet'?", "hooks"},
	{"Hvem betaler prisen for 'harmoni' i barnehagen/skolen?", "Kritisk pedagogikk"},
}

// BlindSpotQuestions prompt the blind-spot hunt.
var BlindSpotQuestions = []string{
	"Hvem har vi IKKE snakket om?",
	"Hvilket spørsmål har vi UNNGÅTT å stille?",
	"Hva ser du IKKE på grunn av hvem du er?",
}

type DiamondPool struct {
	Topic string
	Items []string
}

var DiamondPools = []DiamondPool{
	{Topic: "Inkludering i barnehagen", Items: []string{"Morsmålsstøtte", "Lekebasert læring", "Foreldresamarbeid", "Antirasistisk praksis", "Norskopplæring", "Fleksible rutiner", "Personalets holdninger", "Fysisk miljø", "Barns medvirkning"}},
	{Topic: "Profesjonsetikk", Items: []string{"Taushetsplikt", "Barnets beste", "Likeverd", "Kritisk refleksjon", "Kollegial lojalitet", "Varsling", "Kulturell ydmykhet", "Maktbevissthet", "Mot"}},
}

func LookupDiamondPool(topic string) (DiamondPool, bool) {
	for _, p := range DiamondPools {
		if p.Topic == topic {
			return p, true
		}
	}
	return DiamondPool{}, false
}

// PairingColor is the physical pairing token color with its marker emoji.
type PairingColor struct {
	Name  string
	Emoji string
}

var PairingColors = []PairingColor{
	{"Blå", "🔵"}, {"Rød", "🔴"}, {"Grønn", "🟢"}, {"Gul", "🟡"}, {"Lilla", "🟣"}, {"Oransje", "🟠"},
}
