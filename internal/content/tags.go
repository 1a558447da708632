package content

import "strings"

// MaxAutoTags bounds the tags derived from a voice's text.
const MaxAutoTags = 3

// Vocabulary is matched against voice text to derive tags.
var Vocabulary = []string{
	"makt", "habitus", "kulturell kapital", "banking model", "dialog", "conscientização",
	"interseksjonalitet", "marginalisering", "stemme", "andregjøring", "tilhørighet",
	"rasialisering", "klasse", "praxis", "frigjøring", "definisjonsmakt", "normalisering",
	"modige rom", "reproduksjon", "hegemoni", "avmakt",
}

// ChoosableTags are offered to participants next to the free-text field.
var ChoosableTags = []string{
	"makt", "habitus", "kulturell kapital", "dialog", "interseksjonalitet", "marginalisering",
	"tilhørighet", "klasse", "frigjøring", "definisjonsmakt", "modige rom", "reproduksjon",
	"avmakt", "personlig erfaring", "systemkritikk", "endring",
}

// ExtractTags returns up to MaxAutoTags vocabulary entries that occur in text,
// case-insensitively, in vocabulary order.
func ExtractTags(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, tag := range Vocabulary {
		if strings.Contains(lower, tag) {
			out = append(out, tag)
			if len(out) == MaxAutoTags {
				break
			}
		}
	}
	return out
}

// MergeTags returns chosen followed by the derived tags of text, without duplicates.
func MergeTags(chosen []string, text string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range chosen {
		add(t)
	}
	for _, t := range ExtractTags(text) {
		add(t)
	}
	return out
}
