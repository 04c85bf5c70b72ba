package scanner

import (
	"sort"
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/rs/zerolog/log"

	"github.com/minutebid/minutebid/types"
)

// fluffTokens are dropped before comparison: club suffixes and the
// "vs"-style connectors that differ between Gamma titles and bookmaker
// event names ("Liverpool FC v Everton" vs "Liverpool vs Everton FC").
var fluffTokens = map[string]struct{}{
	"fc": {}, "afc": {}, "cf": {}, "sc": {}, "ac": {},
	"club": {}, "utd": {}, "united": {}, "city": {},
	"vs": {}, "v": {},
}

// Matcher joins a Gamma event title and outcome label against a reference
// odds table keyed by free-text event names. The two venues share no
// identifiers, so the join is a fuzzy text match with confidence
// thresholds on the 0-100 ratio scale.
type Matcher struct {
	EventConfidence   int // minimum token-set ratio to accept an event key
	OutcomeConfidence int // minimum ratio to accept an outcome key
}

// LookupReferenceProb finds the reference probability for the given event
// title and outcome label. ok=false when no event key or outcome key
// clears its confidence threshold.
func (m Matcher) LookupReferenceProb(title, outcome string, table types.ReferenceOddsTable) (float64, bool) {
	if len(table) == 0 {
		return 0, false
	}

	eventKey, score := m.bestEventKey(title, table)
	if eventKey == "" {
		return 0, false
	}
	log.Debug().
		Str("title", title).
		Str("matched", eventKey).
		Int("score", score).
		Msg("Reference event matched")

	return m.lookupOutcome(outcome, table[eventKey])
}

// bestEventKey returns the table key most similar to the event title, or
// "" when the best score is below EventConfidence.
func (m Matcher) bestEventKey(title string, table types.ReferenceOddsTable) (string, int) {
	normTitle := normalizeName(title)
	if normTitle == "" {
		return "", 0
	}

	bestKey := ""
	bestScore := 0
	for _, key := range sortedKeys(table) {
		normKey := normalizeName(key)
		if normKey == "" {
			continue
		}
		score := fuzzy.TokenSetRatio(normTitle, normKey)
		if score > bestScore {
			bestScore = score
			bestKey = key
		}
	}

	if bestScore < m.EventConfidence {
		return "", bestScore
	}
	return bestKey, bestScore
}

// lookupOutcome resolves an outcome label within one reference event.
// A draw request goes straight to the "draw" key; team outcomes accept
// substring containment instantly and fall back to fuzzy scoring.
func (m Matcher) lookupOutcome(outcome string, probs map[string]float64) (float64, bool) {
	if strings.Contains(strings.ToLower(outcome), "draw") {
		prob, ok := probs["draw"]
		return prob, ok
	}

	normOutcome := normalizeName(outcome)
	if normOutcome == "" {
		return 0, false
	}

	keys := make([]string, 0, len(probs))
	for k := range probs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Containment wins outright: "will liverpool win" contains "liverpool".
	for _, key := range keys {
		normKey := normalizeName(key)
		if normKey == "" {
			continue
		}
		if strings.Contains(normOutcome, normKey) || strings.Contains(normKey, normOutcome) {
			return probs[key], true
		}
	}

	bestKey := ""
	bestScore := 0
	for _, key := range keys {
		normKey := normalizeName(key)
		if normKey == "" {
			continue
		}
		score := fuzzy.TokenSetRatio(normOutcome, normKey)
		if score > bestScore {
			bestScore = score
			bestKey = key
		}
	}
	if bestKey == "" || bestScore < m.OutcomeConfidence {
		return 0, false
	}
	return probs[bestKey], true
}

// normalizeName lowercases, strips punctuation and drops fluff tokens so
// "Manchester United FC" and "manchester utd" compare equal.
func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	kept := make([]string, 0, 4)
	for _, tok := range strings.Fields(b.String()) {
		if _, fluff := fluffTokens[tok]; fluff {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func sortedKeys(table types.ReferenceOddsTable) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
