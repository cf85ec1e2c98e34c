// internal/engine/rules/matcher.go
package rules

import "strings"

// MatchResult is either a hit (Matched=true with the winning intent and its
// canned reply) or a miss. A pure function of (catalog, normalized text).
type MatchResult struct {
	Matched bool
	Intent  string
	Reply   string
	Keyword string
}

// NoMatch is the zero result.
var NoMatch = MatchResult{}

// Match applies the catalog to normalized text. First-match-wins: intents
// are walked in (priority desc, definition order asc) order and the first
// intent with any whole-word keyword hit ends the scan. Which canned reply
// a user sees depends on this ordering, so it is a contract, not an
// implementation detail.
func Match(normalized string, catalog *Catalog) MatchResult {
	if strings.TrimSpace(normalized) == "" {
		return NoMatch
	}

	// Pad once so every keyword probe is a plain substring check against
	// space-delimited tokens. Normalization already removed punctuation,
	// so whole words are exactly the space-separated tokens.
	padded := " " + normalized + " "

	for i, intent := range catalog.intents {
		for _, kw := range catalog.keywords[i] {
			if strings.Contains(padded, " "+kw+" ") {
				return MatchResult{
					Matched: true,
					Intent:  intent.Name,
					Reply:   intent.ResponseTemplate,
					Keyword: kw,
				}
			}
		}
	}

	return NoMatch
}
