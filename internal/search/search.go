// Package search implements the matching rules of the backend's free-text
// search so that committed searches can be checked locally.
//
// A document matches when it contains at least one inclusion token (or the
// inclusion is empty) and none of the exclusion tokens. Every string is split
// on whitespace, so punctuation stays part of its token. Case-insensitive
// searches compare Unicode case folds.
package search

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/querychain/internal/state"
)

// Tokenize splits s on whitespace.
func Tokenize(s string) []string {
	return strings.Fields(s)
}

// Match reports whether document satisfies s. An empty search matches
// every document.
func Match(document string, s state.Search) bool {
	fold := s.Case != state.CaseSensitive
	words := tokenSet(document, fold)

	for _, tok := range normalize(Tokenize(s.Exclusion), fold) {
		if words[tok] {
			return false
		}
	}

	include := normalize(Tokenize(s.Inclusion), fold)
	if len(include) == 0 {
		return true
	}
	for _, tok := range include {
		if words[tok] {
			return true
		}
	}
	return false
}

// Filter returns the documents that match s, keeping their order.
func Filter(documents []string, s state.Search) []string {
	var out []string
	for _, doc := range documents {
		if Match(doc, s) {
			out = append(out, doc)
		}
	}
	return out
}

func tokenSet(document string, fold bool) map[string]bool {
	toks := normalize(Tokenize(document), fold)
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		set[t] = true
	}
	return set
}

func normalize(toks []string, fold bool) []string {
	if !fold {
		return toks
	}
	caser := cases.Fold()
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = caser.String(t)
	}
	return out
}
