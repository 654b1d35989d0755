package index

import (
	"strings"
	"unicode"
)

// TokenSet is a normalized set of tokens. Order carries no meaning.
type TokenSet map[string]struct{}

// Stopwords is an immutable set of lowercase words excluded from indexing.
type Stopwords map[string]struct{}

// NewStopwords builds a stopword set from individual words. Words are
// trimmed and lowercased; empty entries are dropped.
func NewStopwords(words ...string) Stopwords {
	set := make(Stopwords, len(words))
	for _, word := range words {
		normalized := strings.ToLower(strings.TrimSpace(word))
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

// ParseStopwords reads a flat whitespace-separated word list, the format the
// default list ships in.
func ParseStopwords(raw string) Stopwords {
	return NewStopwords(strings.Fields(raw)...)
}

// Contains reports whether word is a stopword. Lookup is case-insensitive.
func (s Stopwords) Contains(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// Tokenize normalizes text into a token set: every rune that is not a
// Unicode letter and not an apostrophe becomes a separator (keeping
// contractions like "don't" whole), tokens are lowercased, and stopwords are
// dropped. Empty input yields an empty set; tokenization never fails.
func Tokenize(text string, stopwords Stopwords) TokenSet {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || r == '\'' {
			return r
		}
		return ' '
	}, text)

	tokens := make(TokenSet)
	for _, word := range strings.Fields(cleaned) {
		word = strings.ToLower(word)
		if stopwords.Contains(word) {
			continue
		}
		tokens[word] = struct{}{}
	}
	return tokens
}

// Union folds other into ts and returns ts.
func (ts TokenSet) Union(other TokenSet) TokenSet {
	for token := range other {
		ts[token] = struct{}{}
	}
	return ts
}

// Slice returns the tokens in unspecified order.
func (ts TokenSet) Slice() []string {
	out := make([]string, 0, len(ts))
	for token := range ts {
		out = append(out, token)
	}
	return out
}
