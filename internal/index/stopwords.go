package index

import (
	_ "embed"
	"sync"
)

//go:embed stopwords.txt
var defaultStopwordList string

var defaultStopwordsOnce = sync.OnceValue(func() Stopwords {
	return ParseStopwords(defaultStopwordList)
})

// DefaultStopwords returns the built-in English stopword list. The set is
// parsed once and shared; callers must not mutate it.
func DefaultStopwords() Stopwords {
	return defaultStopwordsOnce()
}
