// Package index builds compact, serializable search indexes for static
// content and runs ranked keyword lookups against them. One approximate
// membership filter is built per document; the resulting index is small
// enough to ship to a browser and is searched entirely client-side.
package index

// Engine is the composition root for building and querying indexes. The
// stopword set is fixed at construction; an Engine is safe for concurrent
// reads because nothing it holds is mutated after construction.
type Engine struct {
	stopwords Stopwords
}

// NewEngine returns an engine using the built-in English stopword list.
func NewEngine() *Engine {
	return &Engine{stopwords: DefaultStopwords()}
}

// WithStopwords replaces the default stopword list. It returns the engine
// for chaining.
func (e *Engine) WithStopwords(words ...string) *Engine {
	e.stopwords = NewStopwords(words...)
	return e
}

// Stopwords returns the engine's stopword set.
func (e *Engine) Stopwords() Stopwords {
	return e.stopwords
}

// BuildIndex prepares the documents and constructs one filter per document.
func (e *Engine) BuildIndex(docs []Document) (Index, error) {
	return Build(Prepare(docs), e.stopwords)
}

// Search runs a ranked query against a previously built or decoded index.
func (e *Engine) Search(idx Index, query string, numResults int) []DocumentID {
	return Search(idx, query, numResults, e.stopwords)
}
