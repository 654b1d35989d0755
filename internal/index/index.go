package index

// DocumentFilter pairs one document identity with the membership filter
// built over that document's token set.
type DocumentFilter struct {
	ID     DocumentID
	Filter *Filter
}

// Index is the ordered collection of document filters that constitutes the
// searchable artifact. Entry order is incidental to construction but is
// preserved exactly across a serialize/deserialize round trip. Entries with
// identical identities are never merged.
type Index []DocumentFilter

// Build constructs one filter per prepared document. The filter for a
// document is seeded with the union of its tokenized title, metadata, and
// body. The first construction failure aborts the whole build; no partial
// index is returned.
func Build(prepared []PreparedDocument, stopwords Stopwords) (Index, error) {
	idx := make(Index, 0, len(prepared))
	for _, doc := range prepared {
		content := Tokenize(doc.ID.Title, stopwords)
		if doc.ID.Meta != "" {
			content.Union(Tokenize(doc.ID.Meta, stopwords))
		}
		if doc.Body != nil {
			content.Union(Tokenize(*doc.Body, stopwords))
		}

		filter, err := BuildFilter(content)
		if err != nil {
			return nil, &FilterError{ID: doc.ID, Err: err}
		}
		idx = append(idx, DocumentFilter{ID: doc.ID, Filter: filter})
	}
	return idx, nil
}
