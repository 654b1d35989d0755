package index

import (
	"errors"
	"testing"
)

func TestBuildIndexesTitleMetaAndBody(t *testing.T) {
	docs := []Document{
		BasicDocument{
			DocTitle: "Zebra Crossing",
			DocURL:   "https://example.com/zebra",
			DocBody:  strPtr("stripes and savanna"),
			DocMeta:  map[string]string{"category": "wildlife"},
		},
	}

	idx, err := Build(Prepare(docs), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(idx) != 1 {
		t.Fatalf("got %d entries, want 1", len(idx))
	}

	entry := idx[0]
	for _, token := range []string{"zebra", "crossing", "stripes", "savanna", "wildlife", "category"} {
		if !entry.Filter.Contains(token) {
			t.Fatalf("filter missing token %q", token)
		}
	}
	if entry.ID.URL != "https://example.com/zebra" {
		t.Fatalf("unexpected identity: %+v", entry.ID)
	}
}

func TestBuildStopwordOnlyDocument(t *testing.T) {
	docs := []Document{
		BasicDocument{DocTitle: "The And Or", DocURL: "https://example.com/stop"},
	}

	idx, err := Build(Prepare(docs), NewStopwords("the", "and", "or"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(idx) != 1 {
		t.Fatalf("got %d entries, want 1 (empty documents keep their slot)", len(idx))
	}
	if idx[0].Filter.Contains("the") {
		t.Fatal("stopword leaked into the filter")
	}
	if idx[0].Filter.NumTokens() != 0 {
		t.Fatalf("NumTokens = %d, want 0", idx[0].Filter.NumTokens())
	}
}

func TestBuildPreservesInputOrder(t *testing.T) {
	docs := []Document{
		BasicDocument{DocTitle: "first", DocURL: "https://1"},
		BasicDocument{DocTitle: "second", DocURL: "https://2"},
		BasicDocument{DocTitle: "third", DocURL: "https://3"},
	}

	idx, err := Build(Prepare(docs), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i, want := range []string{"https://1", "https://2", "https://3"} {
		if idx[i].ID.URL != want {
			t.Fatalf("entry %d has URL %q, want %q", i, idx[i].ID.URL, want)
		}
	}
}

func TestBuildIgnoresDefaultStopwords(t *testing.T) {
	// "You don't need Kubernetes": with the default stopword list only the
	// content words should survive into the filter.
	docs := []Document{
		BasicDocument{
			DocTitle: "You don't need Kubernetes",
			DocURL:   "https://endler.dev/2019/maybe-you-dont-need-kubernetes",
			DocBody:  strPtr("You don't need Kubernetes"),
		},
	}

	idx, err := Build(Prepare(docs), DefaultStopwords())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	filter := idx[0].Filter
	if !filter.Contains("kubernetes") {
		t.Fatal("content word dropped from filter")
	}
	if filter.NumTokens() != 1 {
		t.Fatalf("NumTokens = %d, want 1 (stopwords removed, set semantics)", filter.NumTokens())
	}
}

func TestBuildFilterErrorCarriesIdentity(t *testing.T) {
	var filterErr *FilterError
	err := error(&FilterError{ID: DocumentID{Title: "T", URL: "https://t"}, Err: errors.New("boom")})
	if !errors.As(err, &filterErr) {
		t.Fatal("FilterError must be matchable with errors.As")
	}
	if filterErr.ID.Title != "T" {
		t.Fatalf("unexpected identity in error: %+v", filterErr.ID)
	}
	if filterErr.Unwrap() == nil {
		t.Fatal("FilterError must unwrap its cause")
	}
}
