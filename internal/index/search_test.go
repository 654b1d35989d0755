package index

import (
	"math"
	"reflect"
	"testing"
)

func buildTestIndex(t *testing.T, stopwords Stopwords, docs ...Document) Index {
	t.Helper()
	idx, err := Build(Prepare(docs), stopwords)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}

func TestSearchTitleOutweighsBody(t *testing.T) {
	idx := buildTestIndex(t, nil,
		BasicDocument{DocTitle: "cooking tips", DocURL: "https://body", DocBody: strPtr("rust rust rust everywhere")},
		BasicDocument{DocTitle: "rust patterns", DocURL: "https://title", DocBody: strPtr("cooking")},
	)

	results := Search(idx, "rust", 10, nil)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	// Title match scores 3+1 (title tokens also live in the filter),
	// body-only match scores 1.
	if results[0].URL != "https://title" {
		t.Fatalf("title match should rank first, got %q", results[0].URL)
	}
}

func TestSearchMultiTermScoring(t *testing.T) {
	idx := buildTestIndex(t, nil,
		BasicDocument{DocTitle: "alpha beta", DocURL: "https://both"},
		BasicDocument{DocTitle: "alpha", DocURL: "https://one"},
		BasicDocument{DocTitle: "unrelated", DocURL: "https://none"},
	)

	results := Search(idx, "alpha beta", 10, nil)
	if len(results) < 2 {
		t.Fatalf("got %d results, want at least 2", len(results))
	}
	if results[0].URL != "https://both" || results[1].URL != "https://one" {
		t.Fatalf("unexpected ranking: %v", results)
	}
}

func TestSearchZeroScoresExcluded(t *testing.T) {
	stopwords := NewStopwords("the", "and")
	idx := buildTestIndex(t, stopwords,
		BasicDocument{DocTitle: "the and", DocURL: "https://empty"},
	)

	// The only document has an empty filter, so any query scores zero.
	if results := Search(idx, "submarine", 10, stopwords); results != nil {
		t.Fatalf("non-matching query returned %v", results)
	}
}

func TestSearchEmptyAndStopwordQueries(t *testing.T) {
	idx := buildTestIndex(t, NewStopwords("the"),
		BasicDocument{DocTitle: "anything", DocURL: "https://any"},
	)

	if results := Search(idx, "", 10, NewStopwords("the")); results != nil {
		t.Fatalf("empty query returned %v", results)
	}
	if results := Search(idx, "the THE the", 10, NewStopwords("the")); results != nil {
		t.Fatalf("stopword-only query returned %v", results)
	}
}

func TestSearchTruncatesResults(t *testing.T) {
	docs := []Document{
		BasicDocument{DocTitle: "go one", DocURL: "https://1"},
		BasicDocument{DocTitle: "go two", DocURL: "https://2"},
		BasicDocument{DocTitle: "go three", DocURL: "https://3"},
		BasicDocument{DocTitle: "go four", DocURL: "https://4"},
	}
	idx := buildTestIndex(t, nil, docs...)

	results := Search(idx, "go", 2, nil)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results := Search(idx, "go", 0, nil); results != nil {
		t.Fatalf("numResults=0 returned %v", results)
	}
	if results := Search(idx, "go", -1, nil); results != nil {
		t.Fatalf("negative numResults returned %v", results)
	}
}

func TestSearchStableTieOrder(t *testing.T) {
	docs := []Document{
		BasicDocument{DocTitle: "tie breaker", DocURL: "https://a"},
		BasicDocument{DocTitle: "tie breaker", DocURL: "https://b"},
		BasicDocument{DocTitle: "tie breaker", DocURL: "https://c"},
	}
	idx := buildTestIndex(t, nil, docs...)

	want := []string{"https://a", "https://b", "https://c"}
	for i := 0; i < 5; i++ {
		results := Search(idx, "tie", 10, nil)
		got := make([]string, len(results))
		for j, id := range results {
			got[j] = id.URL
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("tied results reordered: %v, want %v", got, want)
		}
	}
}

func TestSearchRanksRelevantDocumentFirst(t *testing.T) {
	idx := buildTestIndex(t, nil,
		BasicDocument{DocTitle: "Rust Guide", DocURL: "https://rust", DocBody: strPtr("Learn Rust programming")},
		BasicDocument{DocTitle: "Bluetooth Speaker", DocURL: "https://speaker", DocBody: strPtr("Portable waterproof speaker")},
	)

	results := Search(idx, "rust programming", 10, nil)
	if len(results) == 0 || results[0].URL != "https://rust" {
		t.Fatalf("results = %v, want rust guide first", results)
	}
}

func TestSearchTitleTermIncreasesScore(t *testing.T) {
	// With a second matching title term the document must outrank a rival
	// that only matches the first term.
	idx := buildTestIndex(t, nil,
		BasicDocument{DocTitle: "alpha only", DocURL: "https://alpha"},
		BasicDocument{DocTitle: "alpha beta", DocURL: "https://alphabeta"},
	)

	narrow := Search(idx, "alpha", 10, nil)
	if len(narrow) != 2 {
		t.Fatalf("single-term query returned %v", narrow)
	}
	if narrow[0].URL != "https://alpha" {
		t.Fatalf("equal scores must keep index order, got %v", narrow)
	}

	wide := Search(idx, "alpha beta", 10, nil)
	if wide[0].URL != "https://alphabeta" {
		t.Fatalf("extra title match must raise the score, got %v", wide)
	}
}

func TestSearchQueryNormalization(t *testing.T) {
	idx := buildTestIndex(t, nil,
		BasicDocument{DocTitle: "Don't Panic", DocURL: "https://hhgttg"},
	)

	for _, query := range []string{"don't", "DON'T", "  don't!!  "} {
		results := Search(idx, query, 10, nil)
		if len(results) != 1 || results[0].URL != "https://hhgttg" {
			t.Fatalf("query %q returned %v", query, results)
		}
	}
}

func TestSaturatingArithmetic(t *testing.T) {
	if got := saturatingAdd(math.MaxInt, 1); got != math.MaxInt {
		t.Fatalf("saturatingAdd overflowed to %d", got)
	}
	if got := saturatingMul(math.MaxInt/2+1, 2); got != math.MaxInt {
		t.Fatalf("saturatingMul overflowed to %d", got)
	}
	if got := saturatingMul(0, math.MaxInt); got != 0 {
		t.Fatalf("saturatingMul(0, x) = %d", got)
	}
	if got := saturatingAdd(2, 3); got != 5 {
		t.Fatalf("saturatingAdd(2,3) = %d", got)
	}
}
