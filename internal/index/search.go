package index

import (
	"math"
	"sort"
)

// titleWeight biases title matches above body matches when scoring.
const titleWeight = 3

// Search tokenizes the query with the same rules used at build time, scores
// every document, drops zero scores, and returns at most numResults
// identities ordered by descending score. Documents with equal scores keep
// their relative index order.
func Search(idx Index, query string, numResults int, stopwords Stopwords) []DocumentID {
	if numResults <= 0 {
		return nil
	}

	terms := Tokenize(query, stopwords).Slice()
	if len(terms) == 0 {
		return nil
	}

	type scored struct {
		id    DocumentID
		score int
	}

	matches := make([]scored, 0, len(idx))
	for _, entry := range idx {
		titleTokens := Tokenize(entry.ID.Title, stopwords)
		titleScore := 0
		for _, term := range terms {
			if _, ok := titleTokens[term]; ok {
				titleScore++
			}
		}
		bodyScore := entry.Filter.Score(terms)

		total := saturatingAdd(saturatingMul(titleWeight, titleScore), bodyScore)
		if total == 0 {
			continue
		}
		matches = append(matches, scored{id: entry.ID, score: total})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if len(matches) > numResults {
		matches = matches[:numResults]
	}
	results := make([]DocumentID, len(matches))
	for i, m := range matches {
		results[i] = m.id
	}
	return results
}

func saturatingAdd(a, b int) int {
	sum := a + b
	if sum < a {
		return math.MaxInt
	}
	return sum
}

func saturatingMul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	product := a * b
	if product/a != b {
		return math.MaxInt
	}
	return product
}
