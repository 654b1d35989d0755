package index

import (
	"fmt"
	"sort"

	"github.com/FastFilter/xorfilter"
	"github.com/cespare/xxhash/v2"
)

// Filter is an approximate membership filter over one document's token set.
// It answers "does this document probably contain this token?" with no false
// negatives and a false-positive rate of roughly 1/256 (8-bit fingerprints).
// Filters are immutable after construction.
type Filter struct {
	xor       *xorfilter.Xor8
	numTokens uint32
}

// FilterError reports that a filter could not be constructed for a document.
type FilterError struct {
	ID  DocumentID
	Err error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("build filter for %q (%s): %v", e.ID.Title, e.ID.URL, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

// BuildFilter constructs a filter seeded with exactly the given tokens. An
// empty token set yields a valid filter that contains nothing.
func BuildFilter(tokens TokenSet) (*Filter, error) {
	if len(tokens) == 0 {
		return &Filter{}, nil
	}

	keys := make([]uint64, 0, len(tokens))
	seen := make(map[uint64]struct{}, len(tokens))
	for token := range tokens {
		key := xxhash.Sum64String(token)
		// Distinct tokens may collide on the 64-bit key; the xor filter
		// construction requires unique keys.
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	xor, err := xorfilter.Populate(keys)
	if err != nil {
		return nil, fmt.Errorf("populate xor filter with %d keys: %w", len(keys), err)
	}
	return &Filter{xor: xor, numTokens: uint32(len(keys))}, nil
}

// Contains reports whether the token was probably inserted. Tokens that were
// inserted always report true; others report true with small probability.
func (f *Filter) Contains(token string) bool {
	if f.xor == nil || f.numTokens == 0 {
		return false
	}
	return f.xor.Contains(xxhash.Sum64String(token))
}

// Score counts how many of the given terms the filter reports as members.
func (f *Filter) Score(terms []string) int {
	score := 0
	for _, term := range terms {
		if f.Contains(term) {
			score++
		}
	}
	return score
}

// NumTokens returns the number of distinct keys the filter was built from.
func (f *Filter) NumTokens() int {
	return int(f.numTokens)
}

// FilterState is the serializable internal state of a Filter. The storage
// codec writes and reads this representation; it is sufficient for exact
// reconstruction.
type FilterState struct {
	Seed         uint64
	BlockLength  uint32
	NumTokens    uint32
	Fingerprints []uint8
}

// State exports the filter's internal state for serialization.
func (f *Filter) State() FilterState {
	if f.xor == nil {
		return FilterState{}
	}
	return FilterState{
		Seed:         f.xor.Seed,
		BlockLength:  f.xor.BlockLength,
		NumTokens:    f.numTokens,
		Fingerprints: f.xor.Fingerprints,
	}
}

// FilterFromState reconstructs a filter from its serialized state. The
// returned filter shares no state with the encoder's instance.
func FilterFromState(st FilterState) *Filter {
	if st.NumTokens == 0 && len(st.Fingerprints) == 0 {
		return &Filter{}
	}
	fingerprints := make([]uint8, len(st.Fingerprints))
	copy(fingerprints, st.Fingerprints)
	return &Filter{
		xor: &xorfilter.Xor8{
			Seed:         st.Seed,
			BlockLength:  st.BlockLength,
			Fingerprints: fingerprints,
		},
		numTokens: st.NumTokens,
	}
}
