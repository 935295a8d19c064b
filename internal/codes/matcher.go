package codes

import (
	"sort"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/medcodeai/speech-to-code/internal/types"
)

// Match scores term against every description in both reference tables
// and returns the topN best candidates per table, best first.
//
// The scorer is the weighted-ratio metric (token-set and partial-ratio
// composite, 0-100), so word reordering and partial containment both
// score high. Ties are broken by table load order: entries are scored in
// that order and ranked with a stable sort, so an equal-scoring entry that
// appears earlier in the CSV always wins. Callers fill in SourceTerm and
// Category; the matcher only knows the lexical side.
func (idx *Index) Match(term string, topN int) (icd, cpt []types.CodeMatch) {
	if topN <= 0 {
		return nil, nil
	}
	query := Normalize(term)
	if query == "" {
		return nil, nil
	}

	if idx.HasDiagnoses() {
		icd = rank(query, topN, len(idx.diagnoses), func(i int) entry { return idx.diagnoses[i] })
	}
	if idx.HasProcedures() {
		cpt = rank(query, topN, len(idx.procedures), func(i int) entry { return idx.procedures[i] })
	}
	return icd, cpt
}

// rank scores all n entries of one table and keeps the topN.
func rank(query string, topN, n int, at func(int) entry) []types.CodeMatch {
	type scored struct {
		pos   int
		score int
	}

	candidates := make([]scored, 0, n)
	for i := 0; i < n; i++ {
		candidates = append(candidates, scored{
			pos:   i,
			score: fuzzy.WRatio(query, at(i).Description()),
		})
	}

	// Stable keeps load order among equal scores.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	if topN < len(candidates) {
		candidates = candidates[:topN]
	}

	matches := make([]types.CodeMatch, 0, len(candidates))
	for _, c := range candidates {
		code, desc := at(c.pos).Resolve()
		// A description with no code resolves to nothing exportable. The
		// entry still occupied its top-N slot; it just isn't emitted.
		if code == "" {
			continue
		}
		matches = append(matches, types.CodeMatch{
			Code:        code,
			Description: desc,
			Confidence:  c.score,
		})
	}
	return matches
}
