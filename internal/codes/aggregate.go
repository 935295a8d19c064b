package codes

import (
	"sort"

	"github.com/medcodeai/speech-to-code/internal/types"
)

// Aggregate filters accumulated matches to those at or above threshold
// and orders them best first. The sort is stable, so equal-confidence
// entries keep their accumulation order (term extraction order, then
// per-term match order). Identical codes reached through different source
// terms are deliberately kept as separate entries; each one is distinct
// evidence. Consumers that only want a top slice cap the list themselves.
func Aggregate(matches []types.CodeMatch, threshold int) []types.CodeMatch {
	kept := make([]types.CodeMatch, 0, len(matches))
	for _, m := range matches {
		if m.Confidence >= threshold {
			kept = append(kept, m)
		}
	}
	sort.SliceStable(kept, func(a, b int) bool {
		return kept[a].Confidence > kept[b].Confidence
	})
	return kept
}
