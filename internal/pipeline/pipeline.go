// Package pipeline runs the conversation-to-codes chain: speaker
// attribution, clinical term extraction, fuzzy code matching and
// threshold-based ranking.
package pipeline

import (
	"log"
	"strings"

	"github.com/medcodeai/speech-to-code/internal/codes"
	"github.com/medcodeai/speech-to-code/internal/speaker"
	"github.com/medcodeai/speech-to-code/internal/terms"
	"github.com/medcodeai/speech-to-code/internal/types"
)

// Config carries the per-process coding parameters.
type Config struct {
	// ConfidenceThreshold is the minimum 0-100 score a match needs to
	// appear in the final lists. Lower-scoring matches are still computed,
	// just filtered at aggregation.
	ConfidenceThreshold int
	// TopN is the number of candidates kept per term per reference table.
	TopN int
	// FallbackPolicy labels segments when no diarization track is given.
	FallbackPolicy speaker.FallbackPolicy
}

// Coder processes conversations against a loaded reference index. Safe
// for concurrent use: every call owns its own segment, term and match
// collections, and the index is read-only.
type Coder struct {
	index *codes.Index
	cfg   Config
}

// New returns a Coder over the given reference index.
func New(index *codes.Index, cfg Config) *Coder {
	if cfg.TopN <= 0 {
		cfg.TopN = 3
	}
	return &Coder{index: index, cfg: cfg}
}

// Process runs the full coding chain for one conversation.
//
// segments are the raw transcription chunks; fullText is the transcriber's
// whole-conversation text (joined from the segments when empty); track is
// the diarization result, nil when unavailable. Process never fails: empty
// input yields empty ranked lists, and a term with no surviving matches is
// simply skipped.
func (c *Coder) Process(segments []types.Segment, fullText string, track types.DiarizationTrack) *types.CodingResult {
	attr := speaker.New(c.cfg.FallbackPolicy)
	labeled := attr.Label(segments, track)

	if fullText == "" {
		parts := make([]string, len(segments))
		for i, seg := range segments {
			parts[i] = seg.Text
		}
		fullText = strings.TrimSpace(strings.Join(parts, " "))
	}

	found := terms.Extract(fullText)

	var rawICD, rawCPT []types.CodeMatch
	for _, term := range found {
		icd, cpt := c.index.Match(term.Term, c.cfg.TopN)
		rawICD = append(rawICD, stamp(icd, term)...)
		rawCPT = append(rawCPT, stamp(cpt, term)...)
	}

	res := &types.CodingResult{
		Segments: labeled,
		FullText: fullText,
		Terms:    found,
		ICDCodes: codes.Aggregate(rawICD, c.cfg.ConfidenceThreshold),
		CPTCodes: codes.Aggregate(rawCPT, c.cfg.ConfidenceThreshold),
	}

	log.Printf("Coded conversation: %d segments, %d terms, %d ICD / %d CPT candidates kept",
		len(labeled), len(found), len(res.ICDCodes), len(res.CPTCodes))
	return res
}

// stamp attaches the provenance of the source term to its matches.
func stamp(matches []types.CodeMatch, term types.ClinicalTerm) []types.CodeMatch {
	for i := range matches {
		matches[i].SourceTerm = term.Term
		matches[i].Category = term.Category
	}
	return matches
}
