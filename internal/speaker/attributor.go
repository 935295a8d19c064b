// Package speaker assigns speaker labels to transcript segments, either
// from a diarization track or from a configured fallback policy when no
// diarization is available.
package speaker

import (
	"fmt"

	"github.com/medcodeai/speech-to-code/internal/types"
)

// UnknownSpeaker is returned when a diarization track exists but none of
// its turns overlap the segment. It is a sentinel, not an error.
const UnknownSpeaker = "Unknown Speaker"

// fixedFallbackLabel is the single label every segment collapses to under
// the fixed policy.
const fixedFallbackLabel = "SPEAKER_00"

// FallbackPolicy selects how segments are labeled without diarization.
type FallbackPolicy string

const (
	// FallbackFixed assigns every segment the same label.
	FallbackFixed FallbackPolicy = "fixed"
	// FallbackAlternating alternates doctor/patient strictly by segment
	// order, ignoring timing.
	FallbackAlternating FallbackPolicy = "alternating"
)

// ParsePolicy validates a configured policy string.
func ParsePolicy(s string) (FallbackPolicy, error) {
	switch FallbackPolicy(s) {
	case FallbackFixed, FallbackAlternating:
		return FallbackPolicy(s), nil
	case "":
		return FallbackFixed, nil
	default:
		return "", fmt.Errorf("unknown fallback policy %q", s)
	}
}

// Attributor labels the segments of one conversation. It carries the
// alternating-fallback turn counter, so use a fresh Attributor per
// conversation; instances are not safe for concurrent use.
type Attributor struct {
	policy FallbackPolicy
	turn   int
}

// New returns an Attributor using the given fallback policy.
func New(policy FallbackPolicy) *Attributor {
	return &Attributor{policy: policy}
}

// Attribute resolves the speaker label for the segment spanning
// [start, end). With a track present, turns are scanned in stored order
// and the first one strictly overlapping the segment wins — first match,
// not best overlap, which is what keeps attribution stable on
// overlapping-turn audio. No overlap yields UnknownSpeaker.
//
// Without a track the fallback policy applies, so a label is always
// returned.
func (a *Attributor) Attribute(start, end float64, track types.DiarizationTrack) string {
	if len(track) == 0 {
		return a.fallback()
	}
	for _, t := range track {
		if max(start, t.Start) < min(end, t.End) {
			return t.Speaker
		}
	}
	return UnknownSpeaker
}

// Label attributes every segment in order and returns the labeled copy.
func (a *Attributor) Label(segments []types.Segment, track types.DiarizationTrack) []types.Segment {
	labeled := make([]types.Segment, len(segments))
	for i, seg := range segments {
		seg.Speaker = a.Attribute(seg.Start, seg.End, track)
		labeled[i] = seg
	}
	return labeled
}

func (a *Attributor) fallback() string {
	if a.policy == FallbackAlternating {
		label := "doctor"
		if a.turn%2 == 1 {
			label = "patient"
		}
		a.turn++
		return label
	}
	return fixedFallbackLabel
}
