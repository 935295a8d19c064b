package codes

import (
	"testing"

	"github.com/medcodeai/speech-to-code/internal/types"
)

func TestAggregate_ThresholdAndOrder(t *testing.T) {
	t.Parallel()

	matches := []types.CodeMatch{
		{Code: "A", Confidence: 72},
		{Code: "B", Confidence: 95},
		{Code: "C", Confidence: 69},
		{Code: "D", Confidence: 70},
		{Code: "E", Confidence: 88},
	}

	got := Aggregate(matches, 70)

	if len(got) != 4 {
		t.Fatalf("kept %d matches, want 4", len(got))
	}
	for i, m := range got {
		if m.Confidence < 70 {
			t.Errorf("entry %d below threshold: %d", i, m.Confidence)
		}
		if i > 0 && m.Confidence > got[i-1].Confidence {
			t.Errorf("confidence increases at %d: %d after %d", i, m.Confidence, got[i-1].Confidence)
		}
	}
	if got[0].Code != "B" || got[3].Code != "D" {
		t.Errorf("order = %v", got)
	}
}

func TestAggregate_StableForEqualConfidence(t *testing.T) {
	t.Parallel()

	matches := []types.CodeMatch{
		{Code: "first", Confidence: 80},
		{Code: "second", Confidence: 80},
		{Code: "third", Confidence: 80},
	}

	got := Aggregate(matches, 0)
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if got[i].Code != w {
			t.Fatalf("equal-confidence order changed: %v", got)
		}
	}
}

func TestAggregate_DuplicateCodesKept(t *testing.T) {
	t.Parallel()

	// The same code reached from two source terms is two entries.
	matches := []types.CodeMatch{
		{Code: "R50.9", SourceTerm: "fever", Confidence: 90},
		{Code: "R50.9", SourceTerm: "sick", Confidence: 75},
	}

	got := Aggregate(matches, 70)
	if len(got) != 2 {
		t.Fatalf("kept %d entries, want duplicates preserved (2)", len(got))
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	t.Parallel()

	got := Aggregate(nil, 70)
	if got == nil {
		t.Fatal("Aggregate must return an empty list, not nil")
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}
