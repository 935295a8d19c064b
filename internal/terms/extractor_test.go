package terms

import (
	"testing"

	"github.com/medcodeai/speech-to-code/internal/types"
)

func TestExtract_OverlappingTermsAllMatch(t *testing.T) {
	t.Parallel()

	text := "I have a stomach ache and a headache"
	found := Extract(text)

	want := map[string]bool{"stomach ache": false, "ache": false, "headache": false}
	for _, term := range found {
		if _, ok := want[term.Term]; ok {
			want[term.Term] = true
			if term.Category != types.CategorySymptom {
				t.Errorf("term %q: category = %q, want %q", term.Term, term.Category, types.CategorySymptom)
			}
			if term.Context != text {
				t.Errorf("term %q: context = %q, want original text", term.Term, term.Context)
			}
		}
	}
	for term, seen := range want {
		if !seen {
			t.Errorf("expected term %q not extracted", term)
		}
	}
}

func TestExtract_CaseInsensitive(t *testing.T) {
	t.Parallel()

	found := Extract("Patient reports FEVER and needs a Blood Test")

	var haveFever, haveBloodTest bool
	for _, term := range found {
		switch term.Term {
		case "fever":
			haveFever = true
		case "blood test":
			haveBloodTest = true
			if term.Category != types.CategoryProcedure {
				t.Errorf("blood test category = %q, want %q", term.Category, types.CategoryProcedure)
			}
		}
	}
	if !haveFever || !haveBloodTest {
		t.Errorf("missing terms: fever=%v, blood test=%v", haveFever, haveBloodTest)
	}
}

func TestExtract_DeterministicOrder(t *testing.T) {
	t.Parallel()

	// Symptoms come before diseases, diseases before procedures, and
	// within a category the vocabulary declaration order holds.
	found := Extract("the flu caused a fever, we ran a blood test and an x-ray")

	var names []string
	for _, term := range found {
		names = append(names, term.Term)
	}

	want := []string{"fever", "flu", "blood test", "x-ray"}
	if len(names) != len(want) {
		t.Fatalf("Extract returned %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Extract order = %v, want %v", names, want)
		}
	}
}

func TestExtract_NoTerms(t *testing.T) {
	t.Parallel()

	if found := Extract("the weather is lovely today"); len(found) != 0 {
		t.Errorf("expected no terms, got %v", found)
	}
	if found := Extract(""); len(found) != 0 {
		t.Errorf("expected no terms for empty text, got %v", found)
	}
}

func TestExtract_RepeatedTermEmitsOnce(t *testing.T) {
	t.Parallel()

	// The scan is per vocabulary entry, not per occurrence: a term that
	// appears twice in the text still yields one hit.
	found := Extract("fever in the morning, fever at night")

	var count int
	for _, term := range found {
		if term.Term == "fever" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("fever extracted %d times, want 1", count)
	}
}
