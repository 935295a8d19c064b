package codes

import (
	"path/filepath"
	"testing"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	icd := writeTable(t, "icd.csv",
		"fever unspecified,R50.9\n"+
			"feverfew allergy,Z91.0\n"+
			"fracture of femur,S72\n"+
			"headache,R51\n")
	cpt := writeTable(t, "cpt.csv",
		"\"99213, office outpatient visit with examination\"\n"+
			"\"85025, complete blood count blood test\"\n"+
			"\"76700, abdominal ultrasound\"\n")
	return Load(icd, cpt)
}

func TestMatch_RanksClosestDescriptionFirst(t *testing.T) {
	t.Parallel()

	idx := testIndex(t)

	icd, _ := idx.Match("fever", 1)
	if len(icd) != 1 {
		t.Fatalf("got %d diagnosis matches, want 1", len(icd))
	}
	if icd[0].Description != "fever unspecified" {
		t.Errorf("top match = %q, want %q", icd[0].Description, "fever unspecified")
	}
	if icd[0].Code != "R50.9" {
		t.Errorf("top match code = %q, want R50.9", icd[0].Code)
	}
}

func TestMatch_ConfidenceRange(t *testing.T) {
	t.Parallel()

	idx := testIndex(t)

	icd, cpt := idx.Match("blood test", 4)
	for _, m := range append(icd, cpt...) {
		if m.Confidence < 0 || m.Confidence > 100 {
			t.Errorf("confidence %d out of [0,100] for %q", m.Confidence, m.Description)
		}
	}
}

func TestMatch_TopNCapsPerTable(t *testing.T) {
	t.Parallel()

	idx := testIndex(t)

	icd, cpt := idx.Match("fever", 2)
	if len(icd) != 2 {
		t.Errorf("got %d diagnosis matches, want 2", len(icd))
	}
	if len(cpt) != 2 {
		t.Errorf("got %d procedure matches, want 2", len(cpt))
	}

	// topN larger than the table returns the whole table, best first.
	icd, _ = idx.Match("fever", 50)
	if len(icd) != 4 {
		t.Errorf("got %d diagnosis matches, want all 4", len(icd))
	}
	for i := 1; i < len(icd); i++ {
		if icd[i].Confidence > icd[i-1].Confidence {
			t.Errorf("matches not in descending confidence at %d: %d > %d",
				i, icd[i].Confidence, icd[i-1].Confidence)
		}
	}
}

func TestMatch_ProcedureCodeSplit(t *testing.T) {
	t.Parallel()

	idx := testIndex(t)

	_, cpt := idx.Match("blood test", 1)
	if len(cpt) != 1 {
		t.Fatalf("got %d procedure matches, want 1", len(cpt))
	}
	if cpt[0].Code != "85025" {
		t.Errorf("procedure code = %q, want 85025", cpt[0].Code)
	}
	if cpt[0].Description != "85025, complete blood count blood test" {
		t.Errorf("procedure description = %q, want the full row", cpt[0].Description)
	}
}

func TestMatch_TieBreakIsTableOrder(t *testing.T) {
	t.Parallel()

	// Both rows score equally against the query; the earlier row wins.
	icd := writeTable(t, "icd.csv",
		"acute sinusitis,J01.90\n"+
			"acute sinusitis second,J01.91\n")
	idx := Load(icd, filepath.Join(t.TempDir(), "missing.csv"))

	matches, _ := idx.Match("acute sinusitis", 2)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Code != "J01.90" {
		t.Errorf("tie-break picked %q first, want the earlier table row J01.90", matches[0].Code)
	}
}

func TestMatch_CodelessDiagnosisRowNotEmitted(t *testing.T) {
	t.Parallel()

	// A one-column diagnosis row has a description but nothing to bill
	// against. It still ranks (and consumes its top-N slot) but must never
	// surface as a match with an empty code.
	icd := writeTable(t, "icd.csv",
		"mystery ailment\n"+
			"fever unspecified,R50.9\n")
	idx := Load(icd, filepath.Join(t.TempDir(), "missing.csv"))

	matches, _ := idx.Match("mystery ailment", 1)
	if len(matches) != 0 {
		t.Fatalf("codeless row emitted: %v", matches)
	}

	matches, _ = idx.Match("mystery ailment", 2)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1 (codeless row skipped)", len(matches))
	}
	if matches[0].Code != "R50.9" {
		t.Errorf("surviving match code = %q, want R50.9", matches[0].Code)
	}
	for _, m := range matches {
		if m.Code == "" {
			t.Errorf("match with empty code leaked: %+v", m)
		}
	}
}

func TestMatch_EmptyTermAndBadTopN(t *testing.T) {
	t.Parallel()

	idx := testIndex(t)

	if icd, cpt := idx.Match("   ", 3); len(icd) != 0 || len(cpt) != 0 {
		t.Error("blank term should yield no matches")
	}
	if icd, cpt := idx.Match("fever", 0); len(icd) != 0 || len(cpt) != 0 {
		t.Error("topN=0 should yield no matches")
	}
}
