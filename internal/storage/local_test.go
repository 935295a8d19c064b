package storage

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/medcodeai/speech-to-code/internal/types"
)

func sampleResult() *types.CodingResult {
	return &types.CodingResult{
		Segments: []types.Segment{
			{Start: 0, End: 3.5, Speaker: "doctor", Text: "How are you feeling?"},
			{Start: 3.5, End: 8.25, Speaker: "patient", Text: "I have a fever."},
		},
		FullText: "How are you feeling? I have a fever.",
		Terms: []types.ClinicalTerm{
			{Term: "fever", Category: types.CategorySymptom, Context: "I have a fever."},
		},
		ICDCodes: []types.CodeMatch{
			{Code: "R50.9", Description: "fever unspecified", Confidence: 90,
				SourceTerm: "fever", Category: types.CategorySymptom},
		},
		CPTCodes: []types.CodeMatch{
			{Code: "99213", Description: "99213, office outpatient visit", Confidence: 74,
				SourceTerm: "examination", Category: types.CategoryProcedure},
		},
	}
}

func TestFormatTranscript(t *testing.T) {
	t.Parallel()

	got := FormatTranscript(sampleResult().Segments)
	want := "[0.0s - 3.5s] (doctor): How are you feeling?\n" +
		"[3.5s - 8.2s] (patient): I have a fever."
	if got != want {
		t.Errorf("transcript =\n%q\nwant\n%q", got, want)
	}

	if FormatTranscript(nil) != "" {
		t.Error("empty segment list should render an empty transcript")
	}
}

func TestFormatCodesCSV(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	out := FormatCodesCSV(res.ICDCodes, res.CPTCodes)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}

	header := []string{"Type", "Code", "Description", "Confidence", "Source_Term", "Category"}
	for i, col := range header {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}

	if rows[1][0] != "ICD-10" || rows[1][1] != "R50.9" || rows[1][3] != "90" {
		t.Errorf("diagnosis row = %v", rows[1])
	}
	if rows[2][0] != "CPT" || rows[2][1] != "99213" || rows[2][5] != "procedures" {
		t.Errorf("procedure row = %v", rows[2])
	}
}

func TestSaveResults_WritesAllArtifacts(t *testing.T) {
	t.Parallel()

	ls := NewLocalStorage(t.TempDir())
	res := sampleResult()

	paths, err := ls.SaveResults("morning consult", res)
	if err != nil {
		t.Fatalf("SaveResults failed: %v", err)
	}

	for _, p := range []string{paths.Transcript, paths.Bundle, paths.Codes} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("artifact missing: %v", err)
		}
	}

	// Artifacts land under a year/month/day directory.
	now := time.Now()
	rel, err := filepath.Rel(ls.outputDir, paths.Bundle)
	if err != nil {
		t.Fatalf("bundle outside output dir: %v", err)
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) != 4 || parts[0] != now.Format("2006") {
		t.Errorf("bundle path = %q, want year/month/day layout", rel)
	}

	raw, err := os.ReadFile(paths.Bundle)
	if err != nil {
		t.Fatalf("failed to read bundle: %v", err)
	}
	var bundle types.ResultBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		t.Fatalf("bundle is not valid JSON: %v", err)
	}
	if len(bundle.ICDCodes) != 1 || bundle.ICDCodes[0].Code != "R50.9" {
		t.Errorf("bundle icd_codes = %v", bundle.ICDCodes)
	}
	if len(bundle.Transcription) != 2 {
		t.Errorf("bundle transcription has %d segments, want 2", len(bundle.Transcription))
	}
	if _, err := time.Parse(time.RFC3339, bundle.Timestamp); err != nil {
		t.Errorf("bundle timestamp %q is not RFC3339: %v", bundle.Timestamp, err)
	}
}

func TestResultBundle_FieldNames(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	bundle := types.NewResultBundle(res, time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC))

	raw, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"timestamp", "icd_codes", "cpt_codes", "transcription"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("bundle JSON missing key %q", key)
		}
	}
	if len(doc) != 4 {
		t.Errorf("bundle JSON has %d keys, want exactly 4", len(doc))
	}
}

func TestResultBundle_EmptyListsNotNull(t *testing.T) {
	t.Parallel()

	bundle := types.NewResultBundle(&types.CodingResult{
		ICDCodes: []types.CodeMatch{},
		CPTCodes: []types.CodeMatch{},
	}, time.Now())

	raw, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(raw), "\"icd_codes\":null") ||
		strings.Contains(string(raw), "\"cpt_codes\":null") {
		t.Errorf("empty code lists serialized as null: %s", raw)
	}
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"consult":             "consult",
		"../../etc/passwd":    "passwd",
		"a:b*c?d":             "a_b_c_d",
		"windows\\path\\name": "name",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
