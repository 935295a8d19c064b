// Package codes holds the reference code tables and the fuzzy matching
// that turns clinical terms into ranked billing code candidates.
package codes

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// entry is the common capability both reference tables expose: a
// normalized description to match against, and a way to resolve the
// matched row into a billing code plus display description. The two
// tables store their codes differently (diagnosis codes live in separate
// columns, procedure codes are embedded in the description blob), so each
// gets its own adapter.
type entry interface {
	Description() string
	Resolve() (code, description string)
}

// diagnosisEntry keys a normalized ICD description to one or more code
// cells merged from every row sharing that description.
type diagnosisEntry struct {
	desc  string
	codes []string
}

func (e diagnosisEntry) Description() string { return e.desc }

func (e diagnosisEntry) Resolve() (string, string) {
	return strings.Join(e.codes, ", "), e.desc
}

// procedureEntry holds a raw CPT row. The code is whatever precedes the
// first comma; without a comma the whole row doubles as both code and
// description. This mirrors the layout of the source CSV and is load
// bearing for downstream consumers.
type procedureEntry struct {
	row string
}

func (e procedureEntry) Description() string { return e.row }

func (e procedureEntry) Resolve() (string, string) {
	if i := strings.Index(e.row, ","); i >= 0 {
		return e.row[:i], e.row
	}
	return e.row, e.row
}

// Index is the loaded, queryable form of the two reference tables. It is
// immutable after Load returns and safe for concurrent readers. Either
// table may be empty when its CSV was missing or unreadable; matching
// against an empty table silently yields no candidates.
type Index struct {
	diagnoses  []diagnosisEntry
	procedures []procedureEntry
}

// HasDiagnoses reports whether the diagnosis table loaded.
func (idx *Index) HasDiagnoses() bool { return len(idx.diagnoses) > 0 }

// HasProcedures reports whether the procedure table loaded.
func (idx *Index) HasProcedures() bool { return len(idx.procedures) > 0 }

// Load reads both reference CSVs. A table that cannot be read or parsed
// is logged and left empty; the pipeline keeps running against whatever
// loaded. Load itself never fails.
func Load(diagnosisPath, procedurePath string) *Index {
	idx := &Index{}

	rows, err := readTable(diagnosisPath)
	if err != nil {
		log.Printf("WARNING: diagnosis table unavailable (%s): %v", diagnosisPath, err)
	} else {
		idx.diagnoses = buildDiagnoses(rows)
	}

	rows, err = readTable(procedurePath)
	if err != nil {
		log.Printf("WARNING: procedure table unavailable (%s): %v", procedurePath, err)
	} else {
		idx.procedures = buildProcedures(rows)
	}

	return idx
}

// sharedIndex guards the once-per-process load. The reference tables are
// read exactly once and reused by every conversation processed afterwards;
// concurrent first callers all observe the same instance.
var (
	sharedOnce  sync.Once
	sharedIndex *Index
)

// Shared returns the process-wide reference index, loading it on first use.
func Shared(diagnosisPath, procedurePath string) *Index {
	sharedOnce.Do(func() {
		sharedIndex = Load(diagnosisPath, procedurePath)
	})
	return sharedIndex
}

// readTable parses a CSV file into raw rows. The published ICD/CPT files
// ship in Latin-1, so non-UTF-8 input is transparently re-decoded. Header
// presence is unreliable; rows are taken as-is and ragged rows are allowed.
func readTable(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		decoded, decErr := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if decErr != nil {
			return nil, fmt.Errorf("failed to decode table: %v", decErr)
		}
		data = decoded
	}

	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse table: %v", err)
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("table is empty")
	}
	return rows, nil
}

// Normalize canonicalizes description text for matching: trim then
// lower-case. Matching is case-insensitive by construction because every
// stored description and every query passes through here.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// buildDiagnoses folds raw diagnosis rows into one entry per normalized
// description, merging the code cells of every row that shares it. Rows
// with an empty description are dropped. Entry order is first appearance
// in the table, which is also the documented matching tie-break order.
func buildDiagnoses(rows [][]string) []diagnosisEntry {
	byDesc := make(map[string]int)
	var entries []diagnosisEntry

	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		desc := Normalize(row[0])
		if desc == "" {
			continue
		}

		var codes []string
		for _, cell := range row[1:] {
			cell = strings.TrimSpace(cell)
			if cell != "" {
				codes = append(codes, cell)
			}
		}

		if i, ok := byDesc[desc]; ok {
			entries[i].codes = append(entries[i].codes, codes...)
			continue
		}
		byDesc[desc] = len(entries)
		entries = append(entries, diagnosisEntry{desc: desc, codes: codes})
	}
	return entries
}

// buildProcedures normalizes raw procedure rows, dropping empties.
// Duplicate rows are kept; each is an independent match candidate.
func buildProcedures(rows [][]string) []procedureEntry {
	var entries []procedureEntry
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		// The procedure table embeds everything in its first column, but
		// unquoted commas split the row; rejoin so the code prefix and the
		// rest of the description survive as one blob.
		blob := Normalize(strings.Join(row, ","))
		if blob == "" {
			continue
		}
		entries = append(entries, procedureEntry{row: blob})
	}
	return entries
}

var (
	_ entry = diagnosisEntry{}
	_ entry = procedureEntry{}
)

// resetShared clears the process-wide cache. Test hook only.
func resetShared() {
	sharedOnce = sync.Once{}
	sharedIndex = nil
}
