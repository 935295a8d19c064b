package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/medcodeai/speech-to-code/internal/types"
)

// ExportPaths points at the three artifacts written for one conversation.
type ExportPaths struct {
	Transcript string
	Bundle     string
	Codes      string
}

// LocalStorage writes the per-conversation export artifacts to disk.
type LocalStorage struct {
	outputDir string
}

// NewLocalStorage creates a local export writer rooted at outputDir.
func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{
		outputDir: outputDir,
	}
}

// SaveResults writes the transcript text, the JSON result bundle and the
// flat codes CSV under a dated directory (outputs/2026/08/23/). The bundle
// carries the save timestamp.
func (ls *LocalStorage) SaveResults(requestName string, res *types.CodingResult) (ExportPaths, error) {
	now := time.Now()
	dateDir := filepath.Join(ls.outputDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return ExportPaths{}, fmt.Errorf("failed to create date directory: %v", err)
	}

	base := fmt.Sprintf("%s_%s", now.Format("20060102_150405"), sanitizeFilename(requestName))
	paths := ExportPaths{
		Transcript: filepath.Join(dateDir, base+".txt"),
		Bundle:     filepath.Join(dateDir, base+"_codes.json"),
		Codes:      filepath.Join(dateDir, base+"_codes.csv"),
	}

	if err := os.WriteFile(paths.Transcript, []byte(FormatTranscript(res.Segments)), 0644); err != nil {
		return ExportPaths{}, fmt.Errorf("failed to save transcript: %v", err)
	}

	bundle := types.NewResultBundle(res, now)
	bundleJSON, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return ExportPaths{}, fmt.Errorf("failed to marshal result bundle: %v", err)
	}
	if err := os.WriteFile(paths.Bundle, bundleJSON, 0644); err != nil {
		return ExportPaths{}, fmt.Errorf("failed to save result bundle: %v", err)
	}

	if err := os.WriteFile(paths.Codes, []byte(FormatCodesCSV(res.ICDCodes, res.CPTCodes)), 0644); err != nil {
		return ExportPaths{}, fmt.Errorf("failed to save codes CSV: %v", err)
	}

	return paths, nil
}

// FormatTranscript renders the plain-text transcript artifact, one line
// per segment. The line layout is fixed; existing consumers parse it.
func FormatTranscript(segments []types.Segment) string {
	lines := make([]string, len(segments))
	for i, seg := range segments {
		lines[i] = fmt.Sprintf("[%.1fs - %.1fs] (%s): %s", seg.Start, seg.End, seg.Speaker, seg.Text)
	}
	return strings.Join(lines, "\n")
}

// FormatCodesCSV renders both ranked code lists as one flat row set.
// Column order is fixed for download compatibility.
func FormatCodesCSV(icd, cpt []types.CodeMatch) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	w.Write([]string{"Type", "Code", "Description", "Confidence", "Source_Term", "Category"})
	for _, m := range icd {
		w.Write(codeRow("ICD-10", m))
	}
	for _, m := range cpt {
		w.Write(codeRow("CPT", m))
	}
	w.Flush()
	return sb.String()
}

func codeRow(codeType string, m types.CodeMatch) []string {
	return []string{
		codeType,
		m.Code,
		m.Description,
		strconv.Itoa(m.Confidence),
		m.SourceTerm,
		string(m.Category),
	}
}

// sanitizeFilename strips path separators and caps the length.
func sanitizeFilename(name string) string {
	result := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	invalid := []string{":", "*", "?", "\"", "<", ">", "|"}
	for _, ch := range invalid {
		result = strings.ReplaceAll(result, ch, "_")
	}
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}
