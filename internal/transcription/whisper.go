// Package transcription wraps the external speech-to-text collaborators:
// ffmpeg for audio normalization and OpenAI Whisper for transcription.
// Everything here is thin exec glue; the coding pipeline only sees the
// resulting segments and full text.
package transcription

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/medcodeai/speech-to-code/internal/types"
)

// WhisperTranscriber shells out to Python Whisper (`python -m whisper`).
type WhisperTranscriber struct {
	model   string
	threads int
	tempDir string
	mu      sync.Mutex // whisper invocations are serialized
}

// NewWhisperTranscriber creates a transcriber for the given model name
// (tiny/base/small/medium/large). tempDir holds the per-run JSON output.
func NewWhisperTranscriber(model string, threads int, tempDir string) (*WhisperTranscriber, error) {
	if model == "" {
		model = "base"
	}
	log.Printf("Whisper transcriber ready (model: %s, via python -m whisper)", model)
	return &WhisperTranscriber{
		model:   model,
		threads: threads,
		tempDir: tempDir,
	}, nil
}

// Transcribe runs Whisper on an audio file and returns ordered segments
// plus the whole-conversation text.
func (wt *WhisperTranscriber) Transcribe(audioPath string) (*types.TranscriptionResult, error) {
	wt.mu.Lock()
	defer wt.mu.Unlock()

	outDir := filepath.Join(wt.tempDir, "whisper_output")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create whisper output dir: %v", err)
	}
	defer os.RemoveAll(outDir)

	absPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve audio path: %v", err)
	}

	cmd := exec.Command("python", "-m", "whisper",
		absPath,
		"--model", wt.model,
		"--output_dir", outDir,
		"--output_format", "json",
		"--language", "en",
		"--fp16", "False",
	)
	if wt.threads > 0 {
		cmd.Args = append(cmd.Args, "--threads", fmt.Sprintf("%d", wt.threads))
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper failed: %v\nOutput: %s", err, string(output))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outDir, base+".json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %v", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper JSON: %v", err)
	}

	segments := make([]types.Segment, len(out.Segments))
	for i, seg := range out.Segments {
		segments[i] = types.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
	}

	var duration float64
	if len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}

	log.Printf("Transcription done: %d segments, %.2fs", len(segments), duration)
	return &types.TranscriptionResult{
		Text:     strings.TrimSpace(out.Text),
		Language: out.Language,
		Duration: duration,
		Segments: segments,
	}, nil
}

// whisperOutput matches Python Whisper's JSON output format.
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}
