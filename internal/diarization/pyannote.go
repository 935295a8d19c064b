// Package diarization wraps the external pyannote speaker-diarization
// collaborator. Like transcription, it is exec glue: the helper script
// runs the pyannote pipeline and prints speaker turns as JSON.
package diarization

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"

	"github.com/medcodeai/speech-to-code/internal/types"
)

// ErrNotConfigured means diarization cannot run (missing script or
// Hugging Face token). It marks a degraded mode, not a pipeline failure:
// callers fall back to policy-based speaker labeling.
var ErrNotConfigured = errors.New("diarization not configured")

// PyannoteDiarizer shells out to a Python helper running
// pyannote/speaker-diarization.
type PyannoteDiarizer struct {
	python string
	script string
	token  string
}

// NewPyannoteDiarizer builds a diarizer. tokenEnv names the environment
// variable holding the Hugging Face access token pyannote requires.
// Returns ErrNotConfigured when the script or token is missing, which the
// caller should treat as "run without diarization".
func NewPyannoteDiarizer(python, script, tokenEnv string) (*PyannoteDiarizer, error) {
	if python == "" {
		python = "python"
	}
	if script == "" {
		return nil, ErrNotConfigured
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("%w: script %s not found", ErrNotConfigured, script)
	}
	token := os.Getenv(tokenEnv)
	if token == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrNotConfigured, tokenEnv)
	}

	log.Printf("Speaker diarization enabled (script: %s)", script)
	return &PyannoteDiarizer{python: python, script: script, token: token}, nil
}

// Diarize runs the helper on an audio file and returns the speaker turns
// in the order the pipeline emitted them. Turn order is preserved because
// segment attribution is first-overlap over this exact order.
func (d *PyannoteDiarizer) Diarize(audioPath string) (types.DiarizationTrack, error) {
	cmd := exec.Command(d.python, d.script, "--audio", audioPath)
	cmd.Env = append(os.Environ(), "HUGGINGFACE_TOKEN="+d.token)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("diarization failed: %v\nStderr: %s", err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("diarization failed: %v", err)
	}

	var track types.DiarizationTrack
	if err := json.Unmarshal(output, &track); err != nil {
		return nil, fmt.Errorf("failed to parse diarization output: %v", err)
	}

	log.Printf("Diarization done: %d speaker turns", len(track))
	return track, nil
}
