package transcription

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// NormalizeAudio converts any supported audio file to 16kHz mono WAV,
// the format Whisper ingests best. The normalized file lands in tempDir
// and is the caller's to clean up.
func NormalizeAudio(inputPath, tempDir string) (string, error) {
	outputPath := filepath.Join(tempDir, fmt.Sprintf("normalized_%s.wav", uuid.New().String()))

	cmd := exec.Command("ffmpeg",
		"-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg failed: %v\nOutput: %s", err, string(output))
	}

	return outputPath, nil
}

// ValidateAudioFormat checks whether the file extension is one we accept.
func ValidateAudioFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	supported := []string{".mp3", ".wav", ".m4a", ".ogg", ".flac", ".webm", ".aac", ".wma", ".opus"}

	for _, format := range supported {
		if ext == format {
			return true
		}
	}
	return false
}
