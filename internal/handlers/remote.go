package handlers

import (
	"fmt"
	"log"
	"os/exec"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/medcodeai/speech-to-code/internal/queue"
	"github.com/medcodeai/speech-to-code/internal/types"
)

// RemoteHandler fetches a consultation recording hosted at a remote URL
// (anything yt-dlp can pull) and queues it for coding.
type RemoteHandler struct {
	workerPool *queue.WorkerPool
}

// NewRemoteHandler creates a remote-recording handler.
func NewRemoteHandler(workerPool *queue.WorkerPool) *RemoteHandler {
	return &RemoteHandler{
		workerPool: workerPool,
	}
}

// RemoteRequest is the request body.
type RemoteRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Handle starts the fetch in the background and returns the job ID
// immediately; the job is enqueued once the download completes.
func (h *RemoteHandler) Handle(c *fiber.Ctx) error {
	var req RemoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	if req.URL == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "URL is required",
			"code":  "ERR_NO_URL",
		})
	}

	if req.Name == "" {
		req.Name = "remote_recording"
	}

	jobID := uuid.New().String()
	tempPath := filepath.Join(h.workerPool.TempDir(), fmt.Sprintf("%s.opus", jobID))

	go func() {
		if err := fetchRemoteAudio(req.URL, tempPath); err != nil {
			log.Printf("Failed to fetch remote recording: %v", err)
			return
		}
		h.workerPool.EnqueueJob(queue.NewJob(jobID, req.Name, types.SourceRemote, tempPath))
	}()

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "fetching",
		"message": "Remote recording fetch started (long recordings may take a few minutes)",
	})
}

// fetchRemoteAudio downloads the audio track via yt-dlp.
func fetchRemoteAudio(url, outputPath string) error {
	log.Printf("Fetching remote recording via yt-dlp: %s", url)

	cmd := exec.Command("yt-dlp",
		"-x",
		"--audio-format", "opus",
		"-o", outputPath,
		url,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("yt-dlp failed: %v\nOutput: %s", err, string(output))
	}

	log.Printf("Remote recording downloaded: %s", outputPath)
	return nil
}
