package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/medcodeai/speech-to-code/internal/queue"
	"github.com/medcodeai/speech-to-code/internal/types"
)

// GDriveHandler fetches a shared Google Drive recording by link and
// queues it for coding.
type GDriveHandler struct {
	workerPool *queue.WorkerPool
}

// NewGDriveHandler creates a Google Drive handler.
func NewGDriveHandler(workerPool *queue.WorkerPool) *GDriveHandler {
	return &GDriveHandler{
		workerPool: workerPool,
	}
}

// GDriveRequest is the request body.
type GDriveRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Handle processes Google Drive link requests.
func (h *GDriveHandler) Handle(c *fiber.Ctx) error {
	var req GDriveRequest
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

	fileID := extractGDriveFileID(req.URL)
	if fileID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid Google Drive URL",
			"code":  "ERR_INVALID_URL",
		})
	}

	if req.Name == "" {
		req.Name = "gdrive_recording"
	}

	jobID := uuid.New().String()
	tempPath := filepath.Join(h.workerPool.TempDir(), fmt.Sprintf("%s.mp3", jobID))

	downloadURL := fmt.Sprintf("https://drive.google.com/uc?export=download&id=%s", fileID)

	log.Printf("Downloading recording from Google Drive: %s", fileID)

	resp, err := http.Get(downloadURL)
	if err != nil {
		log.Printf("Failed to download from Google Drive: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to download file from Google Drive",
			"code":  "ERR_DOWNLOAD_FAILED",
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return c.Status(400).JSON(fiber.Map{
			"error": "File not accessible (may be private or doesn't exist)",
			"code":  "ERR_FILE_NOT_ACCESSIBLE",
		})
	}

	out, err := os.Create(tempPath)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save downloaded file",
			"code":  "ERR_SAVE_FAILED",
		})
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to write downloaded file",
			"code":  "ERR_WRITE_FAILED",
		})
	}

	h.workerPool.EnqueueJob(queue.NewJob(jobID, req.Name, types.SourceGDrive, tempPath))

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "queued",
		"message": "Google Drive recording downloaded, coding started",
	})
}

// extractGDriveFileID extracts the file ID from the common Drive URL forms.
func extractGDriveFileID(url string) string {
	// https://drive.google.com/file/d/{ID}/view
	re1 := regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	if matches := re1.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}

	// https://drive.google.com/open?id={ID}
	re2 := regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
	if matches := re2.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}

	// Bare ID
	re3 := regexp.MustCompile(`^([a-zA-Z0-9_-]{25,40})$`)
	if matches := re3.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}

	return ""
}
