package handlers

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/medcodeai/speech-to-code/internal/queue"
	"github.com/medcodeai/speech-to-code/internal/transcription"
	"github.com/medcodeai/speech-to-code/internal/types"
)

// UploadHandler accepts a recorded conversation file and queues it for
// transcription and coding.
type UploadHandler struct {
	workerPool *queue.WorkerPool
	maxSizeMB  int
}

// NewUploadHandler creates an upload handler.
func NewUploadHandler(workerPool *queue.WorkerPool, maxSizeMB int) *UploadHandler {
	return &UploadHandler{
		workerPool: workerPool,
		maxSizeMB:  maxSizeMB,
	}
}

// Handle processes the upload request.
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	requestName := c.FormValue("name")
	if requestName == "" {
		requestName = "consultation"
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
			"code":  "ERR_FILE_TOO_LARGE",
		})
	}

	if !transcription.ValidateAudioFormat(file.Filename) {
		return c.Status(400).JSON(fiber.Map{
			"error": "Unsupported audio format",
			"code":  "ERR_INVALID_FORMAT",
		})
	}

	jobID := uuid.New().String()
	tempPath := filepath.Join(h.workerPool.TempDir(),
		fmt.Sprintf("%s%s", jobID, filepath.Ext(file.Filename)))

	if err := c.SaveFile(file, tempPath); err != nil {
		log.Printf("Failed to save uploaded recording: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	h.workerPool.EnqueueJob(queue.NewJob(jobID, requestName, types.SourceUpload, tempPath))

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "queued",
		"message": "Recording uploaded, coding started",
	})
}
