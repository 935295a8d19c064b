package handlers

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/medcodeai/speech-to-code/internal/queue"
	"github.com/medcodeai/speech-to-code/internal/types"
)

// RecorderHandler receives a consultation recording over a websocket:
// binary audio chunks are buffered until an END control frame, then the
// whole recording is queued as one batch job. There is no incremental
// recognition; this is just a transport for in-browser recorders.
type RecorderHandler struct {
	workerPool *queue.WorkerPool
}

// NewRecorderHandler creates a recorder handler.
func NewRecorderHandler(workerPool *queue.WorkerPool) *RecorderHandler {
	return &RecorderHandler{
		workerPool: workerPool,
	}
}

// Handle processes one recorder connection.
func (h *RecorderHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	var (
		buffer      bytes.Buffer
		requestName string
		jobID       = uuid.New().String()
	)

	log.Printf("Recorder connected: %s", jobID)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Printf("Recorder read error: %v", err)
			break
		}

		if messageType == websocket.TextMessage {
			msg := string(message)

			if msg == "END" {
				log.Printf("Recorder %s finished, queueing recording", jobID)
				break
			}

			if len(msg) > 0 && len(msg) < 200 {
				requestName = msg
				log.Printf("Recording name set to: %s", requestName)
			}
			continue
		}

		if messageType == websocket.BinaryMessage {
			buffer.Write(message)
		}
	}

	if buffer.Len() == 0 {
		log.Printf("No audio received from recorder %s", jobID)
		return
	}

	if requestName == "" {
		requestName = "recorded_consultation"
	}

	tempPath := filepath.Join(h.workerPool.TempDir(), fmt.Sprintf("%s.webm", jobID))

	if err := os.WriteFile(tempPath, buffer.Bytes(), 0644); err != nil {
		log.Printf("Failed to save recorder buffer: %v", err)
		return
	}

	log.Printf("Recording saved to %s (%d bytes)", tempPath, buffer.Len())

	h.workerPool.EnqueueJob(queue.NewJob(jobID, requestName, types.SourceRecorder, tempPath))

	ack := fmt.Sprintf(`{"job_id":"%s","status":"queued"}`, jobID)
	if err := c.WriteMessage(websocket.TextMessage, []byte(ack)); err != nil {
		log.Printf("Failed to send recorder ack for %s: %v", jobID, err)
	}
}
