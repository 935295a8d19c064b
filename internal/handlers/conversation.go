package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medcodeai/speech-to-code/internal/pipeline"
	"github.com/medcodeai/speech-to-code/internal/types"
)

// ConversationHandler codes an already-transcribed conversation
// synchronously: segments (plus optional diarization turns) in, ranked
// billing codes out. This is the direct entry point for callers that run
// their own speech-to-text.
type ConversationHandler struct {
	coder *pipeline.Coder
}

// NewConversationHandler creates a conversation handler.
func NewConversationHandler(coder *pipeline.Coder) *ConversationHandler {
	return &ConversationHandler{coder: coder}
}

// ConversationRequest is the request body.
type ConversationRequest struct {
	Name        string                 `json:"name"`
	Segments    []types.Segment        `json:"segments"`
	FullText    string                 `json:"full_text"`
	Diarization types.DiarizationTrack `json:"diarization"`
}

// Handle runs the coding pipeline and returns the result bundle.
func (h *ConversationHandler) Handle(c *fiber.Ctx) error {
	var req ConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	for _, seg := range req.Segments {
		if seg.Start < 0 || seg.End <= seg.Start {
			return c.Status(400).JSON(fiber.Map{
				"error": "Segment intervals must have start >= 0 and end > start",
				"code":  "ERR_INVALID_SEGMENT",
			})
		}
	}

	// Empty input is fine: the bundle just carries empty lists.
	result := h.coder.Process(req.Segments, req.FullText, req.Diarization)

	return c.JSON(types.NewResultBundle(result, time.Now()))
}
