package queue

import (
	"time"

	"github.com/medcodeai/speech-to-code/internal/types"
)

// Job is one conversation recording queued for processing.
type Job struct {
	ID          string
	RequestName string
	SourceType  string
	FilePath    string
	Status      string
	Error       error
	Result      *types.CodingResult
	CreatedAt   time.Time
}

// NewJob creates a queued job for a recording on disk.
func NewJob(id, requestName, sourceType, filePath string) *Job {
	return &Job{
		ID:          id,
		RequestName: requestName,
		SourceType:  sourceType,
		FilePath:    filePath,
		Status:      types.StatusQueued,
		CreatedAt:   time.Now(),
	}
}
