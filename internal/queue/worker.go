package queue

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/medcodeai/speech-to-code/internal/diarization"
	"github.com/medcodeai/speech-to-code/internal/pipeline"
	"github.com/medcodeai/speech-to-code/internal/storage"
	"github.com/medcodeai/speech-to-code/internal/transcription"
	"github.com/medcodeai/speech-to-code/internal/types"
)

// WorkerPool runs queued recordings through the collaborator chain
// (normalize, transcribe, diarize) and the coding pipeline, then exports
// the results. Diarizer and driveClient may be nil; those features then
// run degraded (fallback speaker labels, local-only export).
type WorkerPool struct {
	jobQueue     chan *Job
	workerCount  int
	tempDir      string
	transcriber  *transcription.WhisperTranscriber
	diarizer     *diarization.PyannoteDiarizer
	coder        *pipeline.Coder
	localStorage *storage.LocalStorage
	driveClient  *storage.DriveClient
	db           *storage.MetadataDB
}

// NewWorkerPool creates a worker pool.
func NewWorkerPool(
	workerCount int,
	tempDir string,
	transcriber *transcription.WhisperTranscriber,
	diarizer *diarization.PyannoteDiarizer,
	coder *pipeline.Coder,
	localStorage *storage.LocalStorage,
	driveClient *storage.DriveClient,
	db *storage.MetadataDB,
) *WorkerPool {
	return &WorkerPool{
		jobQueue:     make(chan *Job, 100),
		workerCount:  workerCount,
		tempDir:      tempDir,
		transcriber:  transcriber,
		diarizer:     diarizer,
		coder:        coder,
		localStorage: localStorage,
		driveClient:  driveClient,
		db:           db,
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	log.Printf("Starting worker pool with %d workers", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		go wp.worker(i)
	}
}

// TempDir is where handlers should drop incoming recordings.
func (wp *WorkerPool) TempDir() string { return wp.tempDir }

// EnqueueJob adds a job to the queue.
func (wp *WorkerPool) EnqueueJob(job *Job) {
	job.Status = types.StatusQueued
	job.CreatedAt = time.Now()
	wp.jobQueue <- job
	log.Printf("Job %s enqueued (source: %s, name: %s)", job.ID, job.SourceType, job.RequestName)
}

// worker drains the queue. A panic fails the job, never the process.
func (wp *WorkerPool) worker(id int) {
	log.Printf("Worker %d started", id)

	for job := range wp.jobQueue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Worker %d: PANIC processing job %s: %v\n%s",
						id, job.ID, r, string(debug.Stack()))
					job.Status = types.StatusFailed
					job.Error = fmt.Errorf("worker panic: %v", r)
					wp.cleanupTempFile(job.FilePath)
				}
			}()

			wp.processJob(id, job)
		}()
	}
}

// processJob runs one recording end to end.
func (wp *WorkerPool) processJob(workerID int, job *Job) {
	log.Printf("Worker %d: Processing job %s", workerID, job.ID)
	job.Status = types.StatusProcessing

	fail := func(step string, err error) {
		log.Printf("Worker %d: %s failed for job %s: %v", workerID, step, job.ID, err)
		job.Status = types.StatusFailed
		job.Error = fmt.Errorf("%s failed: %v", step, err)
		wp.cleanupTempFile(job.FilePath)
	}

	// Normalize to the format the collaborators expect.
	normalizedPath, err := transcription.NormalizeAudio(job.FilePath, wp.tempDir)
	if err != nil {
		fail("audio normalization", err)
		return
	}
	defer wp.cleanupTempFile(normalizedPath)

	tr, err := wp.transcriber.Transcribe(normalizedPath)
	if err != nil {
		fail("transcription", err)
		return
	}

	// Diarization is optional; failure degrades to fallback labeling.
	var track types.DiarizationTrack
	if wp.diarizer != nil {
		track, err = wp.diarizer.Diarize(normalizedPath)
		if err != nil {
			log.Printf("Worker %d: WARNING - diarization failed for job %s, using fallback labels: %v",
				workerID, job.ID, err)
			track = nil
		}
	}

	result := wp.coder.Process(tr.Segments, tr.Text, track)
	job.Result = result

	paths, err := wp.localStorage.SaveResults(job.RequestName, result)
	if err != nil {
		fail("local save", err)
		return
	}

	// Drive mirror, best effort with retry.
	var driveURL string
	if wp.driveClient != nil {
		for attempt := 1; attempt <= 3; attempt++ {
			driveURL, err = wp.driveClient.Upload(paths)
			if err == nil {
				break
			}
			log.Printf("Worker %d: Drive upload attempt %d/3 failed: %v", workerID, attempt, err)
			if attempt < 3 {
				time.Sleep(time.Duration(attempt*attempt) * time.Second)
			}
		}
		if err != nil {
			log.Printf("Worker %d: WARNING - Drive upload failed after 3 attempts, keeping local export only", workerID)
		}
	}

	if wp.db != nil {
		err = wp.db.SaveResult(storage.ResultRecord{
			JobID:          job.ID,
			RequestName:    job.RequestName,
			SourceType:     job.SourceType,
			TranscriptPath: paths.Transcript,
			BundlePath:     paths.Bundle,
			GDriveURL:      driveURL,
			Duration:       tr.Duration,
			SegmentCount:   len(result.Segments),
			TermCount:      len(result.Terms),
			ICDCount:       len(result.ICDCodes),
			CPTCount:       len(result.CPTCodes),
		})
		if err != nil {
			log.Printf("Worker %d: Database save failed: %v", workerID, err)
		}
	}

	wp.cleanupTempFile(job.FilePath)

	job.Status = types.StatusCompleted
	log.Printf("Worker %d: Job %s completed (%d ICD, %d CPT, transcript: %s)",
		workerID, job.ID, len(result.ICDCodes), len(result.CPTCodes), paths.Transcript)
}

// cleanupTempFile removes a temporary file.
func (wp *WorkerPool) cleanupTempFile(filePath string) {
	if filePath == "" {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to cleanup temp file %s: %v", filePath, err)
	}
}
