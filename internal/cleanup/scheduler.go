// Package cleanup sweeps stale recordings out of the temp directory.
package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// Scheduler periodically deletes temp files past their maximum age.
type Scheduler struct {
	tempDir         string
	intervalMinutes int
	maxAgeHours     int
	stopChan        chan struct{}
}

// NewScheduler creates a cleanup scheduler for tempDir.
func NewScheduler(tempDir string, intervalMinutes, maxAgeHours int) *Scheduler {
	return &Scheduler{
		tempDir:         tempDir,
		intervalMinutes: intervalMinutes,
		maxAgeHours:     maxAgeHours,
		stopChan:        make(chan struct{}),
	}
}

// Start runs an immediate sweep and then sweeps on the interval.
func (s *Scheduler) Start() {
	log.Println("Running initial temp file cleanup...")
	s.sweep()

	ticker := time.NewTicker(time.Duration(s.intervalMinutes) * time.Minute)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Cleanup scheduler started (interval: %dm, max age: %dh)",
		s.intervalMinutes, s.maxAgeHours)
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("Cleanup scheduler stopped")
}

// sweep removes files older than maxAgeHours from the temp directory.
func (s *Scheduler) sweep() {
	now := time.Now()
	maxAge := time.Duration(s.maxAgeHours) * time.Hour

	var deletedCount int
	var deletedSize int64

	err := filepath.Walk(s.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if info.IsDir() {
			return nil
		}

		age := now.Sub(info.ModTime())
		if age > maxAge {
			size := info.Size()
			if err := os.Remove(path); err != nil {
				log.Printf("Failed to delete old file %s: %v", path, err)
			} else {
				deletedCount++
				deletedSize += size
			}
		}

		return nil
	})

	if err != nil {
		log.Printf("Error during cleanup: %v", err)
	}

	if deletedCount > 0 {
		log.Printf("Cleanup complete: %d files deleted, %.2fMB freed",
			deletedCount, float64(deletedSize)/(1024*1024))
	}
}

// EnsureTempDirExists creates the temp directory if needed.
func EnsureTempDirExists(tempDir string) error {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return err
	}
	log.Printf("Temp directory ready: %s", tempDir)
	return nil
}
