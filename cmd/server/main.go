package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"gopkg.in/yaml.v3"

	"github.com/medcodeai/speech-to-code/internal/cleanup"
	"github.com/medcodeai/speech-to-code/internal/codes"
	"github.com/medcodeai/speech-to-code/internal/diarization"
	"github.com/medcodeai/speech-to-code/internal/handlers"
	"github.com/medcodeai/speech-to-code/internal/pipeline"
	"github.com/medcodeai/speech-to-code/internal/queue"
	"github.com/medcodeai/speech-to-code/internal/speaker"
	"github.com/medcodeai/speech-to-code/internal/storage"
	"github.com/medcodeai/speech-to-code/internal/transcription"
)

// Config is the application configuration.
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Whisper struct {
		Model   string `yaml:"model"`
		Threads int    `yaml:"threads"`
	} `yaml:"whisper"`

	Diarization struct {
		Enabled  bool   `yaml:"enabled"`
		Python   string `yaml:"python"`
		Script   string `yaml:"script"`
		TokenEnv string `yaml:"hf_token_env"`
	} `yaml:"diarization"`

	Coding struct {
		ICDTable            string `yaml:"icd_table"`
		CPTTable            string `yaml:"cpt_table"`
		ConfidenceThreshold int    `yaml:"confidence_threshold"`
		TopN                int    `yaml:"top_n"`
		FallbackPolicy      string `yaml:"fallback_policy"`
	} `yaml:"coding"`

	Workers struct {
		Count int `yaml:"count"`
	} `yaml:"workers"`

	Storage struct {
		TempDir   string `yaml:"temp_dir"`
		OutputDir string `yaml:"output_dir"`
		Database  string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb"`
	} `yaml:"limits"`
}

func main() {
	config, err := loadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cleanup.EnsureTempDirExists(config.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	if err := os.MkdirAll(config.Storage.OutputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	log.SetOutput(io.MultiWriter(os.Stdout, logBuffer))

	log.Println("Initializing components...")

	// Reference tables load once for the process lifetime. A missing
	// table disables matching against it, nothing more.
	index := codes.Shared(config.Coding.ICDTable, config.Coding.CPTTable)
	if !index.HasDiagnoses() && !index.HasProcedures() {
		log.Println("WARNING: no reference tables loaded - coding will return empty results")
	}

	policy, err := speaker.ParsePolicy(config.Coding.FallbackPolicy)
	if err != nil {
		log.Fatalf("Invalid coding config: %v", err)
	}

	coder := pipeline.New(index, pipeline.Config{
		ConfidenceThreshold: config.Coding.ConfidenceThreshold,
		TopN:                config.Coding.TopN,
		FallbackPolicy:      policy,
	})

	transcriber, err := transcription.NewWhisperTranscriber(
		config.Whisper.Model,
		config.Whisper.Threads,
		config.Storage.TempDir,
	)
	if err != nil {
		log.Fatalf("Failed to initialize Whisper: %v", err)
	}

	// Diarization is optional; without it segments get fallback labels.
	var diarizer *diarization.PyannoteDiarizer
	if config.Diarization.Enabled {
		diarizer, err = diarization.NewPyannoteDiarizer(
			config.Diarization.Python,
			config.Diarization.Script,
			config.Diarization.TokenEnv,
		)
		if err != nil {
			if errors.Is(err, diarization.ErrNotConfigured) {
				log.Printf("Speaker diarization disabled: %v", err)
			} else {
				log.Printf("WARNING: diarization unavailable: %v", err)
			}
			diarizer = nil
		}
	} else {
		log.Println("Speaker diarization disabled by config")
	}

	localStorage := storage.NewLocalStorage(config.Storage.OutputDir)

	// Google Drive mirror is optional as well.
	var driveClient *storage.DriveClient
	if _, err := os.Stat(config.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err = storage.NewDriveClient(
			config.GoogleDrive.CredentialsFile,
			config.GoogleDrive.TokenFile,
			config.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Printf("WARNING: Google Drive not available: %v", err)
			log.Println("Exports will only be saved locally")
			driveClient = nil
		} else {
			log.Println("Google Drive export enabled")
		}
	} else {
		log.Println("Google Drive credentials not found - saving locally only")
	}

	db, err := storage.NewMetadataDB(config.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	workerPool := queue.NewWorkerPool(
		config.Workers.Count,
		config.Storage.TempDir,
		transcriber,
		diarizer,
		coder,
		localStorage,
		driveClient,
		db,
	)
	workerPool.Start()

	cleanupScheduler := cleanup.NewScheduler(
		config.Storage.TempDir,
		config.Cleanup.IntervalMinutes,
		config.Cleanup.MaxAgeHours,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit: config.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	uploadHandler := handlers.NewUploadHandler(workerPool, config.Limits.MaxFileSizeMB)
	gdriveHandler := handlers.NewGDriveHandler(workerPool)
	remoteHandler := handlers.NewRemoteHandler(workerPool)
	recorderHandler := handlers.NewRecorderHandler(workerPool)
	conversationHandler := handlers.NewConversationHandler(coder)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "healthy",
			"version":     "1.0.0",
			"icd_table":   index.HasDiagnoses(),
			"cpt_table":   index.HasProcedures(),
			"diarization": diarizer != nil,
		})
	})

	app.Post("/conversations", conversationHandler.Handle)
	app.Post("/upload", uploadHandler.Handle)
	app.Post("/gdrive", gdriveHandler.Handle)
	app.Post("/remote", remoteHandler.Handle)
	app.Get("/ws/record", websocket.New(recorderHandler.Handle))

	app.Get("/results", func(c *fiber.Ctx) error {
		results, err := db.ListResults(50)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(results)
	})

	app.Get("/results/:id", func(c *fiber.Ctx) error {
		rec, err := db.GetResult(c.Params("id"))
		if err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "Result not found"})
		}
		return c.JSON(rec)
	})

	app.Get("/results/:id/transcript", func(c *fiber.Ctx) error {
		rec, err := db.GetResult(c.Params("id"))
		if err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "Result not found"})
		}

		content, err := os.ReadFile(rec.TranscriptPath)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to read transcript file"})
		}

		return c.SendString(string(content))
	})

	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST /conversations - Code a transcribed conversation")
	log.Println("   POST /upload        - Upload a consultation recording")
	log.Println("   POST /gdrive        - Process a Google Drive recording link")
	log.Println("   POST /remote        - Fetch a remote recording")
	log.Println("   GET  /ws/record     - WebSocket recorder")
	log.Println("   GET  /results       - List processed conversations")
	log.Println("   GET  /results/:id/transcript - Get transcript text")
	log.Println("   GET  /logs          - View server logs")
	log.Println("   GET  /health        - Health check")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// LogBuffer captures the last 1000 log lines in memory.
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}

// loadConfig loads configuration from a YAML file.
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
