package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ResultRecord is one processed conversation as stored in the metadata DB.
type ResultRecord struct {
	JobID          string    `json:"job_id"`
	RequestName    string    `json:"request_name"`
	SourceType     string    `json:"source_type"`
	TranscriptPath string    `json:"transcript_path"`
	BundlePath     string    `json:"bundle_path"`
	GDriveURL      string    `json:"gdrive_url"`
	CreatedAt      time.Time `json:"created_at"`
	Duration       float64   `json:"duration"`
	SegmentCount   int       `json:"segment_count"`
	TermCount      int       `json:"term_count"`
	ICDCount       int       `json:"icd_count"`
	CPTCount       int       `json:"cpt_count"`
}

// MetadataDB records processed conversations in SQLite.
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB opens (and if needed initializes) the metadata database.
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		request_name TEXT NOT NULL,
		source_type TEXT NOT NULL,
		transcript_path TEXT NOT NULL,
		bundle_path TEXT NOT NULL,
		gdrive_url TEXT,
		created_at DATETIME NOT NULL,
		duration REAL,
		segment_count INTEGER,
		term_count INTEGER,
		icd_count INTEGER,
		cpt_count INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at);
	CREATE INDEX IF NOT EXISTS idx_results_request_name ON results(request_name);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveResult stores the metadata row for one processed conversation.
func (mdb *MetadataDB) SaveResult(rec ResultRecord) error {
	query := `
	INSERT INTO results (job_id, request_name, source_type, transcript_path, bundle_path,
		gdrive_url, created_at, duration, segment_count, term_count, icd_count, cpt_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := mdb.db.Exec(query, rec.JobID, rec.RequestName, rec.SourceType,
		rec.TranscriptPath, rec.BundlePath, rec.GDriveURL, time.Now(),
		rec.Duration, rec.SegmentCount, rec.TermCount, rec.ICDCount, rec.CPTCount)
	if err != nil {
		return fmt.Errorf("failed to save result metadata: %v", err)
	}

	return nil
}

// GetResult retrieves one result row by job ID.
func (mdb *MetadataDB) GetResult(jobID string) (*ResultRecord, error) {
	row := mdb.db.QueryRow(selectColumns+` FROM results WHERE job_id = ?`, jobID)

	rec, err := scanResult(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %v", err)
	}
	return rec, nil
}

// ListResults returns the most recent results, newest first.
func (mdb *MetadataDB) ListResults(limit int) ([]ResultRecord, error) {
	rows, err := mdb.db.Query(selectColumns+` FROM results ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %v", err)
	}
	defer rows.Close()

	var records []ResultRecord
	for rows.Next() {
		rec, err := scanResult(rows.Scan)
		if err != nil {
			continue
		}
		records = append(records, *rec)
	}

	return records, nil
}

// Close closes the database connection.
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}

const selectColumns = `
	SELECT job_id, request_name, source_type, transcript_path, bundle_path,
		gdrive_url, created_at, duration, segment_count, term_count, icd_count, cpt_count`

func scanResult(scan func(dest ...any) error) (*ResultRecord, error) {
	var rec ResultRecord
	var gdrive sql.NullString
	err := scan(&rec.JobID, &rec.RequestName, &rec.SourceType, &rec.TranscriptPath,
		&rec.BundlePath, &gdrive, &rec.CreatedAt, &rec.Duration,
		&rec.SegmentCount, &rec.TermCount, &rec.ICDCount, &rec.CPTCount)
	if err != nil {
		return nil, err
	}
	rec.GDriveURL = gdrive.String
	return &rec, nil
}
