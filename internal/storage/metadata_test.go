package storage

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *MetadataDB {
	t.Helper()
	db, err := NewMetadataDB(filepath.Join(t.TempDir(), "metadata.db"))
	if err != nil {
		t.Fatalf("failed to open metadata db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMetadataDB_SaveAndGet(t *testing.T) {
	t.Parallel()

	db := testDB(t)

	rec := ResultRecord{
		JobID:          "job-123",
		RequestName:    "morning consult",
		SourceType:     "upload",
		TranscriptPath: "/outputs/2026/08/23/consult.txt",
		BundlePath:     "/outputs/2026/08/23/consult_codes.json",
		GDriveURL:      "https://drive.google.com/file/d/abc/view",
		Duration:       42.5,
		SegmentCount:   7,
		TermCount:      4,
		ICDCount:       3,
		CPTCount:       2,
	}
	if err := db.SaveResult(rec); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	got, err := db.GetResult("job-123")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if got.RequestName != rec.RequestName || got.SourceType != rec.SourceType {
		t.Errorf("got %+v, want fields of %+v", got, rec)
	}
	if got.GDriveURL != rec.GDriveURL {
		t.Errorf("gdrive url = %q, want %q", got.GDriveURL, rec.GDriveURL)
	}
	if got.Duration != rec.Duration || got.ICDCount != 3 || got.CPTCount != 2 {
		t.Errorf("counts = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not stamped")
	}
}

func TestMetadataDB_GetMissing(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	if _, err := db.GetResult("nope"); err == nil {
		t.Error("expected an error for an unknown job id")
	}
}

func TestMetadataDB_EmptyGDriveURL(t *testing.T) {
	t.Parallel()

	db := testDB(t)

	if err := db.SaveResult(ResultRecord{
		JobID:          "local-only",
		RequestName:    "offline consult",
		SourceType:     "conversation",
		TranscriptPath: "/outputs/t.txt",
		BundlePath:     "/outputs/b.json",
	}); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	got, err := db.GetResult("local-only")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if got.GDriveURL != "" {
		t.Errorf("gdrive url = %q, want empty for local-only results", got.GDriveURL)
	}
}

func TestMetadataDB_ListLimit(t *testing.T) {
	t.Parallel()

	db := testDB(t)

	for _, id := range []string{"a", "b", "c"} {
		if err := db.SaveResult(ResultRecord{
			JobID:          id,
			RequestName:    "consult " + id,
			SourceType:     "upload",
			TranscriptPath: "/t.txt",
			BundlePath:     "/b.json",
		}); err != nil {
			t.Fatalf("SaveResult(%s) failed: %v", id, err)
		}
	}

	records, err := db.ListResults(2)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}

	all, err := db.ListResults(10)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d records, want 3", len(all))
	}
}

func TestMetadataDB_DuplicateJobIDRejected(t *testing.T) {
	t.Parallel()

	db := testDB(t)

	rec := ResultRecord{
		JobID:          "dup",
		RequestName:    "first",
		SourceType:     "upload",
		TranscriptPath: "/t.txt",
		BundlePath:     "/b.json",
	}
	if err := db.SaveResult(rec); err != nil {
		t.Fatalf("first SaveResult failed: %v", err)
	}
	if err := db.SaveResult(rec); err == nil {
		t.Error("duplicate job_id should be rejected")
	}
}
