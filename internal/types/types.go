package types

import "time"

// Job status constants
const (
	StatusQueued     = "QUEUED"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Source type constants
const (
	SourceUpload       = "upload"
	SourceGDrive       = "gdrive"
	SourceRemote       = "remote"
	SourceRecorder     = "recorder"
	SourceConversation = "conversation"
)

// Category identifies which vocabulary group a clinical term came from.
// The string values are the ones written to exports and must stay stable.
type Category string

const (
	CategorySymptom   Category = "symptoms"
	CategoryDisease   Category = "diseases"
	CategoryProcedure Category = "procedures"
)

// Segment is one utterance chunk of a conversation. Start/End are seconds
// from the beginning of the recording; End is always greater than Start.
// Speaker is filled in by the speaker attributor.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// SpeakerTurn is one labeled interval from a diarization run.
type SpeakerTurn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// DiarizationTrack is the ordered set of speaker turns for a recording.
// A nil or empty track means no diarization is available, which is a
// normal operating mode (fallback labeling kicks in).
type DiarizationTrack []SpeakerTurn

// ClinicalTerm is a vocabulary hit found in conversation text. Context
// carries the original (unlowered) text the term was found in.
type ClinicalTerm struct {
	Term     string   `json:"term"`
	Category Category `json:"category"`
	Context  string   `json:"context"`
}

// CodeMatch is one candidate billing code for a clinical term.
// Confidence is a 0-100 lexical similarity score, not a probability.
type CodeMatch struct {
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Confidence  int      `json:"confidence"`
	SourceTerm  string   `json:"source_term"`
	Category    Category `json:"category"`
}

// TranscriptionResult is the output of the speech-to-text collaborator.
type TranscriptionResult struct {
	Text     string
	Language string
	Duration float64
	Segments []Segment
}

// CodingResult is the full output of the coding pipeline for one
// conversation: labeled segments plus ranked code lists per table.
type CodingResult struct {
	Segments []Segment
	FullText string
	Terms    []ClinicalTerm
	ICDCodes []CodeMatch
	CPTCodes []CodeMatch
}

// ResultBundle is the export document. Field names match the established
// download format and must not change.
type ResultBundle struct {
	Timestamp     string      `json:"timestamp"`
	ICDCodes      []CodeMatch `json:"icd_codes"`
	CPTCodes      []CodeMatch `json:"cpt_codes"`
	Transcription []Segment   `json:"transcription"`
}

// NewResultBundle stamps a coding result into its export form.
func NewResultBundle(res *CodingResult, at time.Time) *ResultBundle {
	return &ResultBundle{
		Timestamp:     at.Format(time.RFC3339),
		ICDCodes:      res.ICDCodes,
		CPTCodes:      res.CPTCodes,
		Transcription: res.Segments,
	}
}
