package domain

import "time"

type ItemStatus string

const (
	StatusUploading  ItemStatus = "uploading"
	StatusProcessing ItemStatus = "processing"
	StatusDetected   ItemStatus = "detected"
	StatusConfirmed  ItemStatus = "confirmed"
	StatusError      ItemStatus = "error"
)

// Human-readable error causes surfaced on an item. Recovery from any of them
// goes through the manual-correction path.
const (
	CauseUploadFailed    = "upload failed"
	CauseProcessFailed   = "processing failed"
	CauseTypeNotDetected = "type not detected"
)

// Progress milestones of the per-item pipeline. Recognition-engine progress
// is remapped into the [ProgressRecognizeFrom, ProgressRecognizeTo] band.
const (
	ProgressAccepted      = 10
	ProgressStored        = 20
	ProgressRecognizeFrom = 30
	ProgressRecognizeTo   = 80
	ProgressDone          = 100
)

// UploadedItem is one file in flight through the intake pipeline. Items live
// only in the session store; nothing is persisted until confirmation.
type UploadedItem struct {
	ID         string          `json:"id"`
	BusinessID string          `json:"business_id"`
	Filename   string          `json:"filename"`
	MimeType   string          `json:"mime_type"`
	SizeBytes  int64           `json:"size_bytes"`
	StorageKey string          `json:"storage_key,omitempty"`
	FileURL    string          `json:"file_url,omitempty"`
	Status     ItemStatus      `json:"status"`
	Progress   int             `json:"progress"`
	Detected   *DetectedPermit `json:"detected_permit,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// DetectedPermit is the classifier's proposal for an item. It is immutable
// once produced; a manual correction replaces it wholesale.
type DetectedPermit struct {
	Type       PermitType `json:"type"`
	Name       string     `json:"name"`
	IssueDate  *time.Time `json:"issue_date,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	Confidence float64    `json:"confidence"`
}

// PermitProposal is the fully-specified tuple emitted by the correction
// surface. The orchestrator treats it identically to a detection result.
type PermitProposal struct {
	Type       PermitType `json:"type"`
	Name       string     `json:"name"`
	IssueDate  *time.Time `json:"issue_date,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
}

// Editable reports whether the correction surface is reachable for the item.
func (s ItemStatus) Editable() bool {
	return s == StatusDetected || s == StatusError
}

// Terminal reports whether the pipeline no longer acts on the item.
func (s ItemStatus) Terminal() bool {
	return s == StatusConfirmed
}
