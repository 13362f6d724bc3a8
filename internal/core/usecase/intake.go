package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cristobalnm/permit-intake/internal/core/classify"
	"github.com/cristobalnm/permit-intake/internal/core/domain"
	"github.com/cristobalnm/permit-intake/internal/core/ports"
	"github.com/cristobalnm/permit-intake/internal/core/session"
)

// MaxUploadBytes is the client-facing upload cap.
const MaxUploadBytes = 10 << 20

// businessIDPattern bounds what ends up in object-store keys. Path
// separators and dot segments never belong in an id.
var businessIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var extPattern = regexp.MustCompile(`^\.[a-z0-9]+$`)

var acceptedMimeTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// IntakeMetrics receives pipeline observations. Implementations must be safe
// for concurrent use.
type IntakeMetrics interface {
	ObserveItemOutcome(status domain.ItemStatus)
	ObserveDetectionConfidence(confidence float64)
	ObserveRecognitionDuration(d time.Duration, err error)
}

type nopMetrics struct{}

func (nopMetrics) ObserveItemOutcome(domain.ItemStatus)            {}
func (nopMetrics) ObserveDetectionConfidence(float64)              {}
func (nopMetrics) ObserveRecognitionDuration(time.Duration, error) {}

// IntakeOrchestrator owns the lifecycle of every uploaded item: object-store
// upload, recognition, classification, the per-item state machine and the
// confirmation writes. Pipelines of different items run as independent
// goroutines; all shared state lives in the session store.
type IntakeOrchestrator struct {
	sessions   *session.Store
	storage    ports.ObjectStore
	recognizer ports.Recognizer
	repo       ports.PermitRepository
	logger     *slog.Logger
	metrics    IntakeMetrics

	now   func() time.Time
	newID func() string
}

type OrchestratorOption func(*IntakeOrchestrator)

func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *IntakeOrchestrator) { o.now = now }
}

func WithIDGenerator(newID func() string) OrchestratorOption {
	return func(o *IntakeOrchestrator) { o.newID = newID }
}

func WithIntakeMetrics(m IntakeMetrics) OrchestratorOption {
	return func(o *IntakeOrchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

func NewIntakeOrchestrator(
	sessions *session.Store,
	storage ports.ObjectStore,
	recognizer ports.Recognizer,
	repo ports.PermitRepository,
	logger *slog.Logger,
	opts ...OrchestratorOption,
) *IntakeOrchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &IntakeOrchestrator{
		sessions:   sessions,
		storage:    storage,
		recognizer: recognizer,
		repo:       repo,
		logger:     logger,
		metrics:    nopMetrics{},
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AddItem validates and registers an upload, then starts its pipeline in the
// background. The body is buffered up front: the caller's request ends long
// before the pipeline does.
func (o *IntakeOrchestrator) AddItem(
	ctx context.Context,
	businessID, filename, mimeType string,
	size int64,
	body io.Reader,
) (*domain.UploadedItem, error) {
	if businessID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add intake item", fmt.Errorf("business id is required"))
	}
	if !businessIDPattern.MatchString(businessID) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add intake item", fmt.Errorf("business id has an invalid format"))
	}
	if _, ok := acceptedMimeTypes[mimeType]; !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add intake item", fmt.Errorf("unsupported media type %q", mimeType))
	}
	if size > MaxUploadBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add intake item", fmt.Errorf("file exceeds %d bytes", MaxUploadBytes))
	}

	payload, err := io.ReadAll(io.LimitReader(body, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if len(payload) > MaxUploadBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add intake item", fmt.Errorf("file exceeds %d bytes", MaxUploadBytes))
	}

	now := o.now()
	item := domain.UploadedItem{
		ID:         o.newID(),
		BusinessID: businessID,
		Filename:   filename,
		MimeType:   mimeType,
		SizeBytes:  int64(len(payload)),
		Status:     domain.StatusUploading,
		Progress:   0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.sessions.Put(item)

	go o.runPipeline(context.WithoutCancel(ctx), item, payload)

	return &item, nil
}

// runPipeline drives one item through upload, recognition and
// classification. Every state change goes through replace-by-id; if the user
// deleted the item in the meantime the replace misses and the stale result is
// dropped.
func (o *IntakeOrchestrator) runPipeline(ctx context.Context, item domain.UploadedItem, payload []byte) {
	log := o.logger.With("item_id", item.ID, "business_id", item.BusinessID)

	if _, ok := o.setProgress(item.ID, domain.ProgressAccepted); !ok {
		return
	}

	key := o.storageKey(item.BusinessID, item.Filename)
	if err := o.storage.Put(ctx, key, bytes.NewReader(payload)); err != nil {
		log.Error("stored-object upload failed", "error", err)
		o.fail(item.ID, domain.CauseUploadFailed)
		return
	}
	url := o.storage.PublicURL(key)

	if _, ok := o.sessions.Replace(item.ID, func(it domain.UploadedItem) domain.UploadedItem {
		it.StorageKey = key
		it.FileURL = url
		it.Progress = domain.ProgressStored
		it.UpdatedAt = o.now()
		return it
	}); !ok {
		return
	}

	if _, ok := o.sessions.Replace(item.ID, func(it domain.UploadedItem) domain.UploadedItem {
		it.Status = domain.StatusProcessing
		it.Progress = domain.ProgressRecognizeFrom
		it.UpdatedAt = o.now()
		return it
	}); !ok {
		return
	}

	job := domain.RecognitionJob{
		ItemID:     item.ID,
		StorageKey: key,
		MimeType:   item.MimeType,
		Language:   domain.RecognitionLanguage,
	}
	started := o.now()
	text, err := o.recognizer.Recognize(ctx, job, func(fraction float64) {
		o.setProgress(item.ID, remapProgress(fraction))
	})
	o.metrics.ObserveRecognitionDuration(o.now().Sub(started), err)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			log.Error("recognition failed", "error", err)
		} else {
			log.Warn("recognition returned empty text")
		}
		o.fail(item.ID, domain.CauseProcessFailed)
		return
	}

	detected := classify.DetectPermitType(text)
	roles := classify.ClassifyDates(text, classify.ExtractDates(text))

	if detected == nil {
		// Expected outcome, not a system error: the item stays editable
		// and the user classifies manually.
		log.Info("no permit type detected, routing to manual classification")
		o.fail(item.ID, domain.CauseTypeNotDetected)
		return
	}

	detected.IssueDate = roles.IssueDate
	detected.ExpiryDate = roles.ExpiryDate

	if _, ok := o.sessions.Replace(item.ID, func(it domain.UploadedItem) domain.UploadedItem {
		it.Status = domain.StatusDetected
		it.Progress = domain.ProgressDone
		it.Detected = detected
		it.Error = ""
		it.UpdatedAt = o.now()
		return it
	}); !ok {
		return
	}
	o.metrics.ObserveItemOutcome(domain.StatusDetected)
	o.metrics.ObserveDetectionConfidence(detected.Confidence)
	log.Info("permit detected",
		"permit_type", detected.Type,
		"confidence", detected.Confidence,
		"has_issue_date", detected.IssueDate != nil,
		"has_expiry_date", detected.ExpiryDate != nil,
	)
}

// Confirm resolves the proposal against the catalog, upserts the
// (business, permit) status row and records the document. Session state is
// only advanced after every write succeeded, so a persistence failure leaves
// the item confirmable again.
func (o *IntakeOrchestrator) Confirm(ctx context.Context, itemID string, manual *domain.PermitProposal) (*domain.UploadedItem, error) {
	item, ok := o.sessions.Get(itemID)
	if !ok {
		return nil, domain.WrapError(domain.ErrItemNotFound, "confirm permit", fmt.Errorf("item %s", itemID))
	}
	if !item.Status.Editable() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "confirm permit", fmt.Errorf("item in status %s cannot be confirmed", item.Status))
	}
	if item.StorageKey == "" || item.FileURL == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "confirm permit", fmt.Errorf("item has no stored file"))
	}

	proposal, err := o.resolveProposal(item, manual)
	if err != nil {
		return nil, err
	}

	entry, err := o.repo.GetCatalogEntryByCode(ctx, proposal.Type)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog entry: %w", err)
	}

	status, err := o.repo.UpsertPermitStatus(ctx, domain.BusinessPermitStatus{
		BusinessID: item.BusinessID,
		PermitID:   entry.ID,
		Status:     domain.PermitStatusApproved,
		IssueDate:  proposal.IssueDate,
		ExpiryDate: proposal.ExpiryDate,
		NextStep:   domain.ConfirmedNextStep,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert permit status: %w", err)
	}

	if err := o.repo.InsertDocument(ctx, domain.DocumentRecord{
		ID:             o.newID(),
		BusinessID:     item.BusinessID,
		PermitStatusID: status.ID,
		Name:           item.Filename,
		MimeType:       item.MimeType,
		SizeBytes:      item.SizeBytes,
		FileURL:        item.FileURL,
		Label:          proposal.Name,
		CreatedAt:      o.now(),
	}); err != nil {
		return nil, fmt.Errorf("insert document record: %w", err)
	}

	confidence := 1.0
	if manual == nil && item.Detected != nil {
		confidence = item.Detected.Confidence
	}
	confirmed, ok := o.sessions.Replace(itemID, func(it domain.UploadedItem) domain.UploadedItem {
		it.Status = domain.StatusConfirmed
		it.Progress = domain.ProgressDone
		it.Error = ""
		it.Detected = &domain.DetectedPermit{
			Type:       proposal.Type,
			Name:       proposal.Name,
			IssueDate:  proposal.IssueDate,
			ExpiryDate: proposal.ExpiryDate,
			Confidence: confidence,
		}
		it.UpdatedAt = o.now()
		return it
	})
	if !ok {
		return nil, domain.WrapError(domain.ErrItemNotFound, "confirm permit", fmt.Errorf("item %s removed during confirmation", itemID))
	}

	o.metrics.ObserveItemOutcome(domain.StatusConfirmed)
	o.logger.Info("permit confirmed",
		"item_id", itemID,
		"business_id", item.BusinessID,
		"permit_type", proposal.Type,
		"permit_status_id", status.ID,
	)
	return &confirmed, nil
}

// resolveProposal picks the manual override when present, otherwise the
// detection result. A manual proposal supersedes the detection wholesale.
func (o *IntakeOrchestrator) resolveProposal(item domain.UploadedItem, manual *domain.PermitProposal) (domain.PermitProposal, error) {
	if manual != nil {
		validated, err := ValidateProposal(*manual, o.now())
		if err != nil {
			return domain.PermitProposal{}, err
		}
		return validated, nil
	}
	if item.Detected == nil {
		return domain.PermitProposal{}, domain.WrapError(domain.ErrInvalidInput, "confirm permit", fmt.Errorf("no detected permit and no manual proposal"))
	}
	return domain.PermitProposal{
		Type:       item.Detected.Type,
		Name:       item.Detected.Name,
		IssueDate:  item.Detected.IssueDate,
		ExpiryDate: item.Detected.ExpiryDate,
	}, nil
}

// Delete drops the item from the session. The stored binary is not
// reclaimed here; any in-flight recognition result just finds nothing to
// replace.
func (o *IntakeOrchestrator) Delete(itemID string) error {
	if !o.sessions.Remove(itemID) {
		return domain.WrapError(domain.ErrItemNotFound, "delete intake item", fmt.Errorf("item %s", itemID))
	}
	return nil
}

func (o *IntakeOrchestrator) Item(itemID string) (*domain.UploadedItem, error) {
	item, ok := o.sessions.Get(itemID)
	if !ok {
		return nil, domain.WrapError(domain.ErrItemNotFound, "get intake item", fmt.Errorf("item %s", itemID))
	}
	return &item, nil
}

func (o *IntakeOrchestrator) ListItems(businessID string) []domain.UploadedItem {
	return o.sessions.ListByBusiness(businessID)
}

func (o *IntakeOrchestrator) fail(itemID, cause string) {
	if _, ok := o.sessions.Replace(itemID, func(it domain.UploadedItem) domain.UploadedItem {
		it.Status = domain.StatusError
		it.Progress = domain.ProgressDone
		it.Error = cause
		it.UpdatedAt = o.now()
		return it
	}); ok {
		o.metrics.ObserveItemOutcome(domain.StatusError)
	}
}

func (o *IntakeOrchestrator) setProgress(itemID string, progress int) (domain.UploadedItem, bool) {
	return o.sessions.Replace(itemID, func(it domain.UploadedItem) domain.UploadedItem {
		it.Progress = progress
		it.UpdatedAt = o.now()
		return it
	})
}

// storageKey builds the object-store key: docs/{businessID}/{ts}_{token}{ext}.
func (o *IntakeOrchestrator) storageKey(businessID, filename string) string {
	token := strings.ReplaceAll(o.newID(), "-", "")
	if len(token) > 12 {
		token = token[:12]
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("docs/%s/%d_%s%s", businessID, o.now().UnixMilli(), token, ext)
}

// remapProgress moves an engine fraction into the band the overall scale
// reserves for recognition.
func remapProgress(fraction float64) int {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	span := float64(domain.ProgressRecognizeTo - domain.ProgressRecognizeFrom)
	return domain.ProgressRecognizeFrom + int(fraction*span)
}
