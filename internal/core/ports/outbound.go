package ports

import (
	"context"
	"io"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
)

// ObjectStore keeps uploaded binaries and hands out public URLs for them.
// Deletion is explicit; nothing in the intake state machine reclaims stored
// objects automatically.
type ObjectStore interface {
	Put(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	PublicURL(key string) string
	Delete(ctx context.Context, keys []string) error
}

// Recognizer runs text recognition on a stored binary. onProgress receives
// fractional completion in [0,1] and may be called from another goroutine;
// a nil onProgress is allowed.
type Recognizer interface {
	Recognize(ctx context.Context, job domain.RecognitionJob, onProgress func(float64)) (string, error)
}

// RecognitionServer is the worker-side counterpart of Recognizer: it consumes
// jobs and replies with the engine result, reporting progress as it goes.
type RecognitionServer interface {
	ServeRecognition(ctx context.Context, handle func(ctx context.Context, job domain.RecognitionJob, report func(float64)) (string, error)) error
}

// PermitRepository is the relational store behind confirmation and the
// read-side permit views. UpsertPermitStatus is keyed on the composite
// (business, permit) pair: re-confirming the same permit type overwrites the
// row instead of duplicating it.
type PermitRepository interface {
	GetBusinessByID(ctx context.Context, id string) (*domain.Business, error)
	GetCatalogEntryByCode(ctx context.Context, code domain.PermitType) (*domain.CatalogEntry, error)
	UpsertPermitStatus(ctx context.Context, status domain.BusinessPermitStatus) (*domain.BusinessPermitStatus, error)
	InsertDocument(ctx context.Context, doc domain.DocumentRecord) error
	ListPermitStatuses(ctx context.Context, businessID string) ([]domain.BusinessPermitStatus, error)
	ListRequiredPermits(ctx context.Context, businessID string) ([]domain.RequiredPermit, error)
	ListDocuments(ctx context.Context, businessID string) ([]domain.DocumentRecord, error)
}
