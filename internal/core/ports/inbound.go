package ports

import (
	"context"
	"io"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
)

// IntakeService is the inbound contract for the document intake pipeline.
type IntakeService interface {
	// AddItem accepts a file, registers it in the session and starts its
	// pipeline asynchronously. The returned snapshot is the item right
	// after acceptance.
	AddItem(ctx context.Context, businessID, filename, mimeType string, size int64, body io.Reader) (*domain.UploadedItem, error)
	// Confirm persists the item's proposal, or the manual proposal when one
	// is given. On persistence failure the item keeps its pre-confirm state.
	Confirm(ctx context.Context, itemID string, manual *domain.PermitProposal) (*domain.UploadedItem, error)
	Item(itemID string) (*domain.UploadedItem, error)
	ListItems(businessID string) []domain.UploadedItem
	Delete(itemID string) error
}

// PermitReader is the inbound read model over persisted permit state.
type PermitReader interface {
	ListPermitStatuses(ctx context.Context, businessID string) ([]domain.BusinessPermitStatus, error)
	ListRequiredPermits(ctx context.Context, businessID string) ([]domain.RequiredPermit, error)
	ListDocuments(ctx context.Context, businessID string) ([]domain.DocumentRecord, error)
}

// PermitExporter produces the XLSX permit report for a business.
type PermitExporter interface {
	ExportPermitsXLSX(ctx context.Context, businessID string) ([]byte, error)
}
