package usecase

import (
	"context"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
	"github.com/cristobalnm/permit-intake/internal/core/ports"
)

// PermitQueries is the read model over persisted permit state. It verifies
// the business exists so handlers can map a missing business to 404 instead
// of returning an empty list.
type PermitQueries struct {
	repo ports.PermitRepository
}

func NewPermitQueries(repo ports.PermitRepository) *PermitQueries {
	return &PermitQueries{repo: repo}
}

func (q *PermitQueries) ListPermitStatuses(ctx context.Context, businessID string) ([]domain.BusinessPermitStatus, error) {
	if _, err := q.repo.GetBusinessByID(ctx, businessID); err != nil {
		return nil, err
	}
	return q.repo.ListPermitStatuses(ctx, businessID)
}

func (q *PermitQueries) ListRequiredPermits(ctx context.Context, businessID string) ([]domain.RequiredPermit, error) {
	if _, err := q.repo.GetBusinessByID(ctx, businessID); err != nil {
		return nil, err
	}
	return q.repo.ListRequiredPermits(ctx, businessID)
}

func (q *PermitQueries) ListDocuments(ctx context.Context, businessID string) ([]domain.DocumentRecord, error) {
	if _, err := q.repo.GetBusinessByID(ctx, businessID); err != nil {
		return nil, err
	}
	return q.repo.ListDocuments(ctx, businessID)
}
