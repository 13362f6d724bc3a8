package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
)

type queryRepoFake struct {
	repoFake
	business    *domain.Business
	businessErr error
	statuses    []domain.BusinessPermitStatus
	required    []domain.RequiredPermit
	documents   []domain.DocumentRecord
}

func (f *queryRepoFake) GetBusinessByID(_ context.Context, id string) (*domain.Business, error) {
	if f.businessErr != nil {
		return nil, f.businessErr
	}
	if f.business != nil && f.business.ID == id {
		return f.business, nil
	}
	return nil, domain.WrapError(domain.ErrBusinessNotFound, "get business", errors.New("no row"))
}

func (f *queryRepoFake) ListPermitStatuses(context.Context, string) ([]domain.BusinessPermitStatus, error) {
	return f.statuses, nil
}

func (f *queryRepoFake) ListRequiredPermits(context.Context, string) ([]domain.RequiredPermit, error) {
	return f.required, nil
}

func (f *queryRepoFake) ListDocuments(context.Context, string) ([]domain.DocumentRecord, error) {
	return f.documents, nil
}

func TestListPermitStatusesRequiresKnownBusiness(t *testing.T) {
	repo := &queryRepoFake{
		business: &domain.Business{ID: "biz-1", Name: "Cafetería Ñuñoa"},
		statuses: []domain.BusinessPermitStatus{{ID: "bps-1", BusinessID: "biz-1", PermitCode: domain.PermitPatenteMunicipal}},
	}
	queries := NewPermitQueries(repo)

	statuses, err := queries.ListPermitStatuses(context.Background(), "biz-1")
	if err != nil {
		t.Fatalf("ListPermitStatuses() error = %v", err)
	}
	if len(statuses) != 1 || statuses[0].ID != "bps-1" {
		t.Fatalf("unexpected statuses %+v", statuses)
	}

	_, err = queries.ListPermitStatuses(context.Background(), "biz-404")
	if !domain.IsKind(err, domain.ErrBusinessNotFound) {
		t.Fatalf("expected ErrBusinessNotFound, got %v", err)
	}
}

func TestListRequiredPermitsRequiresKnownBusiness(t *testing.T) {
	repo := &queryRepoFake{
		business: &domain.Business{ID: "biz-1", RubroID: "rubro-food"},
		required: []domain.RequiredPermit{{Entry: domain.CatalogEntry{ID: "perm-1", Code: domain.PermitResolucionSanitaria}}},
	}
	queries := NewPermitQueries(repo)

	required, err := queries.ListRequiredPermits(context.Background(), "biz-1")
	if err != nil {
		t.Fatalf("ListRequiredPermits() error = %v", err)
	}
	if len(required) != 1 || required[0].Entry.Code != domain.PermitResolucionSanitaria {
		t.Fatalf("unexpected rules %+v", required)
	}

	_, err = queries.ListRequiredPermits(context.Background(), "biz-404")
	if !domain.IsKind(err, domain.ErrBusinessNotFound) {
		t.Fatalf("expected ErrBusinessNotFound, got %v", err)
	}
}

func TestListDocumentsRequiresKnownBusiness(t *testing.T) {
	repo := &queryRepoFake{
		business:  &domain.Business{ID: "biz-1"},
		documents: []domain.DocumentRecord{{ID: "doc-1", BusinessID: "biz-1", Name: "patente.pdf"}},
	}
	queries := NewPermitQueries(repo)

	docs, err := queries.ListDocuments(context.Background(), "biz-1")
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "patente.pdf" {
		t.Fatalf("unexpected documents %+v", docs)
	}

	_, err = queries.ListDocuments(context.Background(), "biz-404")
	if !domain.IsKind(err, domain.ErrBusinessNotFound) {
		t.Fatalf("expected ErrBusinessNotFound, got %v", err)
	}
}
