package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
	"github.com/cristobalnm/permit-intake/internal/core/ports"
)

const dateLayout = "02-01-2006"

// Service produces the XLSX permit report a business owner can hand to an
// inspector: one sheet with permit statuses, one with uploaded documents.
type Service struct {
	repo   ports.PermitRepository
	logger *slog.Logger
}

func NewService(repo ports.PermitRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) ExportPermitsXLSX(ctx context.Context, businessID string) ([]byte, error) {
	start := time.Now()

	business, err := s.repo.GetBusinessByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	statuses, err := s.repo.ListPermitStatuses(ctx, businessID)
	if err != nil {
		return nil, err
	}
	documents, err := s.repo.ListDocuments(ctx, businessID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	const permitSheet = "Permisos"
	if err := renameDefaultSheet(f, permitSheet); err != nil {
		return nil, err
	}
	writeRow(f, permitSheet, 1, []any{"Permiso", "Código", "Estado", "Fecha emisión", "Fecha vencimiento", "Próximo paso", "Actualizado"})
	for i, status := range statuses {
		name := string(status.PermitCode)
		if rule, ok := domain.LookupPermitRule(status.PermitCode); ok {
			name = rule.Name
		}
		writeRow(f, permitSheet, i+2, []any{
			name,
			string(status.PermitCode),
			status.Status,
			formatDate(status.IssueDate),
			formatDate(status.ExpiryDate),
			status.NextStep,
			status.UpdatedAt.Format(dateLayout),
		})
	}
	_ = f.SetColWidth(permitSheet, "A", "A", 28)
	_ = f.SetColWidth(permitSheet, "B", "C", 12)
	_ = f.SetColWidth(permitSheet, "D", "E", 18)
	_ = f.SetColWidth(permitSheet, "F", "F", 36)
	_ = f.SetColWidth(permitSheet, "G", "G", 14)

	const docSheet = "Documentos"
	if _, err := f.NewSheet(docSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	writeRow(f, docSheet, 1, []any{"Documento", "Etiqueta", "Tipo", "Tamaño (bytes)", "URL", "Subido"})
	for i, doc := range documents {
		writeRow(f, docSheet, i+2, []any{
			doc.Name,
			doc.Label,
			doc.MimeType,
			doc.SizeBytes,
			doc.FileURL,
			doc.CreatedAt.Format(dateLayout),
		})
	}
	_ = f.SetColWidth(docSheet, "A", "B", 28)
	_ = f.SetColWidth(docSheet, "E", "E", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"business_id", business.ID,
		"permits", len(statuses),
		"documents", len(documents),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func renameDefaultSheet(f *excelize.File, name string) error {
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	index, err := f.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("sheet index: %w", err)
	}
	f.SetActiveSheet(index)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, value := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, value)
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
