package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
)

// PermitRepository backs confirmation and the read-side permit views with
// Postgres. Table names follow the product's Spanish-language data model.
type PermitRepository struct {
	db *sql.DB
}

func NewPermitRepository(db *sql.DB) *PermitRepository {
	return &PermitRepository{db: db}
}

func (r *PermitRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS comunas (
	id TEXT PRIMARY KEY,
	nombre TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rubros (
	id TEXT PRIMARY KEY,
	nombre TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS negocios (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	nombre TEXT NOT NULL,
	direccion TEXT,
	rubro_id TEXT REFERENCES rubros(id),
	comuna_id TEXT REFERENCES comunas(id),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS permisos (
	id TEXT PRIMARY KEY,
	nombre TEXT NOT NULL UNIQUE,
	descripcion TEXT,
	obligatorio BOOLEAN NOT NULL DEFAULT FALSE,
	vigencia_meses INTEGER
);

CREATE TABLE IF NOT EXISTS permisos_negocio (
	id TEXT PRIMARY KEY,
	negocio_id TEXT NOT NULL REFERENCES negocios(id),
	permiso_id TEXT NOT NULL REFERENCES permisos(id),
	estado TEXT NOT NULL,
	fecha_emision DATE,
	fecha_vencimiento DATE,
	proximo_paso TEXT,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (negocio_id, permiso_id)
);

CREATE TABLE IF NOT EXISTS documentos (
	id TEXT PRIMARY KEY,
	user_id TEXT,
	negocio_id TEXT NOT NULL REFERENCES negocios(id),
	permiso_negocio_id TEXT REFERENCES permisos_negocio(id),
	nombre TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	size_bytes BIGINT NOT NULL DEFAULT 0,
	file_url TEXT NOT NULL,
	etiqueta TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS rubros_permisos (
	rubro_id TEXT NOT NULL REFERENCES rubros(id),
	permiso_id TEXT NOT NULL REFERENCES permisos(id),
	PRIMARY KEY (rubro_id, permiso_id)
);

CREATE INDEX IF NOT EXISTS idx_permisos_negocio_negocio ON permisos_negocio(negocio_id);
CREATE INDEX IF NOT EXISTS idx_documentos_negocio ON documentos(negocio_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := seedCatalog(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// catalogSeed fixes the five known permit types. Display names come from the
// detection rule table so the catalog and the classifier never drift.
var catalogSeed = []struct {
	code      domain.PermitType
	mandatory bool
	validity  sql.NullInt64
}{
	{domain.PermitPatenteMunicipal, true, sql.NullInt64{Int64: 12, Valid: true}},
	{domain.PermitResolucionSanitaria, true, sql.NullInt64{}},
	{domain.PermitCertificadoBomberos, false, sql.NullInt64{}},
	{domain.PermitInicioActividades, true, sql.NullInt64{}},
	{domain.PermitPermisoAnuncio, false, sql.NullInt64{}},
}

func seedCatalog(ctx context.Context, tx *sql.Tx) error {
	const query = `
INSERT INTO permisos (id, nombre, descripcion, obligatorio, vigencia_meses)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (nombre) DO NOTHING
`
	for _, seed := range catalogSeed {
		rule, ok := domain.LookupPermitRule(seed.code)
		if !ok {
			return fmt.Errorf("seed catalog: unknown permit code %q", seed.code)
		}
		if _, err := tx.ExecContext(ctx, query,
			uuid.NewString(), string(seed.code), rule.Name, seed.mandatory, seed.validity,
		); err != nil {
			return fmt.Errorf("seed catalog row %s: %w", seed.code, err)
		}
	}
	return nil
}

func (r *PermitRepository) GetBusinessByID(ctx context.Context, id string) (*domain.Business, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, nombre, direccion, rubro_id, comuna_id, created_at, updated_at
FROM negocios
WHERE id = $1
`, id)

	var business domain.Business
	var address, rubroID, comunaID sql.NullString
	err := row.Scan(
		&business.ID, &business.UserID, &business.Name,
		&address, &rubroID, &comunaID,
		&business.CreatedAt, &business.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBusinessNotFound, "get business", err)
		}
		return nil, fmt.Errorf("scan business: %w", err)
	}
	business.Address = address.String
	business.RubroID = rubroID.String
	business.ComunaID = comunaID.String
	return &business, nil
}

func (r *PermitRepository) GetCatalogEntryByCode(ctx context.Context, code domain.PermitType) (*domain.CatalogEntry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, nombre, descripcion, obligatorio, vigencia_meses
FROM permisos
WHERE nombre = $1
`, string(code))

	entry, err := scanCatalogEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrPermitNotFound, "get catalog entry", err)
		}
		return nil, fmt.Errorf("scan catalog entry: %w", err)
	}
	return entry, nil
}

func (r *PermitRepository) UpsertPermitStatus(ctx context.Context, status domain.BusinessPermitStatus) (*domain.BusinessPermitStatus, error) {
	if status.ID == "" {
		status.ID = uuid.NewString()
	}
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = time.Now().UTC()
	}

	row := r.db.QueryRowContext(ctx, `
INSERT INTO permisos_negocio (id, negocio_id, permiso_id, estado, fecha_emision, fecha_vencimiento, proximo_paso, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (negocio_id, permiso_id) DO UPDATE SET
	estado = EXCLUDED.estado,
	fecha_emision = EXCLUDED.fecha_emision,
	fecha_vencimiento = EXCLUDED.fecha_vencimiento,
	proximo_paso = EXCLUDED.proximo_paso,
	updated_at = EXCLUDED.updated_at
RETURNING id
`,
		status.ID, status.BusinessID, status.PermitID, status.Status,
		status.IssueDate, status.ExpiryDate, status.NextStep, status.UpdatedAt,
	)
	if err := row.Scan(&status.ID); err != nil {
		return nil, fmt.Errorf("upsert permit status: %w", err)
	}
	return &status, nil
}

func (r *PermitRepository) InsertDocument(ctx context.Context, doc domain.DocumentRecord) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO documentos (id, user_id, negocio_id, permiso_negocio_id, nombre, mime_type, size_bytes, file_url, etiqueta, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.ID, nullableText(doc.UserID), doc.BusinessID, nullableText(doc.PermitStatusID),
		doc.Name, doc.MimeType, doc.SizeBytes, doc.FileURL, nullableText(doc.Label), doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *PermitRepository) ListPermitStatuses(ctx context.Context, businessID string) ([]domain.BusinessPermitStatus, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT pn.id, pn.negocio_id, pn.permiso_id, p.nombre, pn.estado, pn.fecha_emision, pn.fecha_vencimiento, pn.proximo_paso, pn.updated_at
FROM permisos_negocio pn
JOIN permisos p ON p.id = pn.permiso_id
WHERE pn.negocio_id = $1
ORDER BY pn.updated_at DESC
`, businessID)
	if err != nil {
		return nil, fmt.Errorf("query permit statuses: %w", err)
	}
	defer rows.Close()

	var statuses []domain.BusinessPermitStatus
	for rows.Next() {
		var status domain.BusinessPermitStatus
		var code string
		var issue, expiry sql.NullTime
		var nextStep sql.NullString
		err := rows.Scan(
			&status.ID, &status.BusinessID, &status.PermitID, &code, &status.Status,
			&issue, &expiry, &nextStep, &status.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan permit status: %w", err)
		}
		status.PermitCode = domain.PermitType(code)
		if issue.Valid {
			status.IssueDate = &issue.Time
		}
		if expiry.Valid {
			status.ExpiryDate = &expiry.Time
		}
		status.NextStep = nextStep.String
		statuses = append(statuses, status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permit statuses: %w", err)
	}
	return statuses, nil
}

func (r *PermitRepository) ListRequiredPermits(ctx context.Context, businessID string) ([]domain.RequiredPermit, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT p.id, p.nombre, p.descripcion, p.obligatorio, p.vigencia_meses,
	pn.id, pn.estado, pn.fecha_emision, pn.fecha_vencimiento, pn.proximo_paso, pn.updated_at
FROM negocios n
JOIN rubros_permisos rp ON rp.rubro_id = n.rubro_id
JOIN permisos p ON p.id = rp.permiso_id
LEFT JOIN permisos_negocio pn ON pn.negocio_id = n.id AND pn.permiso_id = p.id
WHERE n.id = $1
ORDER BY p.nombre
`, businessID)
	if err != nil {
		return nil, fmt.Errorf("query required permits: %w", err)
	}
	defer rows.Close()

	var required []domain.RequiredPermit
	for rows.Next() {
		var entry domain.CatalogEntry
		var code string
		var description sql.NullString
		var validity sql.NullInt64
		var statusID, statusValue, nextStep sql.NullString
		var issue, expiry, updatedAt sql.NullTime
		err := rows.Scan(
			&entry.ID, &code, &description, &entry.Mandatory, &validity,
			&statusID, &statusValue, &issue, &expiry, &nextStep, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan required permit: %w", err)
		}
		entry.Code = domain.PermitType(code)
		entry.Description = description.String
		entry.ValidityMonth = int(validity.Int64)

		item := domain.RequiredPermit{Entry: entry}
		if statusID.Valid {
			status := domain.BusinessPermitStatus{
				ID:         statusID.String,
				BusinessID: businessID,
				PermitID:   entry.ID,
				PermitCode: entry.Code,
				Status:     statusValue.String,
				NextStep:   nextStep.String,
				UpdatedAt:  updatedAt.Time,
			}
			if issue.Valid {
				status.IssueDate = &issue.Time
			}
			if expiry.Valid {
				status.ExpiryDate = &expiry.Time
			}
			item.Status = &status
		}
		required = append(required, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate required permits: %w", err)
	}
	return required, nil
}

func (r *PermitRepository) ListDocuments(ctx context.Context, businessID string) ([]domain.DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, negocio_id, permiso_negocio_id, nombre, mime_type, size_bytes, file_url, etiqueta, created_at
FROM documentos
WHERE negocio_id = $1
ORDER BY created_at DESC
`, businessID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var documents []domain.DocumentRecord
	for rows.Next() {
		var doc domain.DocumentRecord
		var userID, statusID, label sql.NullString
		err := rows.Scan(
			&doc.ID, &userID, &doc.BusinessID, &statusID, &doc.Name,
			&doc.MimeType, &doc.SizeBytes, &doc.FileURL, &label, &doc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.UserID = userID.String
		doc.PermitStatusID = statusID.String
		doc.Label = label.String
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return documents, nil
}

func scanCatalogEntry(scan func(dest ...any) error) (*domain.CatalogEntry, error) {
	var entry domain.CatalogEntry
	var code string
	var description sql.NullString
	var validity sql.NullInt64
	if err := scan(&entry.ID, &code, &description, &entry.Mandatory, &validity); err != nil {
		return nil, err
	}
	entry.Code = domain.PermitType(code)
	entry.Description = description.String
	entry.ValidityMonth = int(validity.Int64)
	return &entry, nil
}

func nullableText(value string) any {
	if value == "" {
		return nil
	}
	return value
}
