package domain

import "time"

// Business mirrors a negocios row.
type Business struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	RubroID   string    `json:"rubro_id"`
	ComunaID  string    `json:"comuna_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CatalogEntry mirrors a permisos row. Nombre carries the permit-type code.
type CatalogEntry struct {
	ID            string     `json:"id"`
	Code          PermitType `json:"code"`
	Description   string     `json:"description,omitempty"`
	Mandatory     bool       `json:"mandatory"`
	ValidityMonth int        `json:"validity_months,omitempty"`
}

// BusinessPermitStatus mirrors a permisos_negocio row. At most one row exists
// per (business, permit) pair; writes are upserts on that key.
type BusinessPermitStatus struct {
	ID         string     `json:"id"`
	BusinessID string     `json:"business_id"`
	PermitID   string     `json:"permit_id"`
	PermitCode PermitType `json:"permit_code,omitempty"`
	Status     string     `json:"status"`
	IssueDate  *time.Time `json:"issue_date,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	NextStep   string     `json:"next_step,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// DocumentRecord mirrors a documentos row created at confirmation time.
type DocumentRecord struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id,omitempty"`
	BusinessID     string    `json:"business_id"`
	PermitStatusID string    `json:"permit_status_id"`
	Name           string    `json:"name"`
	MimeType       string    `json:"mime_type"`
	SizeBytes      int64     `json:"size_bytes"`
	FileURL        string    `json:"file_url"`
	Label          string    `json:"label,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RequiredPermit is a rubros_permisos rule joined with the catalog and the
// business's current status row, if any.
type RequiredPermit struct {
	Entry  CatalogEntry          `json:"entry"`
	Status *BusinessPermitStatus `json:"status,omitempty"`
}

// PermitStatusApproved is the status written on confirmation.
const PermitStatusApproved = "approved"

// ConfirmedNextStep is the next-step text recorded with an approved upsert.
const ConfirmedNextStep = "Documento subido y aprobado"
