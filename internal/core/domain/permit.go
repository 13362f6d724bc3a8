package domain

type PermitType string

const (
	PermitPatenteMunicipal    PermitType = "PAT_MUN"
	PermitResolucionSanitaria PermitType = "RES_SAN"
	PermitCertificadoBomberos PermitType = "CERT_BOM"
	PermitInicioActividades   PermitType = "SII_INIT"
	PermitPermisoAnuncio      PermitType = "PER_ANU"
)

// PermitTypeRule maps a permit-type code to its display name and the locale
// keywords used for detection. Keywords are matched after normalization.
type PermitTypeRule struct {
	Type     PermitType
	Name     string
	Keywords []string
}

// PermitTypeRules is the detection fall-through chain. Order is significant:
// the detector takes the first entry with any keyword hit, so earlier entries
// win ties.
var PermitTypeRules = []PermitTypeRule{
	{
		Type:     PermitPatenteMunicipal,
		Name:     "Patente Municipal",
		Keywords: []string{"patente municipal", "patente comercial", "municipal"},
	},
	{
		Type:     PermitResolucionSanitaria,
		Name:     "Resolución Sanitaria",
		Keywords: []string{"resolución sanitaria", "sanitaria", "seremi salud", "autorización sanitaria"},
	},
	{
		Type:     PermitCertificadoBomberos,
		Name:     "Certificado de Bomberos",
		Keywords: []string{"certificado bomberos", "bomberos", "prevención riesgos", "seguridad bomberos"},
	},
	{
		Type:     PermitInicioActividades,
		Name:     "Inicio de Actividades SII",
		Keywords: []string{"inicio actividades", "iniciación actividades", "sii", "servicio impuestos"},
	},
	{
		Type:     PermitPermisoAnuncio,
		Name:     "Permiso de Anuncio",
		Keywords: []string{"permiso anuncio", "publicidad", "permiso publicidad", "anuncio", "propaganda"},
	},
}

// LookupPermitRule resolves a code against the rule table.
func LookupPermitRule(code PermitType) (PermitTypeRule, bool) {
	for _, rule := range PermitTypeRules {
		if rule.Type == code {
			return rule, true
		}
	}
	return PermitTypeRule{}, false
}

// ValidPermitType reports whether code is one of the five catalog codes.
func ValidPermitType(code PermitType) bool {
	_, ok := LookupPermitRule(code)
	return ok
}
