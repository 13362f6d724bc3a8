package classify

import (
	"testing"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
)

func TestDetectPermitTypeBomberos(t *testing.T) {
	got := DetectPermitType("Certificado otorgado por Bomberos de Santiago")
	if got == nil {
		t.Fatalf("expected a detection")
	}
	if got.Type != domain.PermitCertificadoBomberos {
		t.Fatalf("expected CERT_BOM, got %s", got.Type)
	}
	if got.Confidence < 0.5 {
		t.Fatalf("expected confidence >= 0.5, got %f", got.Confidence)
	}
}

func TestDetectPermitTypeAccentInsensitive(t *testing.T) {
	got := DetectPermitType("RESOLUCION SANITARIA exenta")
	if got == nil || got.Type != domain.PermitResolucionSanitaria {
		t.Fatalf("expected RES_SAN, got %+v", got)
	}
}

func TestDetectPermitTypeNoMatch(t *testing.T) {
	if got := DetectPermitType("boleta de supermercado"); got != nil {
		t.Fatalf("expected no detection, got %+v", got)
	}
}

func TestDetectPermitTypeFirstMatchByTableOrder(t *testing.T) {
	// "municipal" (PAT_MUN) and "bomberos" (CERT_BOM) both hit; table order
	// resolves to the earlier entry.
	got := DetectPermitType("certificado municipal de bomberos")
	if got == nil || got.Type != domain.PermitPatenteMunicipal {
		t.Fatalf("expected PAT_MUN by table order, got %+v", got)
	}
}

func TestDetectConfidenceMonotonicAndClamped(t *testing.T) {
	one := DetectPermitType("documento municipal")
	two := DetectPermitType("patente municipal vigente")
	all := DetectPermitType("patente municipal patente comercial municipal")

	if one == nil || two == nil || all == nil {
		t.Fatalf("expected detections for all inputs")
	}
	if !(one.Confidence <= two.Confidence && two.Confidence <= all.Confidence) {
		t.Fatalf("confidence not monotonic: %f, %f, %f", one.Confidence, two.Confidence, all.Confidence)
	}
	if all.Confidence != 1 {
		t.Fatalf("expected clamp at 1.0 with all keywords present, got %f", all.Confidence)
	}
}
