package classify

import "testing"

func TestNormalizeStripsDiacritics(t *testing.T) {
	if Normalize("Resolución") != Normalize("Resolucion") {
		t.Fatalf("expected accented and plain forms to normalize equal")
	}
	if got := Normalize("Resolución Sanitaria"); got != "resolucion sanitaria" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}

func TestNormalizeReplacesPunctuationAndCollapsesWhitespace(t *testing.T) {
	got := Normalize("  PATENTE, municipal.\t(No. 123)  ")
	if got != "patente municipal no 123" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Certificado de Bomberos — válido hasta 2026",
		"ÁÉÍÓÚ ñ ü",
		"ya normalizado",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
