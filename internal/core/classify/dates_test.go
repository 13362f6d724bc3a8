package classify

import (
	"strings"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtractDatesNumericDayFirst(t *testing.T) {
	got := ExtractDates("Emitido el 03/04/2025")
	if len(got) != 1 {
		t.Fatalf("expected 1 date, got %d", len(got))
	}
	if !got[0].Equal(date(2025, time.April, 3)) {
		t.Fatalf("expected 2025-04-03, got %s", got[0])
	}
}

func TestExtractDatesSpelledSpanish(t *testing.T) {
	got := ExtractDates("Otorgada el 3 de Abril de 2025 en Santiago")
	if len(got) != 1 {
		t.Fatalf("expected 1 date, got %d", len(got))
	}
	if !got[0].Equal(date(2025, time.April, 3)) {
		t.Fatalf("expected 2025-04-03, got %s", got[0])
	}
}

func TestExtractDatesYearFirst(t *testing.T) {
	got := ExtractDates("Registro 2024-06-01 vigente")
	if len(got) != 1 {
		t.Fatalf("expected 1 date, got %d", len(got))
	}
	if !got[0].Equal(date(2024, time.June, 1)) {
		t.Fatalf("expected 2024-06-01, got %s", got[0])
	}
}

func TestExtractDatesDiscardsImplausibleYears(t *testing.T) {
	if got := ExtractDates("Vence 31/12/2031"); len(got) != 0 {
		t.Fatalf("expected no dates outside the plausible window, got %v", got)
	}
	if got := ExtractDates("Emitida 01/01/2019"); len(got) != 0 {
		t.Fatalf("expected no dates outside the plausible window, got %v", got)
	}
}

func TestExtractDatesDropsInvalidCalendarDates(t *testing.T) {
	if got := ExtractDates("documento del 31/02/2025"); len(got) != 0 {
		t.Fatalf("expected invalid calendar date to be dropped, got %v", got)
	}
}

func TestExtractDatesUnknownMonthNameIgnored(t *testing.T) {
	if got := ExtractDates("5 de brumario de 2025"); len(got) != 0 {
		t.Fatalf("expected unknown month to be ignored, got %v", got)
	}
}

func TestExtractDatesKeepsDuplicates(t *testing.T) {
	got := ExtractDates("01/06/2024 y nuevamente 01/06/2024")
	if len(got) != 2 {
		t.Fatalf("expected duplicates to be kept, got %d dates", len(got))
	}
}

func TestClassifyDatesEmpty(t *testing.T) {
	roles := ClassifyDates("sin fechas", nil)
	if roles.IssueDate != nil || roles.ExpiryDate != nil {
		t.Fatalf("expected no roles, got %+v", roles)
	}
}

func TestClassifyDatesSingleIsIssue(t *testing.T) {
	d := date(2024, time.January, 1)
	roles := ClassifyDates("Emitida el 01-01-2024", []time.Time{d})
	if roles.IssueDate == nil || !roles.IssueDate.Equal(d) {
		t.Fatalf("expected single date as issue, got %+v", roles)
	}
	if roles.ExpiryDate != nil {
		t.Fatalf("expected no expiry, got %s", roles.ExpiryDate)
	}
}

func TestClassifyDatesKeywordProximity(t *testing.T) {
	// Enough filler between the two literals so the ±100-char windows do
	// not see each other's keywords.
	filler := strings.Repeat("certificado extendido por la autoridad competente ", 4)
	text := "Fecha de emision 01-01-2024. " + filler + " Con vencimiento el 01-01-2026."
	dates := []time.Time{date(2024, time.January, 1), date(2026, time.January, 1)}

	roles := ClassifyDates(text, dates)
	if roles.IssueDate == nil || !roles.IssueDate.Equal(dates[0]) {
		t.Fatalf("expected issue 2024-01-01, got %+v", roles.IssueDate)
	}
	if roles.ExpiryDate == nil || !roles.ExpiryDate.Equal(dates[1]) {
		t.Fatalf("expected expiry 2026-01-01, got %+v", roles.ExpiryDate)
	}
}

func TestClassifyDatesChronologicalFallback(t *testing.T) {
	// Literals use slashes, so the dash-formatted lookup misses and the
	// chronological fallback decides.
	text := "fecha de emision 01/01/2024 y vencimiento 01/01/2026"
	dates := []time.Time{date(2026, time.January, 1), date(2024, time.January, 1)}

	roles := ClassifyDates(text, dates)
	if roles.IssueDate == nil || !roles.IssueDate.Equal(date(2024, time.January, 1)) {
		t.Fatalf("expected earliest as issue, got %+v", roles.IssueDate)
	}
	if roles.ExpiryDate == nil || !roles.ExpiryDate.Equal(date(2026, time.January, 1)) {
		t.Fatalf("expected latest as expiry, got %+v", roles.ExpiryDate)
	}
}

func TestClassifyDatesFallbackSkipsExpiryForDuplicates(t *testing.T) {
	d := date(2024, time.June, 1)
	roles := ClassifyDates("texto sin contexto", []time.Time{d, d})
	if roles.IssueDate == nil || !roles.IssueDate.Equal(d) {
		t.Fatalf("expected issue date, got %+v", roles)
	}
	if roles.ExpiryDate != nil {
		t.Fatalf("expected no expiry when all dates are equal, got %s", roles.ExpiryDate)
	}
}

func TestClassifyDatesFirstMatchWinsPerRole(t *testing.T) {
	text := "vence el 01-03-2025 y tambien vence el 01-04-2026"
	dates := []time.Time{date(2025, time.March, 1), date(2026, time.April, 1)}

	roles := ClassifyDates(text, dates)
	if roles.ExpiryDate == nil || !roles.ExpiryDate.Equal(dates[0]) {
		t.Fatalf("expected first expiry-context date to win, got %+v", roles.ExpiryDate)
	}
}
