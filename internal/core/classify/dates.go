package classify

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// Day-first numeric: 03/04/2025, 3-4-2025, 03.04.2025.
	reDateNumeric = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})\b`)
	// Spelled out: "3 de abril de 2025".
	reDateSpelled = regexp.MustCompile(`\b(\d{1,2})\s+de\s+(\p{L}+)\s+de\s+(\d{4})\b`)
	// Year-first numeric: 2025-04-03.
	reDateYearFirst = regexp.MustCompile(`\b(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})\b`)
)

var spanishMonths = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"octubre": time.October, "noviembre": time.November, "diciembre": time.December,
}

// Years outside this window are treated as extraction noise.
const (
	minPlausibleYear = 2020
	maxPlausibleYear = 2030
)

// ExtractDates scans text for date literals and parses each into a calendar
// date. Matching runs over the lower-cased text so month names hit regardless
// of case; accents are left alone because the month set carries none. Invalid
// calendar dates are dropped silently and duplicates are kept.
func ExtractDates(text string) []time.Time {
	lowered := strings.ToLower(text)
	var dates []time.Time

	for _, m := range reDateNumeric.FindAllStringSubmatch(lowered, -1) {
		first, second, third := mustInt(m[1]), mustInt(m[2]), mustInt(m[3])
		if d, ok := resolveNumeric(first, second, third); ok {
			dates = append(dates, d)
		}
	}

	for _, m := range reDateSpelled.FindAllStringSubmatch(lowered, -1) {
		month, ok := spanishMonths[m[2]]
		if !ok {
			continue
		}
		day := mustInt(m[1])
		year := mustInt(m[3])
		if d, ok := makeDate(year, month, day); ok {
			dates = append(dates, d)
		}
	}

	for _, m := range reDateYearFirst.FindAllStringSubmatch(lowered, -1) {
		first, second, third := mustInt(m[1]), mustInt(m[2]), mustInt(m[3])
		if d, ok := resolveNumeric(first, second, third); ok {
			dates = append(dates, d)
		}
	}

	plausible := dates[:0]
	for _, d := range dates {
		if d.Year() >= minPlausibleYear && d.Year() <= maxPlausibleYear {
			plausible = append(plausible, d)
		}
	}
	return plausible
}

// resolveNumeric disambiguates year position in a three-group numeric match:
// a trailing group above 1900 means day-month-year, a leading one means
// year-month-day. Anything else is discarded.
func resolveNumeric(first, second, third int) (time.Time, bool) {
	switch {
	case third > 1900:
		return makeDate(third, time.Month(second), first)
	case first > 1900:
		return makeDate(first, time.Month(second), third)
	default:
		return time.Time{}, false
	}
}

// makeDate builds a UTC date and rejects values that do not round-trip, such
// as 31/02.
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func mustInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

var (
	issueKeywords  = []string{"emision", "emitida", "fecha", "otorgada", "concedida"}
	expiryKeywords = []string{"vencimiento", "validez", "vence", "hasta", "expira", "caduca"}
)

// contextWindow is how far around a date literal the classifier looks for
// role keywords, in characters of the original text.
const contextWindow = 100

// DateRoles carries the classifier's issue/expiry assignment.
type DateRoles struct {
	IssueDate  *time.Time
	ExpiryDate *time.Time
}

// ClassifyDates assigns issue and expiry roles to extracted dates. A single
// date is taken as the issue date. With two or more, keyword proximity around
// each date's es-CL literal decides first; dates whose literal does not
// appear verbatim in the text are skipped there. When proximity assigns
// neither role, chronological order decides: earliest is the issue date and
// the latest distinct date is the expiry date.
func ClassifyDates(text string, dates []time.Time) DateRoles {
	if len(dates) == 0 {
		return DateRoles{}
	}
	if len(dates) == 1 {
		d := dates[0]
		return DateRoles{IssueDate: &d}
	}

	var roles DateRoles
	for i := range dates {
		d := dates[i]
		idx := strings.Index(text, formatCL(d))
		if idx < 0 {
			continue
		}

		start := idx - contextWindow
		if start < 0 {
			start = 0
		}
		end := idx + contextWindow
		if end > len(text) {
			end = len(text)
		}
		window := Normalize(text[start:end])

		if roles.IssueDate == nil && containsAny(window, issueKeywords) {
			roles.IssueDate = &d
		}
		if roles.ExpiryDate == nil && containsAny(window, expiryKeywords) {
			roles.ExpiryDate = &d
		}
	}

	if roles.IssueDate == nil && roles.ExpiryDate == nil {
		sorted := make([]time.Time, len(dates))
		copy(sorted, dates)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

		first := sorted[0]
		roles.IssueDate = &first
		last := sorted[len(sorted)-1]
		if !last.Equal(first) {
			roles.ExpiryDate = &last
		}
	}
	return roles
}

// formatCL renders a date the way es-CL documents print it.
func formatCL(d time.Time) string {
	return d.Format("02-01-2006")
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
