package classify

import (
	"strings"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
)

// DetectPermitType matches normalized text against the ordered rule table
// and returns the first entry with at least one keyword hit. This is a
// first-match policy, not best-match: table order is the tie-break, so a
// document matching keywords of two entries resolves to the earlier one.
// Confidence floors at 0.5 on any hit and grows with keyword density,
// clamped to 1. A nil result means detection failed and classification must
// go through the manual path.
func DetectPermitType(text string) *domain.DetectedPermit {
	normalized := Normalize(text)

	for _, rule := range domain.PermitTypeRules {
		hits := 0
		for _, keyword := range rule.Keywords {
			if strings.Contains(normalized, Normalize(keyword)) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}

		confidence := float64(hits)/float64(len(rule.Keywords)) + 0.5
		if confidence > 1 {
			confidence = 1
		}
		return &domain.DetectedPermit{
			Type:       rule.Type,
			Name:       rule.Name,
			Confidence: confidence,
		}
	}
	return nil
}
