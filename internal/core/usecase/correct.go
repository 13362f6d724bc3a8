package usecase

import (
	"fmt"
	"time"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
)

// ValidateProposal enforces the correction-surface rules on a manual permit
// proposal: the type must be one of the catalog codes, the issue date cannot
// lie in the future, and the expiry date cannot precede the issue date (or
// today, when no issue date is given). The display name is always resolved
// server-side from the rule table, never trusted from the caller.
func ValidateProposal(p domain.PermitProposal, now time.Time) (domain.PermitProposal, error) {
	rule, ok := domain.LookupPermitRule(p.Type)
	if !ok {
		return domain.PermitProposal{}, domain.WrapError(domain.ErrInvalidInput, "validate proposal", fmt.Errorf("unknown permit type %q", p.Type))
	}
	p.Name = rule.Name

	today := truncateToDay(now)
	if p.IssueDate != nil {
		issue := truncateToDay(*p.IssueDate)
		if issue.After(today) {
			return domain.PermitProposal{}, domain.WrapError(domain.ErrInvalidInput, "validate proposal", fmt.Errorf("issue date %s is in the future", issue.Format("2006-01-02")))
		}
		p.IssueDate = &issue
	}
	if p.ExpiryDate != nil {
		expiry := truncateToDay(*p.ExpiryDate)
		floor := today
		if p.IssueDate != nil {
			floor = *p.IssueDate
		}
		if expiry.Before(floor) {
			return domain.PermitProposal{}, domain.WrapError(domain.ErrInvalidInput, "validate proposal", fmt.Errorf("expiry date %s precedes %s", expiry.Format("2006-01-02"), floor.Format("2006-01-02")))
		}
		p.ExpiryDate = &expiry
	}
	return p, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
