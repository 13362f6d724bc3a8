package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
)

const proposalDateLayout = "2006-01-02"

type confirmRequest struct {
	Permit *permitProposalDTO `json:"permit"`
}

type permitProposalDTO struct {
	Type       string `json:"type"`
	IssueDate  string `json:"issue_date,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
}

// decodeConfirmRequest reads the optional manual-correction body. An empty
// body means "confirm the detected proposal as-is".
func decodeConfirmRequest(r *http.Request) (*domain.PermitProposal, error) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid json body")
	}
	if req.Permit == nil {
		return nil, nil
	}

	proposal := domain.PermitProposal{Type: domain.PermitType(req.Permit.Type)}

	issue, err := parseProposalDate(req.Permit.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("issue_date: %w", err)
	}
	expiry, err := parseProposalDate(req.Permit.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("expiry_date: %w", err)
	}
	proposal.IssueDate = issue
	proposal.ExpiryDate = expiry
	return &proposal, nil
}

func parseProposalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(proposalDateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("expected %s", proposalDateLayout)
	}
	parsed = parsed.UTC()
	return &parsed, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
