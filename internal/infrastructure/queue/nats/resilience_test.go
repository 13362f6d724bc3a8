package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
)

func TestClassifyTransportError(t *testing.T) {
	cases := []struct {
		name          string
		err           error
		retryable     bool
		recordFailure bool
	}{
		{"nil", nil, false, false},
		{"cancelled", context.Canceled, false, false},
		{"deadline", fmt.Errorf("nats request: %w", context.DeadlineExceeded), false, false},
		{"engine failure", engineError{message: "scrambled input"}, false, false},
		{"no servers", fmt.Errorf("nats request: %w", nats.ErrNoServers), true, true},
		{"timeout", nats.ErrTimeout, true, true},
		{"no responders", nats.ErrNoResponders, true, true},
		{"unknown", errors.New("boom"), false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome := classifyTransportError(tc.err)
			if outcome.Retryable != tc.retryable {
				t.Errorf("Retryable = %v, want %v", outcome.Retryable, tc.retryable)
			}
			if outcome.RecordFailure != tc.recordFailure {
				t.Errorf("RecordFailure = %v, want %v", outcome.RecordFailure, tc.recordFailure)
			}
		})
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded("recognize request", fmt.Errorf("nats request: %w", nats.ErrTimeout))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("transport timeout should be marked temporary, got %v", err)
	}

	permanent := engineError{message: "unsupported input"}
	err = wrapTemporaryIfNeeded("recognize request", permanent)
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("engine failure must not be marked temporary, got %v", err)
	}

	wrapped := domain.WrapError(domain.ErrTemporary, "recognize request", nats.ErrTimeout)
	if got := wrapTemporaryIfNeeded("recognize request", wrapped); got != wrapped {
		t.Fatalf("already-temporary error should pass through unchanged")
	}
}
