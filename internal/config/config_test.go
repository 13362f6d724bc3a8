package config

import "testing"

func TestLoadUsesDefaults(t *testing.T) {
	t.Setenv("NATS_URL", "")
	t.Setenv("TESSERACT_URL", "")
	t.Setenv("RECOGNITION_LANGUAGE", "")
	t.Setenv("RETRY_MAX_ATTEMPTS", "")
	t.Setenv("BREAKER_ENABLED", "")

	cfg := Load()
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Fatalf("expected default nats url, got %q", cfg.NATSURL)
	}
	if cfg.TesseractURL != "http://localhost:8884" {
		t.Fatalf("expected default tesseract url, got %q", cfg.TesseractURL)
	}
	if cfg.RecognitionLanguage != "spa" {
		t.Fatalf("expected default language spa, got %q", cfg.RecognitionLanguage)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Fatalf("expected default retry attempts 3, got %d", cfg.RetryMaxAttempts)
	}
	if !cfg.BreakerEnabled {
		t.Fatalf("expected breaker enabled by default")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9001")
	t.Setenv("NATS_REQUEST_TIMEOUT_SECONDS", "30")
	t.Setenv("TESSERACT_TIMEOUT_SECONDS", "bogus")
	t.Setenv("BREAKER_ENABLED", "false")

	cfg := Load()
	if cfg.APIPort != "9001" {
		t.Fatalf("expected api port override, got %q", cfg.APIPort)
	}
	if got := cfg.NATSRequestTimeout().Seconds(); got != 30 {
		t.Fatalf("expected 30s request timeout, got %v", got)
	}
	if got := cfg.TesseractTimeout().Seconds(); got != 90 {
		t.Fatalf("expected fallback on unparsable int, got %v", got)
	}
	if cfg.BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
}
