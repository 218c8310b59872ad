package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestDocpostError_Error(t *testing.T) {
	err := &DocpostError{
		Code:    ErrExtractionFailed,
		Status:  502,
		Message: "failed to extract text",
	}

	expected := "EXTRACTION_FAILED: failed to extract text"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewPortNotFound(t *testing.T) {
	attempted := []string{"port-info.json", "server-port.txt", "cached port"}
	err := NewPortNotFound(attempted)

	if err.Code != ErrPortNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrPortNotFound)
	}
	if err.Status != 503 {
		t.Errorf("Status = %d, want 503", err.Status)
	}
	got, ok := err.Details["attempted"].([]string)
	if !ok || len(got) != 3 {
		t.Fatalf("Details[attempted] = %v, want 3 entries", err.Details["attempted"])
	}
	if err.Remedy() == "" {
		t.Error("Remedy() is empty for PORT_NOT_FOUND")
	}
}

func TestNewExtractionFailed(t *testing.T) {
	cause := fmt.Errorf("simulated: timeout")
	err := NewExtractionFailed("report.pdf", cause)

	if err.Code != ErrExtractionFailed {
		t.Errorf("Code = %q, want %q", err.Code, ErrExtractionFailed)
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if err.Details["file_name"] != "report.pdf" {
		t.Errorf("Details[file_name] = %v, want %q", err.Details["file_name"], "report.pdf")
	}
}

func TestNewProviderCallFailed(t *testing.T) {
	err := NewProviderCallFailed("openai", fmt.Errorf("no choices"))

	if err.Code != ErrProviderCallFailed {
		t.Errorf("Code = %q, want %q", err.Code, ErrProviderCallFailed)
	}
	if err.Message != "openai: no choices" {
		t.Errorf("Message = %q, want %q", err.Message, "openai: no choices")
	}
}

func TestNewRateLimitExceeded(t *testing.T) {
	err := NewRateLimitExceeded(50)

	if err.Status != 429 {
		t.Errorf("Status = %d, want 429", err.Status)
	}
	if err.Details["limit"] != 50 {
		t.Errorf("Details[limit] = %v, want 50", err.Details["limit"])
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching code", NewRateLimitExceeded(50), ErrRateLimitExceeded, true},
		{"different code", NewRateLimitExceeded(50), ErrPortNotFound, false},
		{"wrapped", fmt.Errorf("attempt: %w", NewPortNotFound(nil)), ErrPortNotFound, true},
		{"plain error", fmt.Errorf("boom"), ErrInternal, false},
		{"nil", nil, ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}
