package errmsg

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatManifestError(t *testing.T) {
	err := &ManifestError{Tool: "terraform", Err: errors.New("missing version")}
	msg := Format(err)
	if !strings.Contains(msg, "terraform") || !strings.Contains(msg, "migrate-config") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestFormatIntegrityError(t *testing.T) {
	err := &IntegrityError{Tool: "gh", Expected: "abc", Actual: "def"}
	msg := Format(err)
	if !strings.Contains(msg, "abc") || !strings.Contains(msg, "def") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestFormatLockError(t *testing.T) {
	err := &LockError{Tool: "kubectl", Err: errors.New("schema 99 unsupported")}
	msg := Format(err)
	if !strings.Contains(msg, "migrate-lock") {
		t.Errorf("expected migrate-lock suggestion, got: %s", msg)
	}
}

func TestFormatUnknownError(t *testing.T) {
	err := errors.New("some plain error")
	if Format(err) != "some plain error" {
		t.Errorf("plain errors should pass through unchanged")
	}
}

func TestErrorsAsUnwraps(t *testing.T) {
	wrapped := &NetworkError{Tool: "helm", URL: "https://get.helm.sh/x", Err: errors.New("connection refused")}
	var target *NetworkError
	if !errors.As(error(wrapped), &target) {
		t.Fatal("expected errors.As to match NetworkError")
	}
}
