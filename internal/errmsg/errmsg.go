// Package errmsg classifies the error kinds produced by Tool Locker's
// internal packages and formats them into actionable CLI messages.
package errmsg

import (
	"errors"
	"fmt"
	"net"
)

// ManifestError indicates a tlk.toml parse or validation failure.
type ManifestError struct {
	Tool string
	Err  error
}

func (e *ManifestError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("manifest error for %s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("manifest error: %v", e.Err)
}
func (e *ManifestError) Unwrap() error { return e.Err }

// NetworkError wraps a non-2xx HTTP response or transport failure.
type NetworkError struct {
	Tool string
	URL  string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s for %s: %v", e.URL, e.Tool, e.Err)
}
func (e *NetworkError) Unwrap() error { return e.Err }

// IntegrityError indicates a checksum or digest mismatch.
type IntegrityError struct {
	Tool     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s: expected %s, got %s", e.Tool, e.Expected, e.Actual)
}

// ResolutionError indicates a version spec could not be satisfied.
type ResolutionError struct {
	Tool string
	Spec string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve %s for %s: %v", e.Spec, e.Tool, e.Err)
}
func (e *ResolutionError) Unwrap() error { return e.Err }

// ArchiveError indicates an unsupported archive type or a missing binary
// inside an otherwise-valid archive.
type ArchiveError struct {
	Tool string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive error for %s: %v", e.Tool, e.Err)
}
func (e *ArchiveError) Unwrap() error { return e.Err }

// LockError indicates an unsupported lock schema or a verify mismatch.
type LockError struct {
	Tool string
	Err  error
}

func (e *LockError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("lock error for %s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("lock error: %v", e.Err)
}
func (e *LockError) Unwrap() error { return e.Err }

// IOError wraps a filesystem access failure.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("filesystem error accessing %s: %v", e.Path, e.Err)
}
func (e *IOError) Unwrap() error { return e.Err }

// Format produces a user-facing message for err, appending a one-line
// suggestion where the underlying cause is well known. The offending
// tool name, when available on the error, is always included.
func Format(err error) string {
	var manifestErr *ManifestError
	if errors.As(err, &manifestErr) {
		return manifestErr.Error() + "\nCheck tlk.toml for syntax errors, or run 'tlk migrate-config' if using legacy [[tools]] syntax."
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		msg := netErr.Error()
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			msg += "\nCheck your network connection and DNS resolution."
		} else {
			msg += "\nThe remote server may be unreachable or rate-limiting requests."
		}
		return msg
	}

	var integrityErr *IntegrityError
	if errors.As(err, &integrityErr) {
		return integrityErr.Error() + "\nThe downloaded artifact does not match the recorded checksum/digest; the upstream release may have changed."
	}

	var resolutionErr *ResolutionError
	if errors.As(err, &resolutionErr) {
		return resolutionErr.Error() + "\nVerify the tool name is in the known-tool catalog or that the version spec is valid."
	}

	var archiveErr *ArchiveError
	if errors.As(err, &archiveErr) {
		return archiveErr.Error() + "\nThe expected binary path inside the archive may have changed upstream; check the manifest's 'binary' field."
	}

	var lockErr *LockError
	if errors.As(err, &lockErr) {
		return lockErr.Error() + "\nRun 'tlk migrate-lock' to regenerate tlk.lock at the current schema."
	}

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return ioErr.Error()
	}

	return err.Error()
}
