package errors

import (
	"errors"
	"fmt"
)

// Type classifies failures so callers can decide whether to abort a session,
// skip a unit of work, or surface a remediation hint.
type Type string

const (
	TypeDomainValidation Type = "domain_validation"
	TypeAPI              Type = "api"
	TypeTLSVerification  Type = "tls_verification"
	TypeNetwork          Type = "network"
	TypeParsing          Type = "parsing"
	TypeManifestNotFound Type = "manifest_not_found"
	TypeCheckpoint       Type = "checkpoint"
	TypeDownload         Type = "download"
	TypeCancelled        Type = "cancelled"
)

// Error is a typed failure with an optional HTTP status and a
// human-actionable suggestion string.
type Error struct {
	Type       Type
	Message    string
	URL        string
	StatusCode int
	Suggestion string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.URL != "" {
		msg += " for " + e.URL
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	msg += ": " + e.Message
	if e.Suggestion != "" {
		msg += "\n  Suggestion: " + e.Suggestion
	}
	return msg
}

// IsType reports whether err is (or wraps) an *Error of the given type.
func IsType(err error, t Type) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

// StatusOf returns the HTTP status attached to err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// NewDomainValidation rejects a malformed target before any network activity.
func NewDomainValidation(domain, reason string) *Error {
	return &Error{
		Type:       TypeDomainValidation,
		Message:    fmt.Sprintf("invalid domain %q: %s", domain, reason),
		Suggestion: "provide a bare domain name, e.g. example.com or www.example.com",
	}
}

// NewAPI reports a failed or malformed WordPress API response. The suggestion
// is chosen from the status code when one is available.
func NewAPI(url string, statusCode int, message string) *Error {
	return &Error{
		Type:       TypeAPI,
		Message:    message,
		URL:        url,
		StatusCode: statusCode,
		Suggestion: statusSuggestion(statusCode),
	}
}

// NewTLSVerification is distinct from generic API failures so callers can
// suggest disabling certificate verification.
func NewTLSVerification(url, reason string) *Error {
	return &Error{
		Type:       TypeTLSVerification,
		Message:    "TLS verification failed: " + reason,
		URL:        url,
		Suggestion: "if you trust this site, retry with --no-verify-ssl (not recommended)",
	}
}

// NewNetwork reports a transport failure (timeout, DNS, connection refused).
func NewNetwork(url, reason string) *Error {
	return &Error{
		Type:    TypeNetwork,
		Message: reason,
		URL:     url,
	}
}

// NewParsing reports a malformed response body.
func NewParsing(url, reason string) *Error {
	return &Error{
		Type:    TypeParsing,
		Message: reason,
		URL:     url,
	}
}

// NewManifestNotFound signals the downloader precondition is unmet. This is
// distinct from an empty manifest, which is not an error.
func NewManifestNotFound(path string) *Error {
	return &Error{
		Type:       TypeManifestNotFound,
		Message:    "media manifest not found: " + path,
		Suggestion: "run 'wparchive dump <domain>' first to generate the media manifest",
	}
}

// NewCheckpoint reports a checkpoint I/O problem. Callers treat load-side
// corruption as non-fatal and fall back to a fresh state.
func NewCheckpoint(message string) *Error {
	return &Error{Type: TypeCheckpoint, Message: message}
}

// NewDownload reports a single file download failure.
func NewDownload(url, reason string) *Error {
	return &Error{
		Type:    TypeDownload,
		Message: reason,
		URL:     url,
	}
}

// NewCancelled marks a user-initiated interruption, distinct from a failure.
func NewCancelled(what string) *Error {
	return &Error{Type: TypeCancelled, Message: what + " cancelled by user"}
}

// IsRetryableStatusCode reports whether an HTTP status is worth another
// attempt within a bounded retry loop.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // transport error, no response
		return true
	case 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

func statusSuggestion(statusCode int) string {
	switch statusCode {
	case 401:
		return "authentication required; this endpoint may need credentials"
	case 403:
		return "the API endpoint may be protected; check site permissions"
	case 404:
		return "check whether the WordPress REST API is enabled on this site"
	case 500, 502, 503:
		return "server error; the site may be experiencing issues, try again later"
	default:
		return ""
	}
}
