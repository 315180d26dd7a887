package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single HTTP round-trip.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodyBytes caps a response body. The largest npm registry
	// documents are tens of megabytes.
	DefaultMaxBodyBytes int64 = 128 << 20
)

var (
	// ErrNotFound is returned when a package or resource doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, bad status codes).
	ErrNetwork = errors.New("network error")

	// ErrMalformed is returned when a response body is empty or is not valid JSON.
	ErrMalformed = errors.New("malformed response body")

	// ErrTooLarge is returned when a response body exceeds the client's cap.
	ErrTooLarge = errors.New("response body too large")
)

// NewHTTPClient creates an HTTP client with the given per-request timeout.
// A non-positive timeout selects [DefaultTimeout].
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// NormalizePkgName trims surrounding whitespace from a package name.
// npm names are case-sensitive for legacy packages, so case is preserved.
func NormalizePkgName(name string) string {
	return strings.TrimSpace(name)
}

// EscapePkgName encodes a package name for use as a single registry URL path
// segment. Scoped names keep their "@" and have the scope separator escaped,
// which is the form the npm registry expects ("@babel%2fcore"). Every other
// reserved character, including "?", "#" and "/", is percent-encoded.
func EscapePkgName(name string) string {
	if scope, pkg, ok := scopedName(name); ok {
		return "@" + url.PathEscape(scope) + "%2f" + url.PathEscape(pkg)
	}
	return url.PathEscape(name)
}

// EscapePkgPath encodes a package name for web URLs, where a scoped name
// spans two path segments ("@babel/core"). Each segment is escaped on its own.
func EscapePkgPath(name string) string {
	if scope, pkg, ok := scopedName(name); ok {
		return "@" + url.PathEscape(scope) + "/" + url.PathEscape(pkg)
	}
	return url.PathEscape(name)
}

func scopedName(name string) (scope, pkg string, ok bool) {
	if !strings.HasPrefix(name, "@") {
		return "", "", false
	}
	return strings.Cut(name[1:], "/")
}
