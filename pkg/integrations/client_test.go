package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/manifestcheck/pkg/errors"
	"github.com/matzehuels/manifestcheck/pkg/httputil"
)

func testClient(t *testing.T, server *httptest.Server, headers map[string]string) (*Client, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	client := NewClient(Options{
		Retry:  httputil.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		Logger: log.New(&logs),
	}, headers)
	client.http = server.Client()
	return client, &logs
}

func TestNewClient(t *testing.T) {
	client := NewClient(Options{UserAgent: "manifestcheck/test"}, map[string]string{"X-Default": "1"})

	if client.http == nil {
		t.Fatal("NewClient() http client is nil")
	}
	if client.headers["User-Agent"] != "manifestcheck/test" {
		t.Errorf("User-Agent header = %q, want %q", client.headers["User-Agent"], "manifestcheck/test")
	}
	if client.headers["X-Default"] != "1" {
		t.Error("NewClient() dropped default headers")
	}
	if client.retry.Attempts != httputil.DefaultAttempts {
		t.Errorf("retry attempts = %d, want default %d", client.retry.Attempts, httputil.DefaultAttempts)
	}
	if client.http.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.http.Timeout, DefaultTimeout)
	}
}

func TestNewClientNilHeaders(t *testing.T) {
	client := NewClient(Options{}, nil)
	if client.headers != nil {
		t.Error("NewClient() should allow nil headers")
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		gotHeader = r.Header.Get("X-Default")
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}))
	defer server.Close()

	client, _ := testClient(t, server, map[string]string{"X-Default": "default"})

	var resp response
	if err := client.Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Get() message = %q, want %q", resp.Message, "hello")
	}
	if gotHeader != "default" {
		t.Errorf("header = %q, want %q", gotHeader, "default")
	}
}

func TestClientGet404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, _ := testClient(t, server, nil)

	var resp map[string]string
	err := client.Get(context.Background(), server.URL, &resp)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestClientGetRetriesMalformedBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			// empty body
		case 2:
			w.Write([]byte(`{"files": {"/package.js`))
		default:
			w.Write([]byte(`{"ok": true}`))
		}
	}))
	defer server.Close()

	client, logs := testClient(t, server, nil)

	var resp struct {
		OK bool `json:"ok"`
	}
	if err := client.Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !resp.OK {
		t.Error("Get() did not decode final body")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if n := strings.Count(logs.String(), "retrying"); n != 2 {
		t.Errorf("retry notices = %d, want 2\n%s", n, logs.String())
	}
}

func TestClientGetExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("<html>oops</html>"))
	}))
	defer server.Close()

	client, _ := testClient(t, server, nil)

	var resp map[string]any
	err := client.Get(context.Background(), server.URL, &resp)
	if !apperrors.Is(err, apperrors.ErrCodeRetriesExhausted) {
		t.Fatalf("Get() error = %v, want RETRIES_EXHAUSTED", err)
	}
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Get() error should unwrap to ErrMalformed: %v", err)
	}
	var exhausted *httputil.ExhaustedError
	if !errors.As(err, &exhausted) || exhausted.Attempts != 3 {
		t.Errorf("Get() error should carry 3 attempts: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClientGetBodyTooLarge(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"name": "` + strings.Repeat("x", 64) + `"}`))
	}))
	defer server.Close()

	client, _ := testClient(t, server, nil)
	client.maxBody = 32

	var resp map[string]any
	err := client.Get(context.Background(), server.URL, &resp)
	if !errors.Is(err, ErrTooLarge) || !apperrors.Is(err, apperrors.ErrCodeMalformedResponse) {
		t.Errorf("Get() error = %v, want ErrTooLarge", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (oversized bodies are not retried)", calls.Load())
	}
}

func TestClientGetTypeMismatchNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"versions": ["1.0.0"]}`))
	}))
	defer server.Close()

	client, _ := testClient(t, server, nil)

	var resp struct {
		Versions map[string]json.RawMessage `json:"versions"`
	}
	err := client.Get(context.Background(), server.URL, &resp)
	if !apperrors.Is(err, apperrors.ErrCodeInvalidManifest) {
		t.Errorf("Get() error = %v, want INVALID_MANIFEST", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

type rejectAll struct{}

func (rejectAll) Validate(any) error { return errors.New("missing property") }

func TestClientGetValidatedRejects(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"unexpected": true}`))
	}))
	defer server.Close()

	client, _ := testClient(t, server, nil)

	var resp map[string]any
	err := client.GetValidated(context.Background(), server.URL, rejectAll{}, &resp)
	if !apperrors.Is(err, apperrors.ErrCodeInvalidManifest) {
		t.Errorf("GetValidated() error = %v, want INVALID_MANIFEST", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (schema failures are not retried)", calls.Load())
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		wantErr    bool
		wantType   error
		isRetryErr bool
	}{
		{name: "200 OK", code: 200},
		{name: "404 Not Found", code: 404, wantErr: true, wantType: ErrNotFound},
		{name: "429 Too Many Requests", code: 429, wantErr: true, isRetryErr: true},
		{name: "500 Internal Server Error", code: 500, wantErr: true, isRetryErr: true},
		{name: "502 Bad Gateway", code: 502, wantErr: true, isRetryErr: true},
		{name: "400 Bad Request", code: 400, wantErr: true, wantType: ErrNetwork},
		{name: "403 Forbidden", code: 403, wantErr: true, wantType: ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStatus(tt.code)

			if !tt.wantErr {
				if err != nil {
					t.Errorf("checkStatus() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("checkStatus() should return error")
			}
			if tt.wantType != nil && !errors.Is(err, tt.wantType) {
				t.Errorf("checkStatus() error = %v, want %v", err, tt.wantType)
			}
			if httputil.IsRetryable(err) != tt.isRetryErr {
				t.Errorf("IsRetryable() = %v, want %v", httputil.IsRetryable(err), tt.isRetryErr)
			}
		})
	}
}

func TestEscapePkgName(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantPath string
	}{
		{"left-pad", "left-pad", "left-pad"},
		{"@babel/core", "@babel%2fcore", "@babel/core"},
		{"ok#x", "ok%23x", "ok%23x"},
		{"ok?x=1", "ok%3Fx=1", "ok%3Fx=1"},
		{"a/../b", "a%2F..%2Fb", "a%2F..%2Fb"},
		{"@s/a/b", "@s%2fa%2Fb", "@s/a%2Fb"},
	}
	for _, tt := range tests {
		if got := EscapePkgName(tt.input); got != tt.wantName {
			t.Errorf("EscapePkgName(%q) = %q, want %q", tt.input, got, tt.wantName)
		}
		if got := EscapePkgPath(tt.input); got != tt.wantPath {
			t.Errorf("EscapePkgPath(%q) = %q, want %q", tt.input, got, tt.wantPath)
		}
	}
}
