package npm

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/manifestcheck/pkg/errors"
	"github.com/matzehuels/manifestcheck/pkg/httputil"
	"github.com/matzehuels/manifestcheck/pkg/integrations"
	"github.com/matzehuels/manifestcheck/pkg/integrations/npm/npmtest"
	"github.com/matzehuels/manifestcheck/pkg/manifest"
)

func newTestClient(t *testing.T, srv *npmtest.Server) (*Client, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	return NewClient(Config{
		RegistryURL: srv.RegistryURL(),
		WebURL:      srv.WebURL(),
		Options: integrations.Options{
			Retry:  httputil.Policy{Attempts: 4, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			Logger: log.New(&logs),
		},
	}), &logs
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{})
	if c.registryURL != DefaultRegistryURL {
		t.Errorf("registryURL = %q, want %q", c.registryURL, DefaultRegistryURL)
	}
	if c.webURL != DefaultWebURL {
		t.Errorf("webURL = %q, want %q", c.webURL, DefaultWebURL)
	}

	c = NewClient(Config{RegistryURL: "http://localhost:4873/"})
	if c.registryURL != "http://localhost:4873" {
		t.Errorf("registryURL = %q, want trailing slash trimmed", c.registryURL)
	}
}

func TestFetchReported(t *testing.T) {
	srv := npmtest.NewServer()
	defer srv.Close()

	srv.Add("express", npmtest.Package{
		Reported: manifest.Manifest{
			Name:         "express",
			Version:      "4.19.2",
			Dependencies: map[string]string{"accepts": "~1.3.8"},
			Scripts:      map[string]string{"test": "mocha"},
		},
		Actual: manifest.New("express", "4.19.2", nil, nil),
	})
	srv.Add("bare", npmtest.Package{
		Reported: manifest.Manifest{Name: "bare", Version: "0.1.0"},
		Actual:   manifest.Manifest{Name: "bare", Version: "0.1.0"},
	})

	client, _ := newTestClient(t, srv)

	t.Run("fields", func(t *testing.T) {
		m, err := client.FetchReported(context.Background(), "express")
		if err != nil {
			t.Fatalf("FetchReported() error: %v", err)
		}
		want := manifest.New("express", "4.19.2",
			map[string]string{"accepts": "~1.3.8"},
			map[string]string{"test": "mocha"})
		if !reflect.DeepEqual(m, want) {
			t.Errorf("FetchReported() = %+v, want %+v", m, want)
		}
	})

	t.Run("missingMapsNormalize", func(t *testing.T) {
		m, err := client.FetchReported(context.Background(), "bare")
		if err != nil {
			t.Fatalf("FetchReported() error: %v", err)
		}
		if m.Dependencies == nil || m.Scripts == nil {
			t.Errorf("missing fields should normalize to empty maps: %+v", m)
		}
	})
}

func TestFetchReportedNotFound(t *testing.T) {
	srv := npmtest.NewServer()
	defer srv.Close()

	srv.Add("unpublished-pkg", npmtest.Package{})
	client, _ := newTestClient(t, srv)

	for _, name := range []string{"unpublished-pkg", "never-published"} {
		t.Run(name, func(t *testing.T) {
			_, err := client.FetchReported(context.Background(), name)
			if !apperrors.Is(err, apperrors.ErrCodePackageNotFound) {
				t.Errorf("FetchReported() error = %v, want PACKAGE_NOT_FOUND", err)
			}
			if !errors.Is(err, integrations.ErrNotFound) {
				t.Errorf("FetchReported() error should match ErrNotFound: %v", err)
			}
		})
	}

	if n := srv.Requests(npmtest.KindIndex) + srv.Requests(npmtest.KindFile); n != 0 {
		t.Errorf("content endpoints called %d times, want 0", n)
	}
}

func TestFetchReportedMalformedEnvelope(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"name": "odd", "dist-tags": {"latest": "1.0.0"}, "versions": ["1.0.0"]}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		RegistryURL: server.URL,
		Options: integrations.Options{
			Retry:  httputil.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			Logger: log.New(&bytes.Buffer{}),
		},
	})
	_, err := client.FetchReported(context.Background(), "odd")
	if !apperrors.Is(err, apperrors.ErrCodeInvalidManifest) {
		t.Errorf("FetchReported() error = %v, want INVALID_MANIFEST", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (not retried)", calls.Load())
	}
}

func TestFetchActual(t *testing.T) {
	srv := npmtest.NewServer()
	defer srv.Close()

	srv.Add("left-pad", npmtest.Package{
		Reported: manifest.Manifest{Name: "left-pad", Version: "1.0.0", Dependencies: map[string]string{}},
		Actual: manifest.Manifest{
			Name:         "left-pad",
			Version:      "1.0.0",
			Dependencies: map[string]string{"leftpad-core": "^2.0.0"},
		},
	})
	client, _ := newTestClient(t, srv)

	m, err := client.FetchActual(context.Background(), "left-pad", "1.0.0")
	if err != nil {
		t.Fatalf("FetchActual() error: %v", err)
	}
	want := manifest.New("left-pad", "1.0.0", map[string]string{"leftpad-core": "^2.0.0"}, nil)
	if !reflect.DeepEqual(m, want) {
		t.Errorf("FetchActual() = %+v, want %+v", m, want)
	}
	if srv.Requests(npmtest.KindIndex) != 1 || srv.Requests(npmtest.KindFile) != 1 {
		t.Errorf("requests: index=%d file=%d, want 1 each",
			srv.Requests(npmtest.KindIndex), srv.Requests(npmtest.KindFile))
	}
}

func TestFetchScopedPackage(t *testing.T) {
	srv := npmtest.NewServer()
	defer srv.Close()

	m := manifest.New("@babel/core", "7.24.0", map[string]string{"@babel/types": "^7.24.0"}, nil)
	srv.Add("@babel/core", npmtest.Package{Reported: m, Actual: m})
	client, _ := newTestClient(t, srv)

	reported, err := client.FetchReported(context.Background(), "@babel/core")
	if err != nil {
		t.Fatalf("FetchReported() error: %v", err)
	}
	actual, err := client.FetchActual(context.Background(), "@babel/core", reported.Version)
	if err != nil {
		t.Fatalf("FetchActual() error: %v", err)
	}
	if !reflect.DeepEqual(actual, m) {
		t.Errorf("FetchActual() = %+v, want %+v", actual, m)
	}
	if n := srv.Visits("@babel/core"); n != 1 {
		t.Errorf("registry visits = %d, want 1", n)
	}
}

func TestFetchActualRetriesMalformedIndex(t *testing.T) {
	srv := npmtest.NewServer()
	defer srv.Close()

	srv.Add("flaky", npmtest.Package{
		Reported: manifest.New("flaky", "2.0.0", nil, nil),
		Actual:   manifest.New("flaky", "2.0.0", nil, nil),
	})
	srv.FailIndex("flaky", 2)
	srv.FailFile("flaky", 1)
	client, logs := newTestClient(t, srv)

	m, err := client.FetchActual(context.Background(), "flaky", "2.0.0")
	if err != nil {
		t.Fatalf("FetchActual() error: %v", err)
	}
	if m.Version != "2.0.0" {
		t.Errorf("Version = %q, want %q", m.Version, "2.0.0")
	}
	if srv.Requests(npmtest.KindIndex) != 3 {
		t.Errorf("index requests = %d, want 3", srv.Requests(npmtest.KindIndex))
	}
	if srv.Requests(npmtest.KindFile) != 2 {
		t.Errorf("file requests = %d, want 2", srv.Requests(npmtest.KindFile))
	}
	if n := strings.Count(logs.String(), "retrying"); n != 3 {
		t.Errorf("retry notices = %d, want 3\n%s", n, logs.String())
	}
}

func TestFetchActualRetriesExhausted(t *testing.T) {
	srv := npmtest.NewServer()
	defer srv.Close()

	srv.Add("broken", npmtest.Package{
		Reported: manifest.New("broken", "1.0.0", nil, nil),
		Actual:   manifest.New("broken", "1.0.0", nil, nil),
	})
	srv.FailIndex("broken", 100)
	client, _ := newTestClient(t, srv)

	_, err := client.FetchActual(context.Background(), "broken", "1.0.0")
	if !apperrors.Is(err, apperrors.ErrCodeRetriesExhausted) {
		t.Fatalf("FetchActual() error = %v, want RETRIES_EXHAUSTED", err)
	}
	if srv.Requests(npmtest.KindIndex) != 4 {
		t.Errorf("index requests = %d, want 4", srv.Requests(npmtest.KindIndex))
	}
}

func TestFetchActualMissingManifestEntry(t *testing.T) {
	srv := npmtest.NewServer()
	defer srv.Close()

	srv.Add("weird", npmtest.Package{
		Reported: manifest.New("weird", "1.0.0", nil, nil),
		Actual:   manifest.New("weird", "1.0.0", nil, nil),
	})
	srv.DropIndex("weird")
	client, _ := newTestClient(t, srv)

	_, err := client.FetchActual(context.Background(), "weird", "1.0.0")
	if !apperrors.Is(err, apperrors.ErrCodeInvalidManifest) {
		t.Fatalf("FetchActual() error = %v, want INVALID_MANIFEST", err)
	}
	if srv.Requests(npmtest.KindIndex) != 1 {
		t.Errorf("index requests = %d, want 1 (not retried)", srv.Requests(npmtest.KindIndex))
	}
}

func TestFetchActualUnknownVersion(t *testing.T) {
	srv := npmtest.NewServer()
	defer srv.Close()

	srv.Add("pkg", npmtest.Package{
		Reported: manifest.New("pkg", "1.0.0", nil, nil),
		Actual:   manifest.New("pkg", "1.0.0", nil, nil),
	})
	client, _ := newTestClient(t, srv)

	_, err := client.FetchActual(context.Background(), "pkg", "9.9.9")
	if err == nil {
		t.Fatal("FetchActual() should fail for unknown version")
	}
	if apperrors.Is(err, apperrors.ErrCodePackageNotFound) {
		t.Error("missing contents must not be reported as a missing package")
	}
	if !apperrors.Is(err, apperrors.ErrCodeNetwork) {
		t.Errorf("FetchActual() error = %v, want NETWORK_ERROR", err)
	}
}
