// Package npmtest provides an in-process fake of the npm registry and file
// endpoints for tests.
//
//	srv := npmtest.NewServer()
//	defer srv.Close()
//	srv.Add("left-pad", npmtest.Package{
//	    Reported: manifest.New("left-pad", "1.0.0", nil, nil),
//	    Actual:   manifest.New("left-pad", "1.0.0", map[string]string{"leftpad-core": "^2.0.0"}, nil),
//	})
//	client := npm.NewClient(npm.Config{RegistryURL: srv.RegistryURL(), WebURL: srv.WebURL()})
package npmtest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/manifestcheck/pkg/manifest"
)

// Request kinds counted by [Server.Requests].
const (
	KindRegistry = "registry"
	KindIndex    = "index"
	KindFile     = "file"
)

// Package is one fake package. Reported.Version is the latest dist-tag; an
// empty version serves an unpublished document without dist-tags. A nil map
// omits the field from the served JSON.
type Package struct {
	Reported manifest.Manifest
	Actual   manifest.Manifest
}

// Server serves registry metadata under /registry and the file index and
// content endpoints under /web.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	packages     map[string]Package
	files        map[string][]byte
	requests     map[string]int
	visits       map[string]int
	indexFaults  map[string]int
	fileFaults   map[string]int
	missingIndex map[string]bool
}

// NewServer starts a fake registry. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		packages:     make(map[string]Package),
		files:        make(map[string][]byte),
		requests:     make(map[string]int),
		visits:       make(map[string]int),
		indexFaults:  make(map[string]int),
		fileFaults:   make(map[string]int),
		missingIndex: make(map[string]bool),
	}

	r := chi.NewRouter()
	r.Get("/registry/{name}", s.serveRegistry)
	r.Get("/web/package/{name}/v/{version}/index", s.serveIndex)
	r.Get("/web/package/{name}/file/{hex}", s.serveFile)
	r.Get("/web/package/{name}/{sub}/v/{version}/index", s.serveIndex)
	r.Get("/web/package/{name}/{sub}/file/{hex}", s.serveFile)
	s.Server = httptest.NewServer(r)
	return s
}

// RegistryURL is the base URL for registry metadata.
func (s *Server) RegistryURL() string { return s.URL + "/registry" }

// WebURL is the base URL for file indexes and contents.
func (s *Server) WebURL() string { return s.URL + "/web" }

// Add registers or replaces a package.
func (s *Server) Add(name string, p Package) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages[name] = p
	if p.Reported.Version != "" {
		body := mustJSON(manifestDoc(p.Actual))
		s.files[digest(body)] = body
	}
}

// FailIndex makes the next n index requests for name return a truncated body.
func (s *Server) FailIndex(name string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexFaults[name] = n
}

// FailFile makes the next n file requests for name return an empty body.
func (s *Server) FailFile(name string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileFaults[name] = n
}

// DropIndex makes the index of name omit the /package.json entry.
func (s *Server) DropIndex(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missingIndex[name] = true
}

// Requests returns how many requests of the given kind were served.
func (s *Server) Requests(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[kind]
}

// Visits returns how many registry lookups were made for name.
func (s *Server) Visits(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits[name]
}

// packageName rebuilds the package name from the route. chi matches against
// the escaped path, so "@babel%2fcore" arrives as one segment and scoped web
// URLs arrive as two.
func packageName(r *http.Request) string {
	name := unescape(chi.URLParam(r, "name"))
	if sub := chi.URLParam(r, "sub"); sub != "" {
		name += "/" + unescape(sub)
	}
	return name
}

func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}

func (s *Server) serveRegistry(w http.ResponseWriter, r *http.Request) {
	name := packageName(r)

	s.mu.Lock()
	s.requests[KindRegistry]++
	s.visits[name]++
	p, ok := s.packages[name]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	doc := map[string]any{"name": name}
	if v := p.Reported.Version; v != "" {
		doc["dist-tags"] = map[string]string{"latest": v}
		doc["versions"] = map[string]any{v: manifestDoc(p.Reported)}
	} else {
		doc["time"] = map[string]any{"unpublished": map[string]string{"time": "2016-03-23T00:00:00.000Z"}}
	}
	writeJSON(w, doc)
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	name := packageName(r)

	s.mu.Lock()
	s.requests[KindIndex]++
	p, ok := s.packages[name]
	fault := s.indexFaults[name] > 0
	if fault {
		s.indexFaults[name]--
	}
	missing := s.missingIndex[name]
	s.mu.Unlock()

	switch {
	case fault:
		w.Write([]byte(`{"files": {"/package.json": {"he`))
		return
	case !ok || unescape(chi.URLParam(r, "version")) != p.Reported.Version:
		http.NotFound(w, r)
		return
	}

	files := map[string]any{"/README.md": map[string]string{"hex": digest([]byte("readme"))}}
	if !missing {
		files["/package.json"] = map[string]string{"hex": digest(mustJSON(manifestDoc(p.Actual)))}
	}
	writeJSON(w, map[string]any{"files": files, "totalSize": 1024})
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	name := packageName(r)

	s.mu.Lock()
	s.requests[KindFile]++
	fault := s.fileFaults[name] > 0
	if fault {
		s.fileFaults[name]--
	}
	body, ok := s.files[chi.URLParam(r, "hex")]
	s.mu.Unlock()

	switch {
	case fault:
		return
	case !ok:
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func manifestDoc(m manifest.Manifest) map[string]any {
	doc := map[string]any{"name": m.Name, "version": m.Version}
	if m.Dependencies != nil {
		doc["dependencies"] = m.Dependencies
	}
	if m.Scripts != nil {
		doc["scripts"] = m.Scripts
	}
	return doc
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func digest(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
