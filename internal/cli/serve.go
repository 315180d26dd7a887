package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/manifestcheck/pkg/errors"
	"github.com/matzehuels/manifestcheck/pkg/integrations/npm"
	"github.com/matzehuels/manifestcheck/pkg/observability"
	"github.com/matzehuels/manifestcheck/pkg/reconcile"
	"github.com/matzehuels/manifestcheck/pkg/report"
)

const shutdownTimeout = 10 * time.Second

// serveCommand creates the command exposing checks over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve checks over HTTP",
		Long: `Serve runs checks on request and exposes Prometheus metrics.

Endpoints:
  GET /check/{package}?recursive=true   JSON report (404 unknown package, 502 upstream failure)
  GET /metrics                          Prometheus metrics
  GET /healthz                          liveness probe`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.config()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := newMetrics(reg)
	observability.SetCheckHooks(m)
	observability.SetHTTPHooks(m)
	defer observability.Reset()

	auditor := reconcile.NewAuditor(npm.NewClient(cfg.npmConfig(logger)), logger)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(auditor, reg, logger),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("serving", "addr", addr, "registry", cfg.RegistryURL)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// checkHandler serves check requests.
type checkHandler struct {
	auditor *reconcile.Auditor
	logger  *log.Logger
}

func newRouter(auditor *reconcile.Auditor, gatherer prometheus.Gatherer, logger *log.Logger) http.Handler {
	h := &checkHandler{auditor: auditor, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/check/*", h.check)
	return r
}

func (h *checkHandler) check(w http.ResponseWriter, r *http.Request) {
	name, err := wildcardParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	opts, err := checkOptionsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	logger := h.logger.With("request", middleware.GetReqID(r.Context()), "package", name)
	res, err := h.auditor.Check(r.Context(), name, opts)
	if err != nil {
		status := statusFor(err)
		logger.Warn("check failed", "status", status, "err", err)
		writeError(w, status, err)
		return
	}
	logger.Info("check served", "mismatch", res.Mismatch, "packages", len(res.Nodes))

	w.Header().Set("Content-Type", "application/json")
	if err := report.WriteJSON(w, res); err != nil {
		logger.Error("write response", "err", err)
	}
}

// wildcardParam returns the decoded package name. chi routes on RawPath when
// the request has one, so "@babel%2fcore" arrives still escaped; otherwise the
// param comes from the decoded Path and must not be decoded twice.
func wildcardParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "*")
	if r.URL.RawPath == "" {
		return name, nil
	}
	decoded, err := url.PathUnescape(name)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInvalidPackage, err, "malformed package name %q", name)
	}
	return decoded, nil
}

func checkOptionsFromQuery(r *http.Request) (reconcile.Options, error) {
	q := r.URL.Query()
	var opts reconcile.Options
	var err error
	if v := q.Get("recursive"); v != "" {
		if opts.Recursive, err = strconv.ParseBool(v); err != nil {
			return opts, apperrors.New(apperrors.ErrCodeInvalidInput, "recursive: %q is not a boolean", v)
		}
	}
	for key, dst := range map[string]*int{"max_depth": &opts.MaxDepth, "max_nodes": &opts.MaxNodes} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, apperrors.New(apperrors.ErrCodeInvalidInput, "%s: %q is not a non-negative integer", key, v)
		}
		*dst = n
	}
	return opts, nil
}

func statusFor(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeInvalidPackage, apperrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrCodePackageNotFound:
		return http.StatusNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

type errorBody struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{
		Code:  string(apperrors.GetCode(err)),
		Error: apperrors.UserMessage(err),
	})
}
