// Package server exposes generation over HTTP so other services can fetch
// fresh declarations for a schema without running the CLI.
//
// Routes:
//
//	GET /healthz                      database reachability
//	GET /schemas/{schema}/types.ts    TypeScript declarations
//	GET /schemas/{schema}/types.go    Go declarations (?package=name)
package server

import (
	"context"
	"encoding/json"
	"errors"
	"go/token"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/knexgen/internal/errs"
	"github.com/koustreak/knexgen/internal/generator"
	"github.com/koustreak/knexgen/internal/logger"
	"github.com/koustreak/knexgen/internal/output"
	"github.com/koustreak/knexgen/internal/schema"
)

const shutdownTimeout = 10 * time.Second

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server renders declarations on demand from a schema.Reader.
type Server struct {
	reader schema.Reader
	pinger Pinger
	log    *logger.Logger
	pkg    string
}

// Option configures a Server.
type Option func(*Server)

// WithPinger enables the database check in /healthz.
func WithPinger(p Pinger) Option {
	return func(s *Server) { s.pinger = p }
}

// WithLogger sets the request and error logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithPackage sets the default Go package name for types.go.
func WithPackage(pkg string) Option {
	return func(s *Server) { s.pkg = pkg }
}

// New returns a Server reading schemas through reader.
func New(reader schema.Reader, opts ...Option) *Server {
	s := &Server{reader: reader, log: logger.Nop(), pkg: "dbtypes"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the HTTP handler with all middleware applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/schemas/{schema}", func(r chi.Router) {
		r.Get("/types.ts", s.handleTypeScript)
		r.Get("/types.go", s.handleGo)
	})
	return r
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "listen on "+addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.With().Str("addr", ln.Addr().String()).Logger().Info("server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.log.ErrorWith("health check failed", err, nil)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTypeScript(w http.ResponseWriter, r *http.Request) {
	f, ok := s.build(w, r)
	if !ok {
		return
	}
	writeText(w, output.ContentType("typescript"), generator.Render(f))
}

func (s *Server) handleGo(w http.ResponseWriter, r *http.Request) {
	pkg := r.URL.Query().Get("package")
	if pkg == "" {
		pkg = s.pkg
	}
	if !token.IsIdentifier(pkg) {
		s.writeError(w, errs.Newf(errs.ErrKindInvalidInput, "invalid package name %q", pkg))
		return
	}

	f, ok := s.build(w, r)
	if !ok {
		return
	}
	src, err := generator.RenderGo(f, pkg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeText(w, output.ContentType("go"), src)
}

// build introspects the schema named in the URL and builds the declaration
// model. On failure it writes the error response and returns false.
func (s *Server) build(w http.ResponseWriter, r *http.Request) (*generator.File, bool) {
	name := chi.URLParam(r, "schema")

	sch, err := s.reader.Introspect(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	f, err := generator.Build(sch)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	for _, c := range f.Unmapped {
		s.log.With().
			Str("schema", name).
			Str("table", c.Table).
			Str("column", c.Column).
			Str("type", c.Type).
			Logger().
			Debug("column type has no mapping, emitted as unknown")
	}
	return f, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)
	// Introspection failures are never the client's fault.
	var stageErr *schema.Error
	if errors.As(err, &stageErr) && status < http.StatusInternalServerError {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		s.log.ErrorWith("request failed", err, map[string]interface{}{"kind": kind.String()})
	}
	writeJSON(w, status, map[string]string{
		"error":   kind.String(),
		"message": err.Error(),
	})
}

// statusFor maps an error kind to the HTTP status returned to clients.
func statusFor(kind errs.ErrKind) int {
	switch kind {
	case errs.ErrKindInvalidInput:
		return http.StatusBadRequest
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindConnectionFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.HTTPEvent().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}
