package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/siddhant1729/Trace/internal/guard"
	"github.com/siddhant1729/Trace/internal/inference"
	"github.com/siddhant1729/Trace/internal/logger"
	"github.com/siddhant1729/Trace/internal/pipeline"
)

// retryAfter is sent with 503s caused by upstream quota or outages.
const retryAfter = "30"

type pingResp struct {
	OK        bool   `json:"ok"`
	Model     string `json:"model"`
	Reachable bool   `json:"reachable"`
	Note      string `json:"note,omitempty"`
}

type errorResp struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// pinger is implemented by inference clients that can check their backend
// without spending a generation.
type pinger interface {
	Ping(ctx context.Context) bool
}

type server struct {
	analyzer  *pipeline.Analyzer
	model     inference.Inferer
	log       *logger.Logger
	maxUpload int64
	timeout   time.Duration
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "trace"})
	})
	r.Get("/llm/ping", s.ping)
	r.With(middleware.Timeout(s.timeout)).Post("/analyze", s.analyze)
	return r
}

func (s *server) ping(w http.ResponseWriter, r *http.Request) {
	out := pingResp{OK: true, Model: s.model.Name(), Reachable: true}
	if p, ok := s.model.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		out.Reachable = p.Ping(ctx)
		if !out.Reachable {
			out.Note = "model server not running or model not pulled yet"
		}
	} else {
		out.Note = "hosted model; reachability is checked on first request"
	}
	writeJSON(w, http.StatusOK, out)
}

// analyze accepts a multipart upload in field "image" (or "file") plus an
// optional "query" field.
func (s *server) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid multipart upload: " + guard.Truncate(err.Error(), guard.MaxDetail)})
		return
	}
	field := "image"
	if r.MultipartForm.File[field] == nil {
		field = "file"
	}
	f, fh, err := r.FormFile(field)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: `missing upload field "image"`})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "could not read upload"})
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "empty upload"})
		return
	}

	res, err := s.analyzer.AnalyzeFile(r.Context(), fh.Filename, data, r.FormValue("query"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	msg := guard.Truncate(err.Error(), guard.MaxDetail)
	switch {
	case errors.Is(err, guard.ErrQuotaExceeded):
		w.Header().Set("Retry-After", retryAfter)
		writeJSON(w, http.StatusServiceUnavailable, errorResp{Error: msg, Kind: "quota_exceeded"})
	case errors.Is(err, guard.ErrUpstreamUnavailable):
		w.Header().Set("Retry-After", retryAfter)
		writeJSON(w, http.StatusServiceUnavailable, errorResp{Error: msg, Kind: "upstream_unavailable"})
	case errors.Is(err, context.DeadlineExceeded):
		// the route timeout answers 504 itself once the request deadline passed
		if r.Context().Err() == nil {
			writeJSON(w, http.StatusGatewayTimeout, errorResp{Error: "analysis timed out"})
		}
	case errors.Is(err, context.Canceled):
		// client went away; nobody is listening
		s.log.Debug("analyze canceled", "request_id", middleware.GetReqID(r.Context()))
	default:
		s.log.Error("analyze failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusBadRequest, errorResp{Error: msg})
	}
}

func (s *server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
