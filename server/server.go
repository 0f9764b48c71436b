package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/capsearch/core"
	"github.com/poiesic/capsearch/ingestion"
	"github.com/poiesic/capsearch/search"
)

// MaxBodyBytes bounds request bodies; caption tracks of feature-length
// videos stay well below it.
const MaxBodyBytes = 32 << 20

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Service is the part of capsearch.Service the server needs.
type Service interface {
	Build(ctx context.Context, key string, captions []core.Caption, opts *ingestion.BuildOptions) (*ingestion.BuildReport, error)
	Query(ctx context.Context, key, query string, params *search.Params) ([]core.Result, error)
	Info(ctx context.Context, key string) (*core.IndexInfo, error)
	Delete(ctx context.Context, key string) error
}

// Server routes HTTP requests to a Service.
type Server struct {
	svc          Service
	params       search.Params
	mergeSeconds float64
	logger       *slog.Logger
	mux          *http.ServeMux
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithParams sets the query parameters used when a request omits n or threshold.
func WithParams(params search.Params) Option {
	return func(s *Server) error {
		if err := params.Validate(); err != nil {
			return err
		}
		s.params = params
		return nil
	}
}

// WithMergeSeconds sets the merge window used when an index request omits one.
func WithMergeSeconds(seconds float64) Option {
	return func(s *Server) error {
		if seconds < 0 {
			return fmt.Errorf("%w: negative merge window %v", core.ErrInvalidInput, seconds)
		}
		s.mergeSeconds = seconds
		return nil
	}
}

// New creates a server for svc.
func New(svc Service, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, ErrServiceRequired
	}
	s := &Server{
		svc:    svc,
		params: search.DefaultParams(),
		logger: slog.Default(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "server")

	s.mux.HandleFunc("POST /index", s.handleBuild)
	s.mux.HandleFunc("GET /index/{id}", s.handleInfo)
	s.mux.HandleFunc("DELETE /index/{id}", s.handleDelete)
	s.mux.HandleFunc("GET /query", s.handleQuery)
	s.mux.HandleFunc("POST /query", s.handleQuery)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	h := w.Header()
	h.Set(RequestIDHeader, id)
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "*")
	h.Set("Access-Control-Allow-Methods", "*")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r.WithContext(withRequestID(r.Context(), id)))
	s.logger.Info("request",
		"request_id", id,
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"elapsed", time.Since(start).Round(time.Microsecond))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type indexRequest struct {
	VideoID      string   `json:"video_id"`
	Rebuild      bool     `json:"rebuild"`
	MergeSeconds *float64 `json:"merge_seconds"`
}

type indexResponse struct {
	VideoID   string  `json:"video_id"`
	Reused    bool    `json:"reused"`
	Documents int     `json:"documents"`
	Terms     int     `json:"terms"`
	ElapsedMS float64 `json:"elapsed_ms"`
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", core.ErrInvalidInput, err))
		return
	}

	var req indexRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", core.ErrInvalidInput, err))
		return
	}
	if req.VideoID == "" {
		s.writeError(w, r, fmt.Errorf("%w: %w", core.ErrInvalidInput, ErrMissingVideoID))
		return
	}
	captions, err := core.ParseCaptions(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := &ingestion.BuildOptions{Rebuild: req.Rebuild, MergeSeconds: s.mergeSeconds}
	if req.MergeSeconds != nil {
		opts.MergeSeconds = *req.MergeSeconds
	}
	report, err := s.svc.Build(r.Context(), req.VideoID, captions, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if report.Reused {
		status = http.StatusOK
	}
	writeJSON(w, status, indexResponse{
		VideoID:   report.Key,
		Reused:    report.Reused,
		Documents: report.Documents,
		Terms:     report.Terms,
		ElapsedMS: float64(report.Elapsed.Microseconds()) / 1000,
	})
}

type infoResponse struct {
	VideoID   string    `json:"video_id"`
	Exists    bool      `json:"exists"`
	Documents int       `json:"documents"`
	Terms     int       `json:"terms"`
	Tokenizer string    `json:"tokenizer"`
	BuiltAt   time.Time `json:"built_at"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.Info(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infoResponse{
		VideoID:   info.Key,
		Exists:    true,
		Documents: info.Documents,
		Terms:     info.Terms,
		Tokenizer: info.Tokenizer,
		BuiltAt:   info.BuiltAt,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type queryRequest struct {
	VideoID   string   `json:"video_id"`
	Query     string   `json:"query"`
	N         *int     `json:"n"`
	Threshold *float64 `json:"threshold"`
}

type queryResult struct {
	Index    int     `json:"index"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"dur"`
}

type queryResponse struct {
	VideoID string        `json:"video_id"`
	Query   string        `json:"query"`
	Results []queryResult `json:"results"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, err := decodeQuery(r)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", core.ErrInvalidInput, err))
		return
	}
	if req.VideoID == "" {
		s.writeError(w, r, fmt.Errorf("%w: %w", core.ErrInvalidInput, ErrMissingVideoID))
		return
	}

	params := s.params
	if req.N != nil {
		params.Limit = *req.N
	}
	if req.Threshold != nil {
		params.Threshold = *req.Threshold
	}

	results, err := s.svc.Query(r.Context(), req.VideoID, req.Query, &params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := queryResponse{
		VideoID: req.VideoID,
		Query:   req.Query,
		Results: make([]queryResult, len(results)),
	}
	for i, res := range results {
		resp.Results[i] = queryResult{
			Index:    res.DocumentIndex,
			Score:    res.Score,
			Text:     res.Text,
			Start:    res.Start,
			Duration: res.Duration,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeQuery(r *http.Request) (*queryRequest, error) {
	req := &queryRequest{}
	if r.Method == http.MethodPost {
		dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
		if err := dec.Decode(req); err != nil {
			return nil, err
		}
		return req, nil
	}

	q := r.URL.Query()
	req.VideoID = q.Get("video_id")
	req.Query = q.Get("query")
	if v := q.Get("n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("n: %w", err)
		}
		req.N = &n
	}
	if v := q.Get("threshold"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("threshold: %w", err)
		}
		req.Threshold = &threshold
	}
	return req, nil
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	id := requestID(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", id, "path", r.URL.Path, "status", status, "err", err)
	} else {
		s.logger.Debug("request rejected", "request_id", id, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Default().Error("write json", "err", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
