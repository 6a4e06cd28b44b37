// Package server exposes embedding and extraction over HTTP. Request
// bodies are raw STL files; every request works on its own solid.
package server

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/philipparndt/stlmark/pkg/analysis"
	"github.com/philipparndt/stlmark/pkg/canon"
	"github.com/philipparndt/stlmark/pkg/permcodec"
	"github.com/philipparndt/stlmark/pkg/stl"
	"github.com/philipparndt/stlmark/pkg/watermark"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// DefaultMaxFacets is the facet limit of a server without one configured.
const DefaultMaxFacets = 250000

// Options configure a Server.
type Options struct {
	Canonicalizer *canon.Canonicalizer
	// Format is used for embed responses unless the request asks otherwise.
	Format         stl.Format
	MaxUploadBytes int64
	// MaxFacets bounds the work per request, DefaultMaxFacets when zero.
	MaxFacets int
	Logger    *zap.Logger
	// Registry receives the metrics, a fresh registry when nil.
	Registry *prometheus.Registry
}

// Server handles watermark requests.
type Server struct {
	canon     *canon.Canonicalizer
	format    stl.Format
	maxUpload int64
	maxFacets int
	log       *zap.Logger
	registry  *prometheus.Registry
	metrics   *Metrics
	engine    *gin.Engine
}

// ErrorResponse is the JSON body of failed requests.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

// ExtractResponse is the JSON body of /v1/extract.
type ExtractResponse struct {
	Bytes      int    `json:"bytes"`
	PayloadHex string `json:"payload_hex"`
	// Payload is set when the payload is valid UTF-8.
	Payload string `json:"payload,omitempty"`
}

// InfoResponse is the JSON body of /v1/info.
type InfoResponse struct {
	Name          string     `json:"name"`
	Facets        int        `json:"facets"`
	CapacityBits  float64    `json:"capacity_bits"`
	CapacityBytes int        `json:"capacity_bytes"`
	Eigenvalues   []float64  `json:"eigenvalues,omitempty"`
	Watermarkable bool       `json:"watermarkable"`
	Reason        string     `json:"reason,omitempty"`
	Dimensions    [3]float64 `json:"dimensions"`
}

// New creates a server and its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Canonicalizer == nil {
		opts.Canonicalizer = canon.New(canon.DefaultOptions(), opts.Logger)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 64 << 20
	}
	if opts.MaxFacets <= 0 {
		opts.MaxFacets = DefaultMaxFacets
	}

	s := &Server{
		canon:     opts.Canonicalizer,
		format:    opts.Format,
		maxUpload: opts.MaxUploadBytes,
		maxFacets: opts.MaxFacets,
		log:       opts.Logger,
		registry:  opts.Registry,
		metrics:   NewMetrics(opts.Registry),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	v1.POST("/embed", s.handleEmbed)
	v1.POST("/extract", s.handleExtract)
	v1.POST("/info", s.handleInfo)

	s.engine = r
	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// requestLogger assigns request IDs and logs every request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Set("request_id", requestID)

		start := time.Now()
		c.Next()

		s.log.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleEmbed handles POST /v1/embed.
//
// The body is an STL file. The payload comes from the "payload" query
// parameter as text or from "payload_hex". "format" selects ascii or
// binary output and "name" the suggested download name.
func (s *Server) handleEmbed(c *gin.Context) {
	const op = "embed"
	start := time.Now()
	defer s.observe(op, start)

	payload, err := payloadFromQuery(c)
	if err != nil {
		s.fail(c, op, http.StatusBadRequest, "INVALID_PAYLOAD", err)
		return
	}
	format := s.format
	if f := c.Query("format"); f != "" {
		if format, err = stl.ParseFormat(f); err != nil {
			s.fail(c, op, http.StatusBadRequest, "INVALID_FORMAT", err)
			return
		}
	}

	data, ok := s.readBody(c, op)
	if !ok {
		return
	}

	emb := watermark.NewEmbedder(s.canon, format, s.log)
	emb.MaxFacets = s.maxFacets
	out, err := emb.EmbedBytes(data, payload)
	if err != nil {
		s.failWatermark(c, op, err)
		return
	}

	s.metrics.Requests.WithLabelValues(op, "ok").Inc()
	s.metrics.PayloadBytes.WithLabelValues(op).Observe(float64(len(payload)))

	name := c.DefaultQuery("name", "solid.stl")
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+watermark.DefaultSuffix+".stl"))
	c.Header("X-Payload-Bytes", fmt.Sprint(len(payload)))
	c.Data(http.StatusOK, "model/stl", out)
}

// handleExtract handles POST /v1/extract with an STL file as body.
func (s *Server) handleExtract(c *gin.Context) {
	const op = "extract"
	start := time.Now()
	defer s.observe(op, start)

	data, ok := s.readBody(c, op)
	if !ok {
		return
	}

	x := watermark.NewExtractor(s.canon, s.log)
	x.MaxFacets = s.maxFacets
	payload, err := x.ExtractBytes(data)
	if err != nil {
		s.failWatermark(c, op, err)
		return
	}

	s.metrics.Requests.WithLabelValues(op, "ok").Inc()
	s.metrics.PayloadBytes.WithLabelValues(op).Observe(float64(len(payload)))

	resp := ExtractResponse{Bytes: len(payload), PayloadHex: hex.EncodeToString(payload)}
	if utf8.Valid(payload) {
		resp.Payload = string(payload)
	}
	c.JSON(http.StatusOK, resp)
}

// handleInfo handles POST /v1/info and reports the capacity of a solid.
func (s *Server) handleInfo(c *gin.Context) {
	const op = "info"
	start := time.Now()
	defer s.observe(op, start)

	data, ok := s.readBody(c, op)
	if !ok {
		return
	}
	solid, err := stl.Decode(bytes.NewReader(data))
	if err != nil {
		s.failWatermark(c, op, err)
		return
	}
	s.metrics.Facets.Observe(float64(solid.Len()))
	if solid.Len() > s.maxFacets {
		s.failWatermark(c, op, fmt.Errorf("%w: %d, the limit is %d", watermark.ErrTooManyFacets, solid.Len(), s.maxFacets))
		return
	}

	sum := analysis.Summarize(solid, s.canon)
	resp := InfoResponse{
		Name:          sum.Name,
		Facets:        sum.FacetCount,
		CapacityBits:  sum.CapacityBits,
		CapacityBytes: sum.CapacityBytes,
		Watermarkable: sum.Watermarkable(),
		Dimensions:    [3]float64{sum.Dimensions.X, sum.Dimensions.Y, sum.Dimensions.Z},
	}
	if sum.Frame != nil {
		resp.Eigenvalues = sum.Frame.Eigenvalues[:]
	}
	if sum.CanonError != nil {
		resp.Reason = sum.CanonError.Error()
	}
	s.metrics.Requests.WithLabelValues(op, "ok").Inc()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) readBody(c *gin.Context, op string) ([]byte, bool) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, op, http.StatusRequestEntityTooLarge, "TOO_LARGE", err)
		} else {
			s.fail(c, op, http.StatusBadRequest, "READ_FAILED", err)
		}
		return nil, false
	}
	if len(data) == 0 {
		s.fail(c, op, http.StatusBadRequest, "EMPTY_BODY", errors.New("request body must be an STL file"))
		return nil, false
	}
	return data, true
}

func payloadFromQuery(c *gin.Context) ([]byte, error) {
	text, hasText := c.GetQuery("payload")
	hexText, hasHex := c.GetQuery("payload_hex")
	switch {
	case hasText && hasHex:
		return nil, errors.New("use either payload or payload_hex, not both")
	case hasHex:
		return hex.DecodeString(hexText)
	default:
		return []byte(text), nil
	}
}

// failWatermark maps pipeline errors to HTTP responses.
func (s *Server) failWatermark(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, watermark.ErrTooManyFacets):
		s.fail(c, op, http.StatusRequestEntityTooLarge, "TOO_MANY_FACETS", err)
	case errors.Is(err, stl.ErrMalformedSTL):
		s.fail(c, op, http.StatusBadRequest, "MALFORMED_STL", err)
	case errors.Is(err, permcodec.ErrCapacityExceeded):
		s.fail(c, op, http.StatusUnprocessableEntity, "CAPACITY_EXCEEDED", err)
	case errors.Is(err, canon.ErrAmbiguousOrder):
		s.fail(c, op, http.StatusUnprocessableEntity, "AMBIGUOUS_ORDER", err)
	case errors.Is(err, canon.ErrDegenerateMesh):
		s.fail(c, op, http.StatusUnprocessableEntity, "DEGENERATE_MESH", err)
	case errors.Is(err, permcodec.ErrMalformedPayload):
		s.fail(c, op, http.StatusUnprocessableEntity, "MALFORMED_PAYLOAD", err)
	case errors.Is(err, permcodec.ErrFacetSetMismatch), errors.Is(err, stl.ErrFacetSetMismatch):
		s.fail(c, op, http.StatusUnprocessableEntity, "FACET_SET_MISMATCH", err)
	default:
		s.fail(c, op, http.StatusInternalServerError, "INTERNAL", err)
	}
}

func (s *Server) fail(c *gin.Context, op string, status int, code string, err error) {
	requestID := c.GetString("request_id")
	s.metrics.Requests.WithLabelValues(op, code).Inc()
	s.log.Warn("request failed",
		zap.String("request_id", requestID),
		zap.String("op", op),
		zap.String("code", code),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code, RequestID: requestID})
}

func (s *Server) observe(op string, start time.Time) {
	s.metrics.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
