package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jonwraymond/modeflow/debounce"
	"github.com/jonwraymond/modeflow/dispatch"
	"github.com/jonwraymond/modeflow/health"
	"github.com/jonwraymond/modeflow/mode"
	"github.com/jonwraymond/modeflow/observe"
	"github.com/jonwraymond/modeflow/request"
	"github.com/jonwraymond/modeflow/resilience"
	"github.com/jonwraymond/modeflow/upstream"
)

// ProcessRequest is the body of POST /v1/process.
type ProcessRequest struct {
	Request request.Request        `json:"request"`
	Context request.WritingContext `json:"context"`
	Mode    mode.Mode              `json:"mode"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// ModeResponse pairs a mode with its configuration.
type ModeResponse struct {
	Mode          mode.Mode          `json:"mode"`
	Configuration mode.Configuration `json:"configuration"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var body ProcessRequest
	if status, err := decodeJSONBody(w, r, &body); err != nil {
		s.respondError(w, r, status, "bad_request", err)
		return
	}

	resp, err := s.proc.Process(r.Context(), body.Request, body.Context, body.Mode)
	if err != nil {
		status, code := classify(err)
		if status >= http.StatusInternalServerError {
			s.logger.Warn(r.Context(), "process failed",
				observe.F("request_id", RequestIDFrom(r.Context())),
				observe.F("status", status),
				observe.F("error", err))
		}
		s.respondError(w, r, status, code, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePerformance(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.proc.PerformanceReport())
}

func (s *Server) handlePerformanceHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.proc.HealthStatus()
	code := http.StatusOK
	if st.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, st)
}

func (s *Server) handleCache(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.proc.CacheStats())
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	out := make([]ModeResponse, 0, len(mode.All))
	for _, m := range mode.All {
		cfg, err := s.proc.ModeConfiguration(m)
		if err != nil {
			s.respondError(w, r, http.StatusInternalServerError, "internal", err)
			return
		}
		out = append(out, ModeResponse{Mode: m, Configuration: cfg})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	m, err := mode.Parse(chi.URLParam(r, "mode"))
	if err != nil {
		s.respondError(w, r, http.StatusNotFound, "unknown_mode", err)
		return
	}
	cfg, err := s.proc.ModeConfiguration(m)
	if err != nil {
		s.respondError(w, r, http.StatusNotFound, "unknown_mode", err)
		return
	}
	respondJSON(w, http.StatusOK, ModeResponse{Mode: m, Configuration: cfg})
}

// classify maps a Process error to an HTTP status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, request.ErrValidation):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, dispatch.ErrClosed), errors.Is(err, debounce.ErrCancelled), errors.Is(err, debounce.ErrClosed):
		return http.StatusServiceUnavailable, "shutting_down"
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrBulkheadFull):
		return http.StatusServiceUnavailable, "upstream_unavailable"
	case upstream.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "cancelled"
	case errors.Is(err, upstream.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) (int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request body too large (max %d bytes)", maxBodyBytes)
		case errors.Is(err, io.EOF):
			return http.StatusBadRequest, errors.New("request body required")
		}
		return http.StatusBadRequest, fmt.Errorf("decode body: %w", err)
	}
	return 0, nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	respondJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		RequestID: RequestIDFrom(r.Context()),
	})
}
