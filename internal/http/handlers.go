package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/storage"
)

// handleHealth pings the store and reports record counts.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logError(r, "Health check ping failed", err, log.OpRead, log.ErrorTypeDatabase)
		DatabaseError("Database connection failed").Write(w)
		return
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		s.logError(r, "Health check stats failed", err, log.OpRead, log.ErrorTypeDatabase)
		DatabaseError("System health check failed").Write(w)
		return
	}

	now := s.now()
	Success(map[string]any{
		"status":    "healthy",
		"timestamp": now.UTC().Format(time.RFC3339),
		"backend":   s.backend,
		"database":  stats,
		"uptime":    now.Sub(s.started).Round(time.Second).String(),
	}).Message("System is healthy").Write(w)
}

// handleMetrics exposes request, security and write counters in a
// Prometheus-like text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_response_time_avg_us", "gauge", "Average response time in microseconds", traceMetrics.AverageResponseTime)
	metric("transactions_created_total", "counter", "Transactions created through the API", s.created.Load())
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("invalid_ip_attempts_total", "counter", "Unparseable client addresses", securityMetrics.InvalidIPAttempts)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", s.now().Sub(s.started).Seconds()))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	Success(core.CategoryLabels()).Write(w)
}

// writeServiceError maps service and store errors onto the envelope. what
// names the entity for not-found messages, e.g. "Transaction".
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, what, op string) {
	var ve core.ValidationErrors
	switch {
	case errors.As(err, &ve):
		s.logRejected(r, err, op)
		ValidationError(ve).Write(w)
	case errors.Is(err, storage.ErrEmptyPatch):
		s.logRejected(r, err, op)
		ValidationError(core.ValidationErrors{}.AddMessage("body", "At least one field must be provided for update")).Write(w)
	case errors.Is(err, storage.ErrNotFound):
		NotFoundError(what + " not found").Write(w)
	case errors.Is(err, storage.ErrNoChanges):
		BadRequestError("No changes were made to the " + strings.ToLower(what)).Write(w)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logError(r, "Request aborted", err, op, log.ErrorTypeTimeout)
		InternalServerError("Request was cancelled").Write(w)
	default:
		s.logError(r, "Storage operation failed", err, op, log.ErrorTypeDatabase)
		DatabaseError(fmt.Sprintf("Failed to %s %s", op, strings.ToLower(what))).Write(w)
	}
}

func (s *Server) logError(r *http.Request, msg string, err error, op, errorType string) {
	ctx := r.Context()
	s.logger.LogError(ctx, msg, err, log.FromContext(ctx).Component(), op,
		log.NewFields().
			WithRequestID(trace.GetRequestID(ctx)).
			WithErrorType(errorType))
}

// logRejected records a request the service refused as invalid. Client
// mistakes stay at debug level.
func (s *Server) logRejected(r *http.Request, err error, op string) {
	ctx := r.Context()
	fields := log.NewFields().
		WithRequestID(trace.GetRequestID(ctx)).
		WithOperation(op).
		WithErrorType(log.ErrorTypeValidation).
		WithError(err)
	log.FromContext(ctx).DebugContext(ctx, "Request rejected by validation", fields.ToSlice()...)
}
