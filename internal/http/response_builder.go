// Package http provides the JSON API server and its handlers.
//
// This file implements the builder used for every response envelope.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

// Error codes returned in the "code" field of failed responses.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidID        = "INVALID_ID"
	CodeBadRequest       = "BAD_REQUEST"
	CodeDatabase         = "DATABASE_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRateLimited      = "RATE_LIMITED"
)

type successBody struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type errorBody struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Details []core.FieldError `json:"details,omitempty"`
	Code    string            `json:"code"`
}

// JSONResponseBuilder provides a fluent API for building enveloped JSON
// responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	success    *successBody
	failure    *errorBody
}

// NewJSONResponse creates a successful response with a null payload and
// status 200.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
		success:    &successBody{Success: true},
	}
}

// Success is shorthand for NewJSONResponse().Data(data).
func Success(data any) *JSONResponseBuilder {
	return NewJSONResponse().Data(data)
}

// Created is a 201 success.
func Created(data any) *JSONResponseBuilder {
	return Success(data).Status(http.StatusCreated)
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the payload of a success response.
func (b *JSONResponseBuilder) Data(data any) *JSONResponseBuilder {
	if b.success != nil {
		b.success.Data = data
	}
	return b
}

// Message sets the human readable message of a success response.
func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	if b.success != nil {
		b.success.Message = msg
	}
	return b
}

// Details attaches per-field failures to an error response.
func (b *JSONResponseBuilder) Details(details []core.FieldError) *JSONResponseBuilder {
	if b.failure != nil {
		b.failure.Details = details
	}
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	var payload any = b.success
	if b.failure != nil {
		payload = b.failure
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		b.statusCode = http.StatusInternalServerError
		body = []byte(`{"success":false,"error":"Failed to encode response","code":"` + CodeInternal + `"}`)
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
}

// ErrorResponse creates a failed response with the given status and code.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: statusCode,
		headers:    make(map[string]string),
		failure:    &errorBody{Error: message, Code: code},
	}
}

// ValidationError lists every failing field. Errors that are not
// core.ValidationErrors are reported against the request body.
func ValidationError(err error) *JSONResponseBuilder {
	var ve core.ValidationErrors
	if !errors.As(err, &ve) {
		ve = core.ValidationErrors{}.AddMessage("body", err.Error())
	}
	return ErrorResponse(http.StatusUnprocessableEntity, CodeValidation, "Validation failed").
		Details(ve)
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeBadRequest, message)
}

func InvalidIDError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeInvalidID, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, CodeNotFound, message)
}

// DatabaseError hides the cause; callers log it.
func DatabaseError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeDatabase, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeInternal, message)
}

// MethodNotAllowedError creates a 405 carrying the Allow header when
// allowed methods are known.
func MethodNotAllowedError(allowed ...string) *JSONResponseBuilder {
	b := ErrorResponse(http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed")
	if len(allowed) > 0 {
		b.Header("Allow", strings.Join(allowed, ", "))
	}
	return b
}

func RateLimitedError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded. Please try again later.")
}
