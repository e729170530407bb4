package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestJSONResponseBuilder_Success(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(map[string]int{"n": 1}).Message("ok").Header("X-Test", "yes").Write(rec)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "yes", rec.Header().Get("X-Test"))
	assert.JSONEq(t, `{"success":true,"data":{"n":1},"message":"ok"}`, rec.Body.String())
}

func TestJSONResponseBuilder_NullData(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(nil).Write(rec)
	assert.JSONEq(t, `{"success":true,"data":null}`, rec.Body.String())
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	Created("x").Write(rec)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		build  *JSONResponseBuilder
		status int
		code   string
	}{
		{"bad request", BadRequestError("bad"), http.StatusBadRequest, CodeBadRequest},
		{"invalid id", InvalidIDError("bad id"), http.StatusBadRequest, CodeInvalidID},
		{"not found", NotFoundError("missing"), http.StatusNotFound, CodeNotFound},
		{"database", DatabaseError("db"), http.StatusInternalServerError, CodeDatabase},
		{"internal", InternalServerError("boom"), http.StatusInternalServerError, CodeInternal},
		{"method", MethodNotAllowedError(), http.StatusMethodNotAllowed, CodeMethodNotAllowed},
		{"rate limited", RateLimitedError(), http.StatusTooManyRequests, CodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.build.Write(rec)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, body, "data")
			assert.NotContains(t, body, "details")
		})
	}
}

func TestErrorResponse_IgnoresSuccessSetters(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFoundError("gone").Data("ignored").Message("ignored").Write(rec)
	assert.JSONEq(t, `{"success":false,"error":"gone","code":"NOT_FOUND"}`, rec.Body.String())
}

func TestValidationError(t *testing.T) {
	errs := core.ValidationErrors{}.
		Add("amount", core.ErrInvalidAmount).
		AddMessage("date", "is required")

	rec := httptest.NewRecorder()
	ValidationError(errs).Write(rec)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{
		"success": false,
		"error": "Validation failed",
		"code": "VALIDATION_ERROR",
		"details": [
			{"field": "amount", "message": "invalid amount"},
			{"field": "date", "message": "is required"}
		]
	}`, rec.Body.String())
}

func TestValidationError_PlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(errors.New("nope")).Write(rec)
	assert.Contains(t, rec.Body.String(), `{"field":"body","message":"nope"}`)
}

func TestMethodNotAllowedError_AllowHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	MethodNotAllowedError(http.MethodGet, http.MethodPost).Write(rec)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))
}

func TestWrite_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(make(chan int)).Write(rec)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeInternal)
}
