// Package http provides the JSON API server and its handlers.
//
// This file implements parsing of query strings and JSON bodies into domain
// values, collecting every field problem instead of stopping at the first.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// maxBodyBytes caps request bodies; the largest legal body is a transaction
// with a 500 character description.
const maxBodyBytes = 64 << 10

var (
	ErrInvalidJSON   = errors.New("invalid JSON in request body")
	ErrBodyTooLarge  = errors.New("request body too large")
	ErrMissingPeriod = errors.New("month and year are required")
)

// MonthParams holds a budget period taken from query parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads month and year, defaulting each to now's. Values
// that are present but not integers are validation errors; range checks
// are left to the services.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}

	var errs core.ValidationErrors
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			errs = errs.AddMessage("year", "must be an integer")
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			errs = errs.AddMessage("month", "must be an integer")
		}
		params.Month = m
	}
	return params, errs.OrNil()
}

// RequireMonthParams is ParseMonthParams without defaults: both values must
// be present, non-zero integers.
func RequireMonthParams(query url.Values) (MonthParams, error) {
	year, yerr := strconv.Atoi(strings.TrimSpace(query.Get("year")))
	month, merr := strconv.Atoi(strings.TrimSpace(query.Get("month")))
	if yerr != nil || merr != nil || year == 0 || month == 0 {
		return MonthParams{}, ErrMissingPeriod
	}
	return MonthParams{Year: year, Month: month}, nil
}

// ParseTransactionFilter maps listing query parameters onto a filter.
// Unset values stay zero so the service can apply its defaults.
func ParseTransactionFilter(query url.Values) (storage.TransactionFilter, error) {
	var (
		f    storage.TransactionFilter
		errs core.ValidationErrors
	)

	intParam := func(key string) int {
		v := strings.TrimSpace(query.Get(key))
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = errs.AddMessage(key, "must be an integer")
		}
		return n
	}
	dateParam := func(key string) *core.Date {
		v := strings.TrimSpace(query.Get(key))
		if v == "" {
			return nil
		}
		d, err := core.ParseDate(v)
		if err != nil {
			errs = errs.Add(key, err)
			return nil
		}
		return &d
	}
	moneyParam := func(key string) *core.Money {
		v := strings.TrimSpace(query.Get(key))
		if v == "" {
			return nil
		}
		m, err := core.ParseMoney(v)
		if err != nil {
			errs = errs.Add(key, err)
			return nil
		}
		return &m
	}

	f.Limit = intParam("limit")
	f.Skip = intParam("skip")
	f.SortBy = storage.SortField(strings.TrimSpace(query.Get("sortBy")))
	f.SortOrder = storage.SortOrder(strings.ToLower(strings.TrimSpace(query.Get("sortOrder"))))
	f.DateFrom = dateParam("dateFrom")
	f.DateTo = dateParam("dateTo")
	f.MinAmount = moneyParam("minAmount")
	f.MaxAmount = moneyParam("maxAmount")

	if v := strings.TrimSpace(query.Get("category")); v != "" {
		c, err := core.ParseCategory(v)
		if err != nil {
			errs = errs.Add("category", err)
		} else {
			f.Category = &c
		}
	}
	return f, errs.OrNil()
}

// ParseID normalizes a path ID. Only UUIDs are accepted.
func ParseID(raw string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// RequestBodyParser decodes a JSON object body field by field so that each
// field's problem is reported on its own.
type RequestBodyParser struct {
	body   []byte
	fields map[string]json.RawMessage
	errs   core.ValidationErrors
	err    error
	parsed bool
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = ErrBodyTooLarge
	}
	return p
}

// Parse decodes the body as a JSON object. Empty bodies, arrays and
// malformed JSON return ErrInvalidJSON.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		p.err = ErrInvalidJSON
		return p.err
	}
	if err := json.Unmarshal(trimmed, &p.fields); err != nil {
		p.err = fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return p.err
}

// Has reports whether key is present with a non-null value.
func (p *RequestBodyParser) Has(key string) bool {
	raw, ok := p.fields[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Require records a "is required" error for every missing key.
func (p *RequestBodyParser) Require(keys ...string) {
	for _, key := range keys {
		if !p.Has(key) {
			p.errs = p.errs.AddMessage(key, "is required")
		}
	}
}

func (p *RequestBodyParser) String(key string) *string {
	var s string
	if !p.decode(key, &s, "must be a string") {
		return nil
	}
	s = sanitizeInput(s)
	return &s
}

func (p *RequestBodyParser) Int(key string) *int {
	var n int
	if !p.decode(key, &n, "must be an integer") {
		return nil
	}
	return &n
}

func (p *RequestBodyParser) Money(key string) *core.Money {
	var m core.Money
	if !p.decode(key, &m, "") {
		return nil
	}
	return &m
}

func (p *RequestBodyParser) Date(key string) *core.Date {
	var d core.Date
	if !p.decode(key, &d, "") {
		return nil
	}
	return &d
}

func (p *RequestBodyParser) Category(key string) *core.Category {
	var c core.Category
	if !p.decode(key, &c, "") {
		return nil
	}
	return &c
}

// Errors returns the accumulated field errors, or nil.
func (p *RequestBodyParser) Errors() error {
	return p.errs.OrNil()
}

// decode unmarshals a present field into dst. On failure it records either
// msg or, when msg is empty, the decoder's own error.
func (p *RequestBodyParser) decode(key string, dst any, msg string) bool {
	if !p.Has(key) {
		return false
	}
	if err := json.Unmarshal(p.fields[key], dst); err != nil {
		if msg != "" {
			p.errs = p.errs.AddMessage(key, msg)
		} else {
			p.errs = p.errs.Add(key, err)
		}
		return false
	}
	return true
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
