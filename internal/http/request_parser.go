// Package http serves the dashboard page, its JSON API and the export
// downloads on top of a ledger.Manager.
//
// This file holds request parsing shared by the handlers.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"wallet/internal/ledger"
)

// maxBodyBytes bounds form and JSON bodies. Imports use maxImportBytes.
const (
	maxBodyBytes   = 64 << 10
	maxImportBytes = 8 << 20
)

// RequestBodyParser reads a body once and serves values from it whether
// it was sent as JSON or as a form.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	return p
}

// Parse decodes the body as JSON when it looks like a JSON object and as
// a urlencoded form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	switch {
	case trimmed == "":
		p.formData = url.Values{}
	case trimmed[0] == '{':
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
	default:
		p.formData, p.err = url.ParseQuery(trimmed)
	}
	return p.err
}

// Get returns the sanitized value for key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if v, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(v))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ExpenseInput maps the page's field names onto ledger.NewExpense.
func (p *RequestBodyParser) ExpenseInput() ledger.NewExpense {
	return ledger.NewExpense{
		Amount:        p.Get("amount"),
		Date:          p.Get("date"),
		Category:      p.Get("category"),
		Description:   p.Get("description"),
		PaymentMethod: p.Get("paymentMethod"),
	}
}

// BudgetInput accepts the form's budgetAmount or a JSON "budget".
func (p *RequestBodyParser) BudgetInput() string {
	if v := p.Get("budgetAmount"); v != "" {
		return v
	}
	return p.Get("budget")
}

// SortParams is the table ordering requested in the query string.
type SortParams struct {
	Field ledger.SortField
	Desc  bool
}

// ParseSortParams reads sort and order. The default is newest first; an
// explicit field defaults to ascending.
func ParseSortParams(q url.Values) SortParams {
	raw := strings.TrimSpace(q.Get("sort"))
	p := SortParams{Field: ledger.ParseSortField(raw), Desc: raw == ""}
	switch strings.ToLower(strings.TrimSpace(q.Get("order"))) {
	case "desc":
		p.Desc = true
	case "asc":
		p.Desc = false
	}
	return p
}

// Order returns "asc" or "desc".
func (p SortParams) Order() string {
	if p.Desc {
		return "desc"
	}
	return "asc"
}
