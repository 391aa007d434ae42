// Package export writes ledger snapshots as downloadable documents and
// reads the JSON form back for import.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"wallet/internal/core"
	"wallet/internal/ledger"
)

const (
	ExtJSON = "json"
	ExtXLSX = "xlsx"

	// ContentTypeXLSX is the MIME type of an Office Open XML workbook.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var ErrNotSnapshot = errors.New("document is not a wallet export")

// FileName returns the download name for an export taken at now.
func FileName(now time.Time, ext string) string {
	return fmt.Sprintf("wallet-assistant-export-%s.%s", now.Format("2006-01-02"), ext)
}

// WriteJSON writes snap as an indented JSON document.
func WriteJSON(w io.Writer, snap ledger.Snapshot) error {
	if snap.Expenses == nil {
		snap.Expenses = []core.Expense{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ReadJSON parses a document produced by WriteJSON. A document without an
// expenses array is rejected so an unrelated file cannot wipe the ledger.
func ReadJSON(r io.Reader) (ledger.Snapshot, error) {
	var doc struct {
		ledger.Snapshot
		Expenses *json.RawMessage `json:"expenses"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Expenses == nil {
		return ledger.Snapshot{}, ErrNotSnapshot
	}
	snap := doc.Snapshot
	if err := json.Unmarshal(*doc.Expenses, &snap.Expenses); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("decode expenses: %w", err)
	}
	return snap, nil
}
