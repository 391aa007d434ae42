package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"wallet/internal/export"
	"wallet/internal/log"
)

func (s *Server) attachment(w http.ResponseWriter, contentType, ext string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(s.now(), ext)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, s.ledger.Snapshot()); err != nil {
		s.exportFailed(w, r, err, export.ExtJSON)
		return
	}
	s.attachment(w, "application/json", export.ExtJSON, buf.Bytes())
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, export.WorkbookFrom(s.ledger)); err != nil {
		s.exportFailed(w, r, err, export.ExtXLSX)
		return
	}
	s.attachment(w, export.ContentTypeXLSX, export.ExtXLSX, buf.Bytes())
}

func (s *Server) exportFailed(w http.ResponseWriter, r *http.Request, err error, format string) {
	log.FromContext(r.Context()).WithComponent(log.ComponentExport).ErrorContext(r.Context(),
		"Export failed", log.FieldOperation, log.OpExport, "format", format, log.FieldError, err)
	http.Error(w, "export failed", http.StatusInternalServerError)
}

// handleImport replaces the ledger with an uploaded export document, sent
// either as the raw body or as the "file" field of a multipart form.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, "file", "Missing export file")
			return
		}
		defer file.Close()
		body = file
	}

	snap, err := export.ReadJSON(body)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, export.ErrNotSnapshot) {
			status = http.StatusUnprocessableEntity
		}
		log.FromContext(ctx).WarnContext(ctx, "Import rejected", log.FieldOperation, log.OpImport, log.FieldError, err)
		s.fail(w, r, status, "file", "Not a valid export file")
		return
	}
	if err := s.ledger.Import(ctx, snap); err != nil {
		s.mutationError(w, r, err, log.OpImport)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"imported": len(snap.Expenses)})
		return
	}
	NewHTMXResponse().
		TriggerLedgerChanged(s.ledger.Revision()).
		TriggerSuccessNotification("Imported " + itoa(len(snap.Expenses)) + " expenses").
		Write(w)
}
