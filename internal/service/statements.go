package service

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/finwise-app/finwise/backend/internal/auth"
	"github.com/finwise-app/finwise/backend/internal/entitlements"
	"github.com/finwise-app/finwise/backend/internal/extraction"
	"github.com/finwise-app/finwise/backend/internal/model"
	"github.com/finwise-app/finwise/backend/internal/queue"
)

// maxStatementPDFBytes bounds uploaded statement PDFs.
const maxStatementPDFBytes = 20 << 20

// handleUploadStatement accepts a multipart PDF upload, extracts its text in
// the sandboxed subprocess, records the statement, and enqueues ingestion.
// The raw PDF never leaves this handler: only extracted text is persisted on
// the queue payload.
func (s *Service) handleUploadStatement(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxStatementPDFBytes); err != nil {
		auth.WriteError(w, auth.ValidationFailed("invalid multipart form"))
		return
	}

	cardID := r.FormValue("cardId")
	if cardID == "" {
		auth.WriteError(w, auth.ValidationFailed("cardId is required"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		auth.WriteError(w, auth.ValidationFailed("file is required"))
		return
	}
	defer file.Close()

	plan := auth.PlanFromContext(r.Context())
	uploadedThisMonth, err := s.store.CountStatementsInMonth(r.Context(), claims.UID, s.now())
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("count statements", "statements", err))
		return
	}
	if !entitlements.CanUploadStatement(plan, uploadedThisMonth) {
		auth.WriteError(w, auth.PlanLimit("statement upload limit reached for this month"))
		return
	}

	// Card ownership: a foreign or missing card reads as not found.
	if _, err := s.store.GetCard(r.Context(), claims.UID, cardID); err != nil {
		auth.WriteError(w, auth.WrapStoreError("get card", "card", err))
		return
	}

	pdfData, err := io.ReadAll(io.LimitReader(file, maxStatementPDFBytes))
	if err != nil {
		auth.WriteError(w, auth.ValidationFailed("could not read uploaded file"))
		return
	}

	statement := &model.Statement{
		ID:         uuid.New().String(),
		UserID:     claims.UID,
		CardID:     cardID,
		FileName:   header.Filename,
		Status:     model.StatementProcessing,
		UploadedAt: s.now(),
	}

	text, err := s.extractor.ExtractText(r.Context(), pdfData, r.FormValue("password"))
	if err != nil {
		// Extraction failures are recorded on the statement so the client
		// can poll the reason; the upload itself still succeeded.
		statement.Status = model.StatementFailed
		statement.FailureReason = extractionFailureReason(err)
		if storeErr := s.store.CreateStatement(r.Context(), statement); storeErr != nil {
			auth.WriteError(w, auth.WrapStoreError("create statement", "statement", storeErr))
			return
		}
		log.Printf("[Statements] extraction failed for %s: %v", statement.ID, err)
		writeJSON(w, http.StatusCreated, statement)
		return
	}

	if err := s.store.CreateStatement(r.Context(), statement); err != nil {
		auth.WriteError(w, auth.WrapStoreError("create statement", "statement", err))
		return
	}

	event, err := queue.NewEvent(queue.EventStatementProcess, queue.StatementProcessPayload{
		StatementID:   statement.ID,
		UserID:        claims.UID,
		CardID:        cardID,
		FileName:      header.Filename,
		ExtractedText: text,
	})
	if err != nil {
		log.Printf("[Statements] failed to build event for %s: %v", statement.ID, err)
		auth.WriteError(w, auth.Internal())
		return
	}
	if err := s.publisher.Send(r.Context(), event); err != nil {
		log.Printf("[Statements] failed to enqueue processing for %s: %v", statement.ID, err)
		auth.WriteError(w, auth.ExternalFailure("could not schedule statement processing"))
		return
	}

	writeJSON(w, http.StatusCreated, statement)
}

// extractionFailureReason maps extraction errors to the reason stored on the
// statement.
func extractionFailureReason(err error) string {
	var extractionErr *extraction.ExtractionError
	if errors.As(err, &extractionErr) {
		return extractionErr.Message
	}
	return "text extraction failed"
}

func (s *Service) handleListStatements(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	pageSize := int32(20)
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			pageSize = int32(n)
		}
	}

	statements, nextToken, err := s.store.ListStatements(r.Context(), claims.UID, pageSize, r.URL.Query().Get("pageToken"))
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list statements", "statements", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"statements":    statements,
		"nextPageToken": nextToken,
	})
}

func (s *Service) handleGetStatement(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	statement, err := s.store.GetStatement(r.Context(), claims.UID, r.PathValue("id"))
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("get statement", "statement", err))
		return
	}
	writeJSON(w, http.StatusOK, statement)
}
