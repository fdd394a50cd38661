// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package server exposes the document cleaning service over HTTP: the
// upload endpoint, the job log API, the health check and the live log
// websocket.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cleandoc/internal/archive"
	"github.com/cleandoc/internal/cleaner"
	"github.com/cleandoc/internal/database"
	"github.com/cleandoc/internal/docx"
	"github.com/cleandoc/internal/logger"
)

const (
	// UploadField is the multipart form field carrying the documents.
	UploadField = "archivo"

	// BatchArchiveName is the download name for multi-file results.
	BatchArchiveName = "cleandoc_limpios.zip"

	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// CleanHandler serves POST /limpiar_cedula.
type CleanHandler struct {
	cleaner  *cleaner.Cleaner
	store    *database.JobLogStore
	maxBytes int64
	maxFiles int
}

// NewCleanHandler builds the upload handler. store may be nil when job
// logging is disabled (tests, CLI use).
func NewCleanHandler(c *cleaner.Cleaner, store *database.JobLogStore, maxBytes int64, maxFiles int) *CleanHandler {
	if maxFiles <= 0 {
		maxFiles = 20
	}
	return &CleanHandler{cleaner: c, store: store, maxBytes: maxBytes, maxFiles: maxFiles}
}

// ServeHTTP handles the upload request. A single file comes back as the
// cleaned document; multiple files come back as a ZIP with a report. A
// failing file in a batch never aborts its siblings.
func (h *CleanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// The request as a whole is capped at the per-file limit times the
	// file count limit; individual files are checked again below.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes*int64(h.maxFiles)+(1<<20))

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File[UploadField]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("no files in field %q", UploadField))
		return
	}
	if len(files) > h.maxFiles {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("too many files: %d (limit %d)", len(files), h.maxFiles))
		return
	}

	ip := clientIP(r)

	if len(files) == 1 {
		h.serveSingle(w, files[0], ip)
		return
	}
	h.serveBatch(w, files, ip)
}

// serveSingle cleans one document and streams it back, with the cleaning
// counters exposed as response headers.
func (h *CleanHandler) serveSingle(w http.ResponseWriter, fh *multipart.FileHeader, clientIP string) {
	name := archive.SanitizeFilename(fh.Filename)

	data, status, reason := h.readUpload(fh)
	if reason != "" {
		h.logJob(clientIP, name, nil, database.JobStatusError, reason)
		writeError(w, status, reason)
		return
	}

	cleaned, stats, err := h.cleaner.Clean(data, name)
	if err != nil {
		h.logJob(clientIP, name, nil, database.JobStatusError, err.Error())
		writeError(w, statusForError(err), err.Error())
		return
	}

	h.logJob(clientIP, name, stats, database.JobStatusOK, "")

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.CleanedName(name)))
	w.Header().Set("X-CleanDoc-Images-Removed", strconv.Itoa(stats.ImagesRemoved))
	w.Header().Set("X-CleanDoc-Paragraphs-Cleaned", strconv.Itoa(stats.ParagraphsCleaned))
	w.Header().Set("X-CleanDoc-Textboxes-Cleaned", strconv.Itoa(stats.TextboxesCleaned))
	w.Header().Set("X-CleanDoc-Signature-Removed", strconv.FormatBool(stats.SignatureRemoved))
	w.WriteHeader(http.StatusOK)
	w.Write(cleaned)
}

// serveBatch cleans every document, collecting per-file failures, and
// streams back a ZIP with the cleaned files and the aggregate report.
func (h *CleanHandler) serveBatch(w http.ResponseWriter, files []*multipart.FileHeader, clientIP string) {
	var items []archive.Item
	var failures []archive.Failure

	for _, fh := range files {
		name := archive.SanitizeFilename(fh.Filename)

		data, _, reason := h.readUpload(fh)
		if reason != "" {
			failures = append(failures, archive.Failure{Name: name, Reason: reason})
			h.logJob(clientIP, name, nil, database.JobStatusError, reason)
			continue
		}

		cleaned, stats, err := h.cleaner.Clean(data, name)
		if err != nil {
			failures = append(failures, archive.Failure{Name: name, Reason: err.Error()})
			h.logJob(clientIP, name, nil, database.JobStatusError, err.Error())
			continue
		}

		items = append(items, archive.Item{Name: name, Data: cleaned, Stats: stats})
		h.logJob(clientIP, name, stats, database.JobStatusOK, "")
	}

	if len(items) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no documents could be cleaned")
		return
	}

	zipData, err := archive.BuildZip(items, failures)
	if err != nil {
		logger.Errorf("[CLEAN] batch archive failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to build result archive")
		return
	}

	totals := archive.SumTotals(items)

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", BatchArchiveName))
	w.Header().Set("X-CleanDoc-Total-Images-Removed", strconv.Itoa(totals.ImagesRemoved))
	w.Header().Set("X-CleanDoc-Total-Paragraphs-Cleaned", strconv.Itoa(totals.ParagraphsCleaned))
	w.Header().Set("X-CleanDoc-Total-Textboxes-Cleaned", strconv.Itoa(totals.TextboxesCleaned))
	w.Header().Set("X-CleanDoc-Total-Signatures-Removed", strconv.Itoa(totals.SignaturesRemoved))
	w.Header().Set("X-CleanDoc-Failed-Files", strconv.Itoa(len(failures)))
	w.WriteHeader(http.StatusOK)
	w.Write(zipData)
}

// readUpload validates one uploaded file and returns its content. On
// rejection it returns the HTTP status and a human-readable reason.
func (h *CleanHandler) readUpload(fh *multipart.FileHeader) ([]byte, int, string) {
	name := archive.SanitizeFilename(fh.Filename)

	if !strings.EqualFold(filepath.Ext(name), ".docx") {
		return nil, http.StatusUnsupportedMediaType, fmt.Sprintf("%s: only .docx files are supported", name)
	}
	if fh.Size > h.maxBytes {
		return nil, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("%s: file exceeds the %d MB limit", name, h.maxBytes>>20)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Sprintf("%s: unreadable upload", name)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Sprintf("%s: unreadable upload", name)
	}
	if int64(len(data)) > h.maxBytes {
		return nil, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("%s: file exceeds the %d MB limit", name, h.maxBytes>>20)
	}
	if !docx.HasZipSignature(data) {
		return nil, http.StatusBadRequest, fmt.Sprintf("%s: not a valid DOCX file", name)
	}

	return data, 0, ""
}

func (h *CleanHandler) logJob(clientIP, name string, stats *cleaner.Stats, status database.JobStatus, note string) {
	if h.store == nil {
		return
	}
	if err := h.store.LogJob(clientIP, name, stats, status, note); err != nil {
		logger.Warnf("[DB] failed to log job for %s: %v", name, err)
	}
}

// statusForError maps cleaning errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, docx.ErrNotDocx):
		return http.StatusBadRequest
	case errors.Is(err, docx.ErrMissingPart):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends a JSON error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// clientIP extracts the caller's address, honoring X-Forwarded-For when a
// proxy sits in front.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
