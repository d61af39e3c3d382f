package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"paytrack/internal/auth"
	"paytrack/internal/core"
	"paytrack/internal/imports"
)

// multipart overhead allowed on top of the file itself
const multipartSlack = 64 << 10

func (s *Server) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := imports.BuildTemplate(strings.ToLower(r.URL.Query().Get("format")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Attachment(tpl.Filename, tpl.ContentType, tpl.Body).Write(w)
}

// handleUpload saves the multipart "file" under the upload directory and hands
// it to the import pipeline, which deletes it once parsed.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.UploadMaxBytes+multipartSlack)
	if err := r.ParseMultipartForm(s.deps.UploadMaxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, err)
			return
		}
		writeError(w, r, core.NewValidationError("file", "expected a multipart form with a file field"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, core.NewValidationError("file", "file is required"))
		return
	}
	defer file.Close()

	path, err := s.saveUpload(file, header.Filename)
	if err != nil {
		writeError(w, r, err)
		return
	}

	preview, err := s.deps.Imports.Upload(r.Context(), auth.OwnerFrom(r.Context()), path, header.Filename)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(newPreviewView(preview)).Write(w)
}

func (s *Server) saveUpload(src io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	dst, err := os.CreateTemp(s.deps.UploadDir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("store upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("store upload: %w", err)
	}
	return dst.Name(), nil
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var in confirmInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.deps.Imports.Confirm(r.Context(), auth.OwnerFrom(r.Context()), chi.URLParam(r, "sessionID"), in.RowsToImport)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(map[string]int{"imported": n}).Write(w)
}
