package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vbonduro/setasidevault/internal/domain"
	"github.com/vbonduro/setasidevault/internal/service"
)

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	reader, mimeType, err := s.files.Open(r.Context(), filename)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidRequest) {
			http.NotFound(w, r)
			return
		}
		s.writeError(w, r, err)
		return
	}
	defer closeWithLog(reader, "image reader", s.logger)

	h := w.Header()
	h.Set("Content-Type", mimeType)
	h.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	h.Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write image failed", "filename", filename, "error", err)
	}
}

func (s *Server) handleListUnusedMedia(w http.ResponseWriter, r *http.Request) {
	files, err := s.svc.Media.Unused(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, files)
}

type bulkUploadResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Filenames []string `json:"filenames"`
	Count     int      `json:"count"`
}

type bulkDeleteResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	DeletedCount   int    `json:"deletedCount"`
	TotalRequested int    `json:"totalRequested"`
}

type deleteMediaResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// mediaFailure is the error body of the media endpoints. It carries both the
// message fields the media responses use and the usual error field.
type mediaFailure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (s *Server) writeMediaError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, mediaFailure{Message: msg, Error: msg})
}

func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r, maxBulkFiles*s.opts.MaxUploadBytes+1<<20); err != nil {
		s.writeMediaError(w, r, err)
		return
	}

	headers := r.MultipartForm.File["files"]
	uploads := make([]*service.Upload, 0, len(headers))
	for _, fh := range headers {
		file, err := fh.Open()
		if err != nil {
			s.writeMediaError(w, r, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err))
			return
		}
		up, err := s.readFile(fh.Filename, file)
		if err != nil {
			s.writeMediaError(w, r, err)
			return
		}
		uploads = append(uploads, up)
	}

	result, err := s.svc.Media.BulkUpload(r.Context(), uploads)
	if err != nil {
		s.writeMediaError(w, r, err)
		return
	}

	msg := fmt.Sprintf("Uploaded %d file(s)", len(result.Filenames))
	if len(result.Skipped) > 0 {
		msg += fmt.Sprintf("; skipped %d: %s", len(result.Skipped), strings.Join(result.Skipped, "; "))
	}
	s.writeJSON(w, http.StatusOK, bulkUploadResponse{
		Success:   true,
		Message:   msg,
		Filenames: result.Filenames,
		Count:     len(result.Filenames),
	})
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var filenames []string
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&filenames); err != nil {
		s.writeMediaError(w, r, invalid("body must be a JSON array of filenames"))
		return
	}

	deleted, err := s.svc.Media.BulkDelete(r.Context(), filenames)
	if err != nil {
		s.writeMediaError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bulkDeleteResponse{
		Success:        true,
		Message:        fmt.Sprintf("Deleted %d of %d file(s)", deleted, len(filenames)),
		DeletedCount:   deleted,
		TotalRequested: len(filenames),
	})
}

func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if err := s.svc.Media.Delete(r.Context(), filename); err != nil {
		s.writeMediaError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, deleteMediaResponse{
		Success:  true,
		Message:  "File deleted successfully",
		Filename: filename,
	})
}
