package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vbonduro/setasidevault/internal/domain"
	"github.com/vbonduro/setasidevault/internal/service"
)

// maxBulkFiles bounds the request body of a bulk upload in multiples of the
// per-file limit.
const maxBulkFiles = 50

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err onto an HTTP status. Unexpected errors are logged and
// answered with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, clientMessage(err, domain.ErrInvalidRequest)
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// clientMessage returns the text after the sentinel's prefix, which is the
// part written for the client.
func clientMessage(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// parseForm reads a multipart body capped at limit bytes.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return invalid("request must be less than %d bytes", limit)
		}
		return invalid("failed to parse form")
	}
	return nil
}

// singleUploadLimit leaves room for the JSON part next to one file.
func (s *Server) singleUploadLimit() int64 {
	return 2*s.opts.MaxUploadBytes + 1<<20
}

// readEntity decodes a create/update request. Multipart requests carry JSON in
// the "data" field and an optional file in fileField; plain JSON requests
// carry the entity as the whole body.
func (s *Server) readEntity(w http.ResponseWriter, r *http.Request, dst any, fileField string) (*service.Upload, error) {
	if isJSONRequest(r) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return nil, invalid("invalid JSON body")
		}
		return nil, nil
	}

	if err := s.parseForm(w, r, s.singleUploadLimit()); err != nil {
		return nil, err
	}
	data := r.FormValue("data")
	if data == "" {
		return nil, invalid("data is required")
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return nil, invalid("data must be valid JSON")
	}
	return s.readUpload(r, fileField)
}

// readUpload returns the named file part, or nil when none was sent. At most
// one byte past the upload limit is read so oversize files are reported by
// the service.
func (s *Server) readUpload(r *http.Request, field string) (*service.Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, invalid("failed to read %s", field)
	}
	return s.readFile(header.Filename, file)
}

func (s *Server) readFile(name string, file io.ReadCloser) (*service.Upload, error) {
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(io.LimitReader(file, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", name, err)
	}
	return &service.Upload{Filename: name, Data: data}, nil
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close "+label, "error", err)
	}
}
