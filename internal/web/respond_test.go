package web

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vbonduro/setasidevault/internal/domain"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"invalid", fmt.Errorf("%w: name is required", domain.ErrInvalidRequest), http.StatusBadRequest, "name is required"},
		{"wrapped invalid", fmt.Errorf("update: %w", fmt.Errorf("%w: bad ratio", domain.ErrInvalidRequest)), http.StatusBadRequest, "bad ratio"},
		{"not found", fmt.Errorf("item 7: %w", domain.ErrNotFound), http.StatusNotFound, "item 7: not found"},
		{"unauthorized", fmt.Errorf("%w: token expired", domain.ErrUnauthorized), http.StatusUnauthorized, "unauthorized"},
		{"unavailable", fmt.Errorf("photo description: %w", domain.ErrUnavailable), http.StatusServiceUnavailable, "photo description: unavailable"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := errorStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}
