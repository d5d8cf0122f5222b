package http_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagarc03/shareline"
	sharelinehttp "github.com/sagarc03/shareline/http"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "not found", err: shareline.ErrNotFound, wantCode: http.StatusNotFound, wantErr: "not_found"},
		{name: "wrapped not found", err: fmt.Errorf("download: %w", shareline.ErrNotFound), wantCode: http.StatusNotFound, wantErr: "not_found"},
		{name: "invalid input", err: shareline.ErrInvalidInput, wantCode: http.StatusBadRequest, wantErr: "invalid_input"},
		{name: "unauthorized", err: shareline.ErrUnauthorized, wantCode: http.StatusUnauthorized, wantErr: "authentication_required"},
		{name: "storage", err: shareline.ErrStorage, wantCode: http.StatusInternalServerError, wantErr: "storage_failure"},
		{name: "unknown", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantErr: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			sharelinehttp.HandleError(rec, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body sharelinehttp.ErrorResponse
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantErr, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	err := sharelinehttp.WriteJSON(rec, http.StatusCreated, map[string]int{"n": 1})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}
