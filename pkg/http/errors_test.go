package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()

	pkghttp.WriteError(rec, http.StatusBadRequest, "bad_request", "something was off")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bad_request", resp.Error)
	assert.Equal(t, "something was off", resp.Message)
	assert.Empty(t, resp.RetryHint)
}

func TestWriteLocked_IncludesCoarseRetryHint(t *testing.T) {
	rec := httptest.NewRecorder()

	pkghttp.WriteLocked(rec, "too many attempts, try again later", "in about 15 minutes")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "too_many_attempts", resp.Error)
	assert.Equal(t, "in about 15 minutes", resp.RetryHint)
}

func TestCommonWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"unauthorized", func(w http.ResponseWriter) { pkghttp.WriteUnauthorized(w, "no") }, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", func(w http.ResponseWriter) { pkghttp.WriteForbidden(w, "no") }, http.StatusForbidden, "forbidden"},
		{"not found", func(w http.ResponseWriter) { pkghttp.WriteNotFound(w, "no") }, http.StatusNotFound, "not_found"},
		{"conflict", func(w http.ResponseWriter) { pkghttp.WriteConflict(w, "no") }, http.StatusConflict, "conflict"},
		{"internal", func(w http.ResponseWriter) { pkghttp.WriteInternalError(w, "no") }, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp pkghttp.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error)
		})
	}
}
