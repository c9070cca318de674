package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrMissingFields.WithDetail("provider required"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "MISSING_FIELDS", body["code"])
	assert.Equal(t, "provider required", body["detail"])
}

func TestWriteError_WrappedAppErrorIsFound(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("controller: %w", ErrForbidden))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWriteError_GenericErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("db down"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestWithDetail_DoesNotMutateBase(t *testing.T) {
	_ = ErrBadRequest.WithDetail("x")
	assert.Empty(t, ErrBadRequest.Detail)
}
