package errcodes

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIs_IgnoresDetails(t *testing.T) {
	t.Parallel()

	err := errors.WithStack(IntegrityViolation("Genre", []string{"Dune"}))
	assert.True(t, errors.Is(err, IntegrityViolation("Genre", nil)))
	assert.False(t, errors.Is(err, NotFound("Genre")))
	assert.True(t, errors.Is(errors.WithStack(NotFound("Book")), NotFound("Book")))
	assert.False(t, errors.Is(NotFound("Book"), NotFound("Author")))
}

func TestGeneratePayload(t *testing.T) {
	t.Parallel()
	h := NewHandler()

	tests := []struct {
		name     string
		err      error
		httpCode int
		code     string
		details  bool
	}{
		{"not found", NotFound("Genre"), http.StatusNotFound, "not_found", false},
		{"integrity", errors.WithStack(IntegrityViolation("Author", []int{1})), http.StatusConflict, "integrity_violation", true},
		{"validation", ValidationFailed("Genre", []string{"x"}), http.StatusUnprocessableEntity, "validation_failed", true},
		{"echo", echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"), http.StatusMethodNotAllowed, "method_not_allowed", false},
		{"generic", errors.New("disk on fire"), http.StatusInternalServerError, "internal_server_error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpCode, payload := h.generatePayload(tt.err)
			assert.Equal(t, tt.httpCode, httpCode)
			body := payload["error"].(map[string]interface{})
			assert.Equal(t, tt.code, body["code"])
			_, hasDetails := body["details"]
			assert.Equal(t, tt.details, hasDetails)
		})
	}
}
