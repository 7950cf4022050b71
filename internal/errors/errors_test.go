package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NotFound("intern not found"), http.StatusNotFound},
		{"unauthorized", Unauthorized(nil, "bad token"), http.StatusUnauthorized},
		{"conflict", Conflict(nil, "duplicate"), http.StatusConflict},
		{"validation", ValidationError("bad id"), http.StatusBadRequest},
		{"external", ExternalError(fmt.Errorf("boom"), "llm failed"), http.StatusBadGateway},
		{"config", ConfigError("llm disabled"), http.StatusServiceUnavailable},
		{"plain error", fmt.Errorf("oops"), http.StatusInternalServerError},
		{"wrapped typed", fmt.Errorf("outer: %w", NotFound("x")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("fetch: %w", NotFoundf("repository %s", "acme/api"))

	assert.True(t, IsType(err, ErrorTypeNotFound))
	assert.False(t, IsType(err, ErrorTypeUnauthorized))
	assert.False(t, IsType(nil, ErrorTypeNotFound))
	assert.True(t, stderrors.Is(err, NotFound("")))
}

func TestPublicMessageHidesCause(t *testing.T) {
	dbErr := DatabaseError(fmt.Errorf("pq: password authentication failed"), "query users")
	assert.Equal(t, "internal server error", PublicMessage(dbErr))
	assert.Equal(t, "internal server error", PublicMessage(fmt.Errorf("raw")))

	nf := NotFound("intern not found").WithContext("intern_id", "abc")
	assert.Equal(t, "intern not found", PublicMessage(nf))
	assert.Contains(t, nf.DetailedString(), "intern_id: abc")
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeInternal, "nothing"))
	e := InternalErrorf(fmt.Errorf("timeout"), "repository %s", "acme/web")
	assert.Equal(t, "repository acme/web: timeout", e.Error())
	assert.Equal(t, ErrorTypeInternal, GetType(e))
}
