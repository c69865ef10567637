package apperrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesWrappedKind(t *testing.T) {
	err := NotFound("get_article", errors.New("missing"))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindBadInput))
}

func TestHTTPStatusMapsEachKind(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("op", nil)))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(BadInput("op", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(IndexUnavailable("op", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(StoreUnavailable("op", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(FatalCache("op", nil)))
}

func TestHTTPStatusDefaultsUntypedErrorsTo500(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := NotFound("op", cause)
	assert.ErrorIs(t, err, cause)
}
