package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Internal, http.StatusInternalServerError},
		{Validation, http.StatusBadRequest},
		{Unauthenticated, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusBadRequest},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.kind.HTTPStatus())
	}
}

func TestKindOf(t *testing.T) {
	err := New(Forbidden, "No tienes permiso para modificar este producto")
	assert.Equal(t, Forbidden, KindOf(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, Forbidden, KindOf(wrapped))

	assert.Equal(t, Internal, KindOf(errors.New("driver exploded")))
	assert.Equal(t, Internal, KindOf(nil))
}

func TestMessageOf(t *testing.T) {
	err := New(Validation, "El precio debe ser mayor a 0")
	assert.Equal(t, "El precio debe ser mayor a 0", MessageOf(err))

	// Unknown errors never leak their text to clients.
	assert.Equal(t, "Error interno del servidor", MessageOf(errors.New("dial tcp: refused")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("no reachable servers")
	err := Wrap(Internal, "Error consultando productos", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, Internal, KindOf(err))
	assert.Contains(t, err.Error(), "Error consultando productos")
	assert.Contains(t, err.Error(), "no reachable servers")
}

func TestErrorWithoutCause(t *testing.T) {
	err := New(NotFound, "Producto no encontrado")
	assert.Equal(t, "Producto no encontrado", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}
