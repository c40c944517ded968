package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{New(ErrValidation, "bad"), http.StatusBadRequest},
		{New(ErrUnauthenticated, "who"), http.StatusUnauthorized},
		{New(ErrForbidden, "no"), http.StatusForbidden},
		{New(ErrNotFound, "gone"), http.StatusNotFound},
		{New(ErrConflict, "taken"), http.StatusConflict},
		{fmt.Errorf("wrapped: %w", New(ErrConflict, "taken")), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "err=%v", tc.err)
	}
}

func TestErrorMessageAndKind(t *testing.T) {
	err := New(ErrNotFound, "order not found")
	assert.Equal(t, "order not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.True(t, Public(err))
	assert.False(t, Public(errors.New("pg: connection reset")))
}
