package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrValidation, "missing field"), http.StatusBadRequest},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrTokenExpired, http.StatusUnauthorized},
		{ErrTokenInvalid, http.StatusUnauthorized},
		{ErrNotFound, http.StatusNotFound},
		{New(ErrConflict, "duplicate"), http.StatusConflict},
		{ErrUpload, http.StatusInternalServerError},
		{ErrPersistence, http.StatusInternalServerError},
		{ErrConfig, http.StatusInternalServerError},
		{errors.New("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

func TestWrapKeepsKind(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrPersistence, "create user", cause)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "create user")
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(New(ErrConflict, "duplicate identity")))
	assert.True(t, IsConflict(Wrap(ErrConflict, "create user", errors.New("E11000"))))
	assert.False(t, IsConflict(ErrNotFound))
}
