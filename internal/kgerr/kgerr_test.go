package kgerr

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := New("engine.AddTriple", ErrPersistenceFailure, io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, ErrPersistenceFailure)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, ErrInvalidSymbol)
	assert.Equal(t, "engine.AddTriple: persistence failure: unexpected EOF", err.Error())
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{New("", ErrEmptyBundle, nil), "empty bundle"},
		{New("vsa.Bundle", ErrEmptyBundle, nil), "vsa.Bundle: empty bundle"},
		{New("", ErrIndexUnavailable, errors.New("no entries")), "index unavailable: no entries"},
		{Dimension("vsa.Bind", 10000, 8000), "vsa.Bind: dimension mismatch: expected 10000, got 8000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestKind(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), New("op", ErrIndexUnavailable, nil))
	assert.Equal(t, ErrIndexUnavailable, Kind(wrapped))
	assert.Nil(t, Kind(errors.New("plain")))
	assert.True(t, IsInvalidInput(Dimension("op", 1, 2)))
	assert.False(t, IsInvalidInput(New("op", ErrPersistenceFailure, nil)))
}
