package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesOnCode(t *testing.T) {
	err := New(CodeFetch, "get", "http://example.test", errors.New("dial tcp: refused"))

	assert.ErrorIs(t, err, ErrFetch)
	assert.NotErrorIs(t, err, ErrFileIO)

	wrapped := fmt.Errorf("scan: %w", err)
	assert.ErrorIs(t, wrapped, ErrFetch)
	assert.Equal(t, CodeFetch, CodeOf(wrapped))
}

func TestErrorUnwrapReachesCause(t *testing.T) {
	err := New(CodeConfigLoad, "load config", "config.json", fs.ErrNotExist)

	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, "load config config.json: file does not exist", err.Error())
}

func TestErrorMessageFallsBackToCode(t *testing.T) {
	assert.Equal(t, "INVALID_PATTERN", (&Error{Code: CodeInvalidPattern}).Error())
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}
