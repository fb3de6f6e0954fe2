package ndd

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("buffer_size must exceed block_size")

	assert.Equal(t, ErrCodeConfiguration, err.Code)
	assert.Equal(t, "ndd: buffer_size must exceed block_size", err.Error())
}

func TestEndpointErrorWrapsErrno(t *testing.T) {
	err := NewEndpointError("connect", "socket-producer", syscall.ECONNREFUSED)

	assert.Equal(t, ErrCodeIOError, err.Code)
	assert.Equal(t, syscall.ECONNREFUSED, err.Errno)
	assert.Contains(t, err.Error(), "op=connect")
	assert.Contains(t, err.Error(), "endpoint=socket-producer")
}

func TestEndpointErrorTimeout(t *testing.T) {
	err := NewEndpointError("read", "file-producer", syscall.ETIMEDOUT)
	assert.Equal(t, ErrCodeTimeout, err.Code)
}

func TestEndpointErrorNilInner(t *testing.T) {
	assert.Nil(t, NewEndpointError("op", "endpoint", nil))
}

func TestEndpointErrorPreservesInnerCode(t *testing.T) {
	inner := NewConfigError("bad block size")
	wrapped := NewEndpointError("validate", "", inner)
	assert.Equal(t, ErrCodeConfiguration, wrapped.Code)
}

func TestIsCode(t *testing.T) {
	err := NewEndpointError("accept", "socket-consumer", syscall.ECONNREFUSED)
	assert.True(t, IsCode(err, ErrCodeIOError))
	assert.False(t, IsCode(err, ErrCodeConfiguration))
	assert.False(t, IsCode(errors.New("plain error"), ErrCodeIOError))
}

func TestErrorIsMatchesByCode(t *testing.T) {
	a := NewConfigError("first")
	b := NewConfigError("second")
	assert.True(t, errors.Is(a, b), "errors with the same code are considered equivalent")
}
