package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	assert.Equal(t, "[not_found] no rows", New(ErrKindNotFound, "no rows").Error())
	assert.Equal(t, "[timeout] query: boom", Wrap(ErrKindTimeout, "query", errors.New("boom")).Error())
	assert.Equal(t, "[invalid_input] bad port 0", Newf(ErrKindInvalidInput, "bad port %d", 0).Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(ErrKindQueryFailed, "wrapped", cause)
	assert.ErrorIs(t, err, cause)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrKind
	}{
		{"nil", nil, ErrKindUnknown},
		{"plain", errors.New("x"), ErrKindUnknown},
		{"direct", New(ErrKindPermissionDenied, "x"), ErrKindPermissionDenied},
		{"wrapped by fmt", fmt.Errorf("outer: %w", New(ErrKindConnectionFailed, "x")), ErrKindConnectionFailed},
		{"outermost wins", Wrap(ErrKindTimeout, "outer", New(ErrKindQueryFailed, "inner")), ErrKindTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrKindNotFound, "")))
	assert.True(t, IsTimeout(New(ErrKindTimeout, "")))
	assert.True(t, IsConnectionFailed(New(ErrKindConnectionFailed, "")))
	assert.True(t, IsQueryFailed(New(ErrKindQueryFailed, "")))
	assert.True(t, IsInvalidInput(New(ErrKindInvalidInput, "")))
	assert.True(t, IsPermissionDenied(New(ErrKindPermissionDenied, "")))

	assert.False(t, IsNotFound(New(ErrKindTimeout, "")))
	assert.False(t, IsTimeout(errors.New("timeout")))
}

func TestErrKind_String(t *testing.T) {
	assert.Equal(t, "unknown", ErrKindUnknown.String())
	assert.Equal(t, "connection_failed", ErrKindConnectionFailed.String())
	assert.Equal(t, "unknown", ErrKind(99).String())
}
