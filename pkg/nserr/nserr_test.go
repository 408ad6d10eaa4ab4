package nserr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_ErrorString_WithCause(t *testing.T) {
	err := &Error{Kind: KindInvalidConfig, Cause: errors.New("bad toml")}
	assert.Equal(t, "invalid_config: bad toml", err.Error())
}

func TestError_ErrorString_NoCause(t *testing.T) {
	err := &Error{Kind: KindInterrupted}
	assert.Equal(t, "interrupted", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := &Error{Kind: KindFileReadError, Cause: cause}
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestInvalidRule_WrapsIDAndCause(t *testing.T) {
	err := InvalidRule("aws-key", errors.New("bad regex"))
	var nsErr *Error
	assert.True(t, errors.As(err, &nsErr))
	assert.Equal(t, KindInvalidRule, nsErr.Kind)
	assert.Contains(t, err.Error(), "aws-key")
	assert.Contains(t, err.Error(), "bad regex")
}

func TestInvalidConfig_WrapsCause(t *testing.T) {
	cause := errors.New("missing field")
	err := InvalidConfig(cause)
	var nsErr *Error
	assert.True(t, errors.As(err, &nsErr))
	assert.Equal(t, KindInvalidConfig, nsErr.Kind)
	assert.Equal(t, cause, nsErr.Cause)
}

func TestAs_MatchesKind(t *testing.T) {
	err := InvalidConfig(errors.New("oops"))
	assert.True(t, As(err, KindInvalidConfig))
	assert.False(t, As(err, KindInvalidRule))
}

func TestAs_NonNserrErrorReturnsFalse(t *testing.T) {
	assert.False(t, As(fmt.Errorf("plain error"), KindInterrupted))
}
