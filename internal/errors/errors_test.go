package errors_test

import (
	stderrors "errors"
	"testing"

	"codeberg.org/mutker/servwatch/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := errors.New().New(errors.ErrInvalidConfig)

	assert.Equal(t, errors.ErrInvalidConfig, err.Code())
	assert.Equal(t, "Invalid configuration", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := errors.New().Wrap(errors.ErrInternal, cause)

	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestWithMessageOverridesDefault(t *testing.T) {
	err := errors.New().WithMessage(errors.ErrMissingConfig, "telegram.token is required")

	assert.Equal(t, "telegram.token is required", err.Error())
	assert.Equal(t, errors.ErrMissingConfig, err.Code())
}

func TestWithDataAppendsContext(t *testing.T) {
	err := errors.New().WithData(errors.ErrInvalidInterval, -5)

	assert.Equal(t, "Invalid interval value: -5", err.Error())
	assert.Equal(t, -5, err.GetData())
}

func TestAsExtractsCodedError(t *testing.T) {
	var plain error = errors.New().Wrap(errors.ErrReadConfig, stderrors.New("no such file"))

	var coded errors.Error
	require.True(t, errors.As(plain, &coded))
	assert.Equal(t, errors.ErrReadConfig, coded.Code())
}

func TestUnknownCodeFallsBackToCodeString(t *testing.T) {
	err := errors.New().New(errors.ErrorCode("something_else"))

	assert.Equal(t, "something_else", err.Error())
}
