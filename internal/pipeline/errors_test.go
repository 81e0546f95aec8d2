package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError_Code(t *testing.T) {
	t.Parallel()

	err := NewError("something failed", errors.New("underlying"))
	assert.Equal(t, int(ExitError), err.Code)
	assert.Equal(t, 1, err.Code)
}

func TestNewSpawnError_Code(t *testing.T) {
	t.Parallel()

	err := NewSpawnError("jn-format-csv", errors.New("exec: not found"))
	assert.Equal(t, int(ExitError), err.Code)
	assert.Equal(t, 1, err.Code)
}

func TestNewAddressError_Code(t *testing.T) {
	t.Parallel()

	err := NewAddressError("no plugin found", errors.New("no match"))
	assert.Equal(t, int(ExitBadAddress), err.Code)
	assert.Equal(t, 2, err.Code)
}

func TestNewInterruptError_Code(t *testing.T) {
	t.Parallel()

	err := NewInterruptError("interrupted")
	assert.Equal(t, int(ExitInterrupt), err.Code)
	assert.Equal(t, 130, err.Code)
	assert.Nil(t, err.Err)
}

func TestError_ErrorWithUnderlying(t *testing.T) {
	t.Parallel()

	underlying := errors.New("disk full")
	err := NewError("write failed", underlying)
	assert.Equal(t, "write failed: disk full", err.Error())
}

func TestError_ErrorWithoutUnderlying(t *testing.T) {
	t.Parallel()

	err := NewInterruptError("interrupted by user")
	assert.Equal(t, "interrupted by user", err.Error())
}

func TestError_ErrorMessageFormatting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     *Error
		wantMsg string
	}{
		{
			name:    "error with underlying",
			err:     NewError("processing failed", errors.New("permission denied")),
			wantMsg: "processing failed: permission denied",
		},
		{
			name:    "error without underlying",
			err:     NewInterruptError("cancelled"),
			wantMsg: "cancelled",
		},
		{
			name:    "spawn error with underlying",
			err:     NewSpawnError("stage-2", errors.New("timeout")),
			wantMsg: `spawning stage "stage-2": timeout`,
		},
		{
			name:    "error with nil underlying",
			err:     NewError("generic failure", nil),
			wantMsg: "generic failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()

	underlying := errors.New("root cause")
	err := NewError("wrapper", underlying)

	unwrapped := err.Unwrap()
	assert.Equal(t, underlying, unwrapped)
}

func TestError_UnwrapNil(t *testing.T) {
	t.Parallel()

	err := NewInterruptError("no underlying")
	assert.Nil(t, err.Unwrap())
}

func TestError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel error")
	jnErr := NewError("wrapped sentinel", sentinel)

	assert.True(t, errors.Is(jnErr, sentinel),
		"errors.Is should find the sentinel through Error.Unwrap")
}

func TestError_ErrorsIsChained(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("deep sentinel")
	wrapped := fmt.Errorf("mid-level: %w", sentinel)
	jnErr := NewError("top-level", wrapped)

	assert.True(t, errors.Is(jnErr, sentinel),
		"errors.Is should traverse the full chain")
}

func TestError_ErrorsAs(t *testing.T) {
	t.Parallel()

	jnErr := NewAddressError("bad address", errors.New("some failed"))

	// Wrap the Error in a standard error chain.
	wrappedErr := fmt.Errorf("command failed: %w", jnErr)

	var target *Error
	require.True(t, errors.As(wrappedErr, &target),
		"errors.As should extract Error from wrapped chain")
	assert.Equal(t, int(ExitBadAddress), target.Code)
	assert.Equal(t, "bad address", target.Message)
}

func TestError_ErrorsAsDirectly(t *testing.T) {
	t.Parallel()

	jnErr := NewError("direct", errors.New("cause"))

	var target *Error
	require.True(t, errors.As(jnErr, &target))
	assert.Equal(t, int(ExitError), target.Code)
}

func TestError_ImplementsErrorInterface(t *testing.T) {
	t.Parallel()

	// Compile-time check that *Error implements error.
	var _ error = (*Error)(nil)

	// Runtime check.
	var err error = NewError("test", nil)
	assert.NotNil(t, err)
	assert.Equal(t, "test", err.Error())
}

func TestError_ErrorsIsWithStdlibErrors(t *testing.T) {
	t.Parallel()

	// Wrap a standard library error type (fs.ErrNotExist) in Error.
	jnErr := NewError("file not found", fs.ErrNotExist)

	assert.True(t, errors.Is(jnErr, fs.ErrNotExist),
		"errors.Is should find fs.ErrNotExist through Error")
}

func TestNewError_PreservesMessage(t *testing.T) {
	t.Parallel()

	err := NewError("custom message", errors.New("cause"))
	assert.Equal(t, "custom message", err.Message)
}

func TestNewAddressError_PreservesMessage(t *testing.T) {
	t.Parallel()

	err := NewAddressError("partial message", errors.New("cause"))
	assert.Equal(t, "partial message", err.Message)
}

func TestNewInterruptError_PreservesMessage(t *testing.T) {
	t.Parallel()

	err := NewInterruptError("interrupt message")
	assert.Equal(t, "interrupt message", err.Message)
}

func TestError_ErrorsIsNonMatching(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("expected sentinel")
	other := errors.New("different sentinel")
	jnErr := NewError("wrapped", sentinel)

	assert.False(t, errors.Is(jnErr, other),
		"errors.Is should return false when sentinel does not match")
}

func TestError_ErrorsAsNonMatching(t *testing.T) {
	t.Parallel()

	// A plain error that is NOT an *Error should not match errors.As.
	plainErr := fmt.Errorf("plain: %w", errors.New("cause"))

	var target *Error
	assert.False(t, errors.As(plainErr, &target),
		"errors.As should return false when chain contains no Error")
}

func TestNewError_UnwrapNilUnderlying(t *testing.T) {
	t.Parallel()

	err := NewError("no cause", nil)
	assert.Nil(t, err.Unwrap())
}

func TestNewAddressError_UnwrapNilUnderlying(t *testing.T) {
	t.Parallel()

	err := NewAddressError("no cause", nil)
	assert.Nil(t, err.Unwrap())
}

func TestError_EmptyMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     *Error
		wantMsg string
	}{
		{
			name:    "NewError empty message no underlying",
			err:     NewError("", nil),
			wantMsg: "",
		},
		{
			name:    "NewError empty message with underlying",
			err:     NewError("", errors.New("cause")),
			wantMsg: ": cause",
		},
		{
			name:    "NewAddressError empty message",
			err:     NewAddressError("", nil),
			wantMsg: "",
		},
		{
			name:    "NewInterruptError empty message",
			err:     NewInterruptError(""),
			wantMsg: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestError_ErrorsIsNilTarget(t *testing.T) {
	t.Parallel()

	// Error with nil underlying should NOT match nil sentinel via errors.Is.
	// errors.Is(err, nil) returns true only when err is nil.
	jnErr := NewError("msg", nil)
	assert.False(t, errors.Is(jnErr, nil),
		"errors.Is(nonNilErr, nil) should return false")
}
