package retry

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_RetriesRetryableStatusThenSucceeds(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{Service: "test", Code: 503}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnNonRetryableStatus(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return &StatusError{Service: "test", Code: 400, Body: "bad"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 400, statusErr.Code)
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return io.ErrUnexpectedEOF
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestLinearBackOff(t *testing.T) {
	b := &LinearBackOff{Step: 500 * time.Millisecond}
	assert.Equal(t, 500*time.Millisecond, b.NextBackOff())
	assert.Equal(t, time.Second, b.NextBackOff())
	b.Reset()
	assert.Equal(t, 500*time.Millisecond, b.NextBackOff())
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(&StatusError{Code: 429}))
	assert.True(t, IsRetryableError(&StatusError{Code: 504}))
	assert.False(t, IsRetryableError(&StatusError{Code: 404}))
	assert.True(t, IsRetryableError(io.EOF))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))
	assert.False(t, IsRetryableError(context.Canceled))
	assert.False(t, IsRetryableError(errors.New("invalid json")))
	assert.False(t, IsRetryableError(nil))
}
