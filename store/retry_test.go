package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappai-go/zappai/zappaierr"
)

func TestRetryDownloadSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := RetryDownload(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDownloadExhaustsAttempts(t *testing.T) {
	calls := 0
	sentinel := errors.New("transient")
	err := RetryDownload(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return sentinel
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, zappaierr.ErrDownloadFailed)
	assert.ErrorIs(t, err, sentinel)
}

func TestRetryDownloadRecoversOnLaterAttempt(t *testing.T) {
	calls := 0
	err := RetryDownload(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryDownloadHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := RetryDownload(ctx, 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return errors.New("transient")
	})
	require.Error(t, err)
	assert.Equal(t, 0, calls)
}
