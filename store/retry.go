package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zappai-go/zappai/zappaierr"
)

// RetryDownload retries a transient climate-data download up to maxAttempts
// times with exponential backoff, surfacing DownloadFailed once attempts are
// exhausted.
func RetryDownload(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		slog.Warn("climate data download failed", "attempt", attempt, "max_attempts", maxAttempts, "err", lastErr)
		if attempt == maxAttempts {
			break
		}
		delay := baseDelay * time.Duration(1<<uint(attempt-1))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("after %d attempts: %w: %w", maxAttempts, lastErr, zappaierr.ErrDownloadFailed)
}
