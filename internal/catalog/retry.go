package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go"

	"github.com/at-ishikawa/offlinedict/internal/dictionary"
)

// SyncWithRetry calls store.Sync up to attempts times with exponential backoff.
// Only fetch failures are retried; a malformed feed fails immediately.
func SyncWithRetry(ctx context.Context, store *Store, attempts uint, delay time.Duration) error {
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(
		func() error {
			err := store.Sync(ctx)
			if err == nil {
				return nil
			}
			var fetchErr *dictionary.FetchError
			if !errors.As(err, &fetchErr) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
		retry.OnRetry(func(n uint, err error) {
			if n+1 >= attempts {
				return
			}
			slog.Default().Info("retrying sync",
				"attempt", n+1,
				"error", err,
			)
		}),
	)
}
