package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/todo-api/internal/store"
)

// TokenJanitor periodically prunes expired entries from the revoked-token
// store. Revocation records only matter until the token itself expires, so
// without pruning the denylist grows forever.
type TokenJanitor struct {
	tokenStore store.TokenStore
	interval   time.Duration
	logger     *slog.Logger
	timeFunc   func() time.Time
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewTokenJanitor creates a janitor sweeping the token store at the given
// interval. The interval must be positive.
func NewTokenJanitor(
	tokenStore store.TokenStore,
	interval time.Duration,
	logger *slog.Logger,
) (*TokenJanitor, error) {
	if tokenStore == nil {
		return nil, fmt.Errorf("token store cannot be nil")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TokenJanitor{
		tokenStore: tokenStore,
		interval:   interval,
		logger:     logger.With("component", "token_janitor"),
		timeFunc:   time.Now,
	}, nil
}

// Start sweeps once immediately, then keeps sweeping on the configured
// interval until Stop is called.
func (j *TokenJanitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	j.cancelFunc = cancel

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		j.sweep(ctx)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.sweep(ctx)
			}
		}
	}()
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (j *TokenJanitor) Stop() {
	if j.cancelFunc != nil {
		j.cancelFunc()
	}
	j.wg.Wait()
}

func (j *TokenJanitor) sweep(ctx context.Context) {
	removed, err := j.tokenStore.DeleteExpired(ctx, j.timeFunc().UTC())
	if err != nil {
		j.logger.Error("failed to prune expired token revocations", "error", err)
		return
	}

	if removed > 0 {
		j.logger.Info("pruned expired token revocations", "removed", removed)
	}
}
