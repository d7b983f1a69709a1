package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/admiral-games/token-ledger/internal/config"
	"github.com/admiral-games/token-ledger/internal/domain/shared"
)

// Subscriber reacts to a committed balance change. Notify must be
// idempotent: the same event can arrive more than once.
type Subscriber interface {
	Name() string
	Notify(ctx context.Context, event *shared.BalanceEvent) error
}

// Dispatcher fans one balance event out to all subscribers on a bounded
// worker pool.
type Dispatcher struct {
	pool        *ants.Pool
	subscribers []Subscriber
	logger      *slog.Logger
}

func NewDispatcher(cfg config.WorkerPoolConfig, logger *slog.Logger, subscribers ...Subscriber) (*Dispatcher, error) {
	pool, err := ants.NewPool(cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier worker pool: %w", err)
	}

	return &Dispatcher{
		pool:        pool,
		subscribers: subscribers,
		logger:      logger,
	}, nil
}

// Dispatch notifies every subscriber and waits for all of them. A non-nil
// return means at least one subscriber failed and the event must be
// redelivered; subscribers that already succeeded see it again.
func (d *Dispatcher) Dispatch(ctx context.Context, event *shared.BalanceEvent) error {
	var wg sync.WaitGroup
	errs := make([]error, len(d.subscribers))

	for i, sub := range d.subscribers {
		i, sub := i, sub
		wg.Add(1)
		submitErr := d.pool.Submit(func() {
			defer wg.Done()
			if err := sub.Notify(ctx, event); err != nil {
				d.logger.Error("Subscriber failed to process balance event",
					"subscriber", sub.Name(),
					"transaction_id", event.TransactionID.String(),
					"account_id", event.AccountID,
					"error", err,
				)
				errs[i] = fmt.Errorf("subscriber %s: %w", sub.Name(), err)
			}
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = fmt.Errorf("failed to submit to worker pool for %s: %w", sub.Name(), submitErr)
		}
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Shutdown releases the worker pool
func (d *Dispatcher) Shutdown() {
	d.logger.Info("Shutting down notifier worker pool", "running_workers", d.pool.Running())
	d.pool.Release()
}

// Running returns the number of busy workers
func (d *Dispatcher) Running() int {
	return d.pool.Running()
}
