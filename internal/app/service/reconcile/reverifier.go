package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/checkout/internal/app/repository"
	"github.com/fatflowers/checkout/pkg/config"
	"github.com/fatflowers/checkout/pkg/logctx"
	"github.com/fatflowers/checkout/pkg/tool"
	"github.com/fatflowers/checkout/pkg/types"
)

const (
	defaultRetryMinAge = 2 * time.Minute
	defaultRetryBatch  = 20
)

// Reverifier periodically retries transactions stuck in VERIFICATION_PENDING.
type Reverifier struct {
	engine   *Engine
	repo     repository.Repository
	interval time.Duration
	minAge   time.Duration
	batch    int
	log      *zap.SugaredLogger

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewReverifier(engine *Engine, repo repository.Repository, cfg *config.Config, log *zap.SugaredLogger) *Reverifier {
	r := &Reverifier{
		engine:   engine,
		repo:     repo,
		interval: cfg.Reconcile.RetryInterval,
		minAge:   cfg.Reconcile.RetryMinAge,
		batch:    cfg.Reconcile.RetryBatch,
		log:      log.With("component", "reverifier"),
	}
	if r.minAge <= 0 {
		r.minAge = defaultRetryMinAge
	}
	if r.batch <= 0 {
		r.batch = defaultRetryBatch
	}
	return r
}

func (r *Reverifier) Enabled() bool { return r.interval > 0 }

func (r *Reverifier) Start() {
	if !r.Enabled() || r.stop != nil {
		return
	}
	r.stop = make(chan struct{})
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.RunOnce(context.Background())
			}
		}
	}()
	r.log.Infow("reverifier_started", "interval", r.interval, "min_age", r.minAge, "batch", r.batch)
}

func (r *Reverifier) Stop(ctx context.Context) error {
	if r.stop == nil {
		return nil
	}
	close(r.stop)
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce retries one batch and returns how many transactions reached a
// final state.
func (r *Reverifier) RunOnce(ctx context.Context) int {
	ctx = logctx.With(ctx, r.log.With("trace_id", tool.GenerateUUIDV7()))
	txns, err := r.repo.ListTransactionsByStatus(ctx, types.TransactionStatusVerificationPending, r.engine.now().Add(-r.minAge), r.batch)
	if err != nil {
		r.log.Errorw("reverifier_list_failed", "error", err)
		return 0
	}
	finished := 0
	for _, t := range txns {
		out, err := r.engine.Reverify(ctx, t.ID)
		if err != nil {
			if !errors.Is(err, ErrNotVerificationPending) {
				r.log.Errorw("reverifier_failed", "transaction_id", t.ID, "error", err)
			}
			continue
		}
		if out.Kind == OutcomeSucceeded || out.Kind == OutcomeFailed {
			finished++
		}
	}
	if len(txns) > 0 {
		r.log.Infow("reverifier_batch_done", "picked", len(txns), "finished", finished)
	}
	return finished
}

func registerReverifier(lc fx.Lifecycle, r *Reverifier) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			r.Start()
			return nil
		},
		OnStop: r.Stop,
	})
}
