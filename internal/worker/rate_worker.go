// Package worker keeps the daily exchange rate fresh: it answers
// refresh requests from the bus and fetches on a fixed interval.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ultramusic201/Anzu/internal/amqp"
	"github.com/Ultramusic201/Anzu/internal/core"
	"github.com/Ultramusic201/Anzu/internal/fx"
)

// RateStore is the slice of the repository the worker writes through.
type RateStore interface {
	UpsertDailyRate(ctx context.Context, rate core.DailyRate) error
	DailyRate(ctx context.Context, date string) (core.DailyRate, error)
}

type RateWorker struct {
	store  RateStore
	source *fx.Source
	now    func() time.Time
}

func NewRateWorker(store RateStore, source *fx.Source) *RateWorker {
	return &RateWorker{
		store:  store,
		source: source,
		now:    time.Now,
	}
}

// RefreshOnce fetches the external rate and records it for the given
// day. A fetch failure leaves any previously recorded rate in place.
func (w *RateWorker) RefreshOnce(ctx context.Context, date string) error {
	if !core.ValidDate(date) {
		return core.ErrInvalidDate
	}
	value, err := w.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("refresh rate for %s: %w", date, err)
	}
	if err := w.store.UpsertDailyRate(ctx, core.DailyRate{Date: date, Rate: value}); err != nil {
		return fmt.Errorf("store rate for %s: %w", date, err)
	}
	slog.InfoContext(ctx, "rate refreshed", "fecha", date, "tasa", value)
	return nil
}

// HandleRefreshMessage serves one bus request. An empty date means
// today.
func (w *RateWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.RateRefreshMessage) error {
	date := msg.Date
	if date == "" {
		date = w.now().Format(core.DateLayout)
	}
	return w.RefreshOnce(ctx, date)
}

// EnsureToday fetches only when no rate exists yet for the current day,
// so a restart does not clobber a manual entry.
func (w *RateWorker) EnsureToday(ctx context.Context) error {
	date := w.now().Format(core.DateLayout)
	if _, err := w.store.DailyRate(ctx, date); err == nil {
		return nil
	}
	return w.RefreshOnce(ctx, date)
}

// Run blocks, refreshing on every tick until the context ends. Failures
// are logged and retried on the next tick.
func (w *RateWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			date := w.now().Format(core.DateLayout)
			if err := w.RefreshOnce(ctx, date); err != nil {
				slog.ErrorContext(ctx, "periodic rate refresh failed", "error", err)
			}
		}
	}
}
