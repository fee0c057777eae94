// Package services orchestrates the engine: it glues the store, the
// daily rate, the pure aggregation packages and the message bus behind
// the operations the API exposes.
package services

import (
	"context"

	"github.com/Ultramusic201/Anzu/internal/core"
	"github.com/Ultramusic201/Anzu/internal/storage"
)

// Store is the persistence surface the services need. The sqlite
// repository satisfies it; tests substitute fakes.
type Store interface {
	InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	TransactionsInRange(ctx context.Context, start, end string) ([]core.Transaction, error)
	RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	SearchTransactions(ctx context.Context, f storage.SearchFilter) ([]core.Transaction, error)

	UpsertDailyRate(ctx context.Context, rate core.DailyRate) error
	DailyRate(ctx context.Context, date string) (core.DailyRate, error)

	ReplaceLimits(ctx context.Context, limits []core.CategoryLimit) error
	Limits(ctx context.Context) ([]core.CategoryLimit, error)

	CreateCredit(ctx context.Context, c core.Credit, schedule []core.Installment, initial *core.Transaction) (core.Credit, error)
	Credits(ctx context.Context) ([]core.Credit, error)
	Credit(ctx context.Context, id int64) (core.Credit, error)
	InstallmentsByCredit(ctx context.Context, creditID int64) ([]core.Installment, error)
	PayInstallments(ctx context.Context, creditID int64, ids []int64, paidDate string, rate float64, payment core.Transaction) (core.Credit, error)
}

// Publisher is the outbound message surface. A nil Publisher disables
// messaging without changing any operation's outcome.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, op string, id int64, date string) error
	PublishRateRefresh(ctx context.Context, date string) error
}
