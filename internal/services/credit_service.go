package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ultramusic201/Anzu/internal/core"
	"github.com/Ultramusic201/Anzu/internal/credit"
	"github.com/Ultramusic201/Anzu/internal/fx"
)

// CreditService drives installment plans: creation with the initial
// payment, and settling installments into consolidated ledger entries.
type CreditService struct {
	store  Store
	rates  *RateService
	ledger *LedgerService
	now    func() time.Time
}

func NewCreditService(store Store, rates *RateService, ledger *LedgerService) *CreditService {
	return &CreditService{
		store:  store,
		rates:  rates,
		ledger: ledger,
		now:    time.Now,
	}
}

// Create validates the plan contract and persists the header, the
// schedule and the initial-payment ledger entry in one store
// transaction. The daily rate must be set; without it the initial
// payment cannot be recorded and nothing is written.
func (s *CreditService) Create(ctx context.Context, in credit.Input) (core.Credit, error) {
	rate, err := s.rates.Today(ctx)
	if err != nil {
		return core.Credit{}, err
	}

	header, schedule, err := credit.BuildPlan(in, s.now())
	if err != nil {
		return core.Credit{}, err
	}

	var initial *core.Transaction
	if header.InitialUSD > 0 {
		tx := core.Transaction{
			Date:        header.CreatedAt,
			Kind:        core.Expense,
			Description: "Inicial " + header.Name,
			Amount:      header.InitialUSD,
			Currency:    core.USD,
			AmountUSD:   header.InitialUSD,
			AmountVES:   fx.ToVES(header.InitialUSD, rate.Rate),
			Category:    core.CategoryCredits,
			Rate:        rate.Rate,
		}
		if err := tx.Validate(); err != nil {
			return core.Credit{}, fmt.Errorf("initial payment: %w", err)
		}
		initial = &tx
	}

	saved, err := s.store.CreateCredit(ctx, header, schedule, initial)
	if err != nil {
		return core.Credit{}, fmt.Errorf("create credit: %w", err)
	}
	s.ledger.invalidate()
	s.ledger.publishChange(ctx, "credit", saved.ID, saved.CreatedAt)
	return saved, nil
}

func (s *CreditService) Credits(ctx context.Context) ([]core.Credit, error) {
	return s.store.Credits(ctx)
}

func (s *CreditService) Installments(ctx context.Context, creditID int64) ([]core.Installment, error) {
	if _, err := s.store.Credit(ctx, creditID); err != nil {
		return nil, err
	}
	return s.store.InstallmentsByCredit(ctx, creditID)
}

// Pay settles the selected installments (all pending when ids is
// empty). One consolidated expense lands in the ledger for the sum of
// the paid installments, and the credit flips to paid when nothing
// remains pending. The whole payment is a single store transaction.
func (s *CreditService) Pay(ctx context.Context, creditID int64, ids []int64) (core.Credit, error) {
	rate, err := s.rates.Today(ctx)
	if err != nil {
		return core.Credit{}, err
	}
	header, err := s.store.Credit(ctx, creditID)
	if err != nil {
		return core.Credit{}, err
	}
	schedule, err := s.store.InstallmentsByCredit(ctx, creditID)
	if err != nil {
		return core.Credit{}, fmt.Errorf("load installments: %w", err)
	}

	selected, err := credit.SelectPayable(schedule, ids)
	if err != nil {
		return core.Credit{}, err
	}
	selectedIDs := make([]int64, len(selected))
	for i, inst := range selected {
		selectedIDs[i] = inst.ID
	}

	today := s.now().Format(core.DateLayout)
	totalUSD := credit.PaymentTotal(selected)
	payment := core.Transaction{
		Date:        today,
		Kind:        core.Expense,
		Description: fmt.Sprintf("Pago %s (%d cuotas)", header.Name, len(selected)),
		Amount:      totalUSD,
		Currency:    core.USD,
		AmountUSD:   totalUSD,
		AmountVES:   fx.ToVES(totalUSD, rate.Rate),
		Category:    core.CategoryCredits,
		Rate:        rate.Rate,
	}
	if err := payment.Validate(); err != nil {
		return core.Credit{}, fmt.Errorf("payment transaction: %w", err)
	}

	updated, err := s.store.PayInstallments(ctx, creditID, selectedIDs, today, rate.Rate, payment)
	if err != nil {
		return core.Credit{}, fmt.Errorf("pay installments: %w", err)
	}
	s.ledger.invalidate()
	s.ledger.publishChange(ctx, "payment", creditID, today)

	slog.InfoContext(ctx, "installments settled",
		"credito", creditID,
		"cuotas", len(selected),
		"monto_usd", totalUSD,
		"estado", updated.Status)

	return updated, nil
}
