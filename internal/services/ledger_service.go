package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/Ultramusic201/Anzu/internal/analytics"
	"github.com/Ultramusic201/Anzu/internal/charts"
	"github.com/Ultramusic201/Anzu/internal/config"
	"github.com/Ultramusic201/Anzu/internal/core"
	"github.com/Ultramusic201/Anzu/internal/donut"
	"github.com/Ultramusic201/Anzu/internal/fx"
	"github.com/Ultramusic201/Anzu/internal/period"
	"github.com/Ultramusic201/Anzu/internal/storage"
)

// LedgerService records transactions and serves every derived view:
// period summaries, chart datasets and donut geometry. Derivations are
// recomputed from a fresh snapshot on each request; the TTL cache only
// short-circuits identical reads between writes.
type LedgerService struct {
	store       Store
	rates       *RateService
	pub         Publisher
	cache       *gocache.Cache
	catalog     config.Catalog
	recentLimit int
	now         func() time.Time
}

func NewLedgerService(store Store, rates *RateService, pub Publisher, catalog config.Catalog, cacheTTL time.Duration, recentLimit int) *LedgerService {
	return &LedgerService{
		store:       store,
		rates:       rates,
		pub:         pub,
		cache:       gocache.New(cacheTTL, 2*cacheTTL),
		catalog:     catalog,
		recentLimit: recentLimit,
		now:         time.Now,
	}
}

// RecordInput is a transaction as the user enters it: one amount in one
// currency. Both recorded amounts are derived here from the daily rate.
type RecordInput struct {
	Date        string        `json:"fecha"`
	Kind        core.Kind     `json:"tipo"`
	Description string        `json:"descripcion"`
	Amount      float64       `json:"monto"`
	Currency    core.Currency `json:"moneda"`
	Category    string        `json:"categoria"`
}

// Record validates, converts and persists one ledger entry. Nothing is
// written unless the whole input passes, including the rate lookup for
// the transaction's day.
func (s *LedgerService) Record(ctx context.Context, in RecordInput) (core.Transaction, error) {
	date := in.Date
	if date == "" {
		date = s.now().Format(core.DateLayout)
	}
	if !core.ValidDate(date) {
		return core.Transaction{}, core.ErrInvalidDate
	}

	rate, err := s.rates.ForDate(ctx, date)
	if err != nil {
		return core.Transaction{}, err
	}
	usd, ves, err := fx.Convert(in.Amount, in.Currency, rate.Rate)
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		Date:        date,
		Kind:        in.Kind,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Currency:    in.Currency,
		AmountUSD:   usd,
		AmountVES:   ves,
		Category:    strings.TrimSpace(in.Category),
		Rate:        rate.Rate,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.Category != "" && !core.KnownCategory(tx.Category) {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrUnknownCategory, tx.Category)
	}

	saved, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	s.invalidate()
	s.publishChange(ctx, "insert", saved.ID, saved.Date)
	return saved, nil
}

func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	s.publishChange(ctx, "delete", id, "")
	return nil
}

// Search runs a filtered ledger query. When the filtered query fails it
// degrades to the unfiltered most-recent slice so callers still see
// data; the second return value reports that degradation.
func (s *LedgerService) Search(ctx context.Context, f storage.SearchFilter) ([]core.Transaction, bool, error) {
	txs, err := s.store.SearchTransactions(ctx, f)
	if err == nil {
		return txs, false, nil
	}
	slog.ErrorContext(ctx, "filtered transaction query failed, falling back to recent",
		"error", err)

	recent, rerr := s.store.RecentTransactions(ctx, s.recentLimit)
	if rerr != nil {
		return nil, false, fmt.Errorf("search transactions: %w", err)
	}
	return recent, true, nil
}

// SummaryView is the period dashboard: totals, expense rollup and the
// limit report, plus today's rate when one is set.
type SummaryView struct {
	Period   period.Period             `json:"periodo"`
	RateVES  *float64                  `json:"tasaHoy,omitempty"`
	Totals   analytics.DisplayTotals   `json:"totales"`
	Rollup   []analytics.CategoryTotal `json:"categorias"`
	MaxVES   float64                   `json:"maxVES"`
	Limits   analytics.LimitReport     `json:"limites"`
	Degraded bool                      `json:"degradado,omitempty"`
}

// Summary loads the period snapshot (transactions, limits, today's
// rate, concurrently) and derives the dashboard from it. A missing
// daily rate is not an error here; the view just omits it.
func (s *LedgerService) Summary(ctx context.Context, mode period.Mode, anchor period.Anchor) (SummaryView, error) {
	p := period.Range(mode, anchor, s.now())

	key := fmt.Sprintf("resumen:%s:%s:%s", mode, p.Start, p.End)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(SummaryView), nil
	}

	var (
		txs      []core.Transaction
		limits   []core.CategoryLimit
		rate     core.DailyRate
		hasRate  bool
		degraded bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.TransactionsInRange(gctx, p.Start, p.End)
		if err != nil {
			slog.ErrorContext(gctx, "period query failed, falling back to recent",
				"start", p.Start, "end", p.End, "error", err)
			txs, err = s.store.RecentTransactions(gctx, s.recentLimit)
			if err != nil {
				return fmt.Errorf("load transactions: %w", err)
			}
			degraded = true
		}
		return nil
	})
	g.Go(func() error {
		var err error
		limits, err = s.store.Limits(gctx)
		if err != nil {
			return fmt.Errorf("load limits: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		r, err := s.rates.Today(gctx)
		if err == nil {
			rate, hasRate = r, true
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return SummaryView{}, err
	}

	totals := analytics.Summarize(txs)
	rollup, maxVES := analytics.Rollup(txs)
	report := analytics.EvaluateLimits(rollup, limits, mode)

	view := SummaryView{
		Period:   p,
		Totals:   totals.Display(),
		Rollup:   rollup,
		MaxVES:   maxVES,
		Limits:   report,
		Degraded: degraded,
	}
	if hasRate {
		view.RateVES = &rate.Rate
	}
	if !degraded {
		s.cache.SetDefault(key, view)
	}
	return view, nil
}

// ChartData builds the trailing-window dataset for the evolution,
// distribution and heatmap views.
func (s *LedgerService) ChartData(ctx context.Context, w charts.Window, m charts.Metric) (charts.Dataset, error) {
	now := s.now()
	today := now.Format(core.DateLayout)

	var start string
	switch w {
	case charts.WindowYear:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, -11, 0).Format(core.DateLayout)
	case charts.WindowMonth:
		start = now.AddDate(0, 0, -29).Format(core.DateLayout)
	default:
		start = now.AddDate(0, 0, -6).Format(core.DateLayout)
	}

	txs, err := s.store.TransactionsInRange(ctx, start, today)
	if err != nil {
		slog.ErrorContext(ctx, "chart window query failed, falling back to recent",
			"start", start, "error", err)
		txs, err = s.store.RecentTransactions(ctx, s.recentLimit)
		if err != nil {
			return charts.Dataset{}, fmt.Errorf("load chart transactions: %w", err)
		}
	}
	return charts.Build(txs, w, m, now), nil
}

// DonutSegment couples the allocated span with its display color.
type DonutSegment struct {
	donut.Segment
	Color string `json:"color"`
}

// DonutView is the ring chart for one period: allocated segments plus
// the residual legend count.
type DonutView struct {
	Period   period.Period  `json:"periodo"`
	Segments []DonutSegment `json:"segmentos"`
	More     int            `json:"categoriasRestantes"`
	TotalUSD float64        `json:"totalUSD"`
}

// Donut allocates the ring for the period snapshot. Expense mode rings
// the category rollup; income mode is the single income total.
func (s *LedgerService) Donut(ctx context.Context, metric charts.Metric, policy donut.Policy, mode period.Mode, anchor period.Anchor) (DonutView, error) {
	p := period.Range(mode, anchor, s.now())

	txs, err := s.store.TransactionsInRange(ctx, p.Start, p.End)
	if err != nil {
		slog.ErrorContext(ctx, "donut query failed, falling back to recent",
			"start", p.Start, "end", p.End, "error", err)
		txs, err = s.store.RecentTransactions(ctx, s.recentLimit)
		if err != nil {
			return DonutView{}, fmt.Errorf("load donut transactions: %w", err)
		}
	}

	var labels []string
	var values []float64
	var total float64
	if metric == charts.MetricIncome {
		t := analytics.Summarize(txs)
		if t.IncomeUSD > 0 {
			labels = append(labels, "INGRESO")
			values = append(values, t.IncomeUSD)
		}
		total = t.IncomeUSD
	} else {
		rollup, _ := analytics.Rollup(txs)
		for _, row := range rollup {
			labels = append(labels, row.Category)
			values = append(values, row.TotalUSD)
			total += row.TotalUSD
		}
	}

	entries, more := donut.TopEntries(labels, values, charts.TopCategories)
	opts := donut.DefaultOptions()
	opts.Policy = policy
	segments := donut.Allocate(entries, opts)

	view := DonutView{Period: p, More: more, TotalUSD: total}
	for _, seg := range segments {
		view.Segments = append(view.Segments, DonutSegment{
			Segment: seg,
			Color:   s.catalog.Color(seg.Label),
		})
	}
	return view, nil
}

// ReplaceLimits swaps the full limit table after checking the per
// category daily <= weekly <= monthly ordering. Nothing is written on a
// validation failure.
func (s *LedgerService) ReplaceLimits(ctx context.Context, limits []core.CategoryLimit) error {
	if err := core.ValidateLimitSet(limits); err != nil {
		return err
	}
	for _, l := range limits {
		if !core.KnownCategory(l.Category) {
			return fmt.Errorf("%w: %q", core.ErrUnknownCategory, l.Category)
		}
	}
	if err := s.store.ReplaceLimits(ctx, limits); err != nil {
		return fmt.Errorf("replace limits: %w", err)
	}
	s.invalidate()
	return nil
}

func (s *LedgerService) Limits(ctx context.Context) ([]core.CategoryLimit, error) {
	return s.store.Limits(ctx)
}

// Catalog exposes the category palette for chart consumers.
func (s *LedgerService) Catalog() config.Catalog {
	return s.catalog
}

func (s *LedgerService) invalidate() {
	s.cache.Flush()
}

// publishChange is best effort: a bus failure never fails the write
// that already landed.
func (s *LedgerService) publishChange(ctx context.Context, op string, id int64, date string) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishLedgerChanged(ctx, op, id, date); err != nil {
		slog.ErrorContext(ctx, "failed to publish ledger change",
			"op", op, "id", id, "error", err)
	}
}
