package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Ultramusic201/Anzu/internal/core"
	"github.com/Ultramusic201/Anzu/internal/fx"
)

// ErrRefreshQueued reports that no local rate source is configured and
// the refresh request was handed to the worker instead.
var ErrRefreshQueued = errors.New("rate refresh queued")

// RateService answers "what is the rate for day X" with a small TTL
// cache in front of the store, and drives refreshes from the external
// source.
type RateService struct {
	store  Store
	pub    Publisher
	source *fx.Source
	cache  *gocache.Cache
	now    func() time.Time
}

func NewRateService(store Store, pub Publisher, source *fx.Source, ttl time.Duration) *RateService {
	return &RateService{
		store:  store,
		pub:    pub,
		source: source,
		cache:  gocache.New(ttl, 2*ttl),
		now:    time.Now,
	}
}

func rateCacheKey(date string) string { return "tasa:" + date }

// Today reports the rate recorded for the current day, or
// core.ErrRateNotSet when none exists yet.
func (s *RateService) Today(ctx context.Context) (core.DailyRate, error) {
	return s.ForDate(ctx, s.now().Format(core.DateLayout))
}

func (s *RateService) ForDate(ctx context.Context, date string) (core.DailyRate, error) {
	if cached, ok := s.cache.Get(rateCacheKey(date)); ok {
		return cached.(core.DailyRate), nil
	}
	rate, err := s.store.DailyRate(ctx, date)
	if err != nil {
		return core.DailyRate{}, err
	}
	s.cache.SetDefault(rateCacheKey(date), rate)
	return rate, nil
}

// Set records a manual rate for one day, replacing any previous value.
func (s *RateService) Set(ctx context.Context, date string, rate float64) (core.DailyRate, error) {
	if !core.ValidDate(date) {
		return core.DailyRate{}, core.ErrInvalidDate
	}
	if !core.ValidRate(rate) {
		return core.DailyRate{}, core.ErrRateNotSet
	}
	dr := core.DailyRate{Date: date, Rate: rate}
	if err := s.store.UpsertDailyRate(ctx, dr); err != nil {
		return core.DailyRate{}, fmt.Errorf("set daily rate: %w", err)
	}
	s.cache.SetDefault(rateCacheKey(date), dr)
	return dr, nil
}

// Refresh pulls today's rate from the external source and records it.
// Without a source it queues a refresh request for the worker and
// reports ErrRefreshQueued. Failures leave any previously recorded rate
// untouched; manual entry always remains available.
func (s *RateService) Refresh(ctx context.Context) (core.DailyRate, error) {
	date := s.now().Format(core.DateLayout)

	if s.source == nil {
		if s.pub == nil {
			return core.DailyRate{}, fmt.Errorf("%w: no rate source configured", fx.ErrFetchFailed)
		}
		if err := s.pub.PublishRateRefresh(ctx, date); err != nil {
			return core.DailyRate{}, fmt.Errorf("queue rate refresh: %w", err)
		}
		return core.DailyRate{}, ErrRefreshQueued
	}

	value, err := s.source.Fetch(ctx)
	if err != nil {
		slog.WarnContext(ctx, "external rate fetch failed", "error", err)
		return core.DailyRate{}, err
	}
	return s.Set(ctx, date, value)
}
