package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ultramusic201/Anzu/internal/charts"
	"github.com/Ultramusic201/Anzu/internal/core"
	"github.com/Ultramusic201/Anzu/internal/credit"
	"github.com/Ultramusic201/Anzu/internal/donut"
	"github.com/Ultramusic201/Anzu/internal/period"
	"github.com/Ultramusic201/Anzu/internal/services"
	"github.com/Ultramusic201/Anzu/internal/storage"
)

// parsePeriod reads the view mode and its anchor from the query string.
// Anything malformed falls through to the resolver's single-day
// fallback instead of erroring.
func parsePeriod(r *http.Request) (period.Mode, period.Anchor) {
	mode := period.Mode(r.URL.Query().Get("mode"))
	if !mode.Valid() {
		mode = period.Month
	}

	var anchor period.Anchor
	anchor.Month = r.URL.Query().Get("month")
	if anchor.Month == "" {
		anchor.Month = time.Now().Format("2006-01")
	}
	if y, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil {
		anchor.Year = y
	}
	if ws, err := time.Parse(core.DateLayout, r.URL.Query().Get("week")); err == nil {
		anchor.WeekStart = ws
	}
	return mode, anchor
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	mode, anchor := parsePeriod(r)
	view, err := s.ledger.Summary(r.Context(), mode, anchor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transacciones"`
	Degraded     bool               `json:"degradado,omitempty"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.SearchFilter{
		Start: q.Get("startDate"),
		End:   q.Get("endDate"),
		Query: q.Get("q"),
	}
	if v, err := strconv.ParseFloat(q.Get("min"), 64); err == nil {
		filter.MinUSD = &v
	}
	if v, err := strconv.ParseFloat(q.Get("max"), 64); err == nil {
		filter.MaxUSD = &v
	}

	txs, degraded, err := s.ledger.Search(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	respondJSON(w, http.StatusOK, transactionsResponse{Transactions: txs, Degraded: degraded})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in services.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}
	saved, err := s.ledger.Record(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type rateResponse struct {
	Date string   `json:"fecha,omitempty"`
	Rate *float64 `json:"tasa"`
}

func (s *Server) handleGetRate(w http.ResponseWriter, r *http.Request) {
	dr, err := s.rates.Today(r.Context())
	if errors.Is(err, core.ErrRateNotSet) {
		respondJSON(w, http.StatusOK, rateResponse{Rate: nil})
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rateResponse{Date: dr.Date, Rate: &dr.Rate})
}

func (s *Server) handlePutRate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date string  `json:"fecha"`
		Rate float64 `json:"tasa"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}
	if body.Date == "" {
		body.Date = time.Now().Format(core.DateLayout)
	}
	dr, err := s.rates.Set(r.Context(), body.Date, body.Rate)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rateResponse{Date: dr.Date, Rate: &dr.Rate})
}

func (s *Server) handleRefreshRate(w http.ResponseWriter, r *http.Request) {
	dr, err := s.rates.Refresh(r.Context())
	if errors.Is(err, services.ErrRefreshQueued) {
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rateResponse{Date: dr.Date, Rate: &dr.Rate})
}

func (s *Server) handleGetLimits(w http.ResponseWriter, r *http.Request) {
	limits, err := s.ledger.Limits(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if limits == nil {
		limits = []core.CategoryLimit{}
	}
	respondJSON(w, http.StatusOK, limits)
}

func (s *Server) handlePutLimits(w http.ResponseWriter, r *http.Request) {
	var limits []core.CategoryLimit
	if err := json.NewDecoder(r.Body).Decode(&limits); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}
	if err := s.ledger.ReplaceLimits(r.Context(), limits); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, limits)
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	window := charts.Window(r.URL.Query().Get("period"))
	if window != charts.WindowWeek && window != charts.WindowMonth && window != charts.WindowYear {
		window = charts.WindowWeek
	}
	metric := charts.Metric(r.URL.Query().Get("metric"))
	if metric != charts.MetricExpenses && metric != charts.MetricIncome {
		metric = charts.MetricExpenses
	}

	ds, err := s.ledger.ChartData(r.Context(), window, metric)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ds)
}

func (s *Server) handleDonut(w http.ResponseWriter, r *http.Request) {
	metric := charts.Metric(r.URL.Query().Get("mode"))
	if metric != charts.MetricExpenses && metric != charts.MetricIncome {
		metric = charts.MetricExpenses
	}
	policy := donut.PolicyReduceSlack
	if r.URL.Query().Get("policy") == "snap" {
		policy = donut.PolicySnapToLargest
	}
	pmode, anchor := parsePeriod(r)

	view, err := s.ledger.Donut(r.Context(), metric, policy, pmode, anchor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ledger.Catalog())
}

type createCreditRequest struct {
	Name           string  `json:"nombre"`
	TotalUSD       float64 `json:"montoTotalUSD"`
	InitialUSD     float64 `json:"inicialUSD"`
	Installments   int     `json:"cuotasCantidad"`
	InstallmentUSD float64 `json:"montoCuotaUSD"`
	CadenceDays    int     `json:"planDias"`
}

func (s *Server) handleCreateCredit(w http.ResponseWriter, r *http.Request) {
	var body createCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}
	saved, err := s.credits.Create(r.Context(), credit.Input{
		Name:           body.Name,
		TotalUSD:       body.TotalUSD,
		InitialUSD:     body.InitialUSD,
		Installments:   body.Installments,
		InstallmentUSD: body.InstallmentUSD,
		CadenceDays:    body.CadenceDays,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListCredits(w http.ResponseWriter, r *http.Request) {
	credits, err := s.credits.Credits(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if credits == nil {
		credits = []core.Credit{}
	}
	respondJSON(w, http.StatusOK, credits)
}

func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	insts, err := s.credits.Installments(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if insts == nil {
		insts = []core.Installment{}
	}
	respondJSON(w, http.StatusOK, insts)
}

// handlePayInstallments settles installments. An absent or empty ids
// list means all pending.
func (s *Server) handlePayInstallments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	var body struct {
		IDs []int64 `json:"ids"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
			return
		}
	}
	updated, err := s.credits.Pay(r.Context(), id, body.IDs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
