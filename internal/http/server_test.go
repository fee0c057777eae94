package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ultramusic201/Anzu/internal/config"
	"github.com/Ultramusic201/Anzu/internal/core"
	"github.com/Ultramusic201/Anzu/internal/services"
	"github.com/Ultramusic201/Anzu/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "anzu.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	rates := services.NewRateService(repo, nil, nil, time.Minute)
	ledger := services.NewLedgerService(repo, rates, nil, config.DefaultCatalog(), time.Minute, 200)
	credits := services.NewCreditService(repo, rates, ledger)

	ts := httptest.NewServer(NewServer(ledger, rates, credits).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, out.Bytes()
}

func setTodayRate(t *testing.T, ts *httptest.Server, rate float64) {
	t.Helper()
	resp, body := doJSON(t, http.MethodPut, ts.URL+"/api/v1/rate", map[string]any{"tasa": rate})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put rate: %d %s", resp.StatusCode, body)
	}
}

func TestCreateTransactionRequiresRate(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/transactions", map[string]any{
		"tipo": "Gasto", "descripcion": "cafe", "monto": 3, "moneda": "USD",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d %s, want 409", resp.StatusCode, body)
	}
}

func TestRateLifecycle(t *testing.T) {
	ts := newTestServer(t)

	// absent rate reports null, not an error
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/rate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get rate: %d", resp.StatusCode)
	}
	var rr struct {
		Rate *float64 `json:"tasa"`
	}
	if err := json.Unmarshal(body, &rr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rr.Rate != nil {
		t.Fatalf("rate = %v, want null", *rr.Rate)
	}

	setTodayRate(t, ts, 40)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/rate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get rate: %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &rr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rr.Rate == nil || *rr.Rate != 40 {
		t.Fatalf("rate = %v, want 40", rr.Rate)
	}

	// negative rate rejected
	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/api/v1/rate", map[string]any{"tasa": -5})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("negative rate: %d, want 409", resp.StatusCode)
	}
}

func TestTransactionAndSummaryFlow(t *testing.T) {
	ts := newTestServer(t)
	setTodayRate(t, ts, 40)

	for _, tx := range []map[string]any{
		{"tipo": "Gasto", "descripcion": "mercado", "monto": 50, "moneda": "USD", "categoria": "COMIDA"},
		{"tipo": "Gasto", "descripcion": "mas mercado", "monto": 30, "moneda": "USD", "categoria": "COMIDA"},
		{"tipo": "Ingreso", "descripcion": "sueldo", "monto": 200, "moneda": "USD"},
	} {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/transactions", tx)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create: %d %s", resp.StatusCode, body)
		}
	}

	month := time.Now().Format("2006-01")
	resp, body := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/v1/summary?mode=month&month=%s", ts.URL, month), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: %d %s", resp.StatusCode, body)
	}

	var view services.SummaryView
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if view.Totals.IncomeUSD != "200.00" || view.Totals.ExpenseUSD != "80.00" || view.Totals.BalanceUSD != "120.00" {
		t.Fatalf("totals = %+v", view.Totals)
	}
	if len(view.Rollup) != 1 || view.Rollup[0].Category != "COMIDA" {
		t.Fatalf("rollup = %+v", view.Rollup)
	}
}

func TestTransactionListAndDelete(t *testing.T) {
	ts := newTestServer(t)
	setTodayRate(t, ts, 40)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/transactions", map[string]any{
		"tipo": "Gasto", "descripcion": "cine", "monto": 8, "moneda": "USD", "categoria": "OCIO",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.StatusCode, body)
	}
	var saved core.Transaction
	if err := json.Unmarshal(body, &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/transactions?q=cine", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: %d", resp.StatusCode)
	}
	var list transactionsResponse
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Transactions) != 1 || list.Transactions[0].ID != saved.ID {
		t.Fatalf("list = %+v", list)
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/transactions/%d", ts.URL, saved.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/transactions/%d", ts.URL, saved.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete: %d, want 404", resp.StatusCode)
	}
}

func TestLimitsValidation(t *testing.T) {
	ts := newTestServer(t)

	bad := []map[string]any{
		{"categoria": "COMIDA", "periodo": "diario", "montoUSD": 100},
		{"categoria": "COMIDA", "periodo": "mensual", "montoUSD": 50},
	}
	resp, _ := doJSON(t, http.MethodPut, ts.URL+"/api/v1/limits", bad)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad limits: %d, want 400", resp.StatusCode)
	}

	good := []map[string]any{
		{"categoria": "COMIDA", "periodo": "diario", "montoUSD": 10},
		{"categoria": "COMIDA", "periodo": "mensual", "montoUSD": 200},
	}
	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/api/v1/limits", good)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("good limits: %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/limits", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get limits: %d", resp.StatusCode)
	}
	var limits []core.CategoryLimit
	if err := json.Unmarshal(body, &limits); err != nil {
		t.Fatalf("decode limits: %v", err)
	}
	if len(limits) != 2 {
		t.Fatalf("got %d limits", len(limits))
	}
}

func TestChartsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	setTodayRate(t, ts, 40)
	doJSON(t, http.MethodPost, ts.URL+"/api/v1/transactions", map[string]any{
		"tipo": "Gasto", "descripcion": "mercado", "monto": 50, "moneda": "USD", "categoria": "COMIDA",
	})

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/charts?period=week&metric=gastos", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("charts: %d %s", resp.StatusCode, body)
	}
	var ds struct {
		Labels []string  `json:"labels"`
		Gastos []float64 `json:"gastos"`
	}
	if err := json.Unmarshal(body, &ds); err != nil {
		t.Fatalf("decode charts: %v", err)
	}
	if len(ds.Labels) != 7 || len(ds.Gastos) != 7 {
		t.Fatalf("want 7 points, got %d/%d", len(ds.Labels), len(ds.Gastos))
	}
	if ds.Gastos[6] != 50 {
		t.Fatalf("today's point = %v, want 50", ds.Gastos[6])
	}
}

func TestDonutEndpoint(t *testing.T) {
	ts := newTestServer(t)
	setTodayRate(t, ts, 40)
	for _, tx := range []map[string]any{
		{"tipo": "Gasto", "descripcion": "a", "monto": 80, "moneda": "USD", "categoria": "COMIDA"},
		{"tipo": "Gasto", "descripcion": "b", "monto": 20, "moneda": "USD", "categoria": "OCIO"},
	} {
		doJSON(t, http.MethodPost, ts.URL+"/api/v1/transactions", tx)
	}

	month := time.Now().Format("2006-01")
	resp, body := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/v1/donut?mode=gastos&month=%s", ts.URL, month), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("donut: %d %s", resp.StatusCode, body)
	}
	var view services.DonutView
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatalf("decode donut: %v", err)
	}
	if len(view.Segments) != 2 || view.Segments[0].Label != "COMIDA" {
		t.Fatalf("segments = %+v", view.Segments)
	}
	if view.TotalUSD != 100 {
		t.Fatalf("total = %v", view.TotalUSD)
	}
}

func TestCreditFlow(t *testing.T) {
	ts := newTestServer(t)
	setTodayRate(t, ts, 40)

	// 20 + 4*15 = 80, not 100: must fail with nothing written
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/credits", map[string]any{
		"nombre": "telefono", "montoTotalUSD": 100, "inicialUSD": 20,
		"cuotasCantidad": 4, "montoCuotaUSD": 15, "planDias": 15,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("mismatched credit: %d, want 400", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/credits", map[string]any{
		"nombre": "telefono", "montoTotalUSD": 100, "inicialUSD": 20,
		"cuotasCantidad": 4, "montoCuotaUSD": 20, "planDias": 15,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create credit: %d %s", resp.StatusCode, body)
	}
	var saved core.Credit
	if err := json.Unmarshal(body, &saved); err != nil {
		t.Fatalf("decode credit: %v", err)
	}

	resp, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/v1/credits/%d/installments", ts.URL, saved.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("installments: %d", resp.StatusCode)
	}
	var insts []core.Installment
	if err := json.Unmarshal(body, &insts); err != nil {
		t.Fatalf("decode installments: %v", err)
	}
	if len(insts) != 4 {
		t.Fatalf("got %d installments", len(insts))
	}

	// pay the first two explicitly
	resp, body = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/v1/credits/%d/payments", ts.URL, saved.ID),
		map[string]any{"ids": []int64{insts[0].ID, insts[1].ID}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pay: %d %s", resp.StatusCode, body)
	}
	var updated core.Credit
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Status != core.CreditActive {
		t.Fatalf("status = %s, want still activo", updated.Status)
	}

	// pay the rest via empty body meaning all pending
	resp, body = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/v1/credits/%d/payments", ts.URL, saved.ID), map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pay rest: %d %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Status != core.CreditPaid {
		t.Fatalf("status = %s, want pagado", updated.Status)
	}

	// installments for an unknown credit 404
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/v1/credits/999/installments", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown credit: %d, want 404", resp.StatusCode)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/categories", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("categories: %d", resp.StatusCode)
	}
	var catalog config.Catalog
	if err := json.Unmarshal(body, &catalog); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(catalog.Categories) != 14 {
		t.Fatalf("got %d categories", len(catalog.Categories))
	}
}
