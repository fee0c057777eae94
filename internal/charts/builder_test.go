package charts

import (
	"reflect"
	"testing"
	"time"

	"github.com/Ultramusic201/Anzu/internal/core"
)

// fixed reference: Friday 2024-03-15
var now = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func tx(date string, kind core.Kind, usd float64, category string) core.Transaction {
	return core.Transaction{
		Date:      date,
		Kind:      kind,
		Amount:    usd,
		Currency:  core.USD,
		AmountUSD: usd,
		AmountVES: usd * 40,
		Category:  category,
		Rate:      40,
	}
}

func TestBuildWeekSeriesZeroFilled(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-15", core.Expense, 50, "COMIDA"),
		tx("2024-03-13", core.Expense, 30, "OCIO"),
		tx("2024-03-13", core.Income, 200, ""),
		tx("2024-03-01", core.Expense, 99, "COMIDA"), // outside the window
	}

	ds := Build(txs, WindowWeek, MetricExpenses, now)

	if len(ds.Labels) != 7 || len(ds.Gastos) != 7 || len(ds.Ingresos) != 7 {
		t.Fatalf("want 7 points, got %d/%d/%d", len(ds.Labels), len(ds.Gastos), len(ds.Ingresos))
	}
	if ds.Labels[0] != "09/03" || ds.Labels[6] != "15/03" {
		t.Fatalf("window must end today: %v", ds.Labels)
	}
	wantGastos := []float64{0, 0, 0, 0, 30, 0, 50}
	if !reflect.DeepEqual(ds.Gastos, wantGastos) {
		t.Fatalf("gastos = %v, want %v", ds.Gastos, wantGastos)
	}
	wantIngresos := []float64{0, 0, 0, 0, 200, 0, 0}
	if !reflect.DeepEqual(ds.Ingresos, wantIngresos) {
		t.Fatalf("ingresos = %v, want %v", ds.Ingresos, wantIngresos)
	}
}

func TestBuildMonthSeriesLength(t *testing.T) {
	ds := Build(nil, WindowMonth, MetricExpenses, now)
	if len(ds.Labels) != 30 {
		t.Fatalf("want 30 points, got %d", len(ds.Labels))
	}
	if ds.Labels[29] != "15/03" || ds.Labels[0] != "15/02" {
		t.Fatalf("trailing 30 days misaligned: first %s last %s", ds.Labels[0], ds.Labels[29])
	}
}

func TestBuildYearSeries(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-02", core.Expense, 10, "COMIDA"),
		tx("2024-03-20", core.Expense, 5, "COMIDA"), // later in the current month still counts
		tx("2023-04-10", core.Income, 700, ""),
		tx("2023-03-10", core.Expense, 42, "OCIO"), // 13 months back, outside
	}

	ds := Build(txs, WindowYear, MetricExpenses, now)

	if len(ds.Labels) != 12 {
		t.Fatalf("want 12 points, got %d", len(ds.Labels))
	}
	if ds.Labels[0] != "Abr" || ds.Labels[11] != "Mar" {
		t.Fatalf("month labels misaligned: %v", ds.Labels)
	}
	if ds.Gastos[11] != 15 {
		t.Fatalf("current month gastos = %v, want 15", ds.Gastos[11])
	}
	if ds.Ingresos[0] != 700 {
		t.Fatalf("oldest month ingresos = %v, want 700", ds.Ingresos[0])
	}
	if ds.Gastos[0] != 0 {
		t.Fatalf("13-month-old expense leaked into the window: %v", ds.Gastos)
	}
}

func TestBuildDropsInvalidDates(t *testing.T) {
	txs := []core.Transaction{
		tx("not-a-date", core.Expense, 50, "COMIDA"),
		tx("2024-03-15", core.Expense, 10, "COMIDA"),
	}
	ds := Build(txs, WindowWeek, MetricExpenses, now)
	if ds.Gastos[6] != 10 {
		t.Fatalf("valid row lost: %v", ds.Gastos)
	}
	if ds.Histogram[0] != 1 {
		t.Fatalf("invalid date must not be counted: %v", ds.Histogram)
	}
}

func TestBuildCategoriesTopAndResidual(t *testing.T) {
	var txs []core.Transaction
	cats := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	for i, c := range cats {
		txs = append(txs, tx("2024-03-10", core.Expense, float64(100-i*10), c))
	}
	txs = append(txs, tx("2024-03-10", core.Income, 1000, ""))

	ds := Build(txs, WindowMonth, MetricExpenses, now)

	if len(ds.Categories) != TopCategories {
		t.Fatalf("want %d categories, got %d", TopCategories, len(ds.Categories))
	}
	if ds.MoreCategories != 2 {
		t.Fatalf("residual = %d, want 2", ds.MoreCategories)
	}
	if ds.Categories[0].Category != "A" || ds.Categories[0].TotalUSD != 100 {
		t.Fatalf("wrong top category: %+v", ds.Categories[0])
	}
	for _, row := range ds.Categories {
		if row.Category == "INGRESO" {
			t.Fatal("income must not appear in the expense breakdown")
		}
	}
}

func TestBuildUncategorizedExpense(t *testing.T) {
	ds := Build([]core.Transaction{
		tx("2024-03-10", core.Expense, 25, ""),
	}, WindowMonth, MetricExpenses, now)
	if len(ds.Categories) != 1 || ds.Categories[0].Category != core.Uncategorized {
		t.Fatalf("missing category must map to the sentinel: %+v", ds.Categories)
	}
}

func TestBuildIncomeMetric(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-10", core.Expense, 25, "COMIDA"),
		tx("2024-03-10", core.Income, 300, ""),
	}
	ds := Build(txs, WindowMonth, MetricIncome, now)

	if len(ds.Categories) != 1 || ds.Categories[0].Category != "INGRESO" {
		t.Fatalf("income breakdown wrong: %+v", ds.Categories)
	}
	// 2024-03-10 is a Sunday
	if ds.Weekday[0] != 300 {
		t.Fatalf("weekday sums = %v", ds.Weekday)
	}
	if ds.Histogram[4] != 1 {
		t.Fatalf("300 belongs in [200,500): %v", ds.Histogram)
	}
	if ds.Weekday[0] != 300 || ds.Heatmap[0][4] != 300 || ds.HeatmapMax != 300 {
		t.Fatalf("heatmap = %v max %v", ds.Heatmap, ds.HeatmapMax)
	}
}

func TestBuildHistogramCountsOccurrences(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-10", core.Expense, 5, "COMIDA"),
		tx("2024-03-10", core.Expense, 19.99, "COMIDA"),
		tx("2024-03-11", core.Expense, 20, "COMIDA"), // lower bound of the next bucket
		tx("2024-03-11", core.Expense, 600, "HOGAR"),
	}
	ds := Build(txs, WindowMonth, MetricExpenses, now)

	want := [6]int{2, 1, 0, 0, 0, 1}
	if ds.Histogram != want {
		t.Fatalf("histogram = %v, want %v", ds.Histogram, want)
	}
}

func TestBuildIdempotent(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-15", core.Expense, 50, "COMIDA"),
		tx("2024-03-13", core.Expense, 30, "OCIO"),
		tx("2024-03-13", core.Income, 200, ""),
		tx("2024-02-28", core.Expense, 75, "HOGAR"),
	}
	a := Build(txs, WindowMonth, MetricExpenses, now)
	b := Build(txs, WindowMonth, MetricExpenses, now)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same snapshot must produce identical datasets")
	}
}

func TestBucketIndex(t *testing.T) {
	cases := []struct {
		usd  float64
		want int
	}{
		{0, 0},
		{19.99, 0},
		{20, 1},
		{50, 2},
		{100, 3},
		{200, 4},
		{499.99, 4},
		{500, 5},
		{1e9, 5},
		{-1, -1},
	}
	for _, tc := range cases {
		if got := BucketIndex(tc.usd); got != tc.want {
			t.Fatalf("BucketIndex(%v) = %d, want %d", tc.usd, got, tc.want)
		}
	}
}
