package analytics

import (
	"math"
	"testing"

	"github.com/Ultramusic201/Anzu/internal/core"
)

func expense(date string, usd float64, category string) core.Transaction {
	return core.Transaction{
		Date: date, Kind: core.Expense, Description: "gasto",
		Amount: usd, Currency: core.USD,
		AmountUSD: usd, AmountVES: usd * 40, Category: category, Rate: 40,
	}
}

func income(date string, usd float64) core.Transaction {
	return core.Transaction{
		Date: date, Kind: core.Income, Description: "ingreso",
		Amount: usd, Currency: core.USD,
		AmountUSD: usd, AmountVES: usd * 40, Rate: 40,
	}
}

func TestSummarize(t *testing.T) {
	txs := []core.Transaction{
		expense("2024-03-01", 50, "COMIDA"),
		expense("2024-03-02", 30, "COMIDA"),
		income("2024-03-03", 200),
	}

	got := Summarize(txs)
	if got.IncomeUSD != 200 || got.ExpenseUSD != 80 {
		t.Fatalf("usd totals: income=%v expense=%v", got.IncomeUSD, got.ExpenseUSD)
	}
	if got.BalanceUSD() != 120 {
		t.Fatalf("balance usd = %v, want 120", got.BalanceUSD())
	}
	if got.IncomeVES != 8000 || got.ExpenseVES != 3200 {
		t.Fatalf("ves totals: income=%v expense=%v", got.IncomeVES, got.ExpenseVES)
	}

	d := got.Display()
	if d.IncomeUSD != "200.00" || d.ExpenseUSD != "80.00" || d.BalanceUSD != "120.00" {
		t.Fatalf("display totals: %+v", d)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	d := Summarize(nil).Display()
	if d.BalanceVES != "0.00" || d.BalanceUSD != "0.00" {
		t.Fatalf("empty snapshot should render zeros, got %+v", d)
	}
}

func TestSummarizeFullPrecisionBeforeDisplay(t *testing.T) {
	// three thirds of a dollar accumulate at full precision and only
	// round at the boundary
	txs := []core.Transaction{
		expense("2024-03-01", 1.0/3, "COMIDA"),
		expense("2024-03-01", 1.0/3, "COMIDA"),
		expense("2024-03-01", 1.0/3, "COMIDA"),
	}
	got := Summarize(txs)
	if math.Abs(got.ExpenseUSD-1.0) > 1e-9 {
		t.Fatalf("accumulated %v, want 1.0", got.ExpenseUSD)
	}
	if got.Display().ExpenseUSD != "1.00" {
		t.Fatalf("display %q, want 1.00", got.Display().ExpenseUSD)
	}
}

func TestRollup(t *testing.T) {
	txs := []core.Transaction{
		expense("2024-03-01", 50, "COMIDA"),
		expense("2024-03-02", 30, "COMIDA"),
		expense("2024-03-02", 10, "OCIO"),
		expense("2024-03-03", 5, ""),
		income("2024-03-03", 200),
	}

	rows, maxVES := Rollup(txs)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Category != "COMIDA" || rows[0].TotalUSD != 80 {
		t.Fatalf("top row %+v", rows[0])
	}
	if rows[1].Category != "OCIO" || rows[2].Category != core.Uncategorized {
		t.Fatalf("order wrong: %+v", rows)
	}
	if maxVES != 80*40 {
		t.Fatalf("maxVES = %v, want %v", maxVES, 80*40)
	}
}

func TestRollupIgnoresIncome(t *testing.T) {
	rows, maxVES := Rollup([]core.Transaction{income("2024-03-01", 99999)})
	if len(rows) != 0 || maxVES != 0 {
		t.Fatalf("income leaked into rollup: rows=%v max=%v", rows, maxVES)
	}
}

func TestRollupDeterministicTieOrder(t *testing.T) {
	txs := []core.Transaction{
		expense("2024-03-01", 10, "ROPA"),
		expense("2024-03-01", 10, "JUEGOS"),
	}
	rows, _ := Rollup(txs)
	if rows[0].Category != "JUEGOS" || rows[1].Category != "ROPA" {
		t.Fatalf("ties must break alphabetically: %+v", rows)
	}
}
