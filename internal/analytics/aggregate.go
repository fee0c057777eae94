// Package analytics turns a period-scoped transaction snapshot into
// totals, category rollups and limit reports. Everything here is a pure
// function of its inputs.
package analytics

import (
	"fmt"
	"sort"

	"github.com/Ultramusic201/Anzu/internal/core"
)

// Totals holds the period sums at full floating point precision. The
// USD and VES accumulators are independent; neither is derived from the
// other at aggregation time.
type Totals struct {
	IncomeVES  float64
	ExpenseVES float64
	IncomeUSD  float64
	ExpenseUSD float64
}

func (t Totals) BalanceVES() float64 { return t.IncomeVES - t.ExpenseVES }
func (t Totals) BalanceUSD() float64 { return t.IncomeUSD - t.ExpenseUSD }

// DisplayTotals is the two-decimal boundary rendering of Totals. Field
// names match the original ledger contract.
type DisplayTotals struct {
	IncomeVES  string `json:"ingresosVES"`
	ExpenseVES string `json:"gastosVES"`
	BalanceVES string `json:"balanceVES"`
	IncomeUSD  string `json:"ingresosUSD"`
	ExpenseUSD string `json:"gastosUSD"`
	BalanceUSD string `json:"balanceUSD"`
}

// Display rounds once, at the boundary.
func (t Totals) Display() DisplayTotals {
	f := func(v float64) string { return fmt.Sprintf("%.2f", v) }
	return DisplayTotals{
		IncomeVES:  f(t.IncomeVES),
		ExpenseVES: f(t.ExpenseVES),
		BalanceVES: f(t.BalanceVES()),
		IncomeUSD:  f(t.IncomeUSD),
		ExpenseUSD: f(t.ExpenseUSD),
		BalanceUSD: f(t.BalanceUSD()),
	}
}

// Summarize accumulates income and expense sums over the snapshot.
func Summarize(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		if tx.Kind == core.Income {
			t.IncomeVES += tx.AmountVES
			t.IncomeUSD += tx.AmountUSD
		} else {
			t.ExpenseVES += tx.AmountVES
			t.ExpenseUSD += tx.AmountUSD
		}
	}
	return t
}

// CategoryTotal is one row of the expense rollup.
type CategoryTotal struct {
	Category string  `json:"categoria"`
	TotalVES float64 `json:"totalVES"`
	TotalUSD float64 `json:"totalUSD"`
}

// Rollup groups expense transactions by category, mapping a missing
// category to the SIN CATEGORIA sentinel. Income never contributes.
// Rows come back sorted descending by VES total; maxVES is the largest
// VES total, used by the presentation layer for bar scaling.
func Rollup(txs []core.Transaction) (rows []CategoryTotal, maxVES float64) {
	sums := make(map[string]*CategoryTotal)
	for _, tx := range txs {
		if tx.Kind != core.Expense {
			continue
		}
		cat := tx.Category
		if cat == "" {
			cat = core.Uncategorized
		}
		row, ok := sums[cat]
		if !ok {
			row = &CategoryTotal{Category: cat}
			sums[cat] = row
		}
		row.TotalVES += tx.AmountVES
		row.TotalUSD += tx.AmountUSD
	}

	rows = make([]CategoryTotal, 0, len(sums))
	for _, row := range sums {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalVES != rows[j].TotalVES {
			return rows[i].TotalVES > rows[j].TotalVES
		}
		return rows[i].Category < rows[j].Category
	})
	for _, row := range rows {
		if row.TotalVES > maxVES {
			maxVES = row.TotalVES
		}
	}
	return rows, maxVES
}
