// Package charts turns the raw ledger into the derived series the
// evolution, distribution and heatmap views render: zero-filled time
// series over a trailing window, top-category breakdowns, weekday
// distributions and weekday-by-amount heatmaps.
package charts

import (
	"fmt"
	"sort"
	"time"

	"github.com/Ultramusic201/Anzu/internal/core"
)

// Window selects the trailing span the time series covers, always
// ending today.
type Window string

const (
	WindowWeek  Window = "week"  // last 7 days, one point per day
	WindowMonth Window = "month" // last 30 days, one point per day
	WindowYear  Window = "year"  // last 12 months, one point per month
)

// Metric selects which side of the ledger the mode-split views sum.
type Metric string

const (
	MetricExpenses Metric = "gastos"
	MetricIncome   Metric = "ingresos"
)

// CategoryAmount is one row of the top-categories breakdown.
type CategoryAmount struct {
	Category string  `json:"categoria"`
	TotalUSD float64 `json:"totalUSD"`
}

// TopCategories caps the category breakdown so small categories fold
// into a single residual count.
const TopCategories = 8

// Dataset is everything one charts request needs. Labels, Gastos and
// Ingresos are the time series (same length, index-aligned); the
// remaining views are split by the requested metric only.
type Dataset struct {
	Window Window `json:"periodo"`
	Metric Metric `json:"modo"`

	Labels   []string  `json:"labels"`
	Gastos   []float64 `json:"gastos"`
	Ingresos []float64 `json:"ingresos"`

	Categories     []CategoryAmount `json:"categorias"`
	MoreCategories int              `json:"categoriasRestantes"`

	Weekday    [7]float64    `json:"porDiaSemana"`
	Histogram  [6]int        `json:"histograma"`
	Heatmap    [7][6]float64 `json:"mapaCalor"`
	HeatmapMax float64       `json:"mapaCalorMax"`
}

type point struct {
	date time.Time
	kind core.Kind
	usd  float64
	cat  string
}

// Build recomputes the full dataset from scratch. Transactions whose
// date does not parse are dropped without error; everything else
// follows from the parsed dates and USD amounts. Two calls over the
// same snapshot produce identical output.
func Build(txs []core.Transaction, w Window, m Metric, now time.Time) Dataset {
	ds := Dataset{Window: w, Metric: m}

	pts := make([]point, 0, len(txs))
	for _, tx := range txs {
		d, err := time.Parse(core.DateLayout, tx.Date)
		if err != nil {
			continue
		}
		cat := tx.Category
		if tx.Kind == core.Expense && cat == "" {
			cat = core.Uncategorized
		}
		pts = append(pts, point{date: d, kind: tx.Kind, usd: tx.AmountUSD, cat: cat})
	}

	ds.buildSeries(pts, now)
	ds.buildCategories(pts)
	ds.buildDistributions(pts)
	return ds
}

// matches reports whether a point belongs to the dataset's metric.
func (ds *Dataset) matches(p point) bool {
	if ds.Metric == MetricIncome {
		return p.kind == core.Income
	}
	return p.kind == core.Expense
}

func (ds *Dataset) buildSeries(pts []point, now time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if ds.Window == WindowYear {
		// one slot per month, oldest first, ending the current month
		type ym struct {
			y int
			m time.Month
		}
		index := make(map[ym]int, 12)
		for i := 11; i >= 0; i-- {
			t := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
			index[ym{t.Year(), t.Month()}] = len(ds.Labels)
			ds.Labels = append(ds.Labels, MonthsShort[t.Month()-1])
			ds.Gastos = append(ds.Gastos, 0)
			ds.Ingresos = append(ds.Ingresos, 0)
		}
		for _, p := range pts {
			if i, ok := index[ym{p.date.Year(), p.date.Month()}]; ok {
				ds.addSeriesValue(i, p)
			}
		}
		return
	}

	days := 7
	if ds.Window == WindowMonth {
		days = 30
	}
	index := make(map[string]int, days)
	for i := days - 1; i >= 0; i-- {
		t := today.AddDate(0, 0, -i)
		index[t.Format(core.DateLayout)] = len(ds.Labels)
		ds.Labels = append(ds.Labels, fmt.Sprintf("%02d/%02d", t.Day(), int(t.Month())))
		ds.Gastos = append(ds.Gastos, 0)
		ds.Ingresos = append(ds.Ingresos, 0)
	}
	for _, p := range pts {
		if i, ok := index[p.date.Format(core.DateLayout)]; ok {
			ds.addSeriesValue(i, p)
		}
	}
}

func (ds *Dataset) addSeriesValue(i int, p point) {
	if p.kind == core.Income {
		ds.Ingresos[i] += p.usd
	} else {
		ds.Gastos[i] += p.usd
	}
}

func (ds *Dataset) buildCategories(pts []point) {
	sums := map[string]float64{}
	for _, p := range pts {
		if !ds.matches(p) {
			continue
		}
		label := p.cat
		if p.kind == core.Income {
			label = "INGRESO"
		}
		sums[label] += p.usd
	}

	rows := make([]CategoryAmount, 0, len(sums))
	for cat, total := range sums {
		rows = append(rows, CategoryAmount{Category: cat, TotalUSD: total})
	}
	sort.Slice(rows, func(a, b int) bool {
		if rows[a].TotalUSD != rows[b].TotalUSD {
			return rows[a].TotalUSD > rows[b].TotalUSD
		}
		return rows[a].Category < rows[b].Category
	})
	if len(rows) > TopCategories {
		ds.MoreCategories = len(rows) - TopCategories
		rows = rows[:TopCategories]
	}
	ds.Categories = rows
}

func (ds *Dataset) buildDistributions(pts []point) {
	for _, p := range pts {
		if !ds.matches(p) {
			continue
		}
		wd := int(p.date.Weekday())
		ds.Weekday[wd] += p.usd

		bucket := BucketIndex(p.usd)
		if bucket < 0 {
			continue
		}
		ds.Histogram[bucket]++
		ds.Heatmap[wd][bucket] += p.usd
		if ds.Heatmap[wd][bucket] > ds.HeatmapMax {
			ds.HeatmapMax = ds.Heatmap[wd][bucket]
		}
	}
}
