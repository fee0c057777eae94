package analytics

import (
	"github.com/Ultramusic201/Anzu/internal/core"
	"github.com/Ultramusic201/Anzu/internal/period"
)

// LimitReport is the outcome of checking a rollup against the limit
// table for the active view mode. An empty Exceeded set means no
// warning state. LimitSumUSD is the total configured ceiling for the
// period kind across all categories.
type LimitReport struct {
	Period      core.LimitPeriod `json:"periodo,omitempty"`
	Exceeded    []string         `json:"excedidas"`
	LimitSumUSD float64          `json:"limiteTotalUSD"`
}

// EvaluateLimits selects the limit period matching the view mode and
// reports every category whose USD spend is above its ceiling. Year
// mode has no limits and yields an empty report. The evaluator holds no
// state; callers re-run it whenever the rollup or the limits change.
func EvaluateLimits(rollup []CategoryTotal, limits []core.CategoryLimit, mode period.Mode) LimitReport {
	lp, ok := mode.LimitPeriod()
	if !ok {
		return LimitReport{Exceeded: []string{}}
	}

	ceilings := make(map[string]float64)
	var sum float64
	for _, l := range limits {
		if l.Period != lp {
			continue
		}
		ceilings[l.Category] = l.USD
		sum += l.USD
	}

	exceeded := []string{}
	for _, row := range rollup {
		if lim, has := ceilings[row.Category]; has && row.TotalUSD > lim {
			exceeded = append(exceeded, row.Category)
		}
	}
	return LimitReport{Period: lp, Exceeded: exceeded, LimitSumUSD: sum}
}
