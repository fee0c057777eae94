// Package period resolves a view mode plus its anchor into the
// inclusive date range the store filters on.
package period

import (
	"fmt"
	"regexp"
	"time"

	"github.com/Ultramusic201/Anzu/internal/core"
)

type Mode string

const (
	Week  Mode = "week"
	Month Mode = "month"
	Year  Mode = "year"
)

func (m Mode) Valid() bool {
	return m == Week || m == Month || m == Year
}

// LimitPeriod maps a view mode to the limit period kind it is checked
// against. Year mode has no limit concept and returns false.
func (m Mode) LimitPeriod() (core.LimitPeriod, bool) {
	switch m {
	case Week:
		return core.LimitWeekly, true
	case Month:
		return core.LimitMonthly, true
	default:
		return "", false
	}
}

// Anchor carries the mode-specific reference state. Only the field for
// the active mode is consulted.
type Anchor struct {
	// WeekStart is any day of the wanted week; it is normalized to the
	// preceding or same Monday.
	WeekStart time.Time
	// Month is a YYYY-MM string.
	Month string
	// Year is a four digit year.
	Year int
}

// Period is an inclusive [Start, End] range of YYYY-MM-DD strings used
// with BETWEEN-style filters. For month mode End is the synthetic
// "YYYY-MM-31" upper bound: it only ever participates in lexicographic
// string comparison and is never dereferenced as a calendar date.
type Period struct {
	Start string `json:"startDate"`
	End   string `json:"endDate"`
}

var monthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// StartOfWeek returns the Monday on or before d, at midnight.
func StartOfWeek(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	diff := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -diff)
}

// Range resolves mode and anchor to a period. Malformed anchors never
// produce an error; the fallback is the single-day range of now.
func Range(mode Mode, a Anchor, now time.Time) Period {
	today := now.Format(core.DateLayout)
	switch mode {
	case Month:
		if !monthRe.MatchString(a.Month) {
			return Period{Start: today, End: today}
		}
		return Period{Start: a.Month + "-01", End: a.Month + "-31"}
	case Year:
		y := a.Year
		if y <= 0 {
			y = now.Year()
		}
		return Period{
			Start: fmt.Sprintf("%04d-01-01", y),
			End:   fmt.Sprintf("%04d-12-31", y),
		}
	case Week:
		ws := a.WeekStart
		if ws.IsZero() {
			ws = now
		}
		start := StartOfWeek(ws)
		return Period{
			Start: start.Format(core.DateLayout),
			End:   start.AddDate(0, 0, 6).Format(core.DateLayout),
		}
	default:
		return Period{Start: today, End: today}
	}
}
