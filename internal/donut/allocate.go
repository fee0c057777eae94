// Package donut allocates angular spans for ring chart segments and
// builds the path geometry consumers render from.
package donut

import (
	"math"
	"sort"
)

// Policy selects how the allocator reconciles clamped angles with the
// full circle.
type Policy int

const (
	// PolicyReduceSlack shrinks entries above the minimum angle
	// proportionally to their slack until the spans fit 2π again. This
	// is the default and the strictly more general policy.
	PolicyReduceSlack Policy = iota
	// PolicySnapToLargest adds any positive leftover budget onto the
	// single largest segment. Kept for the legacy ring breakdown where
	// minimums are loose enough that clamping never overshoots; if the
	// clamped spans do exceed 2π it falls back to slack reduction so
	// the full-circle invariant always holds.
	PolicySnapToLargest
)

// Entry is one (label, value) input pair. Non-positive values are
// filtered out before allocation.
type Entry struct {
	Label string
	Value float64
}

// Segment is one allocated span. Start/End delimit the full allocated
// span; DrawStart/DrawEnd are the gap-trimmed arc actually drawn.
// Segments whose trimmed span collapses to nothing keep Visible=false
// but still participate in legends and percentages. Percent is computed
// from the original value over the original total, never from the
// clamped angle.
type Segment struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Percent   float64 `json:"percent"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	DrawStart float64 `json:"drawStart"`
	DrawEnd   float64 `json:"drawEnd"`
	Visible   bool    `json:"visible"`
}

// Options tunes the allocator. Zero values for MinAngle and Gap are
// legal and disable clamping and trimming respectively.
type Options struct {
	MinAngle float64
	Gap      float64
	Policy   Policy
}

// DefaultOptions matches the production ring: 2 degree minimum per
// segment, 1.2 degree gap between segments.
func DefaultOptions() Options {
	return Options{
		MinAngle: 2 * math.Pi / 180,
		Gap:      1.2 * math.Pi / 180,
		Policy:   PolicyReduceSlack,
	}
}

const full = 2 * math.Pi

// startAngle puts the first segment boundary at 12 o'clock.
const startAngle = -math.Pi / 2

// Allocate converts the entries into a gapped ring of spans summing to
// exactly 2π. Every span is at least MinAngle wide provided
// n*MinAngle <= 2π; excess introduced by clamping is taken back
// proportionally from the slack of larger segments only.
func Allocate(entries []Entry, opts Options) []Segment {
	positive := make([]Entry, 0, len(entries))
	var total float64
	for _, e := range entries {
		if e.Value > 0 {
			positive = append(positive, e)
			total += e.Value
		}
	}
	if len(positive) == 0 {
		return nil
	}

	angles := make([]float64, len(positive))
	for i, e := range positive {
		angles[i] = e.Value / total * full
		if angles[i] < opts.MinAngle {
			angles[i] = opts.MinAngle
		}
	}

	var sum float64
	for _, a := range angles {
		sum += a
	}

	switch {
	case opts.Policy == PolicySnapToLargest && full-sum > 0:
		largest := 0
		for i := range angles {
			if angles[i] > angles[largest] {
				largest = i
			}
		}
		angles[largest] += full - sum
	case sum-full > 1e-9:
		reduceBySlack(angles, sum-full, opts.MinAngle)
	}

	segments := make([]Segment, len(positive))
	cursor := startAngle
	for i, e := range positive {
		end := cursor + angles[i]
		drawStart := cursor + opts.Gap/2
		drawEnd := end - opts.Gap/2
		segments[i] = Segment{
			Label:     e.Label,
			Value:     e.Value,
			Percent:   e.Value / total * 100,
			Start:     cursor,
			End:       end,
			DrawStart: drawStart,
			DrawEnd:   drawEnd,
			Visible:   drawEnd > drawStart,
		}
		cursor = end
	}
	return segments
}

// reduceBySlack removes excess from entries strictly above the minimum,
// proportionally to how much slack each carries, without pushing any
// below the minimum. When no entry has slack there is nothing to
// reduce and the spans are left as they are.
func reduceBySlack(angles []float64, excess, min float64) {
	adjustable := make([]int, 0, len(angles))
	var slack float64
	for i, a := range angles {
		if a > min {
			adjustable = append(adjustable, i)
			slack += a - min
		}
	}
	if slack <= 0 {
		return
	}
	for _, i := range adjustable {
		reducible := angles[i] - min
		delta := excess * (reducible / slack)
		angles[i] = math.Max(min, angles[i]-delta)
	}
}

// TopEntries converts a descending rollup into allocator entries capped
// at n, reporting how many rows were cut. The cap keeps tiny categories
// from crowding the ring; the residual count feeds the "+N more" legend
// row.
func TopEntries(labels []string, values []float64, n int) (entries []Entry, more int) {
	if len(labels) != len(values) {
		panic("donut: labels and values length mismatch")
	}
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] > values[idx[b]] })

	for _, i := range idx {
		if values[i] <= 0 {
			continue
		}
		if len(entries) < n {
			entries = append(entries, Entry{Label: labels[i], Value: values[i]})
		} else {
			more++
		}
	}
	return entries, more
}
