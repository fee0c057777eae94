package donut

import (
	"fmt"
	"math"
	"strings"
)

// Point is a cartesian coordinate on the chart canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PolarToCartesian projects an angle at radius r around (cx, cy).
func PolarToCartesian(cx, cy, r, angle float64) Point {
	return Point{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
}

func coord(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// ArcPath builds a filled wedge from the center through the arc.
func ArcPath(cx, cy, r, start, end float64) string {
	sp := PolarToCartesian(cx, cy, r, start)
	ep := PolarToCartesian(cx, cy, r, end)
	large := 0
	if end-start > math.Pi {
		large = 1
	}
	return fmt.Sprintf("M %s %s L %s %s A %s %s 0 %d 1 %s %s Z",
		coord(cx), coord(cy), coord(sp.X), coord(sp.Y),
		coord(r), coord(r), large, coord(ep.X), coord(ep.Y))
}

// ArcStroke builds a bare arc with no radial lines.
func ArcStroke(cx, cy, r, start, end float64) string {
	sp := PolarToCartesian(cx, cy, r, start)
	ep := PolarToCartesian(cx, cy, r, end)
	large := 0
	if end-start > math.Pi {
		large = 1
	}
	return fmt.Sprintf("M %s %s A %s %s 0 %d 1 %s %s",
		coord(sp.X), coord(sp.Y), coord(r), coord(r), large, coord(ep.X), coord(ep.Y))
}

// SegmentPath builds a ring slice between two radii and two angles:
// outer arc from start to end, radial line inward at the end angle,
// inner arc swept back from end to start, implicit close. The order and
// the reversed sweep on the inner arc are what make the fill close
// correctly.
func SegmentPath(cx, cy, rOuter, rInner, start, end float64) string {
	large := 0
	if end-start > math.Pi {
		large = 1
	}
	oStart := PolarToCartesian(cx, cy, rOuter, start)
	oEnd := PolarToCartesian(cx, cy, rOuter, end)
	iEnd := PolarToCartesian(cx, cy, rInner, end)
	iStart := PolarToCartesian(cx, cy, rInner, start)
	return strings.Join([]string{
		fmt.Sprintf("M %s %s", coord(oStart.X), coord(oStart.Y)),
		fmt.Sprintf("A %s %s 0 %d 1 %s %s", coord(rOuter), coord(rOuter), large, coord(oEnd.X), coord(oEnd.Y)),
		fmt.Sprintf("L %s %s", coord(iEnd.X), coord(iEnd.Y)),
		fmt.Sprintf("A %s %s 0 %d 0 %s %s", coord(rInner), coord(rInner), large, coord(iStart.X), coord(iStart.Y)),
		"Z",
	}, " ")
}
