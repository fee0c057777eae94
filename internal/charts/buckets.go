package charts

import "math"

// Bucket is one fixed USD range of the histogram/heatmap axis,
// inclusive of Min and exclusive of Max.
type Bucket struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Label string  `json:"label"`
}

// AmountBuckets are the six fixed non-overlapping ranges transactions
// are grouped into. Together they cover [0, ∞).
var AmountBuckets = [6]Bucket{
	{Min: 0, Max: 20, Label: "0 - 20"},
	{Min: 20, Max: 50, Label: "20 - 50"},
	{Min: 50, Max: 100, Label: "50 - 100"},
	{Min: 100, Max: 200, Label: "100 - 200"},
	{Min: 200, Max: 500, Label: "200 - 500"},
	{Min: 500, Max: math.Inf(1), Label: "500+"},
}

// BucketIndex assigns a USD amount to exactly one bucket, or -1 when no
// bucket matches (negative or NaN amounts); unmatched transactions are
// dropped from bucketed views.
func BucketIndex(usd float64) int {
	for i, b := range AmountBuckets {
		if usd >= b.Min && usd < b.Max {
			return i
		}
	}
	return -1
}

// MonthsShort are the line chart month labels.
var MonthsShort = [12]string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}

// WeekdayLabels index by time.Weekday (Sunday first).
var WeekdayLabels = [7]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}
