// Package fx converts between USD and VES using the scalar daily rate
// and fetches the rate from the optional external source.
package fx

import (
	"github.com/Ultramusic201/Anzu/internal/core"
)

// ToVES converts a USD amount at the given VES-per-USD rate.
func ToVES(usd, rate float64) float64 {
	return usd * rate
}

// ToUSD converts a VES amount at the given VES-per-USD rate.
func ToUSD(ves, rate float64) float64 {
	return ves / rate
}

// Convert resolves an original (amount, currency) pair into both
// recorded amounts. The rate must be valid; callers surface
// core.ErrRateNotSet before any store write otherwise.
func Convert(amount float64, currency core.Currency, rate float64) (usd, ves float64, err error) {
	if !core.ValidRate(rate) {
		return 0, 0, core.ErrRateNotSet
	}
	if currency == core.USD {
		return amount, ToVES(amount, rate), nil
	}
	return ToUSD(amount, rate), amount, nil
}
