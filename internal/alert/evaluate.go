package alert

import (
	"math"

	"crypto-alert-service/internal/types"
)

// Outcome of evaluating one alert against a current price.
type Outcome struct {
	ChangePercent float64
	Fired         bool
}

// Evaluate decides whether an alert condition is met at currentPrice.
// It is pure: no clock, no I/O, no mutation.
//
// changePercent = (current - base) / base * 100. A rise alert fires when the
// change reaches its positive threshold, a fall alert when it reaches its
// negative threshold. The boundary is inclusive on both sides.
//
// Threshold sign and base price are validated at creation time; seeing them
// wrong here is an invariant violation, fatal to this alert only.
func Evaluate(a types.Alert, currentPrice float64) (Outcome, error) {
	if math.IsNaN(currentPrice) || math.IsInf(currentPrice, 0) || currentPrice <= 0 {
		return Outcome{}, Invariantf("non-positive current price %v for alert %d", currentPrice, a.ID)
	}
	if a.BasePrice <= 0 {
		return Outcome{}, Invariantf("non-positive base price %v for alert %d", a.BasePrice, a.ID)
	}

	changePercent := (currentPrice - a.BasePrice) / a.BasePrice * 100

	var fired bool
	switch a.Direction {
	case types.DirectionRise:
		if a.ThresholdPercent <= 0 {
			return Outcome{}, Invariantf("rise alert %d has non-positive threshold %v", a.ID, a.ThresholdPercent)
		}
		fired = changePercent >= a.ThresholdPercent
	case types.DirectionFall:
		if a.ThresholdPercent >= 0 {
			return Outcome{}, Invariantf("fall alert %d has non-negative threshold %v", a.ID, a.ThresholdPercent)
		}
		fired = changePercent <= a.ThresholdPercent
	default:
		return Outcome{}, Invariantf("alert %d has unknown direction %q", a.ID, a.Direction)
	}

	return Outcome{ChangePercent: changePercent, Fired: fired}, nil
}
