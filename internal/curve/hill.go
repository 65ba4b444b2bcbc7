// Package curve implements the Hill response curve used by the marketing mix model:
// incremental bookings as a saturating function of weekly spend.
package curve

import (
	"errors"
	"fmt"
	"math"

	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

// PredictBookings returns K·x^n / (β^n + x^n), or 0 when spend <= 0. The result
// stays strictly below K for every finite spend; once the ratio rounds to 1 it
// pins at the largest float under K.
func PredictBookings(spend, k, beta, n float64) float64 {
	if spend <= 0 {
		return 0
	}
	xn := math.Pow(spend, n)
	if math.IsInf(xn, 1) {
		return math.Nextafter(k, 0)
	}
	bn := math.Pow(beta, n)
	// ratio primero: en x == β da exactamente 0.5
	y := k * (xn / (bn + xn))
	if math.IsNaN(y) || y >= k {
		return math.Nextafter(k, 0)
	}
	return y
}

// MarginalCPA returns the cost of the next booking, 1/(dy/dx), at the given spend.
// It returns 0 when spend <= 0 and +Inf when the derivative has vanished;
// callers must check math.IsInf before doing arithmetic with the result.
func MarginalCPA(spend, k, beta, n float64) float64 {
	if spend <= 0 {
		return 0
	}
	xn := math.Pow(spend, n)
	bn := math.Pow(beta, n)
	den := bn + xn
	dydx := k * n * bn * math.Pow(spend, n-1) / (den * den)
	if !(dydx > 0) {
		return math.Inf(1)
	}
	return 1 / dydx
}

var ErrInvalidParams = errors.New("invalid curve params")

// Params wraps the catalog record with curve helpers.
type Params models.ResponseCurveParams

func (p Params) Validate() error {
	if !(p.K > 0) || !(p.Beta > 0) || !(p.N > 0) {
		return fmt.Errorf("%w: office=%d channel=%s K=%v beta=%v n=%v", ErrInvalidParams, p.OfficeID, p.Channel, p.K, p.Beta, p.N)
	}
	if math.IsInf(p.K, 0) || math.IsInf(p.Beta, 0) || math.IsInf(p.N, 0) {
		return fmt.Errorf("%w: office=%d channel=%s non-finite", ErrInvalidParams, p.OfficeID, p.Channel)
	}
	return nil
}

func (p Params) Predict(spend float64) float64  { return PredictBookings(spend, p.K, p.Beta, p.N) }
func (p Params) Marginal(spend float64) float64 { return MarginalCPA(spend, p.K, p.Beta, p.N) }

// Point is one sample of the curve. MarginalCPA is nil where the marginal cost is infinite.
type Point struct {
	Spend       float64  `json:"spend"`
	Bookings    float64  `json:"bookings"`
	MarginalCPA *float64 `json:"marginalCPA"`
}

const DefaultSteps = 100

// Points samples steps+1 evenly spaced spends over [0, MaxSpend].
func (p Params) Points(steps int) []Point {
	if steps <= 0 {
		steps = DefaultSteps
	}
	out := make([]Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		x := p.MaxSpend / float64(steps) * float64(i)
		pt := Point{Spend: x, Bookings: p.Predict(x)}
		if m := p.Marginal(x); !math.IsInf(m, 0) {
			pt.MarginalCPA = &m
		}
		out = append(out, pt)
	}
	return out
}

// Position describes where a spend level sits on the curve.
type Position struct {
	Spend       float64  `json:"spend"`
	Bookings    float64  `json:"bookings"`
	MarginalCPA *float64 `json:"marginalCPA"`
	PastHalfSat bool     `json:"pastHalfSaturation"`
}

func (p Params) PositionAt(spend float64) Position {
	pos := Position{Spend: spend, Bookings: p.Predict(spend), PastHalfSat: spend > p.Beta}
	if m := p.Marginal(spend); !math.IsInf(m, 0) {
		pos.MarginalCPA = &m
	}
	return pos
}
