// Package recommend turns response-curve state into budget recommendations and
// tracks their approve/reject/modify lifecycle.
package recommend

import (
	"math"
	"time"

	"github.com/AngelCh415/paidmedia-mmm/internal/catalog"
	"github.com/AngelCh415/paidmedia-mmm/internal/curve"
	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

// umbrales de capacidad, ambos inclusivos
const (
	OverInvestedAt  = 0.80
	UnderInvestedAt = 0.66
)

func ClassifyInvestment(util float64) models.InvestmentStatus {
	switch {
	case util >= OverInvestedAt:
		return models.OverInvested
	case util <= UnderInvestedAt:
		return models.UnderInvested
	}
	return models.Optimal
}

type Delta struct {
	Delta                  float64 `json:"delta"`
	ProjectedBookingsDelta int     `json:"projectedBookingsDelta"`
}

// ComputeDelta projects the booking change of moving from current to recommended
// spend along p's curve, rounded to whole bookings.
func ComputeDelta(p curve.Params, current, recommended float64) Delta {
	diff := p.Predict(recommended) - p.Predict(current)
	return Delta{
		Delta:                  recommended - current,
		ProjectedBookingsDelta: int(math.Floor(diff + 0.5)),
	}
}

func action(delta float64) string {
	switch {
	case delta > 0:
		return "increase"
	case delta < 0:
		return "decrease"
	}
	return "maintain"
}

// Build creates the initial pending recommendations from the catalog candidates.
// A candidate without a curve keeps a zero booking projection.
func Build(c *catalog.Catalog, now time.Time) []models.Recommendation {
	out := make([]models.Recommendation, 0, len(c.Recommendations))
	for _, cand := range c.Recommendations {
		r := models.Recommendation{
			RecID:            cand.ID,
			OfficeID:         cand.OfficeID,
			Channel:          cand.Channel,
			CurrentSpend:     cand.CurrentSpend,
			RecommendedSpend: cand.RecommendedSpend,
			Delta:            cand.RecommendedSpend - cand.CurrentSpend,
			Confidence:       cand.Confidence,
			Rationale:        cand.Rationale,
			Status:           models.StatusPending,
			Timestamp:        now,
		}
		if o, ok := c.Office(cand.OfficeID); ok {
			r.OfficeName = o.Name
		}
		if p, ok := c.Curve(cand.OfficeID, cand.Channel); ok {
			d := ComputeDelta(curve.Params(p), cand.CurrentSpend, cand.RecommendedSpend)
			r.Delta, r.ProjectedBookingsDelta = d.Delta, d.ProjectedBookingsDelta
		}
		r.Action = action(r.Delta)
		out = append(out, r)
	}
	return out
}
