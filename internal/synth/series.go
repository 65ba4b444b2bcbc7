// Package synth generates the deterministic demo data that stands in for a real
// ingestion pipeline: weekly office x channel performance and a 7-day schedule.
package synth

import (
	"math"
	"time"

	"github.com/AngelCh415/paidmedia-mmm/internal/catalog"
	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

const (
	DefaultSeed  = 42
	DefaultWeeks = 26
)

// DefaultStart es el lunes 18 de agosto de 2025.
var DefaultStart = time.Date(2025, time.August, 18, 0, 0, 0, 0, time.UTC)

// seasonality por mes (enero = 0).
var seasonality = [12]float64{0.95, 0.98, 1.02, 1.05, 1.03, 0.97, 0.93, 0.95, 1.0, 1.08, 1.10, 0.88}

func Seasonality(m time.Month) float64 { return seasonality[int(m)-1] }

// GenerateWeekly builds weeks records per office x channel. The order of draws
// from rng is part of the output contract: capacity once per (office, week), then
// per channel variation, impressions, CTR, incrementality and revenue value.
func GenerateWeekly(rng *LCG, baselines []catalog.SeriesBaseline, start time.Time, weeks int) []models.WeeklyPerformanceRecord {
	if weeks <= 0 {
		return []models.WeeklyPerformanceRecord{}
	}
	out := make([]models.WeeklyPerformanceRecord, 0, len(baselines)*weeks*len(models.Channels))
	for _, b := range baselines {
		for w := 0; w < weeks; w++ {
			week := start.AddDate(0, 0, 7*w)
			season := Seasonality(week.Month())

			capacity := clamp(b.BaseCap+(rng.Next()-0.5)*0.08, 0.45, 0.95)

			for _, ch := range models.Channels {
				variation := 0.85 + rng.Next()*0.30
				spend := jsRound(b.Spend[ch] * variation * season)
				impressions := jsRound(spend * (15 + rng.Next()*10))
				ctr := 0.02 + rng.Next()*0.04
				clicks := jsRound(impressions * ctr)
				bookings := math.Max(1, jsRound(b.Bookings[ch]*variation*season))
				rate := 0.5 + rng.Next()*0.4
				incr := math.Max(1, jsRound(bookings*rate))
				revenue := bookings * (800 + rng.Next()*400)

				out = append(out, models.WeeklyPerformanceRecord{
					WeekStart:              week,
					OfficeID:               b.OfficeID,
					Channel:                ch,
					Spend:                  spend,
					Impressions:            int(impressions),
					Clicks:                 int(clicks),
					CTR:                    roundN(ctr, 4),
					CPC:                    roundN(safeDivF(spend, clicks), 2),
					ConversionsObserved:    int(bookings),
					ConversionsIncremental: int(incr),
					IncrementalityRate:     roundN(rate, 2),
					CPAObserved:            roundN(safeDivF(spend, bookings), 2),
					CPAIncremental:         roundN(safeDivF(spend, incr), 2),
					NewPatientBookings:     int(bookings),
					AttributedRevenue:      jsRound(revenue),
					CapacityUtilization:    roundN(capacity, 2),
					SeasonalityFactor:      season,
				})
			}
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

// jsRound redondea mitades hacia +inf.
func jsRound(f float64) float64 { return math.Floor(f + 0.5) }

func roundN(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return jsRound(f*p) / p
}

func safeDivF(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
