package models

import (
	"math"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(finiteRecord, WeeklyPerformanceRecord{})
	v.RegisterStructValidation(finiteRow, SourceRow{})
	return v
}

// Validate checks struct tags plus finiteness of the numeric fields.
func Validate(s any) error { return validate.Struct(s) }

func finiteRecord(sl validator.StructLevel) {
	r := sl.Current().Interface().(WeeklyPerformanceRecord)
	checkFinite(sl, map[string]float64{
		"Spend":               r.Spend,
		"CTR":                 r.CTR,
		"CPC":                 r.CPC,
		"CPAObserved":         r.CPAObserved,
		"CPAIncremental":      r.CPAIncremental,
		"AttributedRevenue":   r.AttributedRevenue,
		"CapacityUtilization": r.CapacityUtilization,
		"SeasonalityFactor":   r.SeasonalityFactor,
	})
}

func finiteRow(sl validator.StructLevel) {
	r := sl.Current().Interface().(SourceRow)
	checkFinite(sl, map[string]float64{
		"Spend":                  r.Spend,
		"ConversionsObserved":    r.ConversionsObserved,
		"ConversionsIncremental": r.ConversionsIncremental,
		"Bookings":               r.Bookings,
		"AvgWeeklySpend":         r.AvgWeeklySpend,
		"CapacityUtil":           r.CapacityUtil,
	})
}

func checkFinite(sl validator.StructLevel, fields map[string]float64) {
	for name, f := range fields {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			sl.ReportError(f, name, name, "finite", "")
		}
	}
}
