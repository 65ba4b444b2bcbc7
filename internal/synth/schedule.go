package synth

import (
	"time"

	"github.com/AngelCh415/paidmedia-mmm/internal/catalog"
	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

const (
	DefaultScheduleSeed = 123
	DefaultScheduleDays = 7
)

var DefaultScheduleStart = time.Date(2026, time.February, 18, 0, 0, 0, 0, time.UTC)

// GenerateSchedule builds the per-day appointment book for each office.
func GenerateSchedule(rng *LCG, baselines []catalog.ScheduleBaseline, start time.Time, days int) []models.ScheduleSlot {
	if days <= 0 {
		return []models.ScheduleSlot{}
	}
	out := make([]models.ScheduleSlot, 0, len(baselines)*days)
	for _, b := range baselines {
		for d := 0; d < days; d++ {
			date := start.AddDate(0, 0, d)
			effective := clamp(b.Capacity+(rng.Next()-0.5)*0.1, 0.4, 0.95)
			booked := int(jsRound(float64(b.DailySlots) * effective))
			open := b.DailySlots - booked
			if open < 0 {
				open = 0
			}
			out = append(out, models.ScheduleSlot{
				OfficeID:    b.OfficeID,
				Date:        date.Format("2006-01-02"),
				TotalSlots:  b.DailySlots,
				BookedSlots: booked,
				OpenSlots:   open,
			})
		}
	}
	return out
}

// OpenSlots suma los huecos libres de una oficina en el horizonte generado.
func OpenSlots(schedule []models.ScheduleSlot, officeID int) int {
	n := 0
	for _, s := range schedule {
		if s.OfficeID == officeID {
			n += s.OpenSlots
		}
	}
	return n
}

func ForOffice(schedule []models.ScheduleSlot, officeID int) []models.ScheduleSlot {
	var out []models.ScheduleSlot
	for _, s := range schedule {
		if s.OfficeID == officeID {
			out = append(out, s)
		}
	}
	return out
}
