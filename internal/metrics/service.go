// Package metrics rolls weekly records and office-level source rows up into the
// dashboard's trend, channel, office and portfolio figures.
package metrics

import (
	"log/slog"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AngelCh415/paidmedia-mmm/internal/models"
	"github.com/AngelCh415/paidmedia-mmm/internal/store"
)

type Service struct {
	st     *store.MemoryStore
	log    *slog.Logger
	onSkip func(source string, n int)
}

func NewService(st *store.MemoryStore, log *slog.Logger) *Service {
	return &Service{st: st, log: log}
}

// OnSkip registers a hook called with the number of invalid rows dropped per rollup.
func (s *Service) OnSkip(fn func(source string, n int)) { s.onSkip = fn }

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func csvSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, p := range strings.Split(s, ",") {
		p = norm(p)
		if p != "" {
			out[p] = struct{}{}
		}
	}
	return out
}

func (s *Service) skipped(source string, n int) {
	if n == 0 {
		return
	}
	s.log.Warn("rows skipped", slog.String("source", source), slog.Int("count", n))
	if s.onSkip != nil {
		s.onSkip(source, n)
	}
}

// ValidRecords filters out records that fail validation.
func (s *Service) ValidRecords(recs []models.WeeklyPerformanceRecord) ([]models.WeeklyPerformanceRecord, int) {
	out := make([]models.WeeklyPerformanceRecord, 0, len(recs))
	for _, r := range recs {
		if err := models.Validate(r); err != nil {
			s.log.Debug("invalid weekly record", slog.Int("office", r.OfficeID), slog.String("channel", string(r.Channel)), slog.String("err", err.Error()))
			continue
		}
		out = append(out, r)
	}
	return out, len(recs) - len(out)
}

func (s *Service) ValidRows(rows []models.SourceRow) ([]models.SourceRow, int) {
	out := make([]models.SourceRow, 0, len(rows))
	for _, r := range rows {
		if err := models.Validate(r); err != nil {
			s.log.Debug("invalid source row", slog.Int("office", r.OfficeID), slog.String("channel", string(r.Channel)), slog.String("err", err.Error()))
			continue
		}
		out = append(out, r)
	}
	return out, len(rows) - len(out)
}

// WeeklyTrends groups records by week. officeID 0 means every office.
func (s *Service) WeeklyTrends(recs []models.WeeklyPerformanceRecord, officeID int) []models.WeeklyTrend {
	if officeID != 0 {
		filtered := recs[:0:0]
		for _, r := range recs {
			if r.OfficeID == officeID {
				filtered = append(filtered, r)
			}
		}
		recs = filtered
	}
	valid, n := s.ValidRecords(recs)
	s.skipped("weekly", n)
	return weeklyTrends(valid)
}

type weekAcc struct {
	spend    float64
	bookings int
	capSum   float64
	n        int
	channels map[models.Channel]float64
}

func weeklyTrends(recs []models.WeeklyPerformanceRecord) []models.WeeklyTrend {
	byWeek := map[time.Time]*weekAcc{}
	for _, r := range recs {
		a, ok := byWeek[r.WeekStart]
		if !ok {
			a = &weekAcc{channels: map[models.Channel]float64{}}
			byWeek[r.WeekStart] = a
		}
		a.spend += r.Spend
		a.bookings += r.NewPatientBookings
		a.capSum += r.CapacityUtilization
		a.n++
		a.channels[r.Channel] += r.Spend
	}

	weeks := make([]time.Time, 0, len(byWeek))
	for w := range byWeek {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	out := make([]models.WeeklyTrend, 0, len(weeks))
	for _, w := range weeks {
		a := byWeek[w]
		out = append(out, models.WeeklyTrend{
			WeekStart:     w.Format("2006-01-02"),
			TotalSpend:    round2(a.spend),
			TotalBookings: a.bookings,
			AvgCPA:        round2(safeDivF(a.spend, float64(a.bookings))),
			CapacityUtil:  round2(safeDivF(a.capSum, float64(a.n))),
			ChannelSpend:  a.channels,
		})
	}
	return out
}

func (s *Service) Channels(rows []models.SourceRow) []models.ChannelSummary {
	valid, n := s.ValidRows(rows)
	s.skipped("channels", n)
	return channelRollup(valid)
}

func channelRollup(rows []models.SourceRow) []models.ChannelSummary {
	acc := map[models.Channel]*models.ChannelSummary{}
	var order []models.Channel
	for _, r := range rows {
		c, ok := acc[r.Channel]
		if !ok {
			c = &models.ChannelSummary{Channel: r.Channel.Label()}
			acc[r.Channel] = c
			order = append(order, r.Channel)
		}
		c.Spend += r.Spend
		c.Bookings += r.Bookings
		c.Conversions += r.ConversionsObserved
		c.ConversionsIncremental += r.ConversionsIncremental
	}
	// canales conocidos primero, en orden fijo; el resto en orden de aparicion
	rank := func(ch models.Channel) int {
		for i, k := range models.Channels {
			if k == ch {
				return i
			}
		}
		return len(models.Channels)
	}
	sort.SliceStable(order, func(i, j int) bool { return rank(order[i]) < rank(order[j]) })

	out := make([]models.ChannelSummary, 0, len(order))
	for _, ch := range order {
		c := acc[ch]
		c.Spend = round2(c.Spend)
		c.CPA = round2(safeDivF(c.Spend, c.ConversionsIncremental))
		out = append(out, *c)
	}
	return out
}

func (s *Service) Offices(rows []models.SourceRow) []models.OfficeSummary {
	valid, n := s.ValidRows(rows)
	s.skipped("offices", n)
	return officeRollup(valid)
}

func officeRollup(rows []models.SourceRow) []models.OfficeSummary {
	type acc struct {
		sum    models.OfficeSummary
		capSum float64
		n      int
	}
	byID := map[int]*acc{}
	for _, r := range rows {
		a, ok := byID[r.OfficeID]
		if !ok {
			a = &acc{sum: models.OfficeSummary{OfficeID: r.OfficeID, Name: ShortName(r.OfficeName)}}
			byID[r.OfficeID] = a
		}
		a.sum.Spend += r.Spend
		a.sum.Bookings += r.Bookings
		a.capSum += r.CapacityUtil
		a.n++
	}
	out := make([]models.OfficeSummary, 0, len(byID))
	for _, a := range byID {
		a.sum.Spend = round2(a.sum.Spend)
		a.sum.AvgCapacityUtil = a.capSum / float64(a.n)
		out = append(out, a.sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Spend != out[j].Spend {
			return out[i].Spend > out[j].Spend
		}
		return out[i].OfficeID < out[j].OfficeID
	})
	return out
}

// ShortName trims a practice name to the label used on the dashboard.
func ShortName(name string) string {
	n := strings.SplitN(name, " - ", 2)[0]
	n = strings.Replace(n, "Dental Care at ", "", 1)
	n = strings.Replace(n, " Dentistry", "", 1)
	if utf8.RuneCountInString(n) > 20 {
		r := []rune(n)
		n = string(r[:18]) + "..."
	}
	return n
}

// Portfolio computes the headline KPIs. horizonWeeks converts the summed bookings
// of the source into a weekly run-rate.
func (s *Service) Portfolio(rows []models.SourceRow, horizonWeeks int) models.PortfolioSummary {
	valid, n := s.ValidRows(rows)
	s.skipped("portfolio", n)
	return portfolio(valid, horizonWeeks)
}

func portfolio(rows []models.SourceRow, horizonWeeks int) models.PortfolioSummary {
	var weekly, spend, bookings, observed, incremental float64
	seen := map[int]struct{}{}
	for _, r := range rows {
		// el gasto semanal es un dato por oficina, repetido en cada fila de canal
		if _, ok := seen[r.OfficeID]; !ok {
			seen[r.OfficeID] = struct{}{}
			weekly += r.AvgWeeklySpend
		}
		spend += r.Spend
		bookings += r.Bookings
		observed += r.ConversionsObserved
		incremental += r.ConversionsIncremental
	}

	offices := officeRollup(rows)
	var capSum float64
	for _, o := range offices {
		capSum += o.AvgCapacityUtil
	}

	var runRate int
	if horizonWeeks > 0 {
		runRate = int(math.Floor(bookings/float64(horizonWeeks) + 0.5))
	}
	return models.PortfolioSummary{
		TotalWeeklySpend:    round2(weekly),
		TotalWeeklyBookings: runRate,
		AvgCPAObserved:      round2(safeDivF(spend, observed)),
		AvgCPAIncremental:   round2(safeDivF(spend, incremental)),
		AvgCapacityUtil:     safeDivF(capSum, float64(len(offices))),
	}
}

// KPIs validates once and assembles every rollup from the same valid rows.
func (s *Service) KPIs(rows []models.SourceRow, horizonWeeks int, source string) models.PerformanceKPIs {
	valid, n := s.ValidRows(rows)
	s.skipped(source, n)
	return models.PerformanceKPIs{
		Summary:  portfolio(valid, horizonWeeks),
		Channels: channelRollup(valid),
		Offices:  officeRollup(valid),
		Skipped:  n,
		Source:   source,
	}
}

// RowsFromWeekly folds the weekly series into one SourceRow per office x channel so
// the synthetic data feeds the same rollups as an ingested summary table.
func RowsFromWeekly(recs []models.WeeklyPerformanceRecord, offices []models.Office) []models.SourceRow {
	ref := make(map[int]models.Office, len(offices))
	for _, o := range offices {
		ref[o.OfficeID] = o
	}
	type key struct {
		office int
		ch     models.Channel
	}
	type acc struct {
		row    models.SourceRow
		capSum float64
		n      int
	}
	byKey := map[key]*acc{}
	var order []key
	weeks := map[int]map[time.Time]struct{}{}
	spendByOffice := map[int]float64{}
	for _, r := range recs {
		k := key{r.OfficeID, r.Channel}
		a, ok := byKey[k]
		if !ok {
			a = &acc{row: models.SourceRow{OfficeID: r.OfficeID, Channel: r.Channel}}
			byKey[k] = a
			order = append(order, k)
		}
		a.row.Spend += r.Spend
		a.row.ConversionsObserved += float64(r.ConversionsObserved)
		a.row.ConversionsIncremental += float64(r.ConversionsIncremental)
		a.row.Bookings += float64(r.NewPatientBookings)
		a.capSum += r.CapacityUtilization
		a.n++

		if weeks[r.OfficeID] == nil {
			weeks[r.OfficeID] = map[time.Time]struct{}{}
		}
		weeks[r.OfficeID][r.WeekStart] = struct{}{}
		spendByOffice[r.OfficeID] += r.Spend
	}

	out := make([]models.SourceRow, 0, len(order))
	for _, k := range order {
		a := byKey[k]
		row := a.row
		row.CapacityUtil = a.capSum / float64(a.n)
		if o, ok := ref[k.office]; ok {
			row.OfficeName = o.Name
			row.AvgWeeklySpend = o.AvgWeeklySpendTotal
		} else {
			row.OfficeName = "Office " + strconv.Itoa(k.office)
			row.AvgWeeklySpend = round2(safeDivF(spendByOffice[k.office], float64(len(weeks[k.office]))))
		}
		out = append(out, row)
	}
	return out
}

// QueryWeekly filters the stored series by office, channel and date range and
// returns one page plus the total match count.
func (s *Service) QueryWeekly(v url.Values) ([]models.WeeklyPerformanceRecord, int) {
	from, _ := time.Parse("2006-01-02", v.Get("from"))
	to, _ := time.Parse("2006-01-02", v.Get("to"))
	office := atoiDef(v.Get("office"), 0)
	chSet := csvSet(v.Get("channel"))
	limit := atoiDef(v.Get("limit"), 100)
	offset := atoiDef(v.Get("offset"), 0)

	recs := s.st.Query(from, to, func(r models.WeeklyPerformanceRecord) bool {
		if office != 0 && r.OfficeID != office {
			return false
		}
		if len(chSet) > 0 {
			_, byID := chSet[norm(string(r.Channel))]
			_, byLabel := chSet[norm(r.Channel.Label())]
			if !byID && !byLabel {
				return false
			}
		}
		return true
	})

	// orden determinista
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].WeekStart.Equal(recs[j].WeekStart) {
			return recs[i].WeekStart.Before(recs[j].WeekStart)
		}
		return recs[i].OfficeID < recs[j].OfficeID
	})

	limit, offset = ClampLimitOffset(limit, offset, len(recs))
	return Paginate(recs, limit, offset), len(recs)
}

// Trends serves the weekly trend rollup from the stored series.
func (s *Service) Trends(v url.Values) []models.WeeklyTrend {
	return s.WeeklyTrends(s.st.All(), atoiDef(v.Get("office"), 0))
}

// SyntheticKPIs rolls the stored series up; the run-rate horizon is the number of
// weeks in the series.
func (s *Service) SyntheticKPIs(offices []models.Office) models.PerformanceKPIs {
	rows := RowsFromWeekly(s.st.All(), offices)
	return s.KPIs(rows, len(s.st.Weeks()), "synthetic")
}

func Paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func ClampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > 1000 {
		limit = 1000
	} // tope sano
	if offset > n {
		offset = n
	}
	return limit, offset
}

func round2(f float64) float64 { return math.Floor(f*100+0.5) / 100 }

func safeDivF(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
