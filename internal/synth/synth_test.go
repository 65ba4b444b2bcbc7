package synth

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/AngelCh415/paidmedia-mmm/internal/catalog"
	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

func TestLCGSequence(t *testing.T) {
	g := NewLCG(42)
	v := g.Next()
	if g.State() != 705894 {
		t.Fatalf("state after 1 draw = %d", g.State())
	}
	if want := 705893.0 / 2147483646.0; v != want {
		t.Fatalf("first draw = %v want %v", v, want)
	}
	g.Next()
	if g.State() != 1126542223 {
		t.Fatalf("state after 2 draws = %d", g.State())
	}
}

func TestLCGRange(t *testing.T) {
	for _, seed := range []int64{1, 42, 123, 0, -7, 2147483647} {
		g := NewLCG(seed)
		for i := 0; i < 10000; i++ {
			v := g.Next()
			if v < 0 || v >= 1 {
				t.Fatalf("seed %d draw %d out of range: %v", seed, i, v)
			}
		}
	}
}

func baselines(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestGenerateWeeklyDeterministic(t *testing.T) {
	c := baselines(t)
	a := GenerateWeekly(NewLCG(DefaultSeed), c.Series, DefaultStart, DefaultWeeks)
	b := GenerateWeekly(NewLCG(DefaultSeed), c.Series, DefaultStart, DefaultWeeks)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different series (-a +b):\n%s", diff)
	}
	other := GenerateWeekly(NewLCG(7), c.Series, DefaultStart, DefaultWeeks)
	if cmp.Equal(a, other) {
		t.Fatal("different seeds produced identical series")
	}
}

func TestGenerateWeeklyIndependentGenerators(t *testing.T) {
	c := baselines(t)
	// dos generadores intercalados no se contaminan
	g1, g2 := NewLCG(DefaultSeed), NewLCG(DefaultSeed)
	first := GenerateWeekly(g1, c.Series[:1], DefaultStart, 4)
	_ = GenerateWeekly(NewLCG(99), c.Series, DefaultStart, 4)
	second := GenerateWeekly(g2, c.Series[:1], DefaultStart, 4)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("interleaved generation differs:\n%s", diff)
	}
}

func TestGenerateWeeklyShapeAndInvariants(t *testing.T) {
	c := baselines(t)
	recs := GenerateWeekly(NewLCG(DefaultSeed), c.Series, DefaultStart, DefaultWeeks)
	if want := len(c.Series) * DefaultWeeks * len(models.Channels); len(recs) != want {
		t.Fatalf("len = %d want %d", len(recs), want)
	}
	if !recs[0].WeekStart.Equal(DefaultStart) {
		t.Fatalf("first week = %v", recs[0].WeekStart)
	}
	if recs[0].Channel != models.GoogleSearch || recs[1].Channel != models.Meta || recs[2].Channel != models.GoogleProgrammatic {
		t.Fatalf("channel order = %s %s %s", recs[0].Channel, recs[1].Channel, recs[2].Channel)
	}
	byOffice := map[int]catalog.SeriesBaseline{}
	for _, b := range c.Series {
		byOffice[b.OfficeID] = b
	}
	for i, r := range recs {
		if r.ConversionsIncremental > r.ConversionsObserved {
			t.Fatalf("rec %d incremental %d > observed %d", i, r.ConversionsIncremental, r.ConversionsObserved)
		}
		if r.ConversionsIncremental < 1 || r.ConversionsObserved < 1 {
			t.Fatalf("rec %d conversions below floor: %+v", i, r)
		}
		if r.Spend < 0 || r.Impressions < 0 || r.Clicks < 0 || r.AttributedRevenue < 0 {
			t.Fatalf("rec %d negative field: %+v", i, r)
		}
		if r.CapacityUtilization < 0.45 || r.CapacityUtilization > 0.95 {
			t.Fatalf("rec %d capacity %v", i, r.CapacityUtilization)
		}
		if r.SeasonalityFactor != Seasonality(r.WeekStart.Month()) {
			t.Fatalf("rec %d seasonality %v for %s", i, r.SeasonalityFactor, r.WeekStart.Month())
		}
		base := byOffice[r.OfficeID].Spend[r.Channel] * r.SeasonalityFactor
		if r.Spend < base*0.85-1 || r.Spend > base*1.15+1 {
			t.Fatalf("rec %d spend %v outside band of base %v", i, r.Spend, base)
		}
		if r.CTR < 0.02 || r.CTR > 0.06 {
			t.Fatalf("rec %d ctr %v", i, r.CTR)
		}
	}
	// capacidad compartida por los tres canales de la misma semana
	if recs[0].CapacityUtilization != recs[1].CapacityUtilization || recs[1].CapacityUtilization != recs[2].CapacityUtilization {
		t.Fatal("capacity should be one draw per office-week")
	}
}

func TestSeasonalityTable(t *testing.T) {
	if Seasonality(time.December) != 0.88 || Seasonality(time.November) != 1.10 || Seasonality(time.January) != 0.95 {
		t.Fatal("seasonality table mismatch")
	}
}

func TestGenerateSchedule(t *testing.T) {
	c := baselines(t)
	s := GenerateSchedule(NewLCG(DefaultScheduleSeed), c.Schedule, DefaultScheduleStart, DefaultScheduleDays)
	if len(s) != len(c.Schedule)*DefaultScheduleDays {
		t.Fatalf("len = %d", len(s))
	}
	if s[0].Date != "2026-02-18" || s[6].Date != "2026-02-24" {
		t.Fatalf("dates = %s .. %s", s[0].Date, s[6].Date)
	}
	for _, slot := range s {
		if slot.OpenSlots < 0 || slot.BookedSlots+slot.OpenSlots != slot.TotalSlots {
			t.Fatalf("bad slot %+v", slot)
		}
	}
	for _, b := range c.Schedule {
		n := OpenSlots(s, b.OfficeID)
		if n <= 0 || n > b.DailySlots*DefaultScheduleDays {
			t.Fatalf("office %d open slots %d", b.OfficeID, n)
		}
		if got := len(ForOffice(s, b.OfficeID)); got != DefaultScheduleDays {
			t.Fatalf("office %d days %d", b.OfficeID, got)
		}
	}
	again := GenerateSchedule(NewLCG(DefaultScheduleSeed), c.Schedule, DefaultScheduleStart, DefaultScheduleDays)
	if diff := cmp.Diff(s, again); diff != "" {
		t.Fatalf("schedule not deterministic:\n%s", diff)
	}
}

func TestGenerateNonPositiveLength(t *testing.T) {
	c := baselines(t)
	for _, n := range []int{0, -1, -26} {
		rng := NewLCG(DefaultSeed)
		if got := GenerateWeekly(rng, c.Series, DefaultStart, n); got == nil || len(got) != 0 {
			t.Fatalf("weeks=%d: %v", n, got)
		}
		if got := GenerateSchedule(rng, c.Schedule, DefaultScheduleStart, n); got == nil || len(got) != 0 {
			t.Fatalf("days=%d: %v", n, got)
		}
		// no draws consumed
		if got, want := rng.Next(), NewLCG(DefaultSeed).Next(); got != want {
			t.Fatalf("rng advanced: %v != %v", got, want)
		}
	}
}
