package store

import (
	"testing"
	"time"

	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

func rec(week string, office int, ch models.Channel, spend float64) models.WeeklyPerformanceRecord {
	d, _ := time.Parse("2006-01-02", week)
	return models.WeeklyPerformanceRecord{WeekStart: d, OfficeID: office, Channel: ch, Spend: spend}
}

func TestLoadIsIdempotent(t *testing.T) {
	st := NewMemoryStore()
	recs := []models.WeeklyPerformanceRecord{
		rec("2025-08-18", 1, models.Meta, 10),
		rec("2025-08-18", 1, models.GoogleSearch, 20),
	}
	if n := st.Load(recs); n != 2 {
		t.Fatalf("first load added %d", n)
	}
	if n := st.Load(recs); n != 0 {
		t.Fatalf("second load added %d", n)
	}
	if st.Len() != 2 {
		t.Fatalf("len = %d", st.Len())
	}
	if st.MarkSeen("2025-08-18|1|Meta") {
		t.Fatal("key should already be seen")
	}
}

func TestQueryBoundsAndFilter(t *testing.T) {
	st := NewMemoryStore()
	st.Load([]models.WeeklyPerformanceRecord{
		rec("2025-08-18", 1, models.Meta, 10),
		rec("2025-08-25", 1, models.Meta, 11),
		rec("2025-09-01", 2, models.Meta, 12),
	})
	from, _ := time.Parse("2006-01-02", "2025-08-25")
	got := st.Query(from, time.Time{}, nil)
	if len(got) != 2 {
		t.Fatalf("from filter len = %d", len(got))
	}
	got = st.Query(time.Time{}, from, nil)
	if len(got) != 2 {
		t.Fatalf("to filter len = %d", len(got))
	}
	if got := st.ForOffice(2); len(got) != 1 || got[0].Spend != 12 {
		t.Fatalf("office filter = %+v", got)
	}
	if w := st.Weeks(); len(w) != 3 || !w[0].Before(w[2]) {
		t.Fatalf("weeks = %v", w)
	}
}
