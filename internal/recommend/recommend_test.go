package recommend

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AngelCh415/paidmedia-mmm/internal/catalog"
	"github.com/AngelCh415/paidmedia-mmm/internal/curve"
	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

func TestClassifyInvestmentBoundaries(t *testing.T) {
	cases := []struct {
		util float64
		want models.InvestmentStatus
	}{
		{0.80, models.OverInvested},
		{0.88, models.OverInvested},
		{0.66, models.UnderInvested},
		{0.62, models.UnderInvested},
		{0.70, models.Optimal},
		{0.7999, models.Optimal},
		{0.6601, models.Optimal},
	}
	for _, c := range cases {
		if got := ClassifyInvestment(c.util); got != c.want {
			t.Errorf("ClassifyInvestment(%v) = %s want %s", c.util, got, c.want)
		}
	}
}

func TestComputeDeltaStCloud(t *testing.T) {
	p := curve.Params{OfficeID: 2372, Channel: models.GoogleSearch, K: 35, Beta: 5200, N: 2}
	d := ComputeDelta(p, 7199, 8200)
	if d.Delta != 1001 || d.ProjectedBookingsDelta != 2 {
		t.Fatalf("delta = %+v", d)
	}
	if d := ComputeDelta(p, 8200, 7199); d.Delta != -1001 || d.ProjectedBookingsDelta != -2 {
		t.Fatalf("reverse delta = %+v", d)
	}
}

func newBook(t *testing.T) (*Book, *catalog.Catalog) {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 2, 18, 9, 0, 0, 0, time.UTC)
	b := NewBook(Build(c, now), c.Curves)
	b.now = func() time.Time { return now.Add(time.Hour) }
	return b, c
}

func TestBuild(t *testing.T) {
	b, c := newBook(t)
	recs := b.List("")
	if len(recs) != len(c.Recommendations) {
		t.Fatalf("len = %d", len(recs))
	}
	r, ok := b.Get("rec-001")
	if !ok {
		t.Fatal("rec-001 missing")
	}
	if r.OfficeName != "St Cloud Dentistry" || r.Action != "increase" || r.ProjectedBookingsDelta != 2 || r.Status != models.StatusPending {
		t.Fatalf("rec-001 = %+v", r)
	}
	r4, _ := b.Get("rec-004")
	if r4.Action != "decrease" || r4.Delta >= 0 {
		t.Fatalf("rec-004 = %+v", r4)
	}
	if b.PendingCount() != len(recs) {
		t.Fatalf("pending = %d", b.PendingCount())
	}
}

func TestModifyThenApproveAll(t *testing.T) {
	b, _ := newBook(t)
	var seen []models.RecommendationStatus
	b.OnTransition(func(s models.RecommendationStatus) { seen = append(seen, s) })

	r, err := b.Modify("rec-001", 9000)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != models.StatusModified || r.RecommendedSpend != 9000 || r.Delta != 9000-7199 {
		t.Fatalf("modified = %+v", r)
	}
	if r.ProjectedBookingsDelta != 3 {
		t.Fatalf("projected = %d", r.ProjectedBookingsDelta)
	}

	n := b.ApproveAll()
	if n != 7 {
		t.Fatalf("approved %d", n)
	}
	r, _ = b.Get("rec-001")
	if r.Status != models.StatusModified || r.RecommendedSpend != 9000 {
		t.Fatalf("approveAll touched modified record: %+v", r)
	}
	if b.ApproveAll() != 0 || b.RejectAll() != 0 {
		t.Fatal("bulk actions should be idempotent")
	}
	if len(seen) != 8 || seen[0] != models.StatusModified {
		t.Fatalf("observed transitions = %v", seen)
	}
	if got := b.List(models.StatusApproved); len(got) != 7 {
		t.Fatalf("approved list = %d", len(got))
	}
}

func TestTerminalStates(t *testing.T) {
	b, _ := newBook(t)
	if _, err := b.Reject("rec-002"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Approve("rec-002"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("approve rejected: %v", err)
	}
	if _, err := b.Modify("rec-002", 100); !errors.Is(err, ErrNotPending) {
		t.Fatalf("modify rejected: %v", err)
	}
	if _, err := b.Approve("rec-999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id: %v", err)
	}
	if _, err := b.Modify("rec-003", -1); !errors.Is(err, ErrInvalidSpend) {
		t.Fatalf("negative spend: %v", err)
	}
	r, _ := b.Get("rec-003")
	if r.Status != models.StatusPending {
		t.Fatalf("invalid modify changed status to %s", r.Status)
	}
}

func TestConcurrentActionsAreAtomic(t *testing.T) {
	b, _ := newBook(t)
	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = b.Approve("rec-005")
			} else {
				_, err = b.Modify("rec-005", float64(1000*i))
			}
			if err == nil {
				ok.Add(1)
			}
		}(i)
	}
	wg.Wait()
	if ok.Load() != 1 {
		t.Fatalf("%d actions succeeded on one record", ok.Load())
	}
}

func TestByOffice(t *testing.T) {
	b, _ := newBook(t)
	if got := b.ByOffice(2372); len(got) != 3 {
		t.Fatalf("st cloud recs = %d", len(got))
	}
	if got := b.ByOffice(1484); len(got) != 0 {
		t.Fatalf("gateway recs = %d", len(got))
	}
}
