package recommend

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/AngelCh415/paidmedia-mmm/internal/curve"
	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

var (
	ErrNotFound     = errors.New("recommendation not found")
	ErrNotPending   = errors.New("recommendation already actioned")
	ErrInvalidSpend = errors.New("invalid spend")
)

type curveKey struct {
	office int
	ch     models.Channel
}

// Book owns the recommendation collection. Every action is one read-modify-write
// under the mutex; callers only ever see copies.
type Book struct {
	mu     sync.Mutex
	recs   []models.Recommendation
	idx    map[string]int
	curves map[curveKey]curve.Params

	now     func() time.Time
	observe func(models.RecommendationStatus)
}

func NewBook(recs []models.Recommendation, curves []models.ResponseCurveParams) *Book {
	b := &Book{
		recs:   append([]models.Recommendation(nil), recs...),
		idx:    make(map[string]int, len(recs)),
		curves: make(map[curveKey]curve.Params, len(curves)),
		now:    time.Now,
	}
	for i, r := range b.recs {
		b.idx[r.RecID] = i
	}
	for _, p := range curves {
		b.curves[curveKey{p.OfficeID, p.Channel}] = curve.Params(p)
	}
	return b
}

// OnTransition registers a hook called once per status change.
func (b *Book) OnTransition(fn func(models.RecommendationStatus)) {
	b.mu.Lock()
	b.observe = fn
	b.mu.Unlock()
}

func (b *Book) Approve(id string) (models.Recommendation, error) {
	return b.transition(id, models.StatusApproved, nil)
}

func (b *Book) Reject(id string) (models.Recommendation, error) {
	return b.transition(id, models.StatusRejected, nil)
}

// Modify replaces the recommended spend and recomputes the delta against the
// original current spend.
func (b *Book) Modify(id string, newSpend float64) (models.Recommendation, error) {
	if math.IsNaN(newSpend) || math.IsInf(newSpend, 0) || newSpend < 0 {
		return models.Recommendation{}, fmt.Errorf("%w: %v", ErrInvalidSpend, newSpend)
	}
	return b.transition(id, models.StatusModified, func(r *models.Recommendation) {
		r.RecommendedSpend = newSpend
		r.Delta = newSpend - r.CurrentSpend
		if p, ok := b.curves[curveKey{r.OfficeID, r.Channel}]; ok {
			r.ProjectedBookingsDelta = ComputeDelta(p, r.CurrentSpend, newSpend).ProjectedBookingsDelta
		}
		r.Action = action(r.Delta)
	})
}

func (b *Book) transition(id string, to models.RecommendationStatus, mutate func(*models.Recommendation)) (models.Recommendation, error) {
	b.mu.Lock()
	i, ok := b.idx[id]
	if !ok {
		b.mu.Unlock()
		return models.Recommendation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r := &b.recs[i]
	if r.Status != models.StatusPending {
		st := r.Status
		b.mu.Unlock()
		return models.Recommendation{}, fmt.Errorf("%w: %s is %s", ErrNotPending, id, st)
	}
	if mutate != nil {
		mutate(r)
	}
	r.Status = to
	r.Timestamp = b.now()
	out, obs := *r, b.observe
	b.mu.Unlock()

	if obs != nil {
		obs(to)
	}
	return out, nil
}

func (b *Book) ApproveAll() int { return b.bulk(models.StatusApproved) }
func (b *Book) RejectAll() int  { return b.bulk(models.StatusRejected) }

// bulk only touches pending records, so repeating it is a no-op.
func (b *Book) bulk(to models.RecommendationStatus) int {
	b.mu.Lock()
	n := 0
	now := b.now()
	for i := range b.recs {
		if b.recs[i].Status != models.StatusPending {
			continue
		}
		b.recs[i].Status = to
		b.recs[i].Timestamp = now
		n++
	}
	obs := b.observe
	b.mu.Unlock()

	if obs != nil {
		for i := 0; i < n; i++ {
			obs(to)
		}
	}
	return n
}

// List returns recommendations with the given status; empty status means all.
func (b *Book) List(status models.RecommendationStatus) []models.Recommendation {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Recommendation, 0, len(b.recs))
	for _, r := range b.recs {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

func (b *Book) Get(id string) (models.Recommendation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.idx[id]
	if !ok {
		return models.Recommendation{}, false
	}
	return b.recs[i], true
}

func (b *Book) ByOffice(officeID int) []models.Recommendation {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Recommendation
	for _, r := range b.recs {
		if r.OfficeID == officeID {
			out = append(out, r)
		}
	}
	return out
}

func (b *Book) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.recs {
		if r.Status == models.StatusPending {
			n++
		}
	}
	return n
}
