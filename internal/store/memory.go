package store

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

// MemoryStore keeps the weekly series in process memory. Nothing is persisted;
// a restart regenerates the same series from the seed.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.WeeklyPerformanceRecord
	seen    map[string]struct{} // idempotencia por (semana, oficina, canal)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func recordKey(r models.WeeklyPerformanceRecord) string {
	return r.WeekStart.Format("2006-01-02") + "|" + strconv.Itoa(r.OfficeID) + "|" + string(r.Channel)
}

// MarkSeen returns false when key was already recorded.
func (s *MemoryStore) MarkSeen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markSeenLocked(key)
}

func (s *MemoryStore) markSeenLocked(key string) bool {
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Load appends records, ignoring duplicates of an existing (week, office, channel).
// Returns how many were added.
func (s *MemoryStore) Load(recs []models.WeeklyPerformanceRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range recs {
		if !s.markSeenLocked(recordKey(r)) {
			continue
		}
		s.records = append(s.records, r)
		n++
	}
	return n
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) All() []models.WeeklyPerformanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.WeeklyPerformanceRecord(nil), s.records...)
}

// Query returns records whose week falls in [from, to]; zero bounds are open.
func (s *MemoryStore) Query(from, to time.Time, f func(models.WeeklyPerformanceRecord) bool) []models.WeeklyPerformanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.WeeklyPerformanceRecord
	for _, v := range s.records {
		if !from.IsZero() && v.WeekStart.Before(day(from)) {
			continue
		}
		if !to.IsZero() && v.WeekStart.After(day(to)) {
			continue
		}
		if f == nil || f(v) {
			out = append(out, v)
		}
	}
	return out
}

func (s *MemoryStore) ForOffice(officeID int) []models.WeeklyPerformanceRecord {
	return s.Query(time.Time{}, time.Time{}, func(r models.WeeklyPerformanceRecord) bool { return r.OfficeID == officeID })
}

// Weeks lists distinct week starts in ascending order.
func (s *MemoryStore) Weeks() []time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := map[time.Time]struct{}{}
	for _, r := range s.records {
		set[r.WeekStart] = struct{}{}
	}
	out := make([]time.Time, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
