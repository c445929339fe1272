package table

import (
	"slices"
	"sync"

	"github.com/Mujanati13/xcite/internal/models"
)

// Selection is the set of checked property ids. Only eligible rows are ever added.
// Eligibility is derived from the rows passed to each call and never cached.
type Selection struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[int64]struct{})}
}

// Toggle flips membership of id. Rows that are missing or not eligible are ignored.
func (s *Selection) Toggle(id int64, rows []models.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(rows, func(p models.Property) bool { return p.ID == id })
	if i < 0 || !rows[i].Eligible() {
		return
	}
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// SelectAllEligible selects exactly the eligible rows, or clears the selection
// when it already equals that set.
func (s *Selection) SelectAllEligible(rows []models.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eligible := eligibleIDs(rows)
	if len(eligible) > 0 && s.equals(eligible) {
		s.ids = make(map[int64]struct{})
		return
	}
	s.ids = make(map[int64]struct{}, len(eligible))
	for _, id := range eligible {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[int64]struct{})
}

func (s *Selection) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s *Selection) equals(ids []int64) bool {
	if len(ids) != len(s.ids) {
		return false
	}
	for _, id := range ids {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

func eligibleIDs(rows []models.Property) []int64 {
	out := make([]int64, 0, len(rows))
	for _, p := range rows {
		if p.Eligible() {
			out = append(out, p.ID)
		}
	}
	return out
}
