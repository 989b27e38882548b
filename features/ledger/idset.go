package ledger

import "slices"

// idSet is an insertion-ordered set of item ids.
type idSet struct {
	order []string
	index map[string]struct{}
}

func newIDSet(ids ...string) *idSet {
	s := &idSet{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *idSet) has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *idSet) add(id string) bool {
	if s.has(id) {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// retain keeps only ids present in keep and reports whether any were removed.
func (s *idSet) retain(keep map[string]struct{}) bool {
	before := len(s.order)
	s.order = slices.DeleteFunc(s.order, func(id string) bool {
		if _, ok := keep[id]; ok {
			return false
		}
		delete(s.index, id)
		return true
	})
	return len(s.order) != before
}

func (s *idSet) delete(id string) bool {
	if !s.has(id) {
		return false
	}
	delete(s.index, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return true
}

func (s *idSet) len() int { return len(s.order) }

func (s *idSet) ids() []string { return slices.Clone(s.order) }
