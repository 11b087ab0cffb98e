package dedupe

import "container/list"

// MemoryStore is an in-process set of seen identities.
// With a zero limit it grows for the lifetime of the process. A positive limit evicts the
// oldest identity once the set is full.
type MemoryStore struct {
	limit int
	ids   map[string]*list.Element
	order *list.List
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit < 0 {
		limit = 0
	}
	return &MemoryStore{
		limit: limit,
		ids:   make(map[string]*list.Element),
		order: list.New(),
	}
}

func (s *MemoryStore) HasSeen(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *MemoryStore) MarkSeen(id string) {
	if _, ok := s.ids[id]; ok {
		return
	}
	s.ids[id] = s.order.PushBack(id)
	if s.limit > 0 && s.order.Len() > s.limit {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.ids, oldest.Value.(string))
	}
}

func (s *MemoryStore) Len() int {
	return len(s.ids)
}
