package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Source used for tests, previews and demos.
type MemoryStore struct {
	mu          sync.RWMutex
	products    map[int64]*Product
	users       map[int64]*User
	orders      map[int64]*Order
	meta        map[Kind]map[int64]map[string]any
	terms       map[int64]*Term
	productTerm map[int64][]int64
	attachments map[int64]string
	items       map[int64][]LineItem
	notes       map[int64][]Note
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:    make(map[int64]*Product),
		users:       make(map[int64]*User),
		orders:      make(map[int64]*Order),
		meta:        map[Kind]map[int64]map[string]any{KindProduct: {}, KindUser: {}, KindOrder: {}},
		terms:       make(map[int64]*Term),
		productTerm: make(map[int64][]int64),
		attachments: make(map[int64]string),
		items:       make(map[int64][]LineItem),
		notes:       make(map[int64][]Note),
	}
}

func (s *MemoryStore) AddProduct(p Product, termIDs ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
	s.productTerm[p.ID] = append(s.productTerm[p.ID], termIDs...)
}

func (s *MemoryStore) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

func (s *MemoryStore) AddOrder(o Order, items []LineItem, notes []Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = &o
	s.items[o.ID] = items
	s.notes[o.ID] = notes
}

func (s *MemoryStore) AddTerm(t Term) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms[t.ID] = &t
}

func (s *MemoryStore) AddAttachment(id int64, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments[id] = url
}

func (s *MemoryStore) SetMeta(kind Kind, id int64, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meta[kind][id] == nil {
		s.meta[kind][id] = make(map[string]any)
	}
	s.meta[kind][id][key] = value
}

// Delete removes a record, simulating deletion between resolution and processing.
func (s *MemoryStore) Delete(kind Kind, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case KindProduct:
		delete(s.products, id)
	case KindUser:
		delete(s.users, id)
	case KindOrder:
		delete(s.orders, id)
	}
	delete(s.meta[kind], id)
}

func dateOf(col DateColumn, created, modified time.Time) time.Time {
	if col == DateModified {
		return modified
	}
	return created
}

func sortedKeys[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func limitIDs(ids []int64, limit int) []int64 {
	if limit > 0 && len(ids) > limit {
		return ids[:limit]
	}
	return ids
}

func (s *MemoryStore) ProductIDs(_ context.Context, q ProductQuery) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := []int64{}
	for _, id := range sortedKeys(s.products) {
		p := s.products[id]
		if p.IsVariation() {
			continue
		}
		if restricts(q.Types) && !contains(q.Types, p.Type) {
			continue
		}
		if !statusVisible(p.Status, q.Statuses) {
			continue
		}
		if q.Dates != nil && !q.Dates.Contains(dateOf(q.Dates.Column, p.CreatedAt, p.ModifiedAt)) {
			continue
		}
		ids = append(ids, id)
	}
	return limitIDs(ids, q.Limit), nil
}

func (s *MemoryStore) VariationIDs(_ context.Context, q VariationQuery) ([]Variation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	parents := make(map[int64]bool, len(q.ParentIDs))
	for _, id := range q.ParentIDs {
		parents[id] = true
	}
	out := []Variation{}
	for _, id := range sortedKeys(s.products) {
		p := s.products[id]
		if !p.IsVariation() || !parents[p.ParentID] {
			continue
		}
		if !statusVisible(p.Status, q.Statuses) {
			continue
		}
		if q.Dates != nil && !q.Dates.Contains(dateOf(q.Dates.Column, p.CreatedAt, p.ModifiedAt)) {
			continue
		}
		out = append(out, Variation{ID: p.ID, ParentID: p.ParentID})
	}
	return out, nil
}

func (s *MemoryStore) UserIDs(_ context.Context, q UserQuery) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := []int64{}
	for _, id := range sortedKeys(s.users) {
		u := s.users[id]
		if restricts(q.Roles) && !anyOf(u.Roles, q.Roles) {
			continue
		}
		if q.Dates != nil && !q.Dates.Contains(u.RegisteredAt) {
			continue
		}
		ids = append(ids, id)
	}
	return limitIDs(ids, q.Limit), nil
}

func (s *MemoryStore) OrderIDs(_ context.Context, q OrderQuery) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := []int64{}
	for _, id := range sortedKeys(s.orders) {
		o := s.orders[id]
		if !statusVisible(o.Status, q.Statuses) {
			continue
		}
		if q.Dates != nil && !q.Dates.Contains(o.CreatedAt) {
			continue
		}
		ids = append(ids, id)
	}
	return limitIDs(ids, q.Limit), nil
}

func anyOf(have, want []string) bool {
	for _, h := range have {
		if contains(want, h) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Product(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) User(_ context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	return &cp, nil
}

func (s *MemoryStore) Order(_ context.Context, id int64) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *MemoryStore) Meta(_ context.Context, kind Kind, id int64, key string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.meta[kind][id][key]
	return v, ok, nil
}

func (s *MemoryStore) Terms(_ context.Context, productID int64, taxonomy string) ([]Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Term
	for _, tid := range s.productTerm[productID] {
		if t, ok := s.terms[tid]; ok && t.Taxonomy == taxonomy {
			out = append(out, *t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Term(_ context.Context, id int64) (*Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.terms[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) AttachmentURL(_ context.Context, id int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	url, ok := s.attachments[id]
	if !ok {
		return "", ErrNotFound
	}
	return url, nil
}

func (s *MemoryStore) LineItems(_ context.Context, orderID int64) ([]LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]LineItem(nil), s.items[orderID]...), nil
}

func (s *MemoryStore) Notes(_ context.Context, orderID int64) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Note(nil), s.notes[orderID]...), nil
}

func (s *MemoryStore) SampleIDs(ctx context.Context, kind Kind, limit int) ([]int64, error) {
	s.mu.RLock()
	var ids []int64
	switch kind {
	case KindProduct:
		for _, id := range sortedKeys(s.products) {
			if !s.products[id].IsVariation() {
				ids = append(ids, id)
			}
		}
	case KindUser:
		ids = sortedKeys(s.users)
	case KindOrder:
		ids = sortedKeys(s.orders)
	}
	s.mu.RUnlock()
	return limitIDs(ids, limit), nil
}

func (s *MemoryStore) MetaKeys(_ context.Context, kind Kind, ids []int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	keys := []string{}
	for _, id := range ids {
		for k := range s.meta[kind][id] {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Taxonomies(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	out := []string{}
	for _, t := range s.terms {
		if !seen[t.Taxonomy] {
			seen[t.Taxonomy] = true
			out = append(out, t.Taxonomy)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) HasVariations(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.IsVariation() {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ProductTypes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	out := []string{}
	for _, p := range s.products {
		if p.IsVariation() || !listedProductStatuses[p.Status] || seen[p.Type] {
			continue
		}
		seen[p.Type] = true
		out = append(out, p.Type)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) UserRoles(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	out := []string{}
	for _, u := range s.users {
		for _, r := range u.Roles {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) OrderStatusCounts(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[string]int{}
	for _, o := range s.orders {
		if hiddenStatuses[o.Status] {
			continue
		}
		counts[o.Status]++
	}
	return counts, nil
}
