package storage

import (
	"sort"
	"sync"

	"github.com/matst80/slask-inventory/pkg/inventory"
)

// ChangeHandler is notified after store mutations, outside the store lock.
// Used to fan out changes to replicas when rabbit sync is configured.
type ChangeHandler interface {
	ItemsUpserted(items []inventory.Item)
	ItemDeleted(id int)
}

// ChangeHandlers fans a change notification out to every attached handler.
type ChangeHandlers []ChangeHandler

func (h ChangeHandlers) ItemsUpserted(items []inventory.Item) {
	for _, handler := range h {
		handler.ItemsUpserted(items)
	}
}

func (h ChangeHandlers) ItemDeleted(id int) {
	for _, handler := range h {
		handler.ItemDeleted(id)
	}
}

// ItemStore holds the authoritative in-memory item set for the lifetime of
// the process. Every access goes through one lock and the raw map is never
// handed out to callers.
type ItemStore struct {
	mu            sync.RWMutex
	items         map[int]inventory.Item
	ChangeHandler ChangeHandler
}

func NewItemStore() *ItemStore {
	return &ItemStore{
		items: make(map[int]inventory.Item),
	}
}

// SeedItems is the fixed data the store starts with. All of it is lost on
// restart unless a disk snapshot overrides it.
func SeedItems() []inventory.Item {
	return []inventory.Item{
		{Id: 0, Name: "Hammer", Price: 9.99, Count: 20, Category: inventory.CategoryTools},
		{Id: 1, Name: "Widget", Price: 9.99, Count: 5, Category: inventory.CategoryTools},
		{Id: 2, Name: "Nails", Price: 1.99, Count: 100, Category: inventory.CategoryConsumables},
	}
}

func NewSeededStore() *ItemStore {
	store := NewItemStore()
	for _, item := range SeedItems() {
		store.items[item.Id] = item
	}
	return store
}

func (s *ItemStore) Get(id int) (inventory.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// Put inserts or overwrites the entry at item.Id. It performs no uniqueness
// check, callers that need one use Insert.
func (s *ItemStore) Put(item inventory.Item) {
	s.mu.Lock()
	s.items[item.Id] = item
	s.mu.Unlock()
	s.notifyUpserted(item)
}

// Insert adds the item only when its id is not taken yet. Returns false and
// leaves the store untouched on a duplicate id.
func (s *ItemStore) Insert(item inventory.Item) bool {
	s.mu.Lock()
	if _, exists := s.items[item.Id]; exists {
		s.mu.Unlock()
		return false
	}
	s.items[item.Id] = item
	s.mu.Unlock()
	s.notifyUpserted(item)
	return true
}

// Update applies fn to the item at id under the store lock, so concurrent
// partial updates cannot interleave. Returns the updated item copy.
func (s *ItemStore) Update(id int, fn func(*inventory.Item)) (inventory.Item, bool) {
	s.mu.Lock()
	item, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return inventory.Item{}, false
	}
	fn(&item)
	item.Id = id
	s.items[id] = item
	s.mu.Unlock()
	s.notifyUpserted(item)
	return item, true
}

// Remove deletes and returns the prior value if present.
func (s *ItemStore) Remove(id int) (inventory.Item, bool) {
	s.mu.Lock()
	item, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return inventory.Item{}, false
	}
	delete(s.items, id)
	s.mu.Unlock()
	if s.ChangeHandler != nil {
		s.ChangeHandler.ItemDeleted(id)
	}
	return item, true
}

// Items returns a snapshot of all items ordered by id. Insertion order
// carries no meaning, the sort just keeps responses stable.
func (s *ItemStore) Items() []inventory.Item {
	s.mu.RLock()
	items := make([]inventory.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	s.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool { return items[i].Id < items[j].Id })
	return items
}

// All returns a snapshot copy of the full mapping keyed by id.
func (s *ItemStore) All() map[int]inventory.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make(map[int]inventory.Item, len(s.items))
	for id, item := range s.items {
		items[id] = item
	}
	return items
}

func (s *ItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *ItemStore) notifyUpserted(items ...inventory.Item) {
	if s.ChangeHandler != nil {
		s.ChangeHandler.ItemsUpserted(items)
	}
}
