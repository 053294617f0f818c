package inventory

import (
	"errors"
	"fmt"
)

// Category is a closed set of labels an item can belong to. New members are a
// code change, not runtime data.
type Category string

const (
	CategoryTools       Category = "tools"
	CategoryConsumables Category = "consumables"
	CategoryParts       Category = "parts"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryTools, CategoryConsumables, CategoryParts:
		return true
	}
	return false
}

// Item is the core inventory record. Id is the store's primary key.
type Item struct {
	Id       int      `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Count    int      `json:"count"`
	Category Category `json:"category"`
}

// Validate checks an incoming item payload. Price is intentionally not
// range-checked here, only the bounds-checked update constrains it.
func (i *Item) Validate() error {
	if i.Name == "" {
		return errors.New("name cannot be empty")
	}
	if i.Count < 0 {
		return errors.New("count cannot be negative")
	}
	if !i.Category.IsValid() {
		return fmt.Errorf("unknown category %q", i.Category)
	}
	return nil
}

// ItemUpdate carries the fields of a partial update. A nil field means the
// caller did not supply it, not that it should be cleared.
type ItemUpdate struct {
	Name  *string  `json:"name" schema:"name"`
	Price *float64 `json:"price" schema:"price"`
	Count *int     `json:"count" schema:"count"`
}

func (u *ItemUpdate) Empty() bool {
	return u.Name == nil && u.Price == nil && u.Count == nil
}

// Apply writes the supplied fields onto the item and leaves the rest as they
// were. Category is not updatable.
func (u *ItemUpdate) Apply(item *Item) {
	if u.Name != nil {
		item.Name = *u.Name
	}
	if u.Price != nil {
		item.Price = *u.Price
	}
	if u.Count != nil {
		item.Count = *u.Count
	}
}

// ItemFilter selects items by exact equality on every supplied field. An
// empty filter matches everything.
type ItemFilter struct {
	Name     *string   `json:"name" schema:"name"`
	Price    *float64  `json:"price" schema:"price"`
	Count    *int      `json:"count" schema:"count"`
	Category *Category `json:"category" schema:"category"`
}

func (f *ItemFilter) Matches(item *Item) bool {
	if f.Name != nil && item.Name != *f.Name {
		return false
	}
	if f.Price != nil && item.Price != *f.Price {
		return false
	}
	if f.Count != nil && item.Count != *f.Count {
		return false
	}
	if f.Category != nil && item.Category != *f.Category {
		return false
	}
	return true
}
