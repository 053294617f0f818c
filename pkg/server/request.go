package server

import (
	"fmt"
	"net/url"
	"unicode/utf8"

	"github.com/gorilla/schema"

	"github.com/matst80/slask-inventory/pkg/inventory"
)

const (
	minNameLength = 1
	maxNameLength = 8
)

// UpdateRequest is the decoded query-parameter form of a partial update.
// Pointer fields distinguish "not supplied" from a zero value.
type UpdateRequest struct {
	Name           *string  `schema:"name"`
	Price          *float64 `schema:"price"`
	Count          *int     `schema:"count"`
	ResponseReturn *bool    `schema:"response_return"`
}

// Update extracts the partial-update fields.
func (u *UpdateRequest) Update() *inventory.ItemUpdate {
	return &inventory.ItemUpdate{
		Name:  u.Name,
		Price: u.Price,
		Count: u.Count,
	}
}

// WantValue reports whether the response should include the updated item.
// Defaults to true when response_return is not supplied.
func (u *UpdateRequest) WantValue() bool {
	return u.ResponseReturn == nil || *u.ResponseReturn
}

// ValidateBounds applies the constraints of the bounds-checked update
// variant. It is called before any handler logic touches the store.
func (u *UpdateRequest) ValidateBounds(itemId int) error {
	if itemId < 0 {
		return fmt.Errorf("item_id must be greater than or equal to 0, got %d", itemId)
	}
	if u.Name != nil {
		// Character count, not byte count, so multibyte names are not
		// rejected early.
		if length := utf8.RuneCountInString(*u.Name); length < minNameLength || length > maxNameLength {
			return fmt.Errorf("name length must be between %d and %d characters", minNameLength, maxNameLength)
		}
	}
	if u.Price != nil && *u.Price <= 0 {
		return fmt.Errorf("price must be greater than 0, got %v", *u.Price)
	}
	if u.Count != nil && *u.Count < 0 {
		return fmt.Errorf("count must be greater than or equal to 0, got %d", *u.Count)
	}
	return nil
}

func updateFromRequestQuery(query url.Values, result *UpdateRequest) error {
	return decodeQuery(query, result)
}

func filterFromRequestQuery(query url.Values, result *inventory.ItemFilter) error {
	if err := decodeQuery(query, result); err != nil {
		return err
	}
	if result.Category != nil && !result.Category.IsValid() {
		return fmt.Errorf("unknown category %q", *result.Category)
	}
	return nil
}

func decodeQuery(query url.Values, dst any) error {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return decoder.Decode(dst, query)
}
