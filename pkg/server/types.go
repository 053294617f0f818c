package server

import "github.com/matst80/slask-inventory/pkg/inventory"

// ListResponse is the full store contents keyed by item id.
type ListResponse struct {
	Items map[int]inventory.Item `json:"items"`
}

// QueryResponse echoes the applied filter next to the matched items so a
// client can verify what was searched.
type QueryResponse struct {
	Query *inventory.ItemFilter `json:"query"`
	Items []inventory.Item      `json:"items"`
}

type CreateResponse struct {
	Created inventory.Item `json:"created"`
}

// MutationResponse carries a human-readable status and, when requested, the
// item the mutation produced or removed.
type MutationResponse struct {
	Status string          `json:"status"`
	Value  *inventory.Item `json:"value,omitempty"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}
