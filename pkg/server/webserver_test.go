package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matst80/slask-inventory/pkg/inventory"
	"github.com/matst80/slask-inventory/pkg/storage"
)

var _ storage.ChangeHandler = &ListCacheInvalidator{}

func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func newTestServer() (*WebServer, *http.ServeMux) {
	ws := &WebServer{Store: storage.NewSeededStore()}
	return ws, ws.Handle()
}

func doRequest(t *testing.T, mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return out
}

func TestListItems(t *testing.T) {
	_, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	resp := decodeBody[ListResponse](t, rr)
	if len(resp.Items) != 3 {
		t.Errorf("Expected 3 seed items, got %d", len(resp.Items))
	}
	if resp.Items[1].Name != "Widget" {
		t.Errorf("Expected item 1 to be Widget, got %+v", resp.Items[1])
	}
}

func TestGetItem(t *testing.T) {
	_, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodGet, "/items/1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	item := decodeBody[inventory.Item](t, rr)
	want := inventory.Item{Id: 1, Name: "Widget", Price: 9.99, Count: 5, Category: inventory.CategoryTools}
	if item != want {
		t.Errorf("Expected seed item %+v, got %+v", want, item)
	}
}

func TestGetItemNotFound(t *testing.T) {
	_, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodGet, "/items/999", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rr.Code)
	}
	resp := decodeBody[ErrorResponse](t, rr)
	if !strings.Contains(resp.Detail, "999") {
		t.Errorf("Expected detail to mention id 999, got %q", resp.Detail)
	}
}

func TestAddItemRoundTrip(t *testing.T) {
	_, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodPost, "/", `{"id":3,"name":"Gadget","price":3.5,"count":10,"category":"tools"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decodeBody[CreateResponse](t, rr)
	if created.Created.Name != "Gadget" {
		t.Errorf("Expected created item Gadget, got %+v", created.Created)
	}

	rr = doRequest(t, mux, http.MethodGet, "/items/3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 after create, got %d", rr.Code)
	}
	item := decodeBody[inventory.Item](t, rr)
	if item != created.Created {
		t.Errorf("Expected round-trip equality, created %+v got %+v", created.Created, item)
	}
}

func TestAddItemDuplicateId(t *testing.T) {
	ws, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodPost, "/", `{"id":1,"name":"Impostor","price":1,"count":1,"category":"tools"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 for duplicate id, got %d", rr.Code)
	}
	resp := decodeBody[ErrorResponse](t, rr)
	if !strings.Contains(resp.Detail, "already exists") {
		t.Errorf("Expected conflict detail, got %q", resp.Detail)
	}
	item, _ := ws.Store.Get(1)
	if item.Name != "Widget" {
		t.Errorf("Expected conflicting create to leave the store untouched, got %+v", item)
	}
}

func TestAddItemInvalidPayloads(t *testing.T) {
	_, mux := newTestServer()
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "malformed json", body: `{id:3}`, wantCode: http.StatusBadRequest},
		{name: "empty name", body: `{"id":3,"name":"","price":1,"count":1,"category":"tools"}`, wantCode: http.StatusUnprocessableEntity},
		{name: "negative count", body: `{"id":3,"name":"x","price":1,"count":-1,"category":"tools"}`, wantCode: http.StatusUnprocessableEntity},
		{name: "unknown category", body: `{"id":3,"name":"x","price":1,"count":1,"category":"furniture"}`, wantCode: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, mux, http.MethodPost, "/", tt.body)
			if rr.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, rr.Code)
			}
		})
	}
}

func TestQueryItemsByCategory(t *testing.T) {
	_, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodGet, "/items/?category=tools", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[QueryResponse](t, rr)
	if len(resp.Items) != 2 {
		t.Fatalf("Expected 2 tools, got %d", len(resp.Items))
	}
	for _, item := range resp.Items {
		if item.Category != inventory.CategoryTools {
			t.Errorf("Expected only tools, got %+v", item)
		}
	}
	if resp.Query == nil || resp.Query.Category == nil || *resp.Query.Category != inventory.CategoryTools {
		t.Errorf("Expected query echo to carry the category filter, got %+v", resp.Query)
	}
	if resp.Query.Name != nil {
		t.Errorf("Expected unsupplied filters to echo as null, got %+v", resp.Query)
	}
}

func TestQueryItemsConjunction(t *testing.T) {
	_, mux := newTestServer()

	// Two seed items share price 9.99, only one also has count 5.
	rr := doRequest(t, mux, http.MethodGet, "/items/?price=9.99&count=5", "")
	resp := decodeBody[QueryResponse](t, rr)
	if len(resp.Items) != 1 || resp.Items[0].Id != 1 {
		t.Errorf("Expected exactly item 1, got %+v", resp.Items)
	}

	rr = doRequest(t, mux, http.MethodGet, "/items/?name=Widget&count=999", "")
	resp = decodeBody[QueryResponse](t, rr)
	if len(resp.Items) != 0 {
		t.Errorf("Expected no match when one filter disagrees, got %+v", resp.Items)
	}
}

func TestQueryItemsEmptyFilterReturnsAll(t *testing.T) {
	_, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodGet, "/items/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	resp := decodeBody[QueryResponse](t, rr)
	if len(resp.Items) != 3 {
		t.Errorf("Expected all 3 items for empty filter, got %d", len(resp.Items))
	}
}

func TestUpdateItemPartial(t *testing.T) {
	_, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodPut, "/items/1?price=12.5", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[MutationResponse](t, rr)
	if resp.Status == "" {
		t.Errorf("Expected a status message")
	}
	if resp.Value == nil {
		t.Fatalf("Expected updated item in response by default")
	}
	if resp.Value.Price != 12.5 {
		t.Errorf("Expected price 12.5, got %v", resp.Value.Price)
	}
	if resp.Value.Name != "Widget" || resp.Value.Count != 5 || resp.Value.Category != inventory.CategoryTools {
		t.Errorf("Expected unsupplied fields unchanged, got %+v", resp.Value)
	}
}

func TestUpdateItemSuppressedValue(t *testing.T) {
	_, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodPut, "/items/1?count=4&response_return=false", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	resp := decodeBody[MutationResponse](t, rr)
	if resp.Value != nil {
		t.Errorf("Expected no value with response_return=false, got %+v", resp.Value)
	}
}

func TestUpdateItemNoParameters(t *testing.T) {
	_, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodPut, "/items/1", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}

	// The empty-update check applies regardless of store state.
	rr = doRequest(t, mux, http.MethodPut, "/items/999", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing id too, got %d", rr.Code)
	}
}

func TestUpdateItemNotFound(t *testing.T) {
	_, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodPut, "/items/999?price=1.5", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rr.Code)
	}
	resp := decodeBody[ErrorResponse](t, rr)
	if !strings.Contains(resp.Detail, "999") {
		t.Errorf("Expected detail to mention id 999, got %q", resp.Detail)
	}
}

func TestUpdateItemCheckedBounds(t *testing.T) {
	ws, mux := newTestServer()
	tests := []struct {
		name   string
		target string
	}{
		{name: "negative item id", target: "/items/-1/update?price=1"},
		{name: "name too long", target: "/items/1/update?name=ninechars"},
		{name: "zero price", target: "/items/1/update?price=0"},
		{name: "negative count", target: "/items/1/update?count=-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, mux, http.MethodPut, tt.target, "")
			if rr.Code != http.StatusUnprocessableEntity {
				t.Errorf("Expected status 422, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
	item, _ := ws.Store.Get(1)
	if item.Price != 9.99 || item.Name != "Widget" || item.Count != 5 {
		t.Errorf("Expected rejected updates to leave the store untouched, got %+v", item)
	}
}

func TestUpdateItemCheckedApplies(t *testing.T) {
	_, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodPut, "/items/1/update?name=Wrench&price=7.25", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[MutationResponse](t, rr)
	if resp.Value == nil || resp.Value.Name != "Wrench" || resp.Value.Price != 7.25 {
		t.Errorf("Expected applied update, got %+v", resp.Value)
	}
	if resp.Value.Count != 5 {
		t.Errorf("Expected count unchanged, got %+v", resp.Value)
	}
}

func TestDeleteItem(t *testing.T) {
	ws, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodDelete, "/items/1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	resp := decodeBody[MutationResponse](t, rr)
	if resp.Value == nil || resp.Value.Name != "Widget" {
		t.Errorf("Expected removed item in response, got %+v", resp.Value)
	}
	if _, ok := ws.Store.Get(1); ok {
		t.Errorf("Expected item 1 to be removed from the store")
	}

	rr = doRequest(t, mux, http.MethodDelete, "/items/1", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	_, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}

func TestSaveWithoutSnapshotStorage(t *testing.T) {
	_, mux := newTestServer()
	rr := doRequest(t, mux, http.MethodPost, "/save", "")
	if rr.Code != http.StatusNotImplemented {
		t.Errorf("Expected status 501 without snapshot storage, got %d", rr.Code)
	}
}
