package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matst80/slask-inventory/pkg/inventory"
	"github.com/matst80/slask-inventory/pkg/storage"
)

var (
	itemReads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_item_reads_total",
		Help: "The total number of item list and lookup requests",
	})
	itemQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_item_queries_total",
		Help: "The total number of filtered item queries",
	})
	itemWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_item_writes_total",
		Help: "The total number of item create and update requests",
	})
	itemDeletes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_item_deletes_total",
		Help: "The total number of item delete requests",
	})
)

const listCacheKey = "inventory:list"
const listCacheTime = 30 * time.Second

// WebServer translates HTTP requests into store operations. Db and Cache are
// optional.
type WebServer struct {
	Store *storage.ItemStore
	Db    *storage.DiskStorage
	Cache *Cache
}

func (ws *WebServer) ListItems(w http.ResponseWriter, r *http.Request) {
	go itemReads.Inc()
	if ws.Cache != nil {
		var cached ListResponse
		if err := ws.Cache.Get(listCacheKey, &cached); err == nil {
			writeJson(w, r, http.StatusOK, cached)
			return
		}
	}
	data := ListResponse{Items: ws.Store.All()}
	if ws.Cache != nil {
		if err := ws.Cache.Set(listCacheKey, data, listCacheTime); err != nil {
			log.Printf("Failed to cache item list: %v", err)
		}
	}
	writeJson(w, r, http.StatusOK, data)
}

func (ws *WebServer) GetItem(w http.ResponseWriter, r *http.Request) {
	go itemReads.Inc()
	itemId, err := itemIdFromRequest(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "item_id must be an integer, got %q", r.PathValue("item_id"))
		return
	}
	item, ok := ws.Store.Get(itemId)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Item with id %d does not exist.", itemId)
		return
	}
	writeJson(w, r, http.StatusOK, item)
}

func (ws *WebServer) QueryItems(w http.ResponseWriter, r *http.Request) {
	go itemQueries.Inc()
	filter := &inventory.ItemFilter{}
	if err := filterFromRequestQuery(r.URL.Query(), filter); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid query parameters: %v", err)
		return
	}
	selection := make([]inventory.Item, 0)
	for _, item := range ws.Store.Items() {
		if filter.Matches(&item) {
			selection = append(selection, item)
		}
	}
	writeJson(w, r, http.StatusOK, QueryResponse{Query: filter, Items: selection})
}

func (ws *WebServer) AddItem(w http.ResponseWriter, r *http.Request) {
	go itemWrites.Inc()
	var item inventory.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid item payload: %v", err)
		return
	}
	if err := item.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid item: %v", err)
		return
	}
	if !ws.Store.Insert(item) {
		writeDetail(w, http.StatusBadRequest, "Item with id %d already exists.", item.Id)
		return
	}
	writeJson(w, r, http.StatusCreated, CreateResponse{Created: item})
}

func (ws *WebServer) UpdateItem(w http.ResponseWriter, r *http.Request) {
	go itemWrites.Inc()
	itemId, err := itemIdFromRequest(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "item_id must be an integer, got %q", r.PathValue("item_id"))
		return
	}
	params := &UpdateRequest{}
	if err := updateFromRequestQuery(r.URL.Query(), params); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid query parameters: %v", err)
		return
	}
	ws.applyUpdate(w, r, itemId, params)
}

// UpdateItemChecked is the bounds-checked variant of UpdateItem. Parameter
// constraints are rejected with 422 before the store is touched.
func (ws *WebServer) UpdateItemChecked(w http.ResponseWriter, r *http.Request) {
	go itemWrites.Inc()
	itemId, err := itemIdFromRequest(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "item_id must be an integer, got %q", r.PathValue("item_id"))
		return
	}
	params := &UpdateRequest{}
	if err := updateFromRequestQuery(r.URL.Query(), params); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid query parameters: %v", err)
		return
	}
	if err := params.ValidateBounds(itemId); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "%v", err)
		return
	}
	ws.applyUpdate(w, r, itemId, params)
}

func (ws *WebServer) applyUpdate(w http.ResponseWriter, r *http.Request, itemId int, params *UpdateRequest) {
	update := params.Update()
	if update.Empty() {
		writeDetail(w, http.StatusBadRequest, "No parameters provided for update.")
		return
	}
	item, ok := ws.Store.Update(itemId, update.Apply)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Item with id %d does not exist.", itemId)
		return
	}
	data := MutationResponse{Status: "Item " + strconv.Itoa(itemId) + " updated."}
	if params.WantValue() {
		data.Value = &item
	}
	writeJson(w, r, http.StatusOK, data)
}

func (ws *WebServer) DeleteItem(w http.ResponseWriter, r *http.Request) {
	go itemDeletes.Inc()
	itemId, err := itemIdFromRequest(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "item_id must be an integer, got %q", r.PathValue("item_id"))
		return
	}
	item, ok := ws.Store.Remove(itemId)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Item with id %d does not exist.", itemId)
		return
	}
	writeJson(w, r, http.StatusOK, MutationResponse{
		Status: "Item " + strconv.Itoa(itemId) + " deleted.",
		Value:  &item,
	})
}

// Save writes the current store contents to the disk snapshot.
func (ws *WebServer) Save(w http.ResponseWriter, r *http.Request) {
	if ws.Db == nil {
		writeDetail(w, http.StatusNotImplemented, "snapshot storage is not configured")
		return
	}
	if err := ws.Db.SaveItems(ws.Store); err != nil {
		writeDetail(w, http.StatusInternalServerError, "failed to save snapshot: %v", err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (ws *WebServer) Handle() *http.ServeMux {
	srv := http.NewServeMux()

	srv.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv.HandleFunc("GET /{$}", ws.ListItems)
	srv.HandleFunc("POST /{$}", ws.AddItem)
	srv.HandleFunc("GET /items/{$}", ws.QueryItems)
	srv.HandleFunc("GET /items/{item_id}", ws.GetItem)
	srv.HandleFunc("PUT /items/{item_id}", ws.UpdateItem)
	srv.HandleFunc("PUT /items/{item_id}/update", ws.UpdateItemChecked)
	srv.HandleFunc("DELETE /items/{item_id}", ws.DeleteItem)
	srv.HandleFunc("POST /save", ws.Save)

	return srv
}

func itemIdFromRequest(r *http.Request) (int, error) {
	return strconv.Atoi(r.PathValue("item_id"))
}
