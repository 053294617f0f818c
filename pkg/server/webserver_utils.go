package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func defaultHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
	}
	w.Header().Set("Age", "0")
}

// writeDetail terminates the request with a JSON error body of the form
// {"detail": "..."}.
func writeDetail(w http.ResponseWriter, status int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Detail: fmt.Sprintf(format, args...)})
}

func writeJson(w http.ResponseWriter, r *http.Request, status int, data any) {
	defaultHeaders(w, r)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
