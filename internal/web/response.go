package web

import (
	"encoding/json"
	"net/http"

	"github.com/Mujanati13/xcite/internal/models"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       any                `json:"data,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
	Count      *int               `json:"count,omitempty"`
	Error      string             `json:"error,omitempty"`

	// auth endpoints only
	Token     string `json:"token,omitempty"`
	ExpiresIn string `json:"expiresIn,omitempty"`
	User      any    `json:"user,omitempty"`
}

func ok(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

func fail(message string) Response {
	return Response{Success: false, Message: message}
}

func withCount(r Response, n int) Response {
	r.Count = &n
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
