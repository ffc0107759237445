package response

import (
	"encoding/json"
	"net/http"
)

// Error is the uniform failure body.
type Error struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Fail writes a {success:false, message} body.
func Fail(w http.ResponseWriter, code int, message string) {
	JSON(w, code, Error{Message: message})
}

// FailWithFields writes a {success:false, message, errors} body.
func FailWithFields(w http.ResponseWriter, code int, message string, fields map[string]string) {
	JSON(w, code, Error{Message: message, Errors: fields})
}
