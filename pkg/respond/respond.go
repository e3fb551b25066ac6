package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope — единый формат ответа API:
// {success, data?, stats?, message?, error?}
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Stats   interface{} `json:"stats,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, code int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(env)
}

func Data(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	JSON(w, r, code, Envelope{Success: true, Data: data})
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, Envelope{Success: false, Error: message})
}
