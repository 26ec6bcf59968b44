package response

import (
	"net/http"

	"github.com/bytedance/sonic"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error    string `json:"error"`
	AppealID string `json:"appealId,omitempty"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) error {
	return JSON(w, status, ErrorBody{Error: message})
}
