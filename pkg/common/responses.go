package common

import (
	"encoding/json"
	"io"
	"net/http"

	"storefront-backend/pkg/errors"
)

// MaxBodyBytes bounds request bodies decoded by DecodeJSON
const MaxBodyBytes = 1 << 20

// ListResponse is the envelope used by paginated admin and storefront lists
type ListResponse struct {
	Result     interface{} `json:"result"`
	TotalCount int         `json:"totalCount"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondMessage sends a {"message": ...} body
func RespondMessage(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, MessageResponse{Message: message})
}

// DecodeJSON parses a JSON request body with a size limit. Malformed or
// empty bodies are validation errors.
func DecodeJSON(r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		if err == io.EOF {
			return errors.NewValidationError("data not provided")
		}
		return errors.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}
