package handlers

import (
	"chatapp-client/internal/validator"
	"encoding/json"
	"net/http"
)

// decodeRequest reads a JSON body into payload and validates it. On failure the response
// has already been written.
func (h *Handlers) decodeRequest(w http.ResponseWriter, r *http.Request, payload any) bool {
	err := json.NewDecoder(r.Body).Decode(payload)
	if err != nil {
		h.sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return false
	}

	fieldErrors, err := validator.Struct(payload)
	if err != nil {
		h.sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return false
	}

	if fieldErrors != nil {
		// sends back 400 with the form field errors
		h.writeJSON(w, http.StatusBadRequest, fieldErrors)
		return false
	}

	return true
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		h.sugar.Error(err)
	}
}
