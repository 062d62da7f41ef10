package handlers

import (
	"errors"
	"net/http"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/validation"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds request bodies; a full address book fits comfortably.
const maxBodyBytes = 4 << 20

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// decodeRequest reads a JSON body into v and validates it. The returned
// error message is meant for the client.
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("Invalid request body")
	}
	return validation.Struct(v)
}

func internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
