package handler

import (
	"net/http"
	"time"
)

// Health reports liveness and the session store backend in use.
func Health(backend string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":       "ok",
			"sessionStore": backend,
			"timestamp":    time.Now().UnixMilli(),
		})
	}
}
