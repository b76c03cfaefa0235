package playlist

import (
	"encoding/json"
	"errors"
	"net/http"
)

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
	})
}

// writeOpError renders an engine error with its taxonomy code; anything
// outside the error domain becomes an opaque 500.
func writeOpError(w http.ResponseWriter, err error) {
	var oe *opError
	if errors.As(err, &oe) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(oe.status)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": oe.msg,
			"code":  oe.code,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "database error")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
