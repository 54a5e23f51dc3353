package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/quizcraft/quizcraft-core/internal/errs"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the core's error classes onto HTTP statuses:
// NotFound -> 404, InvalidState/InvalidArgument -> 400, rest -> 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errs.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errs.IsInvalidState(err), errs.IsInvalidArgument(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
