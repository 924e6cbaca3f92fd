package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/wolfman30/medbook-portal/internal/notify"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeNotice(w http.ResponseWriter, n notify.Notice) {
	writeJSON(w, n.Status, n)
}
