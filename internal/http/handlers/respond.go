package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wolfman30/medbook-portal/internal/notify"
	"github.com/wolfman30/medbook-portal/internal/session"
)

const maxBodyBytes = 64 << 10

var errMissingBrowser = errors.New("handlers: browser id missing")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeNotice(w http.ResponseWriter, n notify.Notice) {
	writeJSON(w, n.Status, map[string]any{"notice": n})
}

func badRequest(w http.ResponseWriter, message string) {
	writeNotice(w, notify.Notice{Level: notify.LevelError, Code: "bad_request", Message: message, Status: http.StatusBadRequest})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func browserID(r *http.Request) (string, error) {
	id, ok := session.BrowserIDFromContext(r.Context())
	if !ok {
		return "", errMissingBrowser
	}
	return id, nil
}
