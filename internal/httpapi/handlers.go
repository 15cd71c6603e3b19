package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/DoyleJ11/dinedecide/internal/hub"
)

func Stats(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan hub.Stats, 1)
		if !h.Send(hub.GetStats{Reply: reply}) {
			http.Error(w, "relay shutting down", http.StatusServiceUnavailable)
			return
		}

		var st hub.Stats
		select {
		case st = <-reply:
		case <-time.After(2 * time.Second):
			http.Error(w, "stats unavailable", http.StatusServiceUnavailable)
			return
		case <-r.Context().Done():
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
