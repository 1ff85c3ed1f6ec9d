package www

import (
	"net/http"
	"strconv"
)

func (h *Handlers) apiListNotifications(w http.ResponseWriter, r *http.Request) {
	feed := h.engine.Feed()
	if feed == nil {
		h.jsonOK(w, []any{})
		return
	}
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	msgs, err := feed.Recent(r.Context(), h.getUsername(r), limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, msgs)
}

func (h *Handlers) apiClearNotifications(w http.ResponseWriter, r *http.Request) {
	feed := h.engine.Feed()
	if feed == nil {
		h.jsonOK(w, map[string]string{"status": "cleared"})
		return
	}
	if err := feed.Clear(r.Context(), h.getUsername(r)); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]string{"status": "cleared"})
}
