package handlers

import (
	"net/http"
)

func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.Hub.HandleClient(w, r, userIDFrom(r))
}
