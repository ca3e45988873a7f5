package api

import (
	"context"
	"net/http"

	"github.com/exo-addons/leadcapture/event"
)

// maxEventBody caps the size of an inbound event.
const maxEventBody = 64 << 10

// userCreated accepts the event and returns before any lead is sent.
func (h *Handler) userCreated(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	evt, err := event.DecodeUserCreated(http.MaxBytesReader(w, r.Body, maxEventBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The request context ends with the response; the lead must outlive it.
	h.users.HandleUserCreated(context.WithoutCancel(r.Context()), evt)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":    "accepted",
		"user_name": evt.User.UserName,
	})
}
