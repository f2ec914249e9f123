package handler

import (
	"nutrichat/internal/relay"
	"nutrichat/internal/storage"
)

// Handler carries the shared dependencies of every HTTP and WebSocket
// endpoint.
type Handler struct {
	store *storage.Storage
	relay *relay.Relay
}

func New(store *storage.Storage, r *relay.Relay) *Handler {
	return &Handler{store: store, relay: r}
}

type ErrorResponse struct {
	Error string `json:"error"`
}
