package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetChatHistory returns the user's full conversation in creation order, so
// a client can render the chat view before opening the WebSocket.
func (h *Handler) GetChatHistory(c *gin.Context) {
	user, ok := h.userFromContext(c)
	if !ok {
		return
	}

	messages, err := h.store.GetMessagesByUserID(user.ID)
	if err != nil {
		log.Printf("GetChatHistory(): failed to fetch history for %s: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": messages})
}
