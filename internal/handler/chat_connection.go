package handler

import (
	"log"
	"net/http"

	"nutrichat/internal/auth"
	"nutrichat/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleChat upgrades to a WebSocket and drives one chat session for the
// authenticated user. Browser WebSocket clients cannot set headers, so the
// token travels as a query parameter.
func (h *Handler) HandleChat(c *gin.Context) {
	tokenString := c.Query("token")
	claims, err := auth.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	username := claims.Username
	user, err := h.store.GetUserByUsername(username)
	if err != nil {
		log.Printf("HandleChat(): failed to get user %s: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("HandleChat(): failed to upgrade to WebSocket for user %s: %v", username, err)
		return
	}
	defer conn.Close()
	log.Printf("WebSocket connection established for user: %s", username)

	sess := session.New(h.store, h.store, h.relay)
	if err := sess.Login(user.ID, user.Username); err != nil {
		log.Printf("HandleChat(): login failed for user %s: %v", username, err)
		conn.WriteJSON(serverEvent{Type: eventError, Error: "Failed to load session"})
		return
	}
	defer sess.Logout()

	h.manageChatSession(conn, sess, username)
}
