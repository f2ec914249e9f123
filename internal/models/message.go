package models

// Chat roles as stored and as sent to the model.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one stored turn of a user's conversation. Order is the
// insertion order in chat_history.
type Message struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}
