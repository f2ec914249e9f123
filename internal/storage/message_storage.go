package storage

import (
	"nutrichat/internal/models"
)

// AppendMessage adds one turn to the user's conversation log. The log is
// append-only; creation order is replay order.
func (s *Storage) AppendMessage(userID int64, role, content string) error {
	stmt, err := s.db.Prepare("INSERT INTO chat_history(user_id, role, content) VALUES(?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(userID, role, content)
	return err
}

// GetMessagesByUserID returns the full conversation in creation order, empty
// when the user has never chatted.
func (s *Storage) GetMessagesByUserID(userID int64) ([]models.Message, error) {
	query := `
		SELECT id, user_id, role, content
		FROM chat_history
		WHERE user_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
