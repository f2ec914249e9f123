package storage

import (
	"errors"

	"nutrichat/internal/models"

	"modernc.org/sqlite"
)

var ErrUsernameExists = errors.New("username already exists")

// sqlite extended result code for a UNIQUE constraint violation
const sqliteConstraintUnique = 2067

// CreateUser inserts the account row and an empty health profile row in one
// transaction, so a registered user always has a profile slot. Returns the
// new user id.
func (s *Storage) CreateUser(username, passwordHash string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO users(username, password_hash) VALUES(?, ?)", username, passwordHash)
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqliteConstraintUnique {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec("INSERT INTO user_health_data(user_id, profile_json) VALUES(?, ?)", id, "{}"); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetUserByUsername returns sql.ErrNoRows when the account does not exist.
func (s *Storage) GetUserByUsername(username string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, password_hash FROM users WHERE username = ?", username)
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash); err != nil {
		return models.User{}, err
	}
	return user, nil
}
