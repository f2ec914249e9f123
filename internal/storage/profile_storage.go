package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"nutrichat/internal/models"
)

// SaveProfile fully replaces the stored profile for the user. There is no
// merge and no history of prior values.
func (s *Storage) SaveProfile(userID int64, profile models.HealthProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	query := `
		INSERT INTO user_health_data(user_id, profile_json) VALUES(?, ?)
		ON CONFLICT(user_id) DO UPDATE SET profile_json = excluded.profile_json
	`
	_, err = s.db.Exec(query, userID, string(raw))
	return err
}

// GetProfileByUserID returns the zero profile when no row exists; a missing
// profile is not an error, it just means the intake form was never filled.
func (s *Storage) GetProfileByUserID(userID int64) (models.HealthProfile, error) {
	var raw string
	row := s.db.QueryRow("SELECT profile_json FROM user_health_data WHERE user_id = ?", userID)
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return models.HealthProfile{}, nil
		}
		return models.HealthProfile{}, err
	}

	var profile models.HealthProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return models.HealthProfile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	return profile, nil
}
