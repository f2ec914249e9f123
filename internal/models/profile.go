package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIncompleteProfile marks an intake form submitted with a required
// single-select field still on its placeholder.
var ErrIncompleteProfile = errors.New("required profile field not selected")

// placeholderOption is what single-select form fields send when nothing
// was picked.
const placeholderOption = "-"

// HealthProfile is the validated intake record. It is stored as one JSON
// blob per user and fully replaced on every save.
type HealthProfile struct {
	Gender             string   `json:"gender"`
	Age                int      `json:"age"`
	HeightCM           float64  `json:"height_cm"`
	WeightKG           float64  `json:"weight_kg"`
	ActivityLevel      string   `json:"activity_level"`
	DietaryPreferences []string `json:"dietary_preferences,omitempty"`
	MedicalConditions  []string `json:"medical_conditions,omitempty"`
	Medications        string   `json:"medications,omitempty"`
	Allergies          string   `json:"allergies,omitempty"`
}

// IsEmpty reports whether the profile has never been filled in. An empty
// profile routes the user to the intake form after login.
func (p HealthProfile) IsEmpty() bool {
	return p.Gender == "" && p.Age == 0 && p.HeightCM == 0 && p.WeightKG == 0 &&
		p.ActivityLevel == "" && len(p.DietaryPreferences) == 0 &&
		len(p.MedicalConditions) == 0 && p.Medications == "" && p.Allergies == ""
}

// Validate enforces the intake rule: every single-select field must carry a
// real value. Multi-select and free-text fields may stay empty.
func (p HealthProfile) Validate() error {
	if isPlaceholder(p.Gender) {
		return fmt.Errorf("%w: gender", ErrIncompleteProfile)
	}
	if isPlaceholder(p.ActivityLevel) {
		return fmt.Errorf("%w: activity_level", ErrIncompleteProfile)
	}
	return nil
}

func isPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == placeholderOption
}
