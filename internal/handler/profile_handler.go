// HTTP handlers for the health intake profile.

package handler

import (
	"errors"
	"log"
	"net/http"

	"nutrichat/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) userFromContext(c *gin.Context) (models.User, bool) {
	username := c.GetString("username")
	user, err := h.store.GetUserByUsername(username)
	if err != nil {
		log.Printf("userFromContext(): failed to get user %s: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return models.User{}, false
	}
	return user, true
}

// GetProfile returns the saved profile so the intake form can pre-populate.
func (h *Handler) GetProfile(c *gin.Context) {
	user, ok := h.userFromContext(c)
	if !ok {
		return
	}

	profile, err := h.store.GetProfileByUserID(user.ID)
	if err != nil {
		log.Printf("GetProfile(): failed to load profile for %s: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":  profile,
		"complete": !profile.IsEmpty(),
	})
}

// SaveProfile validates the intake form and fully replaces the stored
// profile. A submission with a required single-select still on its
// placeholder is rejected and nothing is persisted.
func (h *Handler) SaveProfile(c *gin.Context) {
	user, ok := h.userFromContext(c)
	if !ok {
		return
	}

	var profile models.HealthProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := profile.Validate(); err != nil {
		if errors.Is(err, models.ErrIncompleteProfile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile"})
		return
	}

	if err := h.store.SaveProfile(user.ID, profile); err != nil {
		log.Printf("SaveProfile(): failed to save profile for %s: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile saved successfully"})
}
