package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/asset-maintenance/internal/db"
	"github.com/ukydev/asset-maintenance/internal/middleware"
	"github.com/ukydev/asset-maintenance/internal/models"
	"github.com/ukydev/asset-maintenance/internal/urgency"
)

// SettingsHandler reads and writes the calling user's preferences
type SettingsHandler struct {
	settings db.SettingsCollection
	now      func() time.Time
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings db.SettingsCollection) *SettingsHandler {
	return &SettingsHandler{settings: settings, now: time.Now}
}

// Settings serves GET and PUT on the settings route
func (h *SettingsHandler) Settings(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, claims.UserID)
	case http.MethodPut:
		h.put(w, r, claims.UserID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request, userID string) {
	settings, err := h.settings.GetSettings(r.Context(), userID)
	if errors.Is(err, db.ErrNotFound) {
		defaults := models.DefaultSettings(userID)
		settings = &defaults
	} else if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to load settings")
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request, userID string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var settings models.Settings
	if err := json.Unmarshal(body, &settings); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	key, err := urgency.ParseSortKey(settings.DefaultSort)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	settings.DefaultSort = string(key)
	settings.UserID = userID
	settings.UpdatedAt = h.now().UTC()

	if err := h.settings.SaveSettings(r.Context(), settings); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to save settings")
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
