package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/asset-maintenance/internal/auth"
	"github.com/ukydev/asset-maintenance/internal/db"
	"github.com/ukydev/asset-maintenance/internal/middleware"
	"github.com/ukydev/asset-maintenance/internal/models"
)

// AuthHandler serves sign-in, signup and account administration
type AuthHandler struct {
	auth  *auth.Service
	users db.UserCollection
	now   func() time.Time
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, users db.UserCollection) *AuthHandler {
	return &AuthHandler{auth: authService, users: users, now: time.Now}
}

// Login exchanges a username and password for a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req models.LoginRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.FindUserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		log.WithError(err).Error("Failed to load user")
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}
	if user == nil || !h.auth.CheckPassword(req.Password, user.PasswordHash) {
		log.WithField("username", req.Username).Info("Rejected login")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		http.Error(w, "Account is deactivated", http.StatusUnauthorized)
		return
	}

	if err := h.users.RecordLogin(r.Context(), user.ID.Hex(), h.now().UTC()); err != nil {
		log.WithError(err).WithField("username", user.Username).Warn("Failed to record login")
	}
	h.startSession(w, http.StatusOK, user)
}

// Register creates a SelfRegisterRole account and signs it in. Any role in
// the request body is ignored.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req models.RegisterRequest
	if !readJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := auth.ValidateRegistration(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := h.auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: hash,
		Role:         models.SelfRegisterRole,
	}
	err = h.users.InsertUser(r.Context(), user)
	if errors.Is(err, db.ErrDuplicate) {
		http.Error(w, "Username or email already exists", http.StatusConflict)
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to create user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{"username": user.Username, "role": user.Role}).Info("User registered")
	h.startSession(w, http.StatusCreated, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, status int, user *models.User) {
	token, expires, err := h.auth.Issue(user)
	if err != nil {
		log.WithError(err).Error("Failed to issue token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, models.Session{
		Token:       token,
		ExpiresAt:   expires,
		User:        *user,
		Permissions: user.Role.Permissions(),
	})
}

// Profile returns the signed-in account and what its role may do
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.Profile{User: *user, Permissions: user.Role.Permissions()})
}

// ChangePassword replaces the signed-in account's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req models.PasswordChangeRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		http.Error(w, "Current password and new password are required", http.StatusBadRequest)
		return
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if !h.auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		http.Error(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}
	hash, err := h.auth.HashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}
	if err := h.users.SetPassword(r.Context(), user.ID.Hex(), hash); err != nil {
		log.WithError(err).WithField("username", user.Username).Error("Failed to update password")
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// SetRole lets an admin move another account to a different role. The new
// role applies from that account's next sign-in.
func (h *AuthHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}
	var req models.RoleChangeRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Username == "" || !req.Role.Valid() {
		http.Error(w, "A username and a valid role are required", http.StatusBadRequest)
		return
	}
	if req.Username == claims.Username {
		http.Error(w, "Cannot change your own role", http.StatusBadRequest)
		return
	}

	err := h.users.SetRole(r.Context(), req.Username, req.Role)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to update role")
		http.Error(w, "Failed to update role", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{
		"username":   req.Username,
		"role":       req.Role,
		"changed_by": claims.Username,
	}).Info("Role changed")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"username":    req.Username,
		"role":        req.Role,
		"permissions": req.Role.Permissions(),
	})
}

// currentUser loads the account behind the request's token. It writes the
// error response itself and reports whether the caller should continue.
func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return nil, false
	}
	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		log.WithError(err).Error("Failed to load user")
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return nil, false
	}
	return user, true
}
