package models

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role controls which maintenance actions an account may perform.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// SelfRegisterRole is given to every account created through public signup.
// Higher roles are granted afterwards by an admin.
const SelfRegisterRole = RoleViewer

// Permission actions checked by the API middleware.
const (
	ActionViewAssets     = "view_assets"
	ActionViewTasks      = "view_tasks"
	ActionCompleteTask   = "complete_task"
	ActionImportAssets   = "import_assets"
	ActionManageSettings = "manage_settings"
	ActionManageUsers    = "manage_users"
)

var (
	readOnly   = []string{ActionViewAssets, ActionViewTasks, ActionManageSettings}
	fieldWork  = append(readOnly[:len(readOnly):len(readOnly)], ActionCompleteTask)
	planning   = append(fieldWork[:len(fieldWork):len(fieldWork)], ActionImportAssets)
	everything = append(planning[:len(planning):len(planning)], ActionManageUsers)
)

// rolePermissions is the permission table. A role not listed here can do nothing.
var rolePermissions = map[Role][]string{
	RoleViewer:   readOnly,
	RoleOperator: fieldWork,
	RoleManager:  planning,
	RoleAdmin:    everything,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Can reports whether r is allowed to perform action.
func (r Role) Can(action string) bool {
	for _, a := range rolePermissions[r] {
		if a == action {
			return true
		}
	}
	return false
}

// Permissions lists the actions granted to r in sorted order.
func (r Role) Permissions() []string {
	out := append([]string{}, rolePermissions[r]...)
	sort.Strings(out)
	return out
}

// User is an account that can sign in to the maintenance API.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	DisplayName  string             `bson:"display_name,omitempty" json:"display_name,omitempty"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest carries a public signup. There is no role field; new
// accounts always start as SelfRegisterRole.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// RoleChangeRequest is sent by an admin to move an account to another role.
type RoleChangeRequest struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Session is returned by login and registration.
type Session struct {
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
	Permissions []string  `json:"permissions"`
}

// Profile is the signed-in user with the actions their role grants.
type Profile struct {
	User
	Permissions []string `json:"permissions"`
}

// Claims are the identity fields carried in a bearer token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}
