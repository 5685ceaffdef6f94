// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles, from least to most visibility over cases.
const (
	RoleClient      = "client"
	RoleCoordinator = "coordinator"
	RoleManager     = "manager"
	RoleAdmin       = "admin"
)

// StaffRoles are the roles with access to staff-only endpoints.
var StaffRoles = []string{RoleAdmin, RoleCoordinator, RoleManager}

// IsStaffRole reports whether role is one of admin/coordinator/manager.
func IsStaffRole(role string) bool {
	return role == RoleAdmin || role == RoleCoordinator || role == RoleManager
}

// IsValidRole reports whether role is one of the four known roles.
func IsValidRole(role string) bool {
	return role == RoleClient || IsStaffRole(role)
}

// User represents clients and staff (coordinators, managers, admins).
//
// Role is fixed at creation; there is no promotion flow. PasswordHash is
// empty for users created through Google sign-in.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // "password" | "google"
	GoogleID     string `bson:"google_id,omitempty" json:"-"`                       // subject from Google, set on first OAuth login

	Role     string `bson:"role" json:"role"` // client | coordinator | manager | admin
	IsActive bool   `bson:"is_active" json:"is_active"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// UserRef is the trimmed user shape embedded in API responses where a full
// user document would leak fields the caller has no business seeing.
type UserRef struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"full_name"`
	Email    string             `json:"email"`
}

// Ref returns the trimmed reference form of the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, FullName: u.FullName, Email: u.Email}
}
