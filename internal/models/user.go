package models

import (
	"time"
)

// Global role names. Project-level roles live on the membership pivot;
// these are account-wide grants.
const (
	RoleAdmin          = "admin"
	RoleProjectManager = "project_manager"
	RoleProjectMember  = "project_member"
)

// Role is a global role assignable to users.
type Role struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

func (Role) TableName() string {
	return "roles"
}

// User represents an account. Password is empty for social-login users.
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name" gorm:"not null"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	Password       string    `json:"-"`
	ProfilePicture string    `json:"profile_picture"`
	Roles          []Role    `json:"roles,omitempty" gorm:"many2many:user_roles"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// HasRole reports whether the user's loaded roles contain name.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
