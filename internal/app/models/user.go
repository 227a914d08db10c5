package models

import (
	"time"
)

// User defines the user model based on the 'users' table.
// Accounts are owned by the identity provider; this service only reads them.
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	Username    string     `json:"username" db:"username" example:"jdoe"`
	Email       string     `json:"email" db:"email" example:"jdoe@example.com"`
	FirstName   string     `json:"firstName" db:"first_name" example:"John"`
	LastName    string     `json:"lastName" db:"last_name" example:"Doe"`
	IsActive    bool       `json:"isActive" db:"is_active" example:"true"`
	IsSuperuser bool       `json:"isSuperuser" db:"is_superuser" example:"false"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	Profile     Profile    `json:"profile"`
}

// Profile carries the membership flags that gate visibility and ordering
type Profile struct {
	IsNDAMember bool `json:"isNdaMember" db:"is_nda_member"`
	IsAdmin     bool `json:"isAdmin" db:"is_admin"`
}

// FullName returns "First Last", falling back to the username
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}
