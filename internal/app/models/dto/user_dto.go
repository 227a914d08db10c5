package dto

import (
	"time"

	"github.com/yigit/moderator/internal/app/models"
)

// UserBasicResponse is the public projection of a user
type UserBasicResponse struct {
	ID        int64  `json:"id" example:"1"`
	Username  string `json:"username" example:"jdoe"`
	FirstName string `json:"firstName" example:"John"`
	LastName  string `json:"lastName" example:"Doe"`
	Email     string `json:"email" example:"jdoe@example.com"`
}

// UserProfileResponse is returned for the authenticated user
type UserProfileResponse struct {
	UserBasicResponse
	IsSuperuser bool       `json:"isSuperuser"`
	IsNDAMember bool       `json:"isNdaMember"`
	IsAdmin     bool       `json:"isAdmin"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// AutocompleteRequest filters the moderator picker
type AutocompleteRequest struct {
	Query string `form:"q" binding:"max=100"`
}

// AutocompleteItem is one select option
type AutocompleteItem struct {
	ID   int64  `json:"id" example:"3"`
	Text string `json:"text" example:"Jane Roe <jane@example.com>"`
}

// NewUserBasicResponse projects u
func NewUserBasicResponse(u *models.User) UserBasicResponse {
	return UserBasicResponse{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// NewUserProfileResponse projects u with its profile flags
func NewUserProfileResponse(u *models.User) UserProfileResponse {
	return UserProfileResponse{
		UserBasicResponse: NewUserBasicResponse(u),
		IsSuperuser:       u.IsSuperuser,
		IsNDAMember:       u.Profile.IsNDAMember,
		IsAdmin:           u.Profile.IsAdmin,
		LastLoginAt:       u.LastLoginAt,
	}
}
