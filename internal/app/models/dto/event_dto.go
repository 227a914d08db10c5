package dto

import (
	"time"

	"github.com/yigit/moderator/internal/app/models"
)

// SaveEventRequest is the body for creating or editing an event
type SaveEventRequest struct {
	Name         string     `json:"name" binding:"required,notblank,min=2,max=100" example:"All Hands Q3"`
	EventDate    *time.Time `json:"eventDate,omitempty" example:"2025-07-01T16:00:00Z"`
	Archived     bool       `json:"archived" example:"false"`
	IsNDA        bool       `json:"isNda" example:"false"`
	IsModerated  bool       `json:"isModerated" example:"true"`
	UsersCanVote bool       `json:"usersCanVote" example:"true"`
	ModeratorIDs []int64    `json:"moderatorIds" binding:"omitempty,max=50,dive,gt=0"`
}

// ArchiveFilterRequest selects a page of archived events
type ArchiveFilterRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// ExportRequest selects the events of a CSV export
type ExportRequest struct {
	Slugs []string `form:"slug" binding:"required,min=1,dive,required"`
}

// EventResponse is the public projection of an event
type EventResponse struct {
	ID           int64               `json:"id" example:"1"`
	Name         string              `json:"name" example:"All Hands Q3"`
	Slug         string              `json:"slug" example:"all-hands-q3"`
	CreatedAt    time.Time           `json:"createdAt"`
	EventDate    *time.Time          `json:"eventDate,omitempty"`
	Archived     bool                `json:"archived"`
	IsNDA        bool                `json:"isNda"`
	IsModerated  bool                `json:"isModerated"`
	UsersCanVote bool                `json:"usersCanVote"`
	CreatedByID  *int64              `json:"createdById,omitempty"`
	Moderators   []UserBasicResponse `json:"moderators"`
	Stats        *models.EventStats  `json:"stats,omitempty"`
}

// EventListResponse lists open events
type EventListResponse struct {
	Events []EventResponse `json:"events"`
}

// ArchiveListResponse is a page of archived events
type ArchiveListResponse struct {
	Events     []EventResponse `json:"events"`
	Pagination PaginationInfo  `json:"pagination"`
}

// EventDetailResponse is an event with its visible questions
type EventDetailResponse struct {
	Event       EventResponse      `json:"event"`
	Open        bool               `json:"open"`
	CanModerate bool               `json:"canModerate"`
	Questions   []QuestionResponse `json:"questions"`
}

// NewEventResponse projects e; moderators are resolved by the caller
func NewEventResponse(e *models.Event, moderators []*models.User) EventResponse {
	resp := EventResponse{
		ID:           e.ID,
		Name:         e.Name,
		Slug:         e.Slug,
		CreatedAt:    e.CreatedAt,
		EventDate:    e.EventDate,
		Archived:     e.Archived,
		IsNDA:        e.IsNDA,
		IsModerated:  e.IsModerated,
		UsersCanVote: e.UsersCanVote,
		CreatedByID:  e.CreatedByID,
		Moderators:   make([]UserBasicResponse, 0, len(moderators)),
	}
	for _, m := range moderators {
		resp.Moderators = append(resp.Moderators, NewUserBasicResponse(m))
	}
	return resp
}
