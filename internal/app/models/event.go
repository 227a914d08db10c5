package models

import "time"

// Event is a named Q&A session with its own moderators and visibility flags
type Event struct {
	ID           int64      `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Slug         string     `json:"slug" db:"slug"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	EventDate    *time.Time `json:"eventDate,omitempty" db:"event_date"`
	Archived     bool       `json:"archived" db:"archived"`
	IsNDA        bool       `json:"isNda" db:"is_nda"`
	IsModerated  bool       `json:"isModerated" db:"is_moderated"`
	UsersCanVote bool       `json:"usersCanVote" db:"users_can_vote"`
	CreatedByID  *int64     `json:"createdById,omitempty" db:"created_by"`

	// ModeratorIDs is loaded alongside the row; it is never nil for a fetched event
	ModeratorIDs []int64 `json:"moderatorIds"`
}

// HasModerator reports whether userID moderates the event
func (e *Event) HasModerator(userID int64) bool {
	for _, id := range e.ModeratorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsCreatedBy reports whether userID owns the event
func (e *Event) IsCreatedBy(userID int64) bool {
	return e.CreatedByID != nil && *e.CreatedByID == userID
}

// EventStats holds the per-event question counts computed at read time
type EventStats struct {
	Approved int `json:"approvedCount"`
	Rejected int `json:"rejectedCount"`
	Pending  int `json:"pendingCount"`
}

// EventWithStats pairs an event with its derived counts
type EventWithStats struct {
	Event
	Stats EventStats `json:"stats"`
}
