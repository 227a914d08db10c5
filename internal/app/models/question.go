package models

import "time"

// Question is a submission to an event. IsAccepted is nil while pending.
type Question struct {
	ID                   int64     `json:"id" db:"id"`
	EventID              int64     `json:"eventId" db:"event_id"`
	Text                 string    `json:"question" db:"question"`
	AskedByID            *int64    `json:"askedById,omitempty" db:"asked_by"`
	SubmitterContactInfo *string   `json:"-" db:"submitter_contact_info"`
	IsAccepted           *bool     `json:"isAccepted" db:"is_accepted"`
	IsAnonymous          bool      `json:"isAnonymous" db:"is_anonymous"`
	RejectionReason      *string   `json:"rejectionReason,omitempty" db:"rejection_reason"`
	Answer               *string   `json:"answer,omitempty" db:"answer"`
	Addressed            bool      `json:"addressed" db:"addressed"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
}

// State maps the nullable acceptance flag onto the moderation state machine
func (q *Question) State() AcceptanceState {
	switch {
	case q.IsAccepted == nil:
		return StatePending
	case *q.IsAccepted:
		return StateAccepted
	default:
		return StateRejected
	}
}

// SetState stores s as the nullable acceptance flag
func (q *Question) SetState(s AcceptanceState) {
	switch s {
	case StateAccepted:
		v := true
		q.IsAccepted = &v
	case StateRejected:
		v := false
		q.IsAccepted = &v
	default:
		q.IsAccepted = nil
	}
}

// HasContactInfo reports whether the submitter can be notified
func (q *Question) HasContactInfo() bool {
	return q.SubmitterContactInfo != nil && *q.SubmitterContactInfo != ""
}

// QuestionWithVotes pairs a question with its live vote count
type QuestionWithVotes struct {
	Question
	VoteCount int `json:"voteCount"`
}

// Vote joins a user to a question. At most one exists per pair.
type Vote struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"userId" db:"user_id"`
	QuestionID int64     `json:"questionId" db:"question_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
