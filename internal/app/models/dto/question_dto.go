package dto

import (
	"time"

	"github.com/yigit/moderator/internal/app/models"
)

// SubmitQuestionRequest is the body for a new question
type SubmitQuestionRequest struct {
	Question    string `json:"question" binding:"required,notblank,max=1000" example:"What time is lunch?"`
	IsAnonymous bool   `json:"isAnonymous" example:"false"`
}

// ReplyQuestionRequest edits an existing question; only moderators may send it
type ReplyQuestionRequest struct {
	Question  *string `json:"question,omitempty" binding:"omitempty,notblank,max=1000"`
	Answer    *string `json:"answer,omitempty" binding:"omitempty,max=2000"`
	Addressed *bool   `json:"addressed,omitempty"`
}

// ModerateRequest records a moderation decision
type ModerateRequest struct {
	Decision        models.Decision `json:"decision" binding:"required,oneof=accept reject" example:"reject"`
	RejectionReason *string         `json:"rejectionReason,omitempty" binding:"omitempty,max=1000" example:"Duplicate of an earlier question"`
}

// QuestionResponse is a question as shown in the open list
type QuestionResponse struct {
	ID          int64                  `json:"id" example:"12"`
	Question    string                 `json:"question" example:"What time is lunch?"`
	State       models.AcceptanceState `json:"state" example:"ACCEPTED"`
	IsAnonymous bool                   `json:"isAnonymous"`
	AskedBy     *UserBasicResponse     `json:"askedBy,omitempty"`
	Answer      *string                `json:"answer,omitempty"`
	Addressed   bool                   `json:"addressed"`
	VoteCount   *int                   `json:"voteCount,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// ModerationQuestionResponse adds what a moderator needs to decide
type ModerationQuestionResponse struct {
	QuestionResponse
	HasContactInfo  bool    `json:"hasContactInfo"`
	RejectionReason *string `json:"rejectionReason,omitempty"`
}

// ModerationQueueResponse is the pending queue of an event
type ModerationQueueResponse struct {
	Event     EventResponse                `json:"event"`
	Questions []ModerationQuestionResponse `json:"questions"`
}

// VoteResponse carries the live count only for the event creator or a superuser;
// everyone else receives an empty object.
type VoteResponse struct {
	CurrentVoteCount *int `json:"current_vote_count,omitempty"`
}

// NewQuestionResponse projects q. asker is dropped for anonymous questions.
func NewQuestionResponse(q *models.Question, asker *models.User) QuestionResponse {
	resp := QuestionResponse{
		ID:          q.ID,
		Question:    q.Text,
		State:       q.State(),
		IsAnonymous: q.IsAnonymous,
		Answer:      q.Answer,
		Addressed:   q.Addressed,
		CreatedAt:   q.CreatedAt,
	}
	if asker != nil && !q.IsAnonymous {
		basic := NewUserBasicResponse(asker)
		resp.AskedBy = &basic
	}
	return resp
}
