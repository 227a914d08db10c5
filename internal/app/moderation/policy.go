// Package moderation holds the decision rules of the question lifecycle:
// who may moderate, when a submission is auto-accepted, who may vote,
// which events a viewer sees and how questions are ordered.
//
// Nothing here touches storage; callers load the event and actor first.
package moderation

import (
	"github.com/yigit/moderator/internal/app/models"
)

// CanModerate reports whether actor may moderate or edit event
func CanModerate(actor *models.User, event *models.Event) bool {
	if actor == nil || event == nil {
		return false
	}
	return actor.IsSuperuser || event.HasModerator(actor.ID)
}

// AutoAccept reports whether a new submission by actor skips the review queue
func AutoAccept(actor *models.User, event *models.Event) bool {
	if !event.IsModerated {
		return true
	}
	return actor != nil && event.HasModerator(actor.ID)
}

// CanVote reports whether the voting policy of event admits actor.
// Archival is checked separately.
func CanVote(actor *models.User, event *models.Event) bool {
	if event.UsersCanVote {
		return true
	}
	return event.IsNDA && actor != nil && actor.Profile.IsNDAMember
}

// SeesNDAEvents reports whether viewer may see NDA-only events
func SeesNDAEvents(viewer *models.User) bool {
	return viewer != nil && (viewer.Profile.IsNDAMember || viewer.IsSuperuser)
}

// CanViewEvent reports whether viewer may see event at all
func CanViewEvent(viewer *models.User, event *models.Event) bool {
	return !event.IsNDA || SeesNDAEvents(viewer)
}

// CanSeeVoteCount reports whether viewer may read the live vote count of a question in event
func CanSeeVoteCount(viewer *models.User, event *models.Event) bool {
	if viewer == nil {
		return false
	}
	return viewer.IsSuperuser || event.IsCreatedBy(viewer.ID)
}

// CanSetNDA reports whether actor may flag an event as NDA-only
func CanSetNDA(actor *models.User) bool {
	return actor != nil && (actor.IsSuperuser || actor.Profile.IsNDAMember)
}

// InitialState is the state a brand new submission starts in
func InitialState(actor *models.User, event *models.Event) models.AcceptanceState {
	if AutoAccept(actor, event) {
		return models.StateAccepted
	}
	return models.StatePending
}

// Transition applies decision to a question's current state.
// Decisions may be revised, so every state can move to accepted or rejected.
func Transition(from models.AcceptanceState, decision models.Decision) (models.AcceptanceState, bool) {
	if !decision.Valid() {
		return from, false
	}
	if decision.Accepted() {
		return models.StateAccepted, true
	}
	return models.StateRejected, true
}

// ShouldNotifyRejection reports whether a moderation outcome warrants mailing the submitter
func ShouldNotifyRejection(q *models.Question, reason string) bool {
	return reason != "" && q.State() == models.StateRejected && q.HasContactInfo()
}
