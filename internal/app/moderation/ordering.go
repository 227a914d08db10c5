package moderation

import (
	"math/rand/v2"
	"sort"

	"github.com/yigit/moderator/internal/app/models"
)

// Shuffler permutes n elements through swap. rand.Shuffle satisfies it.
type Shuffler func(n int, swap func(i, j int))

// RankedOrdering reports whether viewer gets the deterministic by-votes ordering
func RankedOrdering(viewer *models.User, event *models.Event) bool {
	return event.Archived || (viewer != nil && viewer.Profile.IsAdmin)
}

// OrderQuestions orders questions in place for viewer. Admins and archived
// events get descending vote count, ties keeping store order; everyone else
// gets a fresh shuffle.
func OrderQuestions(viewer *models.User, event *models.Event, questions []models.QuestionWithVotes, shuffle Shuffler) {
	if RankedOrdering(viewer, event) {
		sort.SliceStable(questions, func(i, j int) bool {
			return questions[i].VoteCount > questions[j].VoteCount
		})
		return
	}
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}
