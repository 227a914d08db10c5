package seed

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/app/repositories"
	"github.com/yigit/moderator/internal/pkg/apperrors"
	"github.com/yigit/moderator/internal/pkg/helpers"
)

// DefaultUsers are the accounts available to the development login
func DefaultUsers() []*models.User {
	return []*models.User{
		{
			Username:    "admin",
			Email:       "admin@moderator.local",
			FirstName:   "Site",
			LastName:    "Admin",
			IsActive:    true,
			IsSuperuser: true,
			Profile:     models.Profile{IsNDAMember: true, IsAdmin: true},
		},
		{
			Username:  "moderator",
			Email:     "moderator@moderator.local",
			FirstName: "Mona",
			LastName:  "Rater",
			IsActive:  true,
			Profile:   models.Profile{IsNDAMember: true},
		},
		{
			Username:  "attendee",
			Email:     "attendee@moderator.local",
			FirstName: "Ada",
			LastName:  "Tendee",
			IsActive:  true,
		},
	}
}

// CreateDefaultData upserts the development users and, when the store has no events yet,
// a demo event moderated by the first non-superuser.
func CreateDefaultData(ctx context.Context, repos *repositories.Repositories, now time.Time, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (users, demo event)...")
	var finalErr error

	users := DefaultUsers()
	for _, u := range users {
		u.CreatedAt = now
		id, err := repos.UserRepository.Upsert(ctx, u)
		if err != nil {
			lgr.Error().Err(err).Str("username", u.Username).Msg("Error creating default user")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		u.ID = id
	}
	if finalErr != nil {
		return finalErr
	}

	count, err := repos.EventRepository.Count(ctx, repositories.EventFilter{IncludeNDA: true})
	if err != nil {
		return err
	}
	if count > 0 {
		lgr.Debug().Int64("events", count).Msg("Events present, skipping demo event")
		return nil
	}

	owner := users[1]
	event := &models.Event{
		Name:         "Demo Town Hall",
		Slug:         helpers.Slugify("Demo Town Hall"),
		CreatedAt:    now,
		IsModerated:  true,
		UsersCanVote: true,
		CreatedByID:  &owner.ID,
		ModeratorIDs: []int64{owner.ID},
	}
	if _, err := repos.EventRepository.Create(ctx, event); err != nil {
		if errors.Is(err, apperrors.ErrSlugAlreadyExists) {
			return nil
		}
		lgr.Error().Err(err).Msg("Error creating demo event")
		return err
	}
	lgr.Info().Str("slug", event.Slug).Msg("Demo event created")
	return nil
}
