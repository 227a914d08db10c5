package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/app/repositories"
	"github.com/yigit/moderator/internal/pkg/helpers"
)

// autocompleteLimit caps the moderator picker results
const autocompleteLimit = 20

// UserService defines user lookups for the authenticated caller
type UserService interface {
	ModeratorAutocomplete(ctx context.Context, actor *models.User, query string) ([]dto.AutocompleteItem, error)
	Me(ctx context.Context, actor *models.User) (*dto.UserProfileResponse, error)
}

type userServiceImpl struct {
	userRepo repositories.UserRepository
	now      func() time.Time
	logger   zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.UserRepository, now func() time.Time, logger zerolog.Logger) UserService {
	if now == nil {
		now = time.Now
	}
	return &userServiceImpl{
		userRepo: userRepo,
		now:      now,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// ModeratorAutocomplete offers active users who logged in recently; superusers always qualify
func (s *userServiceImpl) ModeratorAutocomplete(ctx context.Context, actor *models.User, query string) ([]dto.AutocompleteItem, error) {
	if actor == nil {
		return []dto.AutocompleteItem{}, nil
	}
	users, err := s.userRepo.Search(ctx, repositories.UserFilter{
		Query:       query,
		ActiveSince: helpers.RecentLoginCutoff(s.now()),
		Limit:       autocompleteLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	items := make([]dto.AutocompleteItem, 0, len(users))
	for _, u := range users {
		text := u.FullName()
		if u.Email != "" {
			text = fmt.Sprintf("%s <%s>", text, u.Email)
		}
		items = append(items, dto.AutocompleteItem{ID: u.ID, Text: text})
	}
	s.logger.Debug().Str("query", query).Int("results", len(items)).Msg("Moderator autocomplete")
	return items, nil
}

// Me returns the caller with profile flags
func (s *userServiceImpl) Me(_ context.Context, actor *models.User) (*dto.UserProfileResponse, error) {
	resp := dto.NewUserProfileResponse(actor)
	return &resp, nil
}
