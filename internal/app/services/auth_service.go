package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/app/repositories"
	"github.com/yigit/moderator/internal/pkg/apperrors"
	"github.com/yigit/moderator/internal/pkg/auth"
)

// AuthService issues tokens. Production tokens come from the identity provider;
// only the development login is served here.
type AuthService interface {
	DevLogin(ctx context.Context, username string) (*dto.TokenResponse, error)
}

type authServiceImpl struct {
	userRepo   repositories.UserRepository
	jwtService *auth.JWTService
	enabled    bool
	now        func() time.Time
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService; enabled gates the development login
func NewAuthService(userRepo repositories.UserRepository, jwtService *auth.JWTService, enabled bool, now func() time.Time, logger zerolog.Logger) AuthService {
	if now == nil {
		now = time.Now
	}
	return &authServiceImpl{
		userRepo:   userRepo,
		jwtService: jwtService,
		enabled:    enabled,
		now:        now,
		logger:     logger.With().Str("service", "auth").Logger(),
	}
}

// DevLogin issues a token for an existing username and stamps its last login
func (s *authServiceImpl) DevLogin(ctx context.Context, username string) (*dto.TokenResponse, error) {
	if !s.enabled {
		return nil, apperrors.NewResourceNotFoundError("Development login is not available")
	}
	if username == "" {
		return nil, apperrors.NewResourceNotFoundError("Unknown user")
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Unknown user")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	token, expiresIn, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	s.logger.Warn().Str("username", username).Msg("Development login issued a token")
	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		User:        dto.NewUserProfileResponse(user),
	}, nil
}
