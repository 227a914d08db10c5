package services

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/app/moderation"
	"github.com/yigit/moderator/internal/app/repositories"
	"github.com/yigit/moderator/internal/pkg/auth"
	"github.com/yigit/moderator/internal/pkg/email"
)

// Options carries the settings services read from configuration
type Options struct {
	PageSize       int
	DevLoginActive bool
	// Shuffle orders open question lists; nil uses math/rand
	Shuffle moderation.Shuffler
	// Now is the clock; nil uses time.Now
	Now func() time.Time
	// Publisher receives question changes visible in open lists; nil drops them
	Publisher QuestionPublisher
}

// Live update kinds
const (
	QuestionAccepted = "question.accepted"
	QuestionUpdated  = "question.updated"
	QuestionRemoved  = "question.removed"
)

// QuestionPublisher pushes changes of accepted questions to live subscribers of an event.
// Payloads never carry vote counts.
type QuestionPublisher interface {
	PublishQuestion(eventID int64, kind string, question dto.QuestionResponse)
}

type noopPublisher struct{}

func (noopPublisher) PublishQuestion(int64, string, dto.QuestionResponse) {}

// Services groups every service the HTTP layer depends on
type Services struct {
	EventService    EventService
	QuestionService QuestionService
	UserService     UserService
	AuthService     AuthService
	ExportService   ExportService
}

// NewServices wires the services over one repository set
func NewServices(
	repos *repositories.Repositories,
	sender email.Sender,
	jwtService *auth.JWTService,
	opts Options,
	logger zerolog.Logger,
) *Services {
	if opts.Shuffle == nil {
		opts.Shuffle = rand.Shuffle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Publisher == nil {
		opts.Publisher = noopPublisher{}
	}
	return &Services{
		EventService:    NewEventService(repos, opts, logger),
		QuestionService: NewQuestionService(repos, sender, opts.Publisher, logger),
		UserService:     NewUserService(repos.UserRepository, opts.Now, logger),
		AuthService:     NewAuthService(repos.UserRepository, jwtService, opts.DevLoginActive, opts.Now, logger),
		ExportService:   NewExportService(repos, logger),
	}
}

func success(msg string) dto.Notice {
	return dto.Notice{Level: dto.NoticeSuccess, Message: msg}
}

func warning(msg string) dto.Notice {
	return dto.Notice{Level: dto.NoticeWarning, Message: msg}
}

// usersByID resolves ids into a lookup map, ignoring unknown ids
func usersByID(ctx context.Context, repo repositories.UserRepository, ids []int64) (map[int64]*models.User, error) {
	result := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	users, err := repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func moderatorsOf(e *models.Event, users map[int64]*models.User) []*models.User {
	moderators := make([]*models.User, 0, len(e.ModeratorIDs))
	for _, id := range e.ModeratorIDs {
		if u, ok := users[id]; ok {
			moderators = append(moderators, u)
		}
	}
	return moderators
}

func uniqueIDs(ids ...[]int64) []int64 {
	seen := map[int64]struct{}{}
	out := []int64{}
	for _, group := range ids {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
