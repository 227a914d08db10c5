package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/db"
)

// EventRepository stores events and their moderator sets
type EventRepository interface {
	// Create inserts the event and its moderators atomically and returns the new id
	Create(ctx context.Context, event *models.Event) (int64, error)
	// Update rewrites the mutable columns and replaces the moderator set atomically
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	GetBySlug(ctx context.Context, slug string) (*models.Event, error)
	GetBySlugs(ctx context.Context, slugs []string) ([]*models.Event, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter EventFilter) ([]models.EventWithStats, error)
	Count(ctx context.Context, filter EventFilter) (int64, error)
}

// QuestionRepository stores questions; vote counts are derived on read
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) (int64, error)
	// UpdateReply rewrites the text, answer and addressed columns only
	UpdateReply(ctx context.Context, question *models.Question) error
	// UpdateDecision stores the acceptance flag and the rejection reason
	UpdateDecision(ctx context.Context, id int64, accepted bool, reason *string) error
	GetByID(ctx context.Context, id int64) (*models.Question, error)
	List(ctx context.Context, filter QuestionFilter) ([]models.QuestionWithVotes, error)
}

// VoteRepository stores (user, question) votes, unique per pair
type VoteRepository interface {
	// Toggle creates the vote if absent or deletes it if present, reporting which happened
	Toggle(ctx context.Context, userID, questionID int64) (created bool, err error)
	CountByQuestion(ctx context.Context, questionID int64) (int, error)
}

// UserRepository reads identity-provider accounts
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error)
	Search(ctx context.Context, filter UserFilter) ([]*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	// Upsert creates or refreshes an account keyed by username
	Upsert(ctx context.Context, user *models.User) (int64, error)
}

// EventFilter narrows event listings
type EventFilter struct {
	Archived   bool
	IncludeNDA bool
	Offset     uint64
	Limit      int
}

// QuestionFilter narrows question listings
type QuestionFilter struct {
	EventID int64
	// State restricts to one acceptance state when set
	State *models.AcceptanceState
	// RankByVotes orders by vote count descending, ties by id; otherwise by id
	RankByVotes bool
}

// UserFilter drives the moderator autocomplete
type UserFilter struct {
	Query string
	// ActiveSince hides non-superusers whose last login is older.
	// Users that never logged in are kept.
	ActiveSince time.Time
	Limit       int
}

// Repositories holds all the repository instances
type Repositories struct {
	EventRepository    EventRepository
	QuestionRepository QuestionRepository
	VoteRepository     VoteRepository
	UserRepository     UserRepository
}

// NewRepositories initializes the PostgreSQL-backed repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		EventRepository:    NewEventRepository(database),
		QuestionRepository: NewQuestionRepository(database),
		VoteRepository:     NewVoteRepository(database),
		UserRepository:     NewUserRepository(database),
	}
}

func statementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
