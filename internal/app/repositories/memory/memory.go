// Package memory is an in-process implementation of the repository
// interfaces, used by tests and the "memory" database driver.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/app/repositories"
	"github.com/yigit/moderator/internal/pkg/apperrors"
)

type voteKey struct {
	userID, questionID int64
}

// Store holds every table behind one mutex
type Store struct {
	mu sync.Mutex

	users     map[int64]*models.User
	events    map[int64]*models.Event
	questions map[int64]*models.Question
	votes     map[voteKey]time.Time

	nextUserID, nextEventID, nextQuestionID int64
	now                                     func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:     make(map[int64]*models.User),
		events:    make(map[int64]*models.Event),
		questions: make(map[int64]*models.Question),
		votes:     make(map[voteKey]time.Time),
		now:       time.Now,
	}
}

// NewRepositories wires a fresh store into the repository set
func NewRepositories() (*repositories.Repositories, *Store) {
	s := NewStore()
	return &repositories.Repositories{
		EventRepository:    (*eventRepo)(s),
		QuestionRepository: (*questionRepo)(s),
		VoteRepository:     (*voteRepo)(s),
		UserRepository:     (*userRepo)(s),
	}, s
}

// Events returns the store as an EventRepository
func (s *Store) Events() repositories.EventRepository { return (*eventRepo)(s) }

// Questions returns the store as a QuestionRepository
func (s *Store) Questions() repositories.QuestionRepository { return (*questionRepo)(s) }

// Votes returns the store as a VoteRepository
func (s *Store) Votes() repositories.VoteRepository { return (*voteRepo)(s) }

// Users returns the store as a UserRepository
func (s *Store) Users() repositories.UserRepository { return (*userRepo)(s) }

func copyEvent(e *models.Event) *models.Event {
	c := *e
	c.ModeratorIDs = append([]int64{}, e.ModeratorIDs...)
	return &c
}

func copyQuestion(q *models.Question) *models.Question {
	c := *q
	return &c
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func dedupe(ids []int64) []int64 {
	out := []int64{}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Store) checkModerators(ids []int64) error {
	for _, id := range ids {
		if _, ok := s.users[id]; !ok {
			return apperrors.NewValidationError("unknown moderator", map[string]interface{}{"moderatorIds": "contains an unknown user"})
		}
	}
	return nil
}

func (s *Store) voteCount(questionID int64) int {
	n := 0
	for k := range s.votes {
		if k.questionID == questionID {
			n++
		}
	}
	return n
}

type eventRepo Store

func (r *eventRepo) Create(_ context.Context, event *models.Event) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.Slug == event.Slug {
			return 0, apperrors.ErrSlugAlreadyExists
		}
	}
	if err := s.checkModerators(event.ModeratorIDs); err != nil {
		return 0, err
	}
	s.nextEventID++
	event.ID = s.nextEventID
	event.CreatedAt = s.now()
	event.ModeratorIDs = dedupe(event.ModeratorIDs)
	s.events[event.ID] = copyEvent(event)
	return event.ID, nil
}

func (r *eventRepo) Update(_ context.Context, event *models.Event) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.events[event.ID]
	if !ok {
		return apperrors.ErrEventNotFound
	}
	if err := s.checkModerators(event.ModeratorIDs); err != nil {
		return err
	}
	stored.Name = event.Name
	stored.EventDate = event.EventDate
	stored.Archived = event.Archived
	stored.IsNDA = event.IsNDA
	stored.IsModerated = event.IsModerated
	stored.UsersCanVote = event.UsersCanVote
	stored.ModeratorIDs = dedupe(event.ModeratorIDs)
	return nil
}

func (r *eventRepo) Delete(_ context.Context, id int64) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return apperrors.ErrEventNotFound
	}
	delete(s.events, id)
	for qid, q := range s.questions {
		if q.EventID != id {
			continue
		}
		delete(s.questions, qid)
		for k := range s.votes {
			if k.questionID == qid {
				delete(s.votes, k)
			}
		}
	}
	return nil
}

func (r *eventRepo) GetByID(_ context.Context, id int64) (*models.Event, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	return copyEvent(e), nil
}

func (r *eventRepo) GetBySlug(_ context.Context, slug string) (*models.Event, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.Slug == slug {
			return copyEvent(e), nil
		}
	}
	return nil, apperrors.ErrEventNotFound
}

func (r *eventRepo) GetBySlugs(_ context.Context, slugs []string) ([]*models.Event, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	events := []*models.Event{}
	seen := map[string]bool{}
	for _, slug := range slugs {
		if seen[slug] {
			continue
		}
		seen[slug] = true
		for _, e := range s.events {
			if e.Slug == slug {
				events = append(events, copyEvent(e))
				break
			}
		}
	}
	return events, nil
}

func (r *eventRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) matchingEvents(filter repositories.EventFilter) []*models.Event {
	events := []*models.Event{}
	for _, e := range s.events {
		if e.Archived != filter.Archived || (e.IsNDA && !filter.IncludeNDA) {
			continue
		}
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		}
		return events[i].ID > events[j].ID
	})
	return events
}

func (r *eventRepo) List(_ context.Context, filter repositories.EventFilter) ([]models.EventWithStats, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.matchingEvents(filter)
	if filter.Limit > 0 {
		start := int(filter.Offset)
		if start > len(events) {
			start = len(events)
		}
		end := start + filter.Limit
		if end > len(events) {
			end = len(events)
		}
		events = events[start:end]
	}

	result := make([]models.EventWithStats, 0, len(events))
	for _, e := range events {
		item := models.EventWithStats{Event: *copyEvent(e)}
		for _, q := range s.questions {
			if q.EventID != e.ID {
				continue
			}
			switch q.State() {
			case models.StateAccepted:
				item.Stats.Approved++
			case models.StateRejected:
				item.Stats.Rejected++
			default:
				item.Stats.Pending++
			}
		}
		result = append(result, item)
	}
	return result, nil
}

func (r *eventRepo) Count(_ context.Context, filter repositories.EventFilter) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.matchingEvents(filter))), nil
}

type questionRepo Store

func (r *questionRepo) Create(_ context.Context, question *models.Question) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[question.EventID]; !ok {
		return 0, apperrors.ErrEventNotFound
	}
	s.nextQuestionID++
	question.ID = s.nextQuestionID
	question.CreatedAt = s.now()
	s.questions[question.ID] = copyQuestion(question)
	return question.ID, nil
}

func (r *questionRepo) UpdateReply(_ context.Context, question *models.Question) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.questions[question.ID]
	if !ok {
		return apperrors.ErrQuestionNotFound
	}
	stored.Text = question.Text
	stored.Answer = question.Answer
	stored.Addressed = question.Addressed
	return nil
}

func (r *questionRepo) UpdateDecision(_ context.Context, id int64, accepted bool, reason *string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.questions[id]
	if !ok {
		return apperrors.ErrQuestionNotFound
	}
	stored.IsAccepted = &accepted
	stored.RejectionReason = reason
	return nil
}

func (r *questionRepo) GetByID(_ context.Context, id int64) (*models.Question, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, apperrors.ErrQuestionNotFound
	}
	return copyQuestion(q), nil
}

func (r *questionRepo) List(_ context.Context, filter repositories.QuestionFilter) ([]models.QuestionWithVotes, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	result := []models.QuestionWithVotes{}
	for _, q := range s.questions {
		if q.EventID != filter.EventID {
			continue
		}
		if filter.State != nil && q.State() != *filter.State {
			continue
		}
		result = append(result, models.QuestionWithVotes{Question: *copyQuestion(q), VoteCount: s.voteCount(q.ID)})
	}
	sort.Slice(result, func(i, j int) bool {
		if filter.RankByVotes && result[i].VoteCount != result[j].VoteCount {
			return result[i].VoteCount > result[j].VoteCount
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type voteRepo Store

func (r *voteRepo) Toggle(_ context.Context, userID, questionID int64) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[questionID]; !ok {
		return false, apperrors.ErrQuestionNotFound
	}
	key := voteKey{userID: userID, questionID: questionID}
	if _, ok := s.votes[key]; ok {
		delete(s.votes, key)
		return false, nil
	}
	s.votes[key] = s.now()
	return true, nil
}

func (r *voteRepo) CountByQuestion(_ context.Context, questionID int64) (int, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voteCount(questionID), nil
}

type userRepo Store

func (r *userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *userRepo) GetByIDs(_ context.Context, ids []int64) ([]*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	users := []*models.User{}
	for _, id := range dedupe(ids) {
		if u, ok := s.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	return users, nil
}

func (r *userRepo) Search(_ context.Context, filter repositories.UserFilter) ([]*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	users := []*models.User{}
	for _, u := range s.users {
		if !u.IsActive {
			continue
		}
		if !u.IsSuperuser && u.LastLoginAt != nil && u.LastLoginAt.Before(filter.ActiveSince) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(u.FirstName), q) &&
			!strings.Contains(strings.ToLower(u.Email), q) &&
			!strings.Contains(strings.ToLower(u.Username), q) {
			continue
		}
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	if filter.Limit > 0 && len(users) > filter.Limit {
		users = users[:filter.Limit]
	}
	return users, nil
}

func (r *userRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (r *userRepo) Upsert(_ context.Context, user *models.User) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			user.ID = u.ID
			user.CreatedAt = u.CreatedAt
			if user.LastLoginAt == nil {
				user.LastLoginAt = u.LastLoginAt
			}
			s.users[u.ID] = copyUser(user)
			return u.ID, nil
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	s.users[user.ID] = copyUser(user)
	return user.ID, nil
}
