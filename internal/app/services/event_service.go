package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/app/moderation"
	"github.com/yigit/moderator/internal/app/repositories"
	"github.com/yigit/moderator/internal/pkg/apperrors"
	"github.com/yigit/moderator/internal/pkg/helpers"
)

// maxSlugAttempts bounds the numeric suffix search for a free slug
const maxSlugAttempts = 50

// EventService defines event management operations
type EventService interface {
	ListOpen(ctx context.Context, viewer *models.User) (*dto.EventListResponse, error)
	ListArchived(ctx context.Context, viewer *models.User, page, size int) (*dto.ArchiveListResponse, error)
	Save(ctx context.Context, actor *models.User, slug string, req *dto.SaveEventRequest) (*dto.EventResponse, []dto.Notice, error)
	Delete(ctx context.Context, actor *models.User, slug string) ([]dto.Notice, error)
	Show(ctx context.Context, viewer *models.User, slug string) (*dto.EventDetailResponse, error)
	PendingQuestions(ctx context.Context, actor *models.User, slug string) (*dto.ModerationQueueResponse, error)
	// Visible returns the event when viewer may see it, ErrEventNotFound otherwise
	Visible(ctx context.Context, viewer *models.User, slug string) (*models.Event, error)
}

type eventServiceImpl struct {
	eventRepo    repositories.EventRepository
	questionRepo repositories.QuestionRepository
	userRepo     repositories.UserRepository
	opts         Options
	logger       zerolog.Logger
}

// NewEventService creates a new EventService
func NewEventService(repos *repositories.Repositories, opts Options, logger zerolog.Logger) EventService {
	return &eventServiceImpl{
		eventRepo:    repos.EventRepository,
		questionRepo: repos.QuestionRepository,
		userRepo:     repos.UserRepository,
		opts:         opts,
		logger:       logger.With().Str("service", "event").Logger(),
	}
}

// ListOpen lists non-archived events with question counts
func (s *eventServiceImpl) ListOpen(ctx context.Context, viewer *models.User) (*dto.EventListResponse, error) {
	events, err := s.eventRepo.List(ctx, repositories.EventFilter{
		Archived:   false,
		IncludeNDA: moderation.SeesNDAEvents(viewer),
	})
	if err != nil {
		return nil, fmt.Errorf("listing open events: %w", err)
	}
	resp, err := s.eventResponses(ctx, events)
	if err != nil {
		return nil, err
	}
	return &dto.EventListResponse{Events: resp}, nil
}

// ListArchived returns one page of archived events, newest first.
// A page past the end yields the last page.
func (s *eventServiceImpl) ListArchived(ctx context.Context, viewer *models.User, page, size int) (*dto.ArchiveListResponse, error) {
	filter := repositories.EventFilter{Archived: true, IncludeNDA: moderation.SeesNDAEvents(viewer)}
	total, err := s.eventRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("counting archived events: %w", err)
	}

	size = helpers.NormalizePageSize(size, s.opts.PageSize)
	page = helpers.ClampPage(page, size, total)
	filter.Offset, filter.Limit = helpers.CalculateOffsetLimit(page, size)

	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing archived events: %w", err)
	}
	resp, err := s.eventResponses(ctx, events)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int("page", page).Int64("total", total).Msg("Listed archived events")
	return &dto.ArchiveListResponse{
		Events:     resp,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

func (s *eventServiceImpl) eventResponses(ctx context.Context, events []models.EventWithStats) ([]dto.EventResponse, error) {
	var ids []int64
	for _, e := range events {
		ids = append(ids, e.ModeratorIDs...)
	}
	users, err := usersByID(ctx, s.userRepo, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("loading moderators: %w", err)
	}
	resp := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		item := dto.NewEventResponse(&events[i].Event, moderatorsOf(&events[i].Event, users))
		stats := events[i].Stats
		item.Stats = &stats
		resp = append(resp, item)
	}
	return resp, nil
}

func (s *eventServiceImpl) eventResponse(ctx context.Context, e *models.Event) (dto.EventResponse, error) {
	users, err := usersByID(ctx, s.userRepo, e.ModeratorIDs)
	if err != nil {
		return dto.EventResponse{}, fmt.Errorf("loading moderators: %w", err)
	}
	return dto.NewEventResponse(e, moderatorsOf(e, users)), nil
}

// moderatedEvent loads the event by slug when actor may moderate it.
// Events the actor cannot moderate are reported as not found.
func (s *eventServiceImpl) moderatedEvent(ctx context.Context, actor *models.User, slug string) (*models.Event, error) {
	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !moderation.CanModerate(actor, event) {
		return nil, apperrors.ErrEventNotFound
	}
	return event, nil
}

// Save creates an event when slug is empty, otherwise edits the event at slug
func (s *eventServiceImpl) Save(ctx context.Context, actor *models.User, slug string, req *dto.SaveEventRequest) (*dto.EventResponse, []dto.Notice, error) {
	if slug == "" {
		return s.create(ctx, actor, req)
	}
	return s.edit(ctx, actor, slug, req)
}

func ndaFieldError() error {
	return apperrors.NewValidationError("only NDA members can create NDA events",
		map[string]interface{}{"isNda": "requires NDA membership"})
}

func (s *eventServiceImpl) create(ctx context.Context, actor *models.User, req *dto.SaveEventRequest) (*dto.EventResponse, []dto.Notice, error) {
	if req.IsNDA && !moderation.CanSetNDA(actor) {
		return nil, nil, ndaFieldError()
	}

	event := &models.Event{
		Name:         strings.TrimSpace(req.Name),
		EventDate:    req.EventDate,
		Archived:     req.Archived,
		IsNDA:        req.IsNDA,
		IsModerated:  req.IsModerated,
		UsersCanVote: req.UsersCanVote,
		CreatedByID:  &actor.ID,
		ModeratorIDs: uniqueIDs([]int64{actor.ID}, req.ModeratorIDs),
	}

	base := helpers.Slugify(event.Name)
	for n := 1; ; n++ {
		if n > maxSlugAttempts {
			return nil, nil, apperrors.ErrSlugAlreadyExists
		}
		candidate := helpers.SlugCandidate(base, n)
		exists, err := s.eventRepo.SlugExists(ctx, candidate)
		if err != nil {
			return nil, nil, fmt.Errorf("checking slug: %w", err)
		}
		if exists {
			continue
		}
		event.Slug = candidate
		_, err = s.eventRepo.Create(ctx, event)
		if errors.Is(err, apperrors.ErrSlugAlreadyExists) {
			// taken between the check and the insert
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		break
	}

	s.logger.Info().Int64("eventID", event.ID).Str("slug", event.Slug).Int64("actorID", actor.ID).Msg("Event created")
	resp, err := s.eventResponse(ctx, event)
	if err != nil {
		return nil, nil, err
	}
	return &resp, []dto.Notice{success("Event successfully created.")}, nil
}

func (s *eventServiceImpl) edit(ctx context.Context, actor *models.User, slug string, req *dto.SaveEventRequest) (*dto.EventResponse, []dto.Notice, error) {
	event, err := s.moderatedEvent(ctx, actor, slug)
	if err != nil {
		return nil, nil, err
	}
	if event.Archived && !req.Archived {
		return nil, nil, apperrors.ErrUnarchiveForbidden
	}
	if req.IsNDA && !event.IsNDA && !moderation.CanSetNDA(actor) {
		return nil, nil, ndaFieldError()
	}

	event.Name = strings.TrimSpace(req.Name)
	event.EventDate = req.EventDate
	event.Archived = req.Archived
	event.IsNDA = req.IsNDA
	event.IsModerated = req.IsModerated
	event.UsersCanVote = req.UsersCanVote
	event.ModeratorIDs = uniqueIDs(req.ModeratorIDs)

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, nil, err
	}

	s.logger.Info().Int64("eventID", event.ID).Str("slug", event.Slug).Int64("actorID", actor.ID).Msg("Event edited")
	resp, err := s.eventResponse(ctx, event)
	if err != nil {
		return nil, nil, err
	}
	return &resp, []dto.Notice{success("Event successfully edited.")}, nil
}

// Delete removes an event the actor moderates
func (s *eventServiceImpl) Delete(ctx context.Context, actor *models.User, slug string) ([]dto.Notice, error) {
	event, err := s.moderatedEvent(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	if err := s.eventRepo.Delete(ctx, event.ID); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("eventID", event.ID).Str("slug", slug).Int64("actorID", actor.ID).Msg("Event deleted")
	return []dto.Notice{success("Event successfully deleted.")}, nil
}

// Show returns the event with its accepted questions in viewer order
func (s *eventServiceImpl) Show(ctx context.Context, viewer *models.User, slug string) (*dto.EventDetailResponse, error) {
	event, err := s.Visible(ctx, viewer, slug)
	if err != nil {
		return nil, err
	}

	accepted := models.StateAccepted
	questions, err := s.questionRepo.List(ctx, repositories.QuestionFilter{
		EventID:     event.ID,
		State:       &accepted,
		RankByVotes: moderation.RankedOrdering(viewer, event),
	})
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	moderation.OrderQuestions(viewer, event, questions, s.opts.Shuffle)

	var askerIDs []int64
	for _, q := range questions {
		if q.AskedByID != nil && !q.IsAnonymous {
			askerIDs = append(askerIDs, *q.AskedByID)
		}
	}
	users, err := usersByID(ctx, s.userRepo, uniqueIDs(event.ModeratorIDs, askerIDs))
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}

	showCounts := moderation.CanSeeVoteCount(viewer, event)
	items := make([]dto.QuestionResponse, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		var asker *models.User
		if q.AskedByID != nil {
			asker = users[*q.AskedByID]
		}
		item := dto.NewQuestionResponse(&q.Question, asker)
		if showCounts {
			count := q.VoteCount
			item.VoteCount = &count
		}
		items = append(items, item)
	}

	return &dto.EventDetailResponse{
		Event:       dto.NewEventResponse(event, moderatorsOf(event, users)),
		Open:        !event.Archived,
		CanModerate: moderation.CanModerate(viewer, event),
		Questions:   items,
	}, nil
}

// PendingQuestions returns the moderation queue of an event
func (s *eventServiceImpl) PendingQuestions(ctx context.Context, actor *models.User, slug string) (*dto.ModerationQueueResponse, error) {
	event, err := s.moderatedEvent(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	pending := models.StatePending
	questions, err := s.questionRepo.List(ctx, repositories.QuestionFilter{EventID: event.ID, State: &pending})
	if err != nil {
		return nil, fmt.Errorf("listing pending questions: %w", err)
	}

	var askerIDs []int64
	for _, q := range questions {
		if q.AskedByID != nil {
			askerIDs = append(askerIDs, *q.AskedByID)
		}
	}
	users, err := usersByID(ctx, s.userRepo, uniqueIDs(event.ModeratorIDs, askerIDs))
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}

	items := make([]dto.ModerationQuestionResponse, 0, len(questions))
	for i := range questions {
		q := &questions[i].Question
		var asker *models.User
		if q.AskedByID != nil {
			asker = users[*q.AskedByID]
		}
		items = append(items, dto.ModerationQuestionResponse{
			QuestionResponse: dto.NewQuestionResponse(q, asker),
			HasContactInfo:   q.HasContactInfo(),
			RejectionReason:  q.RejectionReason,
		})
	}
	return &dto.ModerationQueueResponse{
		Event:     dto.NewEventResponse(event, moderatorsOf(event, users)),
		Questions: items,
	}, nil
}

func (s *eventServiceImpl) Visible(ctx context.Context, viewer *models.User, slug string) (*models.Event, error) {
	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !moderation.CanViewEvent(viewer, event) {
		return nil, apperrors.ErrEventNotFound
	}
	return event, nil
}
