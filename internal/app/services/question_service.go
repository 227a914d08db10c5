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
	"github.com/yigit/moderator/internal/pkg/email"
)

// Notice texts and mail subject shown to users
const (
	MsgQuestionSubmitted = "Your question has been successfully submitted. "
	MsgReviewPending     = "Review is pending by an event moderator."
	MsgEmailSent         = "Email sent successfully"
	MsgVotingNotAllowed  = "Voting is not allowed for this event."
	ModerationSubject    = "Question moderation update"
)

// QuestionService defines question lifecycle operations
type QuestionService interface {
	Submit(ctx context.Context, actor *models.User, slug string, req *dto.SubmitQuestionRequest) (*dto.QuestionResponse, []dto.Notice, error)
	Reply(ctx context.Context, actor *models.User, slug string, questionID int64, req *dto.ReplyQuestionRequest) (*dto.QuestionResponse, []dto.Notice, error)
	Moderate(ctx context.Context, actor *models.User, slug string, questionID int64, req *dto.ModerateRequest) (*dto.ModerationQuestionResponse, []dto.Notice, error)
	ToggleVote(ctx context.Context, actor *models.User, questionID int64) (*dto.VoteResponse, []dto.Notice, error)
}

type questionServiceImpl struct {
	eventRepo    repositories.EventRepository
	questionRepo repositories.QuestionRepository
	voteRepo     repositories.VoteRepository
	userRepo     repositories.UserRepository
	sender       email.Sender
	publisher    QuestionPublisher
	logger       zerolog.Logger
}

// NewQuestionService creates a new QuestionService
func NewQuestionService(repos *repositories.Repositories, sender email.Sender, publisher QuestionPublisher, logger zerolog.Logger) QuestionService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &questionServiceImpl{
		eventRepo:    repos.EventRepository,
		questionRepo: repos.QuestionRepository,
		voteRepo:     repos.VoteRepository,
		userRepo:     repos.UserRepository,
		sender:       sender,
		publisher:    publisher,
		logger:       logger.With().Str("service", "question").Logger(),
	}
}

// openEvent loads a visible event that still accepts mutations
func (s *questionServiceImpl) openEvent(ctx context.Context, actor *models.User, slug string) (*models.Event, error) {
	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !moderation.CanViewEvent(actor, event) {
		return nil, apperrors.ErrEventNotFound
	}
	if event.Archived {
		return nil, apperrors.ErrEventArchived
	}
	return event, nil
}

// askedBy loads the named asker of q, nil for anonymous questions
func (s *questionServiceImpl) askedBy(ctx context.Context, q *models.Question) (*models.User, error) {
	if q.IsAnonymous || q.AskedByID == nil {
		return nil, nil
	}
	user, err := s.userRepo.GetByID(ctx, *q.AskedByID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, nil
	}
	return user, err
}

// Submit stores a new question, accepted immediately when the event is
// unmoderated or the actor moderates it
func (s *questionServiceImpl) Submit(ctx context.Context, actor *models.User, slug string, req *dto.SubmitQuestionRequest) (*dto.QuestionResponse, []dto.Notice, error) {
	event, err := s.openEvent(ctx, actor, slug)
	if err != nil {
		return nil, nil, err
	}

	state := moderation.InitialState(actor, event)
	q := &models.Question{
		EventID:     event.ID,
		Text:        strings.TrimSpace(req.Question),
		IsAnonymous: req.IsAnonymous,
	}
	q.SetState(state)
	if !q.IsAnonymous {
		q.AskedByID = &actor.ID
		if actor.Email != "" {
			contact := actor.Email
			q.SubmitterContactInfo = &contact
		}
	}

	if _, err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, nil, fmt.Errorf("creating question: %w", err)
	}
	s.logger.Info().
		Int64("questionID", q.ID).
		Int64("eventID", event.ID).
		Str("state", string(state)).
		Bool("anonymous", q.IsAnonymous).
		Msg("Question submitted")

	msg := MsgQuestionSubmitted
	if state != models.StateAccepted {
		msg += MsgReviewPending
	}
	var asker *models.User
	if !q.IsAnonymous {
		asker = actor
	}
	resp := dto.NewQuestionResponse(q, asker)
	if state == models.StateAccepted {
		s.publisher.PublishQuestion(event.ID, QuestionAccepted, resp)
	}
	return &resp, []dto.Notice{success(msg)}, nil
}

// Reply edits an existing question in place. Identity, event and
// acceptance are never touched.
func (s *questionServiceImpl) Reply(ctx context.Context, actor *models.User, slug string, questionID int64, req *dto.ReplyQuestionRequest) (*dto.QuestionResponse, []dto.Notice, error) {
	event, err := s.openEvent(ctx, actor, slug)
	if err != nil {
		return nil, nil, err
	}
	if !moderation.CanModerate(actor, event) {
		return nil, nil, apperrors.ErrQuestionNotFound
	}
	q, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, nil, err
	}
	if q.EventID != event.ID {
		return nil, nil, apperrors.ErrQuestionNotFound
	}

	if req.Question != nil {
		q.Text = strings.TrimSpace(*req.Question)
	}
	if req.Answer != nil {
		if answer := strings.TrimSpace(*req.Answer); answer != "" {
			q.Answer = &answer
		} else {
			q.Answer = nil
		}
	}
	if req.Addressed != nil {
		q.Addressed = *req.Addressed
	}

	if err := s.questionRepo.UpdateReply(ctx, q); err != nil {
		return nil, nil, err
	}
	s.logger.Info().Int64("questionID", q.ID).Int64("actorID", actor.ID).Msg("Question replied")

	asker, err := s.askedBy(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	resp := dto.NewQuestionResponse(q, asker)
	if q.State() == models.StateAccepted {
		s.publisher.PublishQuestion(event.ID, QuestionUpdated, resp)
	}
	return &resp, nil, nil
}

// Moderate records a decision and mails the rejection reason to the submitter
// when there is one. A failed mail leaves the decision stored.
func (s *questionServiceImpl) Moderate(ctx context.Context, actor *models.User, slug string, questionID int64, req *dto.ModerateRequest) (*dto.ModerationQuestionResponse, []dto.Notice, error) {
	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if !moderation.CanModerate(actor, event) {
		return nil, nil, apperrors.ErrEventNotFound
	}
	if event.Archived {
		return nil, nil, apperrors.ErrEventArchived
	}

	q, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrQuestionNotFound) {
			return nil, nil, apperrors.ErrInvalidQuestion
		}
		return nil, nil, err
	}
	if q.EventID != event.ID {
		return nil, nil, apperrors.ErrInvalidQuestion
	}

	next, ok := moderation.Transition(q.State(), req.Decision)
	if !ok {
		return nil, nil, apperrors.NewValidationError("unknown decision",
			map[string]interface{}{"decision": "must be one of: accept reject"})
	}

	var reason *string
	if req.RejectionReason != nil {
		if r := strings.TrimSpace(*req.RejectionReason); r != "" {
			reason = &r
		}
	}
	if err := s.questionRepo.UpdateDecision(ctx, q.ID, next == models.StateAccepted, reason); err != nil {
		return nil, nil, err
	}
	prev := q.State()
	q.SetState(next)
	q.RejectionReason = reason
	s.logger.Info().
		Int64("questionID", q.ID).
		Int64("eventID", event.ID).
		Int64("actorID", actor.ID).
		Str("state", string(next)).
		Msg("Question moderated")

	asker, err := s.askedBy(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	resp := &dto.ModerationQuestionResponse{
		QuestionResponse: dto.NewQuestionResponse(q, asker),
		HasContactInfo:   q.HasContactInfo(),
		RejectionReason:  q.RejectionReason,
	}
	switch {
	case next == models.StateAccepted && prev != models.StateAccepted:
		s.publisher.PublishQuestion(event.ID, QuestionAccepted, resp.QuestionResponse)
	case next != models.StateAccepted && prev == models.StateAccepted:
		s.publisher.PublishQuestion(event.ID, QuestionRemoved, resp.QuestionResponse)
	}

	if reason == nil || !moderation.ShouldNotifyRejection(q, *reason) {
		return resp, nil, nil
	}
	if err := s.sender.Send(ctx, *q.SubmitterContactInfo, ModerationSubject, *reason); err != nil {
		s.logger.Error().Err(err).Int64("questionID", q.ID).Msg("Failed to send moderation email")
		return resp, nil, fmt.Errorf("%w: %v", apperrors.ErrNotificationFailed, err)
	}
	s.logger.Info().Int64("questionID", q.ID).Msg("Moderation email sent")
	return resp, []dto.Notice{success(MsgEmailSent)}, nil
}

// ToggleVote adds or removes the actor's vote. A vote the event does not
// admit is a soft denial: no change and a warning notice.
func (s *questionServiceImpl) ToggleVote(ctx context.Context, actor *models.User, questionID int64) (*dto.VoteResponse, []dto.Notice, error) {
	q, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, q.EventID)
	if err != nil {
		return nil, nil, err
	}
	if !moderation.CanViewEvent(actor, event) {
		return nil, nil, apperrors.ErrQuestionNotFound
	}

	if event.Archived || !moderation.CanVote(actor, event) {
		s.logger.Debug().Int64("questionID", q.ID).Int64("actorID", actor.ID).Msg("Vote refused")
		return &dto.VoteResponse{}, []dto.Notice{warning(MsgVotingNotAllowed)}, nil
	}

	created, err := s.voteRepo.Toggle(ctx, actor.ID, q.ID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info().Int64("questionID", q.ID).Int64("actorID", actor.ID).Bool("created", created).Msg("Vote toggled")

	resp := &dto.VoteResponse{}
	if moderation.CanSeeVoteCount(actor, event) {
		count, err := s.voteRepo.CountByQuestion(ctx, q.ID)
		if err != nil {
			return nil, nil, err
		}
		resp.CurrentVoteCount = &count
	}
	return resp, nil, nil
}
