package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/app/repositories"
	"github.com/yigit/moderator/internal/pkg/apperrors"
)

// ExportFilename is the attachment name of the CSV export
const ExportFilename = "questions.csv"

// ExportService writes administrative reports
type ExportService interface {
	ExportQuestionsCSV(ctx context.Context, actor *models.User, slugs []string, w io.Writer) error
}

type exportServiceImpl struct {
	eventRepo    repositories.EventRepository
	questionRepo repositories.QuestionRepository
	logger       zerolog.Logger
}

// NewExportService creates a new ExportService
func NewExportService(repos *repositories.Repositories, logger zerolog.Logger) ExportService {
	return &exportServiceImpl{
		eventRepo:    repos.EventRepository,
		questionRepo: repos.QuestionRepository,
		logger:       logger.With().Str("service", "export").Logger(),
	}
}

// ExportQuestionsCSV writes, per event, a name row followed by one
// (question, votes) row per question, most voted first. Superusers only.
func (s *exportServiceImpl) ExportQuestionsCSV(ctx context.Context, actor *models.User, slugs []string, w io.Writer) error {
	if actor == nil || !actor.IsSuperuser {
		return apperrors.NewForbiddenError("Only superusers can export questions")
	}
	events, err := s.eventRepo.GetBySlugs(ctx, slugs)
	if err != nil {
		return fmt.Errorf("loading events: %w", err)
	}

	writer := csv.NewWriter(w)
	for _, e := range events {
		if err := writer.Write([]string{e.Name}); err != nil {
			return err
		}
		questions, err := s.questionRepo.List(ctx, repositories.QuestionFilter{EventID: e.ID, RankByVotes: true})
		if err != nil {
			return fmt.Errorf("listing questions of %s: %w", e.Slug, err)
		}
		for _, q := range questions {
			if err := writer.Write([]string{q.Text, strconv.Itoa(q.VoteCount)}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	s.logger.Info().Int64("actorID", actor.ID).Int("events", len(events)).Msg("Questions exported")
	return nil
}
