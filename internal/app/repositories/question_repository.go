package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/db"
	"github.com/yigit/moderator/internal/pkg/apperrors"
	"github.com/yigit/moderator/internal/pkg/logger"
)

var questionColumns = []string{
	"q.id", "q.event_id", "q.question", "q.asked_by", "q.submitter_contact_info",
	"q.is_accepted", "q.is_anonymous", "q.rejection_reason", "q.answer", "q.addressed", "q.created_at",
}

// PgQuestionRepository handles question database operations
type PgQuestionRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewQuestionRepository creates a new PgQuestionRepository
func NewQuestionRepository(database *db.PostgresDB) *PgQuestionRepository {
	return &PgQuestionRepository{db: database, sb: statementBuilder()}
}

func scanQuestion(row pgx.Row, q *models.Question, extra ...any) error {
	dest := []any{
		&q.ID, &q.EventID, &q.Text, &q.AskedByID, &q.SubmitterContactInfo,
		&q.IsAccepted, &q.IsAnonymous, &q.RejectionReason, &q.Answer, &q.Addressed, &q.CreatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// Create inserts a question and fills in its id and creation time
func (r *PgQuestionRepository) Create(ctx context.Context, question *models.Question) (int64, error) {
	sql, args, err := r.sb.Insert("questions").
		Columns("event_id", "question", "asked_by", "submitter_contact_info", "is_accepted", "is_anonymous").
		Values(question.EventID, question.Text, question.AskedByID, question.SubmitterContactInfo, question.IsAccepted, question.IsAnonymous).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create question query: %w", err)
	}

	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&question.ID, &question.CreatedAt); err != nil {
		logger.Error().Err(err).Int64("eventID", question.EventID).Msg("Error creating question")
		return 0, fmt.Errorf("error creating question: %w", err)
	}
	return question.ID, nil
}

// UpdateReply rewrites the text, answer and addressed columns
func (r *PgQuestionRepository) UpdateReply(ctx context.Context, question *models.Question) error {
	sql, args, err := r.sb.Update("questions").
		SetMap(map[string]interface{}{
			"question":  question.Text,
			"answer":    question.Answer,
			"addressed": question.Addressed,
		}).
		Where(squirrel.Eq{"id": question.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update question query: %w", err)
	}
	return r.execOne(ctx, sql, args, question.ID)
}

// UpdateDecision stores the moderation outcome
func (r *PgQuestionRepository) UpdateDecision(ctx context.Context, id int64, accepted bool, reason *string) error {
	sql, args, err := r.sb.Update("questions").
		Set("is_accepted", accepted).
		Set("rejection_reason", reason).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build moderate question query: %w", err)
	}
	return r.execOne(ctx, sql, args, id)
}

func (r *PgQuestionRepository) execOne(ctx context.Context, sql string, args []interface{}, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("questionID", id).Msg("Error updating question")
		return fmt.Errorf("error updating question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrQuestionNotFound
	}
	return nil
}

// GetByID retrieves a single question
func (r *PgQuestionRepository) GetByID(ctx context.Context, id int64) (*models.Question, error) {
	sql, args, err := r.sb.Select(questionColumns...).From("questions q").Where(squirrel.Eq{"q.id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get question query: %w", err)
	}
	q := &models.Question{}
	if err := scanQuestion(r.db.Pool.QueryRow(ctx, sql, args...), q); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQuestionNotFound
		}
		return nil, fmt.Errorf("error getting question: %w", err)
	}
	return q, nil
}

// List returns an event's questions with live vote counts
func (r *PgQuestionRepository) List(ctx context.Context, filter QuestionFilter) ([]models.QuestionWithVotes, error) {
	cols := append(append([]string{}, questionColumns...), "COUNT(v.id)")
	b := r.sb.Select(cols...).
		From("questions q").
		LeftJoin("votes v ON v.question_id = q.id").
		Where(squirrel.Eq{"q.event_id": filter.EventID}).
		GroupBy("q.id")

	if filter.State != nil {
		switch *filter.State {
		case models.StatePending:
			b = b.Where("q.is_accepted IS NULL")
		case models.StateAccepted:
			b = b.Where("q.is_accepted IS TRUE")
		case models.StateRejected:
			b = b.Where("q.is_accepted IS FALSE")
		}
	}
	if filter.RankByVotes {
		b = b.OrderBy("COUNT(v.id) DESC", "q.id ASC")
	} else {
		b = b.OrderBy("q.id ASC")
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list questions query: %w", err)
	}
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("eventID", filter.EventID).Msg("Error executing list questions query")
		return nil, fmt.Errorf("error querying questions: %w", err)
	}
	defer rows.Close()

	questions := []models.QuestionWithVotes{}
	for rows.Next() {
		var q models.QuestionWithVotes
		if err := scanQuestion(rows, &q.Question, &q.VoteCount); err != nil {
			return nil, fmt.Errorf("error scanning question row: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}
	return questions, nil
}
