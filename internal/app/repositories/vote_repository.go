package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/moderator/internal/db"
	"github.com/yigit/moderator/internal/pkg/apperrors"
	"github.com/yigit/moderator/internal/pkg/dberrors"
	"github.com/yigit/moderator/internal/pkg/logger"
)

// PgVoteRepository handles vote database operations
type PgVoteRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewVoteRepository creates a new PgVoteRepository
func NewVoteRepository(database *db.PostgresDB) *PgVoteRepository {
	return &PgVoteRepository{db: database, sb: statementBuilder()}
}

// Toggle deletes the caller's vote if present, otherwise inserts one.
// A concurrent insert of the same pair loses on the unique constraint.
func (r *PgVoteRepository) Toggle(ctx context.Context, userID, questionID int64) (bool, error) {
	delSQL, delArgs, err := r.sb.Delete("votes").
		Where(squirrel.Eq{"user_id": userID, "question_id": questionID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete vote query: %w", err)
	}
	insSQL, insArgs, err := r.sb.Insert("votes").
		Columns("user_id", "question_id").
		Values(userID, questionID).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build insert vote query: %w", err)
	}

	var created bool
	err = r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, delSQL, delArgs...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, insSQL, insArgs...); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintVoteUnique) {
			return false, apperrors.ErrDuplicateVote
		}
		if dberrors.IsForeignKeyViolation(err) {
			return false, apperrors.ErrQuestionNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Int64("questionID", questionID).Msg("Error toggling vote")
		return false, fmt.Errorf("error toggling vote: %w", err)
	}
	return created, nil
}

// CountByQuestion returns the live vote count for a question
func (r *PgVoteRepository) CountByQuestion(ctx context.Context, questionID int64) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").From("votes").Where(squirrel.Eq{"question_id": questionID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count votes query: %w", err)
	}
	var n int
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting votes: %w", err)
	}
	return n, nil
}
