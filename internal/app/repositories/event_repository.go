package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/db"
	"github.com/yigit/moderator/internal/pkg/apperrors"
	"github.com/yigit/moderator/internal/pkg/dberrors"
	"github.com/yigit/moderator/internal/pkg/logger"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var eventColumns = []string{
	"e.id", "e.name", "e.slug", "e.created_at", "e.event_date",
	"e.archived", "e.is_nda", "e.is_moderated", "e.users_can_vote", "e.created_by",
}

// PgEventRepository handles event database operations
type PgEventRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewEventRepository creates a new PgEventRepository
func NewEventRepository(database *db.PostgresDB) *PgEventRepository {
	return &PgEventRepository{db: database, sb: statementBuilder()}
}

func scanEvent(row pgx.Row, e *models.Event, extra ...any) error {
	dest := []any{
		&e.ID, &e.Name, &e.Slug, &e.CreatedAt, &e.EventDate,
		&e.Archived, &e.IsNDA, &e.IsModerated, &e.UsersCanVote, &e.CreatedByID,
	}
	return row.Scan(append(dest, extra...)...)
}

// Create inserts the event row and its moderator set in one transaction
func (r *PgEventRepository) Create(ctx context.Context, event *models.Event) (int64, error) {
	sql, args, err := r.sb.Insert("events").
		Columns("name", "slug", "event_date", "archived", "is_nda", "is_moderated", "users_can_vote", "created_by").
		Values(event.Name, event.Slug, event.EventDate, event.Archived, event.IsNDA, event.IsModerated, event.UsersCanVote, event.CreatedByID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create event query: %w", err)
	}

	err = r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, sql, args...).Scan(&event.ID, &event.CreatedAt); err != nil {
			return err
		}
		return r.insertModerators(ctx, tx, event.ID, event.ModeratorIDs)
	})
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintEventSlug) {
			return 0, apperrors.ErrSlugAlreadyExists
		}
		if dberrors.IsForeignKeyViolation(err) {
			return 0, apperrors.NewValidationError("unknown moderator", map[string]interface{}{"moderatorIds": "contains an unknown user"})
		}
		logger.Error().Err(err).Str("slug", event.Slug).Msg("Error creating event")
		return 0, fmt.Errorf("error creating event: %w", err)
	}
	return event.ID, nil
}

// Update writes the mutable columns and replaces the moderator set in one transaction
func (r *PgEventRepository) Update(ctx context.Context, event *models.Event) error {
	sql, args, err := r.sb.Update("events").
		SetMap(map[string]interface{}{
			"name":           event.Name,
			"event_date":     event.EventDate,
			"archived":       event.Archived,
			"is_nda":         event.IsNDA,
			"is_moderated":   event.IsModerated,
			"users_can_vote": event.UsersCanVote,
		}).
		Where(squirrel.Eq{"id": event.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update event query: %w", err)
	}

	err = r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrEventNotFound
		}
		if _, err := tx.Exec(ctx, "DELETE FROM event_moderators WHERE event_id = $1", event.ID); err != nil {
			return err
		}
		return r.insertModerators(ctx, tx, event.ID, event.ModeratorIDs)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrEventNotFound) {
			return err
		}
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NewValidationError("unknown moderator", map[string]interface{}{"moderatorIds": "contains an unknown user"})
		}
		logger.Error().Err(err).Int64("eventID", event.ID).Msg("Error updating event")
		return fmt.Errorf("error updating event: %w", err)
	}
	return nil
}

func (r *PgEventRepository) insertModerators(ctx context.Context, q querier, eventID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	ins := r.sb.Insert("event_moderators").Columns("event_id", "user_id")
	seen := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ins = ins.Values(eventID, id)
	}
	sql, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert moderators query: %w", err)
	}
	_, err = q.Exec(ctx, sql, args...)
	return err
}

// Delete removes the event; questions, votes and moderator links cascade
func (r *PgEventRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("events").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete event query: %w", err)
	}
	tag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("eventID", id).Msg("Error deleting event")
		return fmt.Errorf("error deleting event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}
	return nil
}

// GetByID retrieves an event with its moderators
func (r *PgEventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return r.getOne(ctx, squirrel.Eq{"e.id": id})
}

// GetBySlug retrieves an event with its moderators
func (r *PgEventRepository) GetBySlug(ctx context.Context, slug string) (*models.Event, error) {
	return r.getOne(ctx, squirrel.Eq{"e.slug": slug})
}

func (r *PgEventRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.Event, error) {
	sql, args, err := r.sb.Select(eventColumns...).From("events e").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get event query: %w", err)
	}

	event := &models.Event{}
	if err := scanEvent(r.db.Pool.QueryRow(ctx, sql, args...), event); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		logger.Error().Err(err).Interface("where", where).Msg("Error scanning event row")
		return nil, fmt.Errorf("error getting event: %w", err)
	}

	moderators, err := r.moderatorsFor(ctx, []int64{event.ID})
	if err != nil {
		return nil, err
	}
	event.ModeratorIDs = nonNil(moderators[event.ID])
	return event, nil
}

// GetBySlugs retrieves events in slug order, skipping unknown slugs
func (r *PgEventRepository) GetBySlugs(ctx context.Context, slugs []string) ([]*models.Event, error) {
	if len(slugs) == 0 {
		return []*models.Event{}, nil
	}
	sql, args, err := r.sb.Select(eventColumns...).From("events e").Where(squirrel.Eq{"e.slug": slugs}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get events by slugs query: %w", err)
	}
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying events by slugs: %w", err)
	}
	defer rows.Close()

	bySlug := make(map[string]*models.Event, len(slugs))
	for rows.Next() {
		e := &models.Event{}
		if err := scanEvent(rows, e); err != nil {
			return nil, fmt.Errorf("error scanning event row: %w", err)
		}
		e.ModeratorIDs = []int64{}
		bySlug[e.Slug] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	events := make([]*models.Event, 0, len(bySlug))
	for _, slug := range slugs {
		if e, ok := bySlug[slug]; ok {
			events = append(events, e)
			delete(bySlug, slug)
		}
	}
	return events, nil
}

// SlugExists checks whether an event already uses the slug
func (r *PgEventRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	sql, args, err := r.sb.Select("1").Prefix("SELECT EXISTS (").From("events").Where(squirrel.Eq{"slug": slug}).Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build slug exists query: %w", err)
	}
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking slug: %w", err)
	}
	return exists, nil
}

func (r *PgEventRepository) filtered(b squirrel.SelectBuilder, filter EventFilter) squirrel.SelectBuilder {
	b = b.Where(squirrel.Eq{"e.archived": filter.Archived})
	if !filter.IncludeNDA {
		b = b.Where(squirrel.Eq{"e.is_nda": false})
	}
	return b
}

// List returns events newest first with their question counts and moderators
func (r *PgEventRepository) List(ctx context.Context, filter EventFilter) ([]models.EventWithStats, error) {
	cols := append(append([]string{}, eventColumns...),
		"COUNT(q.id) FILTER (WHERE q.is_accepted IS TRUE)",
		"COUNT(q.id) FILTER (WHERE q.is_accepted IS FALSE)",
		"COUNT(q.id) FILTER (WHERE q.id IS NOT NULL AND q.is_accepted IS NULL)",
	)
	b := r.filtered(r.sb.Select(cols...).From("events e").LeftJoin("questions q ON q.event_id = e.id"), filter).
		GroupBy("e.id").
		OrderBy("e.created_at DESC", "e.id DESC")
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit)).Offset(filter.Offset)
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list events query: %w", err)
	}
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list events query")
		return nil, fmt.Errorf("error querying events: %w", err)
	}
	defer rows.Close()

	events := []models.EventWithStats{}
	ids := []int64{}
	for rows.Next() {
		var e models.EventWithStats
		if err := scanEvent(rows, &e.Event, &e.Stats.Approved, &e.Stats.Rejected, &e.Stats.Pending); err != nil {
			return nil, fmt.Errorf("error scanning event row: %w", err)
		}
		events = append(events, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	moderators, err := r.moderatorsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].ModeratorIDs = nonNil(moderators[events[i].ID])
	}
	return events, nil
}

// Count returns the number of events matching the filter, ignoring paging
func (r *PgEventRepository) Count(ctx context.Context, filter EventFilter) (int64, error) {
	sql, args, err := r.filtered(r.sb.Select("COUNT(*)").From("events e"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count events query: %w", err)
	}
	var total int64
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting events: %w", err)
	}
	return total, nil
}

func (r *PgEventRepository) moderatorsFor(ctx context.Context, eventIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return result, nil
	}
	sql, args, err := r.sb.Select("event_id", "user_id").
		From("event_moderators").
		Where(squirrel.Eq{"event_id": eventIDs}).
		OrderBy("user_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build moderators query: %w", err)
	}
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying moderators: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var eventID, userID int64
		if err := rows.Scan(&eventID, &userID); err != nil {
			return nil, fmt.Errorf("error scanning moderator row: %w", err)
		}
		result[eventID] = append(result[eventID], userID)
	}
	return result, rows.Err()
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
