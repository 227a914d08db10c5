package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/db"
	"github.com/yigit/moderator/internal/pkg/apperrors"
	"github.com/yigit/moderator/internal/pkg/logger"
)

var userColumns = []string{
	"u.id", "u.username", "u.email", "u.first_name", "u.last_name", "u.is_active",
	"u.is_superuser", "u.last_login_at", "u.created_at",
	"COALESCE(p.is_nda_member, FALSE)", "COALESCE(p.is_admin, FALSE)",
}

// PgUserRepository reads users and their profiles
type PgUserRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new PgUserRepository
func NewUserRepository(database *db.PostgresDB) *PgUserRepository {
	return &PgUserRepository{db: database, sb: statementBuilder()}
}

func (r *PgUserRepository) selectUsers() squirrel.SelectBuilder {
	return r.sb.Select(userColumns...).From("users u").LeftJoin("user_profiles p ON p.user_id = u.id")
}

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsActive,
		&u.IsSuperuser, &u.LastLoginAt, &u.CreatedAt, &u.Profile.IsNDAMember, &u.Profile.IsAdmin)
}

// GetByID retrieves a user by ID
func (r *PgUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.id": id})
}

// GetByUsername retrieves a user by username
func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.username": username})
}

func (r *PgUserRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	sql, args, err := r.selectUsers().Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}
	u := &models.User{}
	if err := scanUser(r.db.Pool.QueryRow(ctx, sql, args...), u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return u, nil
}

// GetByIDs retrieves users ordered by id; unknown ids are skipped
func (r *PgUserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	return r.list(ctx, r.selectUsers().Where(squirrel.Eq{"u.id": ids}).OrderBy("u.id"))
}

// Search returns active users matching the query on first name, email or username
func (r *PgUserRepository) Search(ctx context.Context, filter UserFilter) ([]*models.User, error) {
	b := r.selectUsers().
		Where(squirrel.Eq{"u.is_active": true}).
		Where(squirrel.Or{
			squirrel.Eq{"u.is_superuser": true},
			squirrel.Eq{"u.last_login_at": nil},
			squirrel.GtOrEq{"u.last_login_at": filter.ActiveSince},
		}).
		OrderBy("u.username")
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + q + "%"
		b = b.Where(squirrel.Or{
			squirrel.ILike{"u.first_name": like},
			squirrel.ILike{"u.email": like},
			squirrel.ILike{"u.username": like},
		})
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	return r.list(ctx, b)
}

func (r *PgUserRepository) list(ctx context.Context, b squirrel.SelectBuilder) ([]*models.User, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list users query: %w", err)
	}
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list users query")
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u := &models.User{}
		if err := scanUser(rows, u); err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// UpdateLastLogin stamps the login time
func (r *PgUserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	sql, args, err := r.sb.Update("users").Set("last_login_at", at).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update last login query: %w", err)
	}
	tag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Upsert creates or refreshes a user and profile keyed by username
func (r *PgUserRepository) Upsert(ctx context.Context, user *models.User) (int64, error) {
	userSQL, userArgs, err := r.sb.Insert("users").
		Columns("username", "email", "first_name", "last_name", "is_active", "is_superuser").
		Values(user.Username, user.Email, user.FirstName, user.LastName, user.IsActive, user.IsSuperuser).
		Suffix(`ON CONFLICT ON CONSTRAINT users_username_key DO UPDATE SET
			email = EXCLUDED.email, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			is_active = EXCLUDED.is_active, is_superuser = EXCLUDED.is_superuser
			RETURNING id, created_at`).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build upsert user query: %w", err)
	}

	err = r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, userSQL, userArgs...).Scan(&user.ID, &user.CreatedAt); err != nil {
			return err
		}
		profileSQL, profileArgs, err := r.sb.Insert("user_profiles").
			Columns("user_id", "is_nda_member", "is_admin").
			Values(user.ID, user.Profile.IsNDAMember, user.Profile.IsAdmin).
			Suffix("ON CONFLICT (user_id) DO UPDATE SET is_nda_member = EXCLUDED.is_nda_member, is_admin = EXCLUDED.is_admin").
			ToSql()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, profileSQL, profileArgs...)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Str("username", user.Username).Msg("Error upserting user")
		return 0, fmt.Errorf("error upserting user: %w", err)
	}
	return user.ID, nil
}
