package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-task-manager/internal/domain/apperr"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

const userNotFound = "user not found"

const userColumns = `id, name, email, password_hash, age, tokens, avatar, avatar_url, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Age, &u.Tokens, &u.Avatar,
		&u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapError(err, userNotFound)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, age)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, u.Name, u.Email, u.Password, u.Age)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapError(err, userNotFound)
	}
	if u.Tokens == nil {
		u.Tokens = []string{}
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, apperr.NewNotFound(userNotFound)
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *UserRepository) GetByIDAndToken(ctx context.Context, id, token string) (*entity.User, error) {
	if !validID(id) {
		return nil, apperr.NewNotFound(userNotFound)
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND $2 = ANY(tokens)`, id, token))
}

// Update writes the profile columns. Tokens and avatar have their own
// statements so a profile save never clobbers a concurrent login.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, age = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`, u.Name, u.Email, u.Password, u.Age, u.ID)
	return mapError(row.Scan(&u.UpdatedAt), userNotFound)
}

func (r *UserRepository) AddToken(ctx context.Context, id, token string) error {
	return r.execOne(ctx, `UPDATE users SET tokens = array_append(tokens, $2) WHERE id = $1`, id, token)
}

func (r *UserRepository) RemoveToken(ctx context.Context, id, token string) error {
	return r.execOne(ctx, `UPDATE users SET tokens = array_remove(tokens, $2) WHERE id = $1`, id, token)
}

func (r *UserRepository) ClearTokens(ctx context.Context, id string) error {
	return r.execOne(ctx, `UPDATE users SET tokens = '{}' WHERE id = $1`, id)
}

func (r *UserRepository) SetAvatar(ctx context.Context, id string, avatar []byte, avatarURL string) error {
	return r.execOne(ctx, `UPDATE users SET avatar = $2, avatar_url = $3, updated_at = now() WHERE id = $1`, id, avatar, avatarURL)
}

func (r *UserRepository) DeleteWithTasks(ctx context.Context, id string) error {
	if !validID(id) {
		return apperr.NewNotFound(userNotFound)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE owner_id = $1`, id); err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NewNotFound(userNotFound)
		}
		return nil
	})
}

func (r *UserRepository) execOne(ctx context.Context, sql string, args ...any) error {
	if id, ok := args[0].(string); ok && !validID(id) {
		return apperr.NewNotFound(userNotFound)
	}
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err, userNotFound)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound(userNotFound)
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
