package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"userhub/internal/model"
)

// pgUniqueViolation is the Postgres error code for unique_violation.
const pgUniqueViolation = "23505"

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user. The database assigns id and member_since
// and zeroes the counters; the unique index on nickname makes the
// check-and-insert atomic, so exactly one of two racing creates wins.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (name, nickname, password, about, profile_img_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, followers, following, member_since
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.Name,
		u.Nickname,
		u.Password,
		u.About,
		u.ProfileImgURL,
	)

	err := row.Scan(
		&u.ID,
		&u.Followers,
		&u.Following,
		&u.MemberSince,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrNicknameTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, name, nickname, password, about, profile_img_url,
		       followers, following, member_since
		FROM users
		WHERE id = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByNickname retrieves a user by their nickname
func (r *userRepository) GetByNickname(ctx context.Context, nickname string) (*model.User, error) {
	query := `
		SELECT id, name, nickname, password, about, profile_img_url,
		       followers, following, member_since
		FROM users
		WHERE nickname = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, nickname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by nickname: %w", err)
	}

	return &u, nil
}

// GetAll returns every user ordered by id, so the order is stable
// across calls when there are no writes.
func (r *userRepository) GetAll(ctx context.Context) ([]model.User, error) {
	query := `
		SELECT id, name, nickname, password, about, profile_img_url,
		       followers, following, member_since
		FROM users
		ORDER BY id
	`

	var users []model.User
	err := r.db.SelectContext(ctx, &users, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// Update writes the mutable fields of u back to its row. id and
// member_since are immutable and never touched. A nickname collision
// with another row surfaces as ErrNicknameTaken via the unique index.
func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	query := `
		UPDATE users
		SET name = $1, nickname = $2, password = $3, about = $4, profile_img_url = $5
		WHERE id = $6
		RETURNING followers, following, member_since
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.Name,
		u.Nickname,
		u.Password,
		u.About,
		u.ProfileImgURL,
		u.ID,
	)

	err := row.Scan(&u.Followers, &u.Following, &u.MemberSince)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return model.ErrNicknameTaken
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// Delete removes the row for nickname. Hard delete: ids come from a
// BIGSERIAL sequence and are never handed out again, so a later
// create with the same nickname gets a fresh id.
func (r *userRepository) Delete(ctx context.Context, nickname string) error {
	query := `DELETE FROM users WHERE nickname = $1`

	result, err := r.db.ExecContext(ctx, query, nickname)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return model.ErrUserNotFound
	}

	return nil
}

// ExistsByNickname checks if a nickname is already taken
func (r *userRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE nickname = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, nickname)
	if err != nil {
		return false, fmt.Errorf("failed to check nickname existence: %w", err)
	}

	return exists, nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
