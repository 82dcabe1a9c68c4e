// file: internal/repositories/user_repository.go
package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"helpinghands/internal/models"
)

// userRepository implements UserRepository on Postgres
type userRepository struct {
	*BaseRepository
}

const userColumns = `id, name, email, password_hash, role, points, badge, created_at`

func scanUser(row scanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.Points, &user.Badge, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ===============================
// BASIC CRUD OPERATIONS
// ===============================

// Create inserts a user; a taken email yields ErrDuplicate
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role, points, badge)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.QueryRowContext(ctx, query,
		user.Name, strings.ToLower(user.Email), user.PasswordHash,
		user.Role, user.Points, user.Badge,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", r.mapError(err))
	}

	user.Email = strings.ToLower(user.Email)
	r.GetLogger().Debug("User created", zap.Int64("user_id", user.ID), zap.String("role", user.Role.String()))
	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, r.mapError(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(r.QueryRowContext(ctx, query, strings.TrimSpace(email)))
	if err != nil {
		return nil, r.mapError(err)
	}
	return user, nil
}

// List returns every user ordered by id
func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

// Delete removes a user. Dependent rows keep their reference.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return r.requireAffected(result, ErrNotFound)
}

// ===============================
// GAMIFICATION
// ===============================

// AddPoints increments points in a single statement so concurrent awards
// cannot overwrite each other.
func (r *userRepository) AddPoints(ctx context.Context, id int64, delta int64) (*models.User, error) {
	query := `
		UPDATE users SET points = points + $2
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.QueryRowContext(ctx, query, id, delta))
	if err != nil {
		return nil, r.mapError(err)
	}
	return user, nil
}

// SetBadge stores the recomputed badge
func (r *userRepository) SetBadge(ctx context.Context, id int64, badge models.Badge) error {
	result, err := r.ExecContext(ctx, `UPDATE users SET badge = $2 WHERE id = $1`, id, badge)
	if err != nil {
		return fmt.Errorf("failed to set badge: %w", err)
	}
	return r.requireAffected(result, ErrNotFound)
}

// TopByPoints returns the leaderboard for a role
func (r *userRepository) TopByPoints(ctx context.Context, role models.Role, limit int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY points DESC, id ASC LIMIT $2`
	return r.queryUsers(ctx, query, role, limit)
}

// GetRefs resolves display fields for a set of ids. Missing ids are absent
// from the result.
func (r *userRepository) GetRefs(ctx context.Context, ids []int64) (map[int64]*models.UserRef, error) {
	refs := make(map[int64]*models.UserRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}

	rows, err := r.QueryContext(ctx, `SELECT id, name, email FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref models.UserRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user ref: %w", err)
		}
		refs[ref.ID] = &ref
	}
	return refs, rows.Err()
}

func (r *userRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*models.User, error) {
	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
