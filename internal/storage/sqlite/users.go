package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage"
)

const userColumns = `id, name, email, password_hash, role, group_id, phone, avatar, description, is_active, created_at, updated_at`

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.RoleRoommate
	}

	var groupID any
	if user.GroupID != "" {
		groupID = user.GroupID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role), groupID,
		user.Phone, user.Avatar, user.Description, boolToInt(user.IsActive),
		toNanos(user.CreatedAt), toNanos(user.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return storage.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`,
		models.NormalizeEmail(email),
	)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetUsersByIDs retrieves multiple users by their IDs.
// Returns a map of user ID to User object.
// Users that don't exist are omitted from the result.
func (s *SQLiteStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// UpdateProfile applies the non-nil fields of update and returns the fresh user.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value *string) {
		if value != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *value)
		}
	}
	add("name", update.Name)
	add("phone", update.Phone)
	add("description", update.Description)
	add("avatar", update.Avatar)

	sets = append(sets, "updated_at = ?")
	args = append(args, toNanos(time.Now()), id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}

	return s.GetUserByID(ctx, id)
}

// SetUserGroup records the user's group and role.
func (s *SQLiteStore) SetUserGroup(ctx context.Context, userID, groupID string, role models.Role) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET group_id = ?, role = ?, updated_at = ? WHERE id = ?`,
		groupID, string(role), toNanos(time.Now()), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set user group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		user     models.User
		role     string
		groupID  sql.NullString
		isActive int
		created  int64
		updated  int64
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&groupID,
		&user.Phone,
		&user.Avatar,
		&user.Description,
		&isActive,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	user.GroupID = groupID.String
	user.IsActive = isActive != 0
	user.CreatedAt = fromNanos(created)
	user.UpdatedAt = fromNanos(updated)
	return &user, nil
}
