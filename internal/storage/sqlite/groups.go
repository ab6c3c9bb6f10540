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

const groupColumns = `id, name, code, representative_id, max_members, is_active, created_at, updated_at`

// CreateGroup inserts a new group and its initial roster in one transaction.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	if group.MaxMembers == 0 {
		group.MaxMembers = models.MaxGroupMembers
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.Code, group.RepresentativeID, group.MaxMembers,
		boolToInt(group.IsActive), toNanos(group.CreatedAt), toNanos(group.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "groups.code") {
			return storage.ErrDuplicateCode
		}
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for i := range group.Members {
		m := &group.Members[i]
		if m.JoinedAt.IsZero() {
			m.JoinedAt = now
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id, position, joined_at) VALUES (?, ?, ?, ?)`,
			group.ID, m.UserID, i, toNanos(m.JoinedAt),
		)
		if err != nil {
			if isUniqueViolation(err, "group_members.user_id") {
				return storage.ErrUserInGroup
			}
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetGroupByID retrieves a group with its roster.
func (s *SQLiteStore) GetGroupByID(ctx context.Context, id string) (*models.Group, error) {
	return s.getGroup(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = ?`, id)
}

// GetGroupByCode retrieves a group by its join code.
func (s *SQLiteStore) GetGroupByCode(ctx context.Context, code string) (*models.Group, error) {
	return s.getGroup(ctx, `SELECT `+groupColumns+` FROM groups WHERE code = ?`, code)
}

// FindGroupByMember returns the group whose roster contains userID.
func (s *SQLiteStore) FindGroupByMember(ctx context.Context, userID string) (*models.Group, error) {
	return s.getGroup(ctx,
		`SELECT `+prefixed("g.", groupColumns)+`
		 FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = ?`,
		userID,
	)
}

// AppendMember appends member to the roster when it holds fewer than max entries.
// The count check and the insert are one statement so concurrent joins cannot
// overshoot the cap.
func (s *SQLiteStore) AppendMember(ctx context.Context, groupID string, member models.GroupMember, max int) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, position, joined_at)
		 SELECT ?, ?, COUNT(*), ? FROM group_members WHERE group_id = ?
		 HAVING COUNT(*) < ? AND EXISTS (SELECT 1 FROM groups WHERE id = ?)`,
		groupID, member.UserID, toNanos(member.JoinedAt), groupID, max, groupID,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "group_members.group_id"):
			return storage.ErrAlreadyMember
		case isUniqueViolation(err, "group_members.user_id"):
			return storage.ErrUserInGroup
		}
		return fmt.Errorf("failed to append member: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return s.appendRejection(ctx, tx, groupID, member.UserID)
	}

	_, err = tx.ExecContext(ctx, `UPDATE groups SET updated_at = ? WHERE id = ?`, toNanos(time.Now()), groupID)
	if err != nil {
		return fmt.Errorf("failed to touch group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// appendRejection explains why the conditional insert wrote nothing.
func (s *SQLiteStore) appendRejection(ctx context.Context, q querier, groupID, userID string) error {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if n > 0 {
		return storage.ErrAlreadyMember
	}

	err = q.QueryRowContext(ctx, `SELECT COUNT(*) FROM groups WHERE id = ?`, groupID).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to check group: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return storage.ErrGroupFull
}

func (s *SQLiteStore) getGroup(ctx context.Context, query string, arg any) (*models.Group, error) {
	var (
		group    models.Group
		isActive int
		created  int64
		updated  int64
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&group.ID,
		&group.Name,
		&group.Code,
		&group.RepresentativeID,
		&group.MaxMembers,
		&isActive,
		&created,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	group.IsActive = isActive != 0
	group.CreatedAt = fromNanos(created)
	group.UpdatedAt = fromNanos(updated)

	members, err := s.getGroupMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	group.Members = members

	return &group, nil
}

func (s *SQLiteStore) getGroupMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, joined_at FROM group_members WHERE group_id = ? ORDER BY position`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	var members []models.GroupMember
	for rows.Next() {
		var (
			m      models.GroupMember
			joined int64
		)
		if err := rows.Scan(&m.UserID, &joined); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		m.JoinedAt = fromNanos(joined)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group members: %w", err)
	}

	return members, nil
}

// prefixed qualifies each column in a comma separated list with prefix.
func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = prefix + p
	}
	return strings.Join(parts, ", ")
}
