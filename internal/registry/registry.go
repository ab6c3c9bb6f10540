// Package registry manages the group lifecycle: creation with a unique join
// code, capped joins, lookups and repair of the user-to-group link.
//
// Joining writes twice: the roster append is authoritative, the user's
// GroupID is a best-effort copy repaired by ResolveUser on the next read.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Atmakurhemanthkumar/splitmate/internal/apperr"
	"github.com/Atmakurhemanthkumar/splitmate/internal/broadcast"
	"github.com/Atmakurhemanthkumar/splitmate/internal/metrics"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/internal/policy"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage"
)

const (
	// DefaultCodeAttempts bounds code regeneration after unique violations.
	DefaultCodeAttempts = 8
	defaultBackoff      = 5 * time.Millisecond
	maxBackoff          = 500 * time.Millisecond
)

// Registry implements the group operations.
type Registry struct {
	store    storage.Store
	sink     broadcast.Sink
	metrics  *metrics.Metrics
	newCode  CodeGenerator
	attempts int
	backoff  time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithCodeGenerator replaces RandomCode.
func WithCodeGenerator(g CodeGenerator) Option {
	return func(r *Registry) { r.newCode = g }
}

// WithBroadcast sets the sink for new-member events.
func WithBroadcast(s broadcast.Sink) Option {
	return func(r *Registry) { r.sink = s }
}

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithRetry sets the code attempt budget and the initial backoff between attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(r *Registry) {
		r.attempts = attempts
		r.backoff = backoff
	}
}

// New creates a Registry over store.
func New(store storage.Store, opts ...Option) *Registry {
	r := &Registry{
		store:    store,
		sink:     broadcast.Nop{},
		newCode:  RandomCode,
		attempts: DefaultCodeAttempts,
		backoff:  defaultBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveUser loads a user and repairs a missing GroupID from the rosters.
func (r *Registry) ResolveUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := r.store.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("load user", err)
	}
	if user.InGroup() {
		return user, nil
	}

	group, err := r.store.FindGroupByMember(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return user, nil
	}
	if err != nil {
		return nil, apperr.Unavailable("find group by member", err)
	}

	slog.Warn("repairing user group link", "user_id", userID, "group_id", group.ID)
	user.GroupID = group.ID
	if group.RepresentativeID == user.ID {
		user.Role = models.RoleRepresentative
	}
	r.recordMembership(ctx, user.ID, group.ID, user.Role)
	return user, nil
}

// CreateGroup creates a group owned by userID with a fresh unique code.
// An empty name defaults to "<user name>'s Group".
func (r *Registry) CreateGroup(ctx context.Context, userID, name string) (*models.Group, error) {
	user, err := r.ResolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.InGroup() {
		return nil, apperr.ErrAlreadyInGroup
	}
	return r.createFor(ctx, user, name)
}

// EnsureGroupForRepresentative returns the group userID represents, creating
// one if the user has no group. created reports whether a group was made.
func (r *Registry) EnsureGroupForRepresentative(ctx context.Context, userID string) (group *models.Group, created bool, err error) {
	user, err := r.ResolveUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if user.InGroup() {
		group, err := r.store.GetGroupByID(ctx, user.GroupID)
		if err != nil {
			return nil, false, groupErr(err)
		}
		if group.RepresentativeID != user.ID {
			return nil, false, apperr.ErrAlreadyInGroup
		}
		return group, false, nil
	}

	group, err = r.createFor(ctx, user, "")
	if err != nil {
		return nil, false, err
	}
	return group, true, nil
}

func (r *Registry) createFor(ctx context.Context, user *models.User, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = user.Name + "'s Group"
	}

	group, err := r.insertWithUniqueCode(ctx, user.ID, name)
	if err != nil {
		return nil, err
	}

	r.recordMembership(ctx, user.ID, group.ID, models.RoleRepresentative)
	r.metrics.GroupCreated()
	slog.Info("Group created", "group_id", group.ID, "code", group.Code, "representative_id", user.ID)
	return group, nil
}

// insertWithUniqueCode relies on the store's unique index rather than a
// pre-check, regenerating the code on every collision.
func (r *Registry) insertWithUniqueCode(ctx context.Context, userID, name string) (*models.Group, error) {
	wait := r.backoff
	for attempt := 1; attempt <= r.attempts; attempt++ {
		code, err := r.newCode()
		if err != nil {
			return nil, apperr.Unavailable("generate group code", err)
		}

		group := &models.Group{
			Name:             name,
			Code:             code,
			RepresentativeID: userID,
			Members:          []models.GroupMember{{UserID: userID, JoinedAt: time.Now().UTC()}},
			MaxMembers:       models.MaxGroupMembers,
			IsActive:         true,
		}
		err = r.store.CreateGroup(ctx, group)
		switch {
		case err == nil:
			return group, nil
		case errors.Is(err, storage.ErrUserInGroup):
			return nil, apperr.ErrAlreadyInGroup
		case !errors.Is(err, storage.ErrDuplicateCode):
			return nil, apperr.Unavailable("create group", err)
		}

		r.metrics.CodeCollision()
		slog.Warn("group code collision", "attempt", attempt, "code", code)
		if attempt == r.attempts {
			break
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
		wait = min(wait*2, maxBackoff)
	}
	return nil, apperr.ErrCodeSpaceExhausted
}

// JoinGroup adds userID to the group with the given code.
func (r *Registry) JoinGroup(ctx context.Context, userID, code string) (*GroupView, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	group, err := r.store.GetGroupByCode(ctx, code)
	if err != nil {
		return nil, groupErr(err)
	}

	user, err := r.ResolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.InGroup() {
		r.metrics.GroupJoin(metrics.JoinRejected)
		return nil, apperr.ErrAlreadyInGroup
	}
	if err := policy.Check(policy.ActorFrom(user), policy.OpJoinGroup, policy.Target{GroupID: group.ID}); err != nil {
		return nil, err
	}
	if group.HasMember(user.ID) {
		r.metrics.GroupJoin(metrics.JoinRejected)
		return nil, apperr.ErrAlreadyMember
	}

	err = r.store.AppendMember(ctx, group.ID, models.GroupMember{UserID: user.ID, JoinedAt: time.Now().UTC()}, group.MaxMembers)
	if err != nil {
		err = appendErr(err)
		if errors.Is(err, apperr.ErrGroupFull) {
			r.metrics.GroupJoin(metrics.JoinFull)
		} else {
			r.metrics.GroupJoin(metrics.JoinRejected)
		}
		return nil, err
	}
	r.metrics.GroupJoin(metrics.JoinOK)

	r.recordMembership(ctx, user.ID, group.ID, user.Role)

	fresh, err := r.store.GetGroupByID(ctx, group.ID)
	if err != nil {
		return nil, groupErr(err)
	}
	view, err := r.view(ctx, fresh)
	if err != nil {
		return nil, err
	}

	slog.Info("User joined group", "user_id", user.ID, "group_id", group.ID, "members", len(fresh.Members))
	r.sink.Publish(group.ID, broadcast.EventNewMember, map[string]string{
		"user_id": user.ID,
		"name":    user.Name,
	})
	return view, nil
}

// GetGroupByCode returns the public preview of the group with code.
func (r *Registry) GetGroupByCode(ctx context.Context, code string) (models.GroupSummary, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return models.GroupSummary{}, err
	}
	group, err := r.store.GetGroupByCode(ctx, code)
	if err != nil {
		return models.GroupSummary{}, groupErr(err)
	}

	rep := models.PersonRef{ID: group.RepresentativeID}
	if u, err := r.store.GetUserByID(ctx, group.RepresentativeID); err == nil {
		rep = models.PersonRef{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.GroupSummary{}, apperr.Unavailable("load representative", err)
	}
	return group.Summary(rep), nil
}

// GetMyGroup returns the actor's group with member details.
func (r *Registry) GetMyGroup(ctx context.Context, userID string) (*GroupView, error) {
	group, err := r.GroupOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.view(ctx, group)
}

// GroupOf returns the resolved user's group, or apperr.ErrNotInGroup.
func (r *Registry) GroupOf(ctx context.Context, userID string) (*models.Group, error) {
	user, err := r.ResolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.InGroup() {
		return nil, apperr.ErrNotInGroup
	}
	group, err := r.store.GetGroupByID(ctx, user.GroupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.ErrNotInGroup
	}
	if err != nil {
		return nil, apperr.Unavailable("load group", err)
	}
	return group, nil
}

// recordMembership writes the user side of the link. Failures are logged;
// ResolveUser repairs them later.
func (r *Registry) recordMembership(ctx context.Context, userID, groupID string, role models.Role) {
	if err := r.store.SetUserGroup(ctx, userID, groupID, role); err != nil {
		slog.Error("failed to record user group", "user_id", userID, "group_id", groupID, "error", err)
	}
}

func groupErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.ErrGroupNotFound
	}
	return apperr.Unavailable("load group", err)
}

func appendErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrGroupFull):
		return apperr.ErrGroupFull
	case errors.Is(err, storage.ErrAlreadyMember):
		return apperr.ErrAlreadyMember
	case errors.Is(err, storage.ErrUserInGroup):
		return apperr.ErrAlreadyInGroup
	case errors.Is(err, storage.ErrNotFound):
		return apperr.ErrGroupNotFound
	default:
		return apperr.Unavailable("append member", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting to retry: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
