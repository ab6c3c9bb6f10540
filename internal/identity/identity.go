// Package identity registers and authenticates users and manages their
// profile and role.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/waffle/pantry/validate"

	"github.com/Atmakurhemanthkumar/splitmate/internal/apperr"
	"github.com/Atmakurhemanthkumar/splitmate/internal/auth"
	"github.com/Atmakurhemanthkumar/splitmate/internal/metrics"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/internal/notify"
	"github.com/Atmakurhemanthkumar/splitmate/internal/policy"
	"github.com/Atmakurhemanthkumar/splitmate/internal/sanitize"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage"
)

// MinNameLength is the shortest accepted display name.
const MinNameLength = 2

const welcomeTimeout = 10 * time.Second

// Groups is the part of the registry identity depends on.
// *registry.Registry implements it.
type Groups interface {
	ResolveUser(ctx context.Context, userID string) (*models.User, error)
	EnsureGroupForRepresentative(ctx context.Context, userID string) (*models.Group, bool, error)
}

// TokenIssuer signs session tokens. *auth.JWTManager implements it.
type TokenIssuer interface {
	Generate(user *models.User) (string, error)
}

// Service implements the identity operations.
type Service struct {
	store   storage.Store
	groups  Groups
	tokens  TokenIssuer
	hasher  auth.Hasher
	mailer  notify.Mailer
	metrics *metrics.Metrics

	// pending tracks welcome emails still being sent.
	pending sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithHasher replaces the default bcrypt hasher.
func WithHasher(h auth.Hasher) Option {
	return func(s *Service) { s.hasher = h }
}

func WithMailer(m notify.Mailer) Option {
	return func(s *Service) { s.mailer = m }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a Service.
func New(store storage.Store, groups Groups, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:  store,
		groups: groups,
		tokens: tokens,
		hasher: auth.NewBcryptHasher(),
		mailer: notify.LogMailer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session is the result of a successful register, login or "me" call.
type Session struct {
	User *models.User
	// Group is nil when the user has no group.
	Group *models.Group
	// Token is empty for Me.
	Token string
}

// Registration is the input to Register.
type Registration struct {
	Name        string
	Email       string
	Password    string
	Phone       string
	Avatar      string
	Description string
	// Role defaults to roommate.
	Role models.Role
}

// Register creates an account. A representative gets a new group straight away.
// If that promotion fails the account still exists as a roommate and the session
// is returned without a group; the caller finishes with UpdateRole.
func (s *Service) Register(ctx context.Context, reg Registration) (*Session, error) {
	name, err := validName(reg.Name)
	if err != nil {
		return nil, err
	}
	email := models.NormalizeEmail(reg.Email)
	if !ValidEmail(email) {
		return nil, apperr.Validation("please provide a valid email")
	}
	if err := auth.ValidatePassword(reg.Password); err != nil {
		return nil, apperr.Validation("%v", err)
	}
	role := reg.Role
	if role == "" {
		role = models.RoleRoommate
	}
	if !role.Valid() {
		return nil, apperr.Validation("role must be either representative or roommate")
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, apperr.Unavailable("hash password", err)
	}

	user := models.NewUser(name, email, hash)
	user.Phone = sanitize.Text(reg.Phone)
	user.Avatar = strings.TrimSpace(reg.Avatar)
	user.Description = sanitize.Text(reg.Description)

	err = s.store.CreateUser(ctx, user)
	if errors.Is(err, storage.ErrDuplicateEmail) {
		return nil, apperr.ErrEmailExists
	}
	if err != nil {
		return nil, apperr.Unavailable("create user", err)
	}
	slog.Info("User registered", "user_id", user.ID, "role", role)

	sess := &Session{User: user}
	if role == models.RoleRepresentative {
		res, err := s.UpdateRole(ctx, user.ID, role)
		if err != nil {
			slog.Warn("Promotion at registration failed", "user_id", user.ID, "error", err)
		} else {
			sess.Group = res.Group
			if sess.User, err = s.groups.ResolveUser(ctx, user.ID); err != nil {
				return nil, err
			}
		}
	}

	s.sendWelcome(ctx, user)

	if sess.Token, err = s.tokens.Generate(sess.User); err != nil {
		return nil, apperr.Unavailable("issue token", err)
	}
	return sess, nil
}

// sendWelcome mails the new user in the background. Failures are logged.
func (s *Service) sendWelcome(ctx context.Context, user *models.User) {
	email := notify.BuildWelcomeEmail(user.Email, notify.WelcomeData{Name: user.Name})
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), welcomeTimeout)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		err := s.mailer.Send(sendCtx, email)
		s.metrics.EmailSent("welcome", err)
		if err != nil {
			slog.Error("failed to send welcome email", "user_id", user.ID, "error", err)
		}
	}()
}

// Wait blocks until background emails have been handed to the mailer.
func (s *Service) Wait() {
	s.pending.Wait()
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperr.Unavailable("load user", err)
	}
	if !user.IsActive {
		return nil, apperr.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		slog.Warn("login failed", "user_id", user.ID)
		return nil, apperr.ErrInvalidCredentials
	}

	sess, err := s.Me(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if sess.Token, err = s.tokens.Generate(sess.User); err != nil {
		return nil, apperr.Unavailable("issue token", err)
	}
	return sess, nil
}

// Me returns the actor with their group, if any.
func (s *Service) Me(ctx context.Context, actorID string) (*Session, error) {
	user, err := s.groups.ResolveUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	sess := &Session{User: user}
	if !user.InGroup() {
		return sess, nil
	}

	group, err := s.store.GetGroupByID(ctx, user.GroupID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		slog.Warn("user points at a missing group", "user_id", user.ID, "group_id", user.GroupID)
	case err != nil:
		return nil, apperr.Unavailable("load group", err)
	default:
		sess.Group = group
	}
	return sess, nil
}

// GetProfile returns the profile of userID (the actor when empty).
func (s *Service) GetProfile(ctx context.Context, actorID, userID string) (models.Profile, error) {
	if userID == "" {
		userID = actorID
	}
	if err := policy.Check(policy.Actor{UserID: actorID}, policy.OpAccessProfile, policy.Target{OwnerID: userID}); err != nil {
		return models.Profile{}, err
	}
	user, err := s.groups.ResolveUser(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	return user.Profile(), nil
}

// UpdateProfile applies the non-nil fields of update to userID (the actor when empty).
func (s *Service) UpdateProfile(ctx context.Context, actorID, userID string, update models.ProfileUpdate) (models.Profile, error) {
	if userID == "" {
		userID = actorID
	}
	if err := policy.Check(policy.Actor{UserID: actorID}, policy.OpAccessProfile, policy.Target{OwnerID: userID}); err != nil {
		return models.Profile{}, err
	}

	if update.Name != nil {
		name, err := validName(*update.Name)
		if err != nil {
			return models.Profile{}, err
		}
		update.Name = &name
	}
	update.Phone = cleaned(update.Phone, sanitize.Text)
	update.Description = cleaned(update.Description, sanitize.Text)
	update.Avatar = cleaned(update.Avatar, strings.TrimSpace)

	user, err := s.store.UpdateProfile(ctx, userID, update)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Profile{}, apperr.ErrUserNotFound
	}
	if err != nil {
		return models.Profile{}, apperr.Unavailable("update profile", err)
	}
	slog.Info("Profile updated", "user_id", userID)
	return user.Profile(), nil
}

func validName(name string) (string, error) {
	name = sanitize.Text(name)
	if utf8.RuneCountInString(name) < MinNameLength {
		return "", apperr.Validation("name must be at least %d characters", MinNameLength)
	}
	return name, nil
}

func cleaned(v *string, clean func(string) string) *string {
	if v == nil {
		return nil
	}
	s := clean(*v)
	return &s
}

// ValidEmail reports whether email is a bare address (no display name).
func ValidEmail(email string) bool {
	if !validate.SimpleEmailValid(email) || validate.Var(email, "required,email") != nil {
		return false
	}
	local, domain, _ := strings.Cut(email, "@")
	return dotAtom(local) && dotAtom(domain)
}

func dotAtom(s string) bool {
	return s != "" && !strings.HasPrefix(s, ".") && !strings.HasSuffix(s, ".") && !strings.Contains(s, "..")
}
