package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/Atmakurhemanthkumar/splitmate/internal/identity"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/pkg/api"
)

// AuthService implements the Connect AuthService.
type AuthService struct {
	identity *identity.Service
}

// NewAuthService creates a new AuthService.
func NewAuthService(id *identity.Service) *AuthService {
	return &AuthService{identity: id}
}

// Register creates an account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error) {
	slog.Info("Register request received", "role", req.Msg.Role)

	sess, err := s.identity.Register(ctx, identity.Registration{
		Name:        req.Msg.Name,
		Email:       req.Msg.Email,
		Password:    req.Msg.Password,
		Phone:       req.Msg.Phone,
		Avatar:      req.Msg.Avatar,
		Description: req.Msg.Description,
		Role:        models.Role(req.Msg.Role),
	})
	if err != nil {
		return nil, toConnectError("Register", err)
	}
	return connect.NewResponse(sessionResponse(sess)), nil
}

// Login exchanges credentials for a token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error) {
	sess, err := s.identity.Login(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		return nil, toConnectError("Login", err)
	}
	slog.Info("Login successful", "user_id", sess.User.ID)
	return connect.NewResponse(sessionResponse(sess)), nil
}

// Me returns the caller.
func (s *AuthService) Me(ctx context.Context, req *connect.Request[api.MeRequest]) (*connect.Response[api.AuthResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := s.identity.Me(ctx, userID)
	if err != nil {
		return nil, toConnectError("Me", err)
	}
	return connect.NewResponse(sessionResponse(sess)), nil
}

func sessionResponse(sess *identity.Session) *api.AuthResponse {
	return &api.AuthResponse{
		Token: sess.Token,
		User:  toAPIUser(sess.User),
		Group: summaryFor(sess.Group, sess.User),
	}
}
