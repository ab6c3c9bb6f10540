package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/Atmakurhemanthkumar/splitmate/pkg/api"
)

// UserServiceName is the fully-qualified name of the UserService service.
const UserServiceName = "splitmate.v1.UserService"

// Procedure names of the UserService service.
const (
	UserServiceGetProfileProcedure    = "/splitmate.v1.UserService/GetProfile"
	UserServiceUpdateProfileProcedure = "/splitmate.v1.UserService/UpdateProfile"
	UserServiceUpdateRoleProcedure    = "/splitmate.v1.UserService/UpdateRole"
)

// UserServiceClient manages the caller's profile and role.
type UserServiceClient interface {
	GetProfile(context.Context, *connect.Request[api.GetProfileRequest]) (*connect.Response[api.ProfileResponse], error)
	UpdateProfile(context.Context, *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.ProfileResponse], error)
	// UpdateRole promotes the caller to representative, creating a group if needed.
	UpdateRole(context.Context, *connect.Request[api.UpdateRoleRequest]) (*connect.Response[api.UpdateRoleResponse], error)
}

// NewUserServiceClient returns a client for the UserService service at baseURL
// (e.g. http://localhost:8080).
func NewUserServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) UserServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &userServiceClient{
		getProfile:    connect.NewClient[api.GetProfileRequest, api.ProfileResponse](httpClient, baseURL+UserServiceGetProfileProcedure, opts...),
		updateProfile: connect.NewClient[api.UpdateProfileRequest, api.ProfileResponse](httpClient, baseURL+UserServiceUpdateProfileProcedure, opts...),
		updateRole:    connect.NewClient[api.UpdateRoleRequest, api.UpdateRoleResponse](httpClient, baseURL+UserServiceUpdateRoleProcedure, opts...),
	}
}

type userServiceClient struct {
	getProfile    *connect.Client[api.GetProfileRequest, api.ProfileResponse]
	updateProfile *connect.Client[api.UpdateProfileRequest, api.ProfileResponse]
	updateRole    *connect.Client[api.UpdateRoleRequest, api.UpdateRoleResponse]
}

func (c *userServiceClient) GetProfile(ctx context.Context, req *connect.Request[api.GetProfileRequest]) (*connect.Response[api.ProfileResponse], error) {
	return c.getProfile.CallUnary(ctx, req)
}

func (c *userServiceClient) UpdateProfile(ctx context.Context, req *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.ProfileResponse], error) {
	return c.updateProfile.CallUnary(ctx, req)
}

func (c *userServiceClient) UpdateRole(ctx context.Context, req *connect.Request[api.UpdateRoleRequest]) (*connect.Response[api.UpdateRoleResponse], error) {
	return c.updateRole.CallUnary(ctx, req)
}

// UserServiceHandler is implemented by the server side of the UserService service.
type UserServiceHandler interface {
	GetProfile(context.Context, *connect.Request[api.GetProfileRequest]) (*connect.Response[api.ProfileResponse], error)
	UpdateProfile(context.Context, *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.ProfileResponse], error)
	UpdateRole(context.Context, *connect.Request[api.UpdateRoleRequest]) (*connect.Response[api.UpdateRoleResponse], error)
}

// NewUserServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewUserServiceHandler(svc UserServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	getProfileHandler := connect.NewUnaryHandler(UserServiceGetProfileProcedure, svc.GetProfile, opts...)
	updateProfileHandler := connect.NewUnaryHandler(UserServiceUpdateProfileProcedure, svc.UpdateProfile, opts...)
	updateRoleHandler := connect.NewUnaryHandler(UserServiceUpdateRoleProcedure, svc.UpdateRole, opts...)
	return "/" + UserServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case UserServiceGetProfileProcedure:
			getProfileHandler.ServeHTTP(w, r)
		case UserServiceUpdateProfileProcedure:
			updateProfileHandler.ServeHTTP(w, r)
		case UserServiceUpdateRoleProcedure:
			updateRoleHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
