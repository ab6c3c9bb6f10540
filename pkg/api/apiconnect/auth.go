package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/Atmakurhemanthkumar/splitmate/pkg/api"
)

// AuthServiceName is the fully-qualified name of the AuthService service.
const AuthServiceName = "splitmate.v1.AuthService"

// Procedure names of the AuthService service.
const (
	AuthServiceRegisterProcedure = "/splitmate.v1.AuthService/Register"
	AuthServiceLoginProcedure    = "/splitmate.v1.AuthService/Login"
	AuthServiceMeProcedure       = "/splitmate.v1.AuthService/Me"
)

// AuthServiceClient authenticates users.
type AuthServiceClient interface {
	// Register creates an account and returns a session token.
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error)
	// Login exchanges credentials for a session token.
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error)
	// Me returns the caller and their group.
	Me(context.Context, *connect.Request[api.MeRequest]) (*connect.Response[api.AuthResponse], error)
}

// NewAuthServiceClient returns a client for the AuthService service at baseURL
// (e.g. http://localhost:8080).
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &authServiceClient{
		register: connect.NewClient[api.RegisterRequest, api.AuthResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:    connect.NewClient[api.LoginRequest, api.AuthResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		me:       connect.NewClient[api.MeRequest, api.AuthResponse](httpClient, baseURL+AuthServiceMeProcedure, opts...),
	}
}

type authServiceClient struct {
	register *connect.Client[api.RegisterRequest, api.AuthResponse]
	login    *connect.Client[api.LoginRequest, api.AuthResponse]
	me       *connect.Client[api.MeRequest, api.AuthResponse]
}

func (c *authServiceClient) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *authServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *authServiceClient) Me(ctx context.Context, req *connect.Request[api.MeRequest]) (*connect.Response[api.AuthResponse], error) {
	return c.me.CallUnary(ctx, req)
}

// AuthServiceHandler is implemented by the server side of the AuthService service.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error)
	Me(context.Context, *connect.Request[api.MeRequest]) (*connect.Response[api.AuthResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	registerHandler := connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...)
	loginHandler := connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...)
	meHandler := connect.NewUnaryHandler(AuthServiceMeProcedure, svc.Me, opts...)
	return "/" + AuthServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceRegisterProcedure:
			registerHandler.ServeHTTP(w, r)
		case AuthServiceLoginProcedure:
			loginHandler.ServeHTTP(w, r)
		case AuthServiceMeProcedure:
			meHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
