package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/Atmakurhemanthkumar/splitmate/pkg/api"
)

// GroupServiceName is the fully-qualified name of the GroupService service.
const GroupServiceName = "splitmate.v1.GroupService"

// Procedure names of the GroupService service.
const (
	GroupServiceJoinGroupProcedure      = "/splitmate.v1.GroupService/JoinGroup"
	GroupServiceGetMyGroupProcedure     = "/splitmate.v1.GroupService/GetMyGroup"
	GroupServiceGetGroupByCodeProcedure = "/splitmate.v1.GroupService/GetGroupByCode"
)

// GroupServiceClient joins and looks up groups.
type GroupServiceClient interface {
	JoinGroup(context.Context, *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.GroupResponse], error)
	GetMyGroup(context.Context, *connect.Request[api.GetMyGroupRequest]) (*connect.Response[api.GroupResponse], error)
	// GetGroupByCode previews a group before joining.
	GetGroupByCode(context.Context, *connect.Request[api.GetGroupByCodeRequest]) (*connect.Response[api.GroupSummaryResponse], error)
}

// NewGroupServiceClient returns a client for the GroupService service at baseURL
// (e.g. http://localhost:8080).
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &groupServiceClient{
		joinGroup:      connect.NewClient[api.JoinGroupRequest, api.GroupResponse](httpClient, baseURL+GroupServiceJoinGroupProcedure, opts...),
		getMyGroup:     connect.NewClient[api.GetMyGroupRequest, api.GroupResponse](httpClient, baseURL+GroupServiceGetMyGroupProcedure, opts...),
		getGroupByCode: connect.NewClient[api.GetGroupByCodeRequest, api.GroupSummaryResponse](httpClient, baseURL+GroupServiceGetGroupByCodeProcedure, opts...),
	}
}

type groupServiceClient struct {
	joinGroup      *connect.Client[api.JoinGroupRequest, api.GroupResponse]
	getMyGroup     *connect.Client[api.GetMyGroupRequest, api.GroupResponse]
	getGroupByCode *connect.Client[api.GetGroupByCodeRequest, api.GroupSummaryResponse]
}

func (c *groupServiceClient) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	return c.joinGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetMyGroup(ctx context.Context, req *connect.Request[api.GetMyGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	return c.getMyGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroupByCode(ctx context.Context, req *connect.Request[api.GetGroupByCodeRequest]) (*connect.Response[api.GroupSummaryResponse], error) {
	return c.getGroupByCode.CallUnary(ctx, req)
}

// GroupServiceHandler is implemented by the server side of the GroupService service.
type GroupServiceHandler interface {
	JoinGroup(context.Context, *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.GroupResponse], error)
	GetMyGroup(context.Context, *connect.Request[api.GetMyGroupRequest]) (*connect.Response[api.GroupResponse], error)
	GetGroupByCode(context.Context, *connect.Request[api.GetGroupByCodeRequest]) (*connect.Response[api.GroupSummaryResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	joinGroupHandler := connect.NewUnaryHandler(GroupServiceJoinGroupProcedure, svc.JoinGroup, opts...)
	getMyGroupHandler := connect.NewUnaryHandler(GroupServiceGetMyGroupProcedure, svc.GetMyGroup, opts...)
	getGroupByCodeHandler := connect.NewUnaryHandler(GroupServiceGetGroupByCodeProcedure, svc.GetGroupByCode, opts...)
	return "/" + GroupServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GroupServiceJoinGroupProcedure:
			joinGroupHandler.ServeHTTP(w, r)
		case GroupServiceGetMyGroupProcedure:
			getMyGroupHandler.ServeHTTP(w, r)
		case GroupServiceGetGroupByCodeProcedure:
			getGroupByCodeHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
