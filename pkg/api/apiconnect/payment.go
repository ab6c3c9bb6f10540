package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/Atmakurhemanthkumar/splitmate/pkg/api"
)

// PaymentServiceName is the fully-qualified name of the PaymentService service.
const PaymentServiceName = "splitmate.v1.PaymentService"

// Procedure names of the PaymentService service.
const (
	PaymentServiceAttachProofProcedure = "/splitmate.v1.PaymentService/AttachProof"
	PaymentServiceListProofsProcedure  = "/splitmate.v1.PaymentService/ListProofs"
	PaymentServiceVerifyProofProcedure = "/splitmate.v1.PaymentService/VerifyProof"
)

// PaymentServiceClient handles payment proofs.
type PaymentServiceClient interface {
	AttachProof(context.Context, *connect.Request[api.AttachProofRequest]) (*connect.Response[api.ExpenseResponse], error)
	ListProofs(context.Context, *connect.Request[api.ListProofsRequest]) (*connect.Response[api.ListProofsResponse], error)
	VerifyProof(context.Context, *connect.Request[api.VerifyProofRequest]) (*connect.Response[api.VerifyProofResponse], error)
}

// NewPaymentServiceClient returns a client for the PaymentService service at baseURL
// (e.g. http://localhost:8080).
func NewPaymentServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PaymentServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &paymentServiceClient{
		attachProof: connect.NewClient[api.AttachProofRequest, api.ExpenseResponse](httpClient, baseURL+PaymentServiceAttachProofProcedure, opts...),
		listProofs:  connect.NewClient[api.ListProofsRequest, api.ListProofsResponse](httpClient, baseURL+PaymentServiceListProofsProcedure, opts...),
		verifyProof: connect.NewClient[api.VerifyProofRequest, api.VerifyProofResponse](httpClient, baseURL+PaymentServiceVerifyProofProcedure, opts...),
	}
}

type paymentServiceClient struct {
	attachProof *connect.Client[api.AttachProofRequest, api.ExpenseResponse]
	listProofs  *connect.Client[api.ListProofsRequest, api.ListProofsResponse]
	verifyProof *connect.Client[api.VerifyProofRequest, api.VerifyProofResponse]
}

func (c *paymentServiceClient) AttachProof(ctx context.Context, req *connect.Request[api.AttachProofRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.attachProof.CallUnary(ctx, req)
}

func (c *paymentServiceClient) ListProofs(ctx context.Context, req *connect.Request[api.ListProofsRequest]) (*connect.Response[api.ListProofsResponse], error) {
	return c.listProofs.CallUnary(ctx, req)
}

func (c *paymentServiceClient) VerifyProof(ctx context.Context, req *connect.Request[api.VerifyProofRequest]) (*connect.Response[api.VerifyProofResponse], error) {
	return c.verifyProof.CallUnary(ctx, req)
}

// PaymentServiceHandler is implemented by the server side of the PaymentService service.
type PaymentServiceHandler interface {
	AttachProof(context.Context, *connect.Request[api.AttachProofRequest]) (*connect.Response[api.ExpenseResponse], error)
	ListProofs(context.Context, *connect.Request[api.ListProofsRequest]) (*connect.Response[api.ListProofsResponse], error)
	VerifyProof(context.Context, *connect.Request[api.VerifyProofRequest]) (*connect.Response[api.VerifyProofResponse], error)
}

// NewPaymentServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewPaymentServiceHandler(svc PaymentServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	attachProofHandler := connect.NewUnaryHandler(PaymentServiceAttachProofProcedure, svc.AttachProof, opts...)
	listProofsHandler := connect.NewUnaryHandler(PaymentServiceListProofsProcedure, svc.ListProofs, opts...)
	verifyProofHandler := connect.NewUnaryHandler(PaymentServiceVerifyProofProcedure, svc.VerifyProof, opts...)
	return "/" + PaymentServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PaymentServiceAttachProofProcedure:
			attachProofHandler.ServeHTTP(w, r)
		case PaymentServiceListProofsProcedure:
			listProofsHandler.ServeHTTP(w, r)
		case PaymentServiceVerifyProofProcedure:
			verifyProofHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
