package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/Atmakurhemanthkumar/splitmate/internal/proofs"
	"github.com/Atmakurhemanthkumar/splitmate/pkg/api"
)

// PaymentService implements the Connect PaymentService.
type PaymentService struct {
	proofs *proofs.Bridge
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(b *proofs.Bridge) *PaymentService {
	return &PaymentService{proofs: b}
}

// AttachProof sets the caller's proof on an expense.
func (s *PaymentService) AttachProof(ctx context.Context, req *connect.Request[api.AttachProofRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	expense, err := s.proofs.AttachProof(ctx, req.Msg.ExpenseID, userID, req.Msg.ProofURL)
	if err != nil {
		return nil, toConnectError("AttachProof", err)
	}
	return connect.NewResponse(&api.ExpenseResponse{Expense: ExpenseToAPI(expense)}), nil
}

// ListProofs returns attached proofs to the group's representative.
func (s *PaymentService) ListProofs(ctx context.Context, req *connect.Request[api.ListProofsRequest]) (*connect.Response[api.ListProofsResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.proofs.ListProofs(ctx, userID, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError("ListProofs", err)
	}

	out := make([]api.PaymentProof, len(list))
	for i, p := range list {
		out[i] = toAPIProof(p)
	}
	return connect.NewResponse(&api.ListProofsResponse{Proofs: out}), nil
}

// VerifyProof asks the configured verifier about a proof.
func (s *PaymentService) VerifyProof(ctx context.Context, req *connect.Request[api.VerifyProofRequest]) (*connect.Response[api.VerifyProofResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	v, err := s.proofs.Verify(ctx, userID, req.Msg.ExpenseID, req.Msg.ProofURL)
	if err != nil {
		return nil, toConnectError("VerifyProof", err)
	}
	return connect.NewResponse(&api.VerifyProofResponse{Verification: toAPIVerification(v)}), nil
}
