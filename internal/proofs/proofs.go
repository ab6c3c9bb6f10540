// Package proofs attaches payment proofs to expense entries and exposes them
// to the group's representative.
//
// A proof is an opaque reference (a URL). Attaching one never changes the
// entry's payment status, and verification is advisory only.
package proofs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Atmakurhemanthkumar/splitmate/internal/apperr"
	"github.com/Atmakurhemanthkumar/splitmate/internal/blob"
	"github.com/Atmakurhemanthkumar/splitmate/internal/broadcast"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/internal/policy"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage"
)

// VerifyRequest describes what a proof is expected to show.
type VerifyRequest struct {
	ProofURL       string
	ExpectedAmount decimal.Decimal
	ExpenseDate    time.Time
}

// Verification is a verifier's reading of a proof.
type Verification struct {
	// ExtractedAmount is nil when no amount could be read.
	ExtractedAmount *decimal.Decimal
	ExtractedDate   string
	AmountMatches   bool
	DateMatches     bool
	Confidence      string
	Verified        bool
}

// Verifier inspects a proof image. Implementations call out to an external service.
type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) (Verification, error)
}

// Bridge implements the payment-proof operations.
type Bridge struct {
	store    storage.Store
	blobs    blob.Store
	sink     broadcast.Sink
	verifier Verifier
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithBlobStore enables UploadProof.
func WithBlobStore(s blob.Store) Option {
	return func(b *Bridge) { b.blobs = s }
}

func WithBroadcast(s broadcast.Sink) Option {
	return func(b *Bridge) { b.sink = s }
}

// WithVerifier enables Verify.
func WithVerifier(v Verifier) Option {
	return func(b *Bridge) { b.verifier = v }
}

// New creates a Bridge.
func New(store storage.Store, opts ...Option) *Bridge {
	b := &Bridge{store: store, sink: broadcast.Nop{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AttachProof sets the actor's own proof on an expense, replacing any previous one.
func (b *Bridge) AttachProof(ctx context.Context, expenseID, actorID, url string) (*models.Expense, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, apperr.Validation("proof url is required")
	}

	if _, err := b.ownEntry(ctx, expenseID, actorID); err != nil {
		return nil, err
	}

	updated, err := b.store.UpdateExpenseMember(ctx, expenseID, actorID, models.MemberPatch{Proof: &url})
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, apperr.ErrExpenseNotFound
	case errors.Is(err, storage.ErrNotMember):
		return nil, apperr.ErrNotPartOfExpense
	case err != nil:
		return nil, apperr.Unavailable("attach proof", err)
	}

	slog.Info("Payment proof attached", "expense_id", expenseID, "user_id", actorID)
	b.sink.Publish(updated.GroupID, broadcast.EventProofAttached, map[string]string{
		"expense_id": expenseID,
		"user_id":    actorID,
	})
	return updated, nil
}

// UploadProof stores an image through the blob store and attaches its URL.
// contentType, when given, must be an image type; the content is sniffed as well.
func (b *Bridge) UploadProof(ctx context.Context, expenseID, actorID, contentType string, r io.Reader) (string, error) {
	if b.blobs == nil {
		return "", apperr.Unavailable("upload proof", errors.New("no blob store configured"))
	}
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return "", apperr.Validation("only image uploads are allowed")
	}

	// Check ownership first so rejected callers leave no orphaned blobs.
	if _, err := b.ownEntry(ctx, expenseID, actorID); err != nil {
		return "", err
	}

	url, err := b.blobs.Put(ctx, "proofs/"+expenseID, r)
	switch {
	case errors.Is(err, blob.ErrTooLarge), errors.Is(err, blob.ErrUnsupportedType), errors.Is(err, blob.ErrEmpty):
		return "", apperr.Validation("%v", err)
	case err != nil:
		return "", apperr.Unavailable("store proof", err)
	}

	if _, err := b.AttachProof(ctx, expenseID, actorID, url); err != nil {
		return "", err
	}
	return url, nil
}

// ListProofs returns the entries that carry a proof, regardless of status.
// Only the representative of the expense's group may list them.
func (b *Bridge) ListProofs(ctx context.Context, actorID, expenseID string) ([]models.PaymentProof, error) {
	expense, err := b.loadExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	group, err := b.store.GetGroupByID(ctx, expense.GroupID)
	if err != nil {
		return nil, apperr.Unavailable("load group", err)
	}
	target := policy.Target{GroupID: group.ID, RepresentativeID: group.RepresentativeID}
	if err := policy.Check(policy.Actor{UserID: actorID}, policy.OpListProofs, target); err != nil {
		return nil, err
	}

	proofs := make([]models.PaymentProof, 0, len(expense.Members))
	for _, m := range expense.Members {
		if m.PaymentProof == "" {
			continue
		}
		proofs = append(proofs, models.PaymentProof{
			UserID:   m.UserID,
			ProofURL: m.PaymentProof,
			PaidAt:   m.PaidAt,
		})
	}
	return proofs, nil
}

// Verify asks the configured verifier to check a proof against the actor's share.
// url defaults to the actor's attached proof. The entry's status is never changed.
func (b *Bridge) Verify(ctx context.Context, actorID, expenseID, url string) (Verification, error) {
	if b.verifier == nil {
		return Verification{}, apperr.ErrVerifierUnavailable
	}

	expense, err := b.loadExpense(ctx, expenseID)
	if err != nil {
		return Verification{}, err
	}
	entry := expense.Member(actorID)
	if entry == nil {
		return Verification{}, apperr.ErrNotPartOfExpense
	}

	url = strings.TrimSpace(url)
	if url == "" {
		url = entry.PaymentProof
	}
	if url == "" {
		return Verification{}, apperr.Validation("no proof to verify")
	}

	v, err := b.verifier.Verify(ctx, VerifyRequest{
		ProofURL:       url,
		ExpectedAmount: entry.Amount,
		ExpenseDate:    expense.Date,
	})
	if err != nil {
		return Verification{}, apperr.Unavailable("verify proof", err)
	}
	return v, nil
}

func (b *Bridge) ownEntry(ctx context.Context, expenseID, actorID string) (*models.ExpenseMember, error) {
	expense, err := b.loadExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	entry := expense.Member(actorID)
	if entry == nil {
		return nil, apperr.ErrNotPartOfExpense
	}
	if err := policy.Check(policy.Actor{UserID: actorID}, policy.OpMutatePayment, policy.Target{OwnerID: entry.UserID}); err != nil {
		return nil, err
	}
	return entry, nil
}

func (b *Bridge) loadExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := b.store.GetExpense(ctx, expenseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.ErrExpenseNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("load expense", err)
	}
	return expense, nil
}
