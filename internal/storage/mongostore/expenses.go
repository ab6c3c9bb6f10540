package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage"
)

// CreateExpense inserts the expense document with its embedded entries.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = now
	if expense.SplitType == "" {
		expense.SplitType = models.SplitEqual
	}

	if _, err := s.expenses.InsertOne(ctx, toExpenseDoc(expense)); err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *Store) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	var doc expenseDoc
	if err := s.expenses.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model()
}

// ListExpensesByGroup returns a group's active expenses, newest first.
func (s *Store) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.expenses.Find(ctx, bson.M{"group_id": groupID, "is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer cur.Close(ctx)

	var expenses []*models.Expense
	for cur.Next(ctx) {
		var doc expenseDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode expense: %w", err)
		}
		e, err := doc.model()
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpenseMember patches the entry of userID with a positional update.
func (s *Store) UpdateExpenseMember(ctx context.Context, expenseID, userID string, patch models.MemberPatch) (*models.Expense, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Status != nil {
		set["members.$.status"] = string(*patch.Status)
		set["members.$.paid_at"] = patch.PaidAt
	}
	if patch.Proof != nil {
		set["members.$.payment_proof"] = *patch.Proof
	}

	var doc expenseDoc
	err := s.expenses.FindOneAndUpdate(ctx,
		bson.M{"_id": expenseID, "members.user_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.model()
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update expense member: %w", err)
	}

	if _, err := s.GetExpense(ctx, expenseID); err != nil {
		return nil, err
	}
	return nil, storage.ErrNotMember
}
