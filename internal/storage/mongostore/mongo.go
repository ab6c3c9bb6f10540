// Package mongostore provides a MongoDB-backed implementation of the storage.Store interface.
//
// Rosters and expense entries are embedded arrays, so every invariant that
// must survive concurrent writers is a single-document update.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Atmakurhemanthkumar/splitmate/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on top of a MongoDB database.
type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	groups   *mongo.Collection
	expenses *mongo.Collection
}

// New connects to uri, selects database dbName and ensures indexes exist.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:   client,
		users:    db.Collection("users"),
		groups:   db.Collection("groups"),
		expenses: db.Collection("expenses"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_users_email").SetUnique(true),
		},
	}); err != nil {
		return err
	}

	if _, err := s.groups.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetName("uniq_groups_code").SetUnique(true),
		},
		// One roster per user across all groups.
		{
			Keys:    bson.D{{Key: "members.user_id", Value: 1}},
			Options: options.Index().SetName("uniq_groups_member").SetUnique(true),
		},
	}); err != nil {
		return err
	}

	_, err := s.expenses.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_expenses_group"),
		},
	})
	return err
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// dupKeyIndex returns the name of the unique index err violated, if any.
func dupKeyIndex(err error) (string, bool) {
	if !mongo.IsDuplicateKeyError(err) {
		return "", false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if idx := indexFromMessage(e.Message); idx != "" {
				return idx, true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return indexFromMessage(ce.Message), true
	}
	return "", true
}

var knownIndexes = []string{"uniq_users_email", "uniq_groups_code", "uniq_groups_member"}

func indexFromMessage(msg string) string {
	for _, name := range knownIndexes {
		if strings.Contains(msg, name) {
			return name
		}
	}
	return ""
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	return err
}
