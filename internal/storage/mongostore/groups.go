package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage"
)

// CreateGroup inserts the group document with its initial roster.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	if group.MaxMembers == 0 {
		group.MaxMembers = models.MaxGroupMembers
	}
	for i := range group.Members {
		if group.Members[i].JoinedAt.IsZero() {
			group.Members[i].JoinedAt = now
		}
	}

	if _, err := s.groups.InsertOne(ctx, toGroupDoc(group)); err != nil {
		if idx, ok := dupKeyIndex(err); ok {
			if idx == "uniq_groups_member" {
				return storage.ErrUserInGroup
			}
			return storage.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// GetGroupByID retrieves a group by ID.
func (s *Store) GetGroupByID(ctx context.Context, id string) (*models.Group, error) {
	return s.findGroup(ctx, bson.M{"_id": id})
}

// GetGroupByCode retrieves a group by its join code.
func (s *Store) GetGroupByCode(ctx context.Context, code string) (*models.Group, error) {
	return s.findGroup(ctx, bson.M{"code": code})
}

// FindGroupByMember returns the group whose roster contains userID.
func (s *Store) FindGroupByMember(ctx context.Context, userID string) (*models.Group, error) {
	return s.findGroup(ctx, bson.M{"members.user_id": userID})
}

func (s *Store) findGroup(ctx context.Context, filter bson.M) (*models.Group, error) {
	var doc groupDoc
	if err := s.groups.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

// AppendMember pushes member onto the roster only while the array has no
// element at index max-1, so the cap holds for concurrent joins.
func (s *Store) AppendMember(ctx context.Context, groupID string, member models.GroupMember, max int) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}

	filter := bson.M{
		"_id":             groupID,
		"members.user_id": bson.M{"$ne": member.UserID},
	}
	filter[fmt.Sprintf("members.%d", max-1)] = bson.M{"$exists": false}
	update := bson.M{
		"$push": bson.M{"members": memberDoc{UserID: member.UserID, JoinedAt: member.JoinedAt}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := s.groups.UpdateOne(ctx, filter, update)
	if err != nil {
		if _, ok := dupKeyIndex(err); ok {
			return storage.ErrUserInGroup
		}
		return fmt.Errorf("failed to append member: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	group, err := s.GetGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.HasMember(member.UserID) {
		return storage.ErrAlreadyMember
	}
	return storage.ErrGroupFull
}
