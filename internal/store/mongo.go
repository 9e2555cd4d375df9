package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/models"
)

// caseInsensitive makes unique indexes ignore case (collation strength 2).
var caseInsensitive = options.Collation{Locale: "en", Strength: 2}

// UserStore handles user CRUD in MongoDB.
type UserStore struct {
	col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection("users")}
}

// EnsureIndexes creates the unique userName/email indexes if missing.
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userName", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetCollation(&caseInsensitive),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetCollation(&caseInsensitive),
		},
	})
	if err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	return nil
}

// FindByIdentity looks a user up by username or email, case-insensitively.
// Returns (nil, nil) when no user matches.
func (s *UserStore) FindByIdentity(ctx context.Context, identity string) (*models.User, error) {
	opts := options.FindOne().SetCollation(&caseInsensitive)
	filter := bson.M{"$or": bson.A{
		bson.M{"userName": identity},
		bson.M{"email": identity},
	}}

	var u models.User
	err := s.col.FindOne(ctx, filter, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by identity: %w", err)
	}
	return &u, nil
}

// FindByID returns the user with the given hex object id, or (nil, nil).
func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var u models.User
	err = s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &u, nil
}

// Create inserts a new user and returns it with its id and timestamps set.
func (s *UserStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, u)
	if err != nil {
		// A concurrent registration can slip past the handler's
		// pre-insert check and land on the unique index instead.
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Wrap(apperr.ErrConflict, "create user", err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return u, nil
}

// Update applies the given field changes and returns the updated user.
// The password hash is never written through here; see UpdatePassword.
func (s *UserStore) Update(ctx context.Context, id string, fields bson.M) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	fields["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": fields}, opts).Decode(&u)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

// UpdatePassword is the only write path for the password hash. Callers
// hash exactly once before calling; nothing here re-hashes on other saves.
func (s *UserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	_, err = s.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"password":  passwordHash,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// SetRefreshToken overwrites the stored refresh token for the user.
func (s *UserStore) SetRefreshToken(ctx context.Context, id, token string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	_, err = s.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"refreshToken": token}})
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return nil
}

// UnsetRefreshToken removes the stored refresh token, logging the user out.
func (s *UserStore) UnsetRefreshToken(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	_, err = s.col.UpdateByID(ctx, oid, bson.M{"$unset": bson.M{"refreshToken": ""}})
	if err != nil {
		return fmt.Errorf("unset refresh token: %w", err)
	}
	return nil
}

// VideoStore handles video documents in MongoDB.
type VideoStore struct {
	col *mongo.Collection
}

func NewVideoStore(db *mongo.Database) *VideoStore {
	return &VideoStore{col: db.Collection("videos")}
}

func (s *VideoStore) Insert(ctx context.Context, v *models.Video) (*models.Video, error) {
	v.CreatedAt = time.Now().UTC()
	res, err := s.col.InsertOne(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}
	v.ID = res.InsertedID.(primitive.ObjectID)
	return v, nil
}

// ListByOwner returns the owner's videos, newest first.
func (s *VideoStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{"owner": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer cur.Close(ctx)

	var videos []models.Video
	if err := cur.All(ctx, &videos); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}
