package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"mindflow_backend/internal/feature/auth/domain/entity"
	"mindflow_backend/internal/feature/auth/usecase"
)

// UsersCollection is the Mongo collection holding user documents.
const UsersCollection = "users"

// userDocument is the BSON shape of a user.
type userDocument struct {
	ID              bson.ObjectID `bson:"_id,omitempty"`
	Name            string        `bson:"name"`
	Email           string        `bson:"email"`
	PasswordHash    string        `bson:"password"`
	RefreshToken    *string       `bson:"refreshToken"`
	IsEmailVerified bool          `bson:"isEmailVerified"`
	CreatedAt       time.Time     `bson:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt"`
}

func (d *userDocument) toEntity() *entity.User {
	return &entity.User{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Email:           d.Email,
		PasswordHash:    d.PasswordHash,
		RefreshToken:    d.RefreshToken,
		IsEmailVerified: d.IsEmailVerified,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func userDocumentFromEntity(u *entity.User) *userDocument {
	doc := &userDocument{
		Name:            u.Name,
		Email:           strings.ToLower(strings.TrimSpace(u.Email)),
		PasswordHash:    u.PasswordHash,
		RefreshToken:    u.RefreshToken,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	if oid, err := bson.ObjectIDFromHex(u.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

// userMongo is the MongoDB implementation of UserRepository.
type userMongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// Compile-time check to ensure userMongo implements UserRepository.
var _ usecase.UserRepository = (*userMongo)(nil)

// NewUserMongo creates a repository backed by the users collection of db.
func NewUserMongo(db *mongo.Database) *userMongo {
	return &userMongo{
		coll: db.Collection(UsersCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the unique email index. It is idempotent.
func (r *userMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}
	return nil
}

// Create inserts the user with a fresh ObjectID.
// It returns usecase.ErrEmailAlreadyExists on a duplicate email.
func (r *userMongo) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}

	doc := userDocumentFromEntity(u)
	now := r.now()
	doc.ID = bson.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}

	u.ID = doc.ID.Hex()
	u.Email = doc.Email
	u.CreatedAt = doc.CreatedAt
	u.UpdatedAt = doc.UpdatedAt
	return nil
}

// FindByEmail retrieves a user by email.
func (r *userMongo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: strings.ToLower(email)}})
}

// FindByID retrieves a user by its hex ObjectID. Malformed IDs match no user.
func (r *userMongo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, usecase.ErrUserNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

// FindByIDWithRefreshToken reads the full document; the collection is the authoritative store.
func (r *userMongo) FindByIDWithRefreshToken(ctx context.Context, id string) (*entity.User, error) {
	return r.FindByID(ctx, id)
}

// SetRefreshToken overwrites the stored refresh token.
func (r *userMongo) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.setRefreshToken(ctx, id, &token)
}

// ClearRefreshToken sets the stored refresh token to null.
func (r *userMongo) ClearRefreshToken(ctx context.Context, id string) error {
	return r.setRefreshToken(ctx, id, nil)
}

func (r *userMongo) findOne(ctx context.Context, filter bson.D) (*entity.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *userMongo) setRefreshToken(ctx context.Context, id string, token *string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return usecase.ErrUserNotFound
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "refreshToken", Value: token},
		{Key: "updatedAt", Value: r.now()},
	}}}
	res, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}
