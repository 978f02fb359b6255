package mongo

import (
	"context"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xenking/shopcart/internal/domain/user"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by MongoDB.
type UserRepository struct {
	col *mongo.Collection
}

// NewUserRepository returns a UserRepository using the given database.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(usersCollection)}
}

// userDoc is the stored document shape. RefreshToken is a pointer so a
// logged-out user carries an explicit null rather than a missing field.
type userDoc struct {
	Email        string  `bson:"email"`
	Name         string  `bson:"name"`
	PasswordHash string  `bson:"hashed_password"`
	RefreshToken *string `bson:"refresh_token"`
}

func (d *userDoc) toDomain() (*user.User, error) {
	if d.Email == "" || d.PasswordHash == "" {
		return nil, errors.New("user document missing required fields")
	}
	u := &user.User{
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
	}
	if d.RefreshToken != nil {
		u.RefreshToken = *d.RefreshToken
	}
	return u, nil
}

// Create inserts a new user. The unique index on email turns a racing
// duplicate insert into user.ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	doc := userDoc{
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
	}
	if u.RefreshToken != "" {
		doc.RefreshToken = &u.RefreshToken
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.ErrDuplicateEmail
		}
		return errors.Wrapf(err, "insert user %q", u.Email)
	}
	return nil
}

// GetByEmail returns the user for the given email, or user.ErrNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var doc userDoc
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find user %q", email)
	}
	return doc.toDomain()
}

// UpdateRefreshToken overwrites the stored refresh token in one atomic
// field-level write.
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, email, token string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"refresh_token": token}},
	)
	if err != nil {
		return errors.Wrapf(err, "update refresh token for %q", email)
	}
	return nil
}

// ClearRefreshToken nulls out the stored refresh token.
func (r *UserRepository) ClearRefreshToken(ctx context.Context, email string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"refresh_token": nil}},
	)
	if err != nil {
		return errors.Wrapf(err, "clear refresh token for %q", email)
	}
	return nil
}
