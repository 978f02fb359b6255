package mongo

import (
	"context"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xenking/shopcart/internal/domain/auth"
)

var _ auth.APIKeyRepository = (*APIKeyRepository)(nil)

// APIKeyRepository provides admin API key lookups backed by MongoDB.
type APIKeyRepository struct {
	col *mongo.Collection
}

// NewAPIKeyRepository returns an APIKeyRepository using the given database.
func NewAPIKeyRepository(db *mongo.Database) *APIKeyRepository {
	return &APIKeyRepository{col: db.Collection(apiKeysCollection)}
}

type apiKeyDoc struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	KeyHash string             `bson:"key_hash"`
	Name    string             `bson:"name"`
}

// FindByHash looks up an API key by its HMAC-SHA256 hash.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	var doc apiKeyDoc
	err := r.col.FindOne(ctx, bson.M{"key_hash": hash}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.New("api key not found")
		}
		return nil, errors.Wrap(err, "find api key by hash")
	}
	return &auth.APIKeyInfo{
		ID:      doc.ID.Hex(),
		KeyHash: doc.KeyHash,
		Name:    doc.Name,
	}, nil
}

// InsertKey registers an API key hash. Used by the seeding CLI.
func (r *APIKeyRepository) InsertKey(ctx context.Context, hash, name string) error {
	_, err := r.col.InsertOne(ctx, apiKeyDoc{KeyHash: hash, Name: name})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return errors.Wrap(err, "insert api key")
	}
	return nil
}
