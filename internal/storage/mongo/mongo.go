// Package mongo implements the document store repositories backing the
// shopcart domain: users, carts, products, orders, and API keys.
package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names within the shopcart database.
const (
	usersCollection    = "users"
	cartsCollection    = "carts"
	productsCollection = "products"
	ordersCollection   = "orders"
	apiKeysCollection  = "apikeys"
)

// Connect establishes a MongoDB connection, verifies it with a ping, and
// returns a handle to the named database.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "ping")
	}
	return client.Database(database), nil
}

// EnsureIndexes creates the indexes the repositories rely on: unique keys
// for the one-document-per-user collections and a compound index serving
// the order history sort.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return errors.Wrap(err, "users email index")
	}

	_, err = db.Collection(cartsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_email", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return errors.Wrap(err, "carts user_email index")
	}

	_, err = db.Collection(ordersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_email", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return errors.Wrap(err, "orders history index")
	}

	_, err = db.Collection(apiKeysCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key_hash", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "apikeys key_hash index")
	}

	return nil
}
