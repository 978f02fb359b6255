package mongo

import (
	"context"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xenking/shopcart/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by MongoDB. One document
// per user, keyed by a unique index on user_email. Item-list writes replace
// the whole array in a single $set, which keeps each write atomic but makes
// concurrent mutations last-writer-wins.
type CartRepository struct {
	col *mongo.Collection
}

// NewCartRepository returns a CartRepository using the given database.
func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{col: db.Collection(cartsCollection)}
}

type cartDoc struct {
	UserEmail     string        `bson:"user_email"`
	Items         []cartItemDoc `bson:"items"`
	AppliedCoupon string        `bson:"applied_coupon,omitempty"`
}

type cartItemDoc struct {
	ProductID string `bson:"product_id"`
	Quantity  int    `bson:"quantity"`
}

func (d *cartDoc) toDomain() (*cart.Cart, error) {
	if d.UserEmail == "" {
		return nil, errors.New("cart document missing user_email")
	}
	items := make([]cart.LineItem, len(d.Items))
	for i, it := range d.Items {
		if it.ProductID == "" {
			return nil, errors.New("cart item missing product_id")
		}
		items[i] = cart.LineItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return &cart.Cart{
		UserEmail:     d.UserEmail,
		Items:         items,
		AppliedCoupon: d.AppliedCoupon,
	}, nil
}

func toItemDocs(items []cart.LineItem) []cartItemDoc {
	docs := make([]cartItemDoc, len(items))
	for i, it := range items {
		docs[i] = cartItemDoc{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return docs
}

// Get returns the cart for the user, or cart.ErrNotFound.
func (r *CartRepository) Get(ctx context.Context, userEmail string) (*cart.Cart, error) {
	var doc cartDoc
	err := r.col.FindOne(ctx, bson.M{"user_email": userEmail}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find cart for %q", userEmail)
	}
	return doc.toDomain()
}

// Create inserts a new cart document.
func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	doc := cartDoc{
		UserEmail:     c.UserEmail,
		Items:         toItemDocs(c.Items),
		AppliedCoupon: c.AppliedCoupon,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return errors.Wrapf(err, "insert cart for %q", c.UserEmail)
	}
	return nil
}

// ReplaceItems overwrites the stored item list in one $set write.
func (r *CartRepository) ReplaceItems(ctx context.Context, userEmail string, items []cart.LineItem) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_email": userEmail},
		bson.M{"$set": bson.M{"items": toItemDocs(items)}},
	)
	if err != nil {
		return errors.Wrapf(err, "replace cart items for %q", userEmail)
	}
	return nil
}

// SetCoupon stores the applied coupon. No upsert: applying a coupon to an
// absent cart matches zero documents and is a silent no-op.
func (r *CartRepository) SetCoupon(ctx context.Context, userEmail, code string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_email": userEmail},
		bson.M{"$set": bson.M{"applied_coupon": code}},
	)
	if err != nil {
		return errors.Wrapf(err, "set coupon for %q", userEmail)
	}
	return nil
}

// Delete removes the cart document. Deleting an absent cart is not an error.
func (r *CartRepository) Delete(ctx context.Context, userEmail string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"user_email": userEmail})
	if err != nil {
		return errors.Wrapf(err, "delete cart for %q", userEmail)
	}
	return nil
}
