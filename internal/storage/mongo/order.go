package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/shopcart/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by MongoDB. Orders are
// append-only; nothing here mutates an existing document.
type OrderRepository struct {
	col *mongo.Collection
}

// NewOrderRepository returns an OrderRepository using the given database.
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(ordersCollection)}
}

type orderDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserEmail    string             `bson:"user_email"`
	Items        []orderItemDoc     `bson:"items"`
	Total        float64            `bson:"total"`
	DiscountCode *string            `bson:"discount_code"`
	FinalTotal   float64            `bson:"final_total"`
	CreatedAt    time.Time          `bson:"created_at"`
}

type orderItemDoc struct {
	ProductID string  `bson:"product_id"`
	Name      string  `bson:"name"`
	Quantity  int     `bson:"quantity"`
	Price     float64 `bson:"price"`
	Subtotal  float64 `bson:"subtotal"`
}

func (d *orderDoc) toDomain() (*order.Order, error) {
	if d.UserEmail == "" {
		return nil, errors.New("order document missing user_email")
	}
	items := make([]order.Item, len(d.Items))
	for i, it := range d.Items {
		items[i] = order.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     decimal.NewFromFloat(it.Price),
			Subtotal:  decimal.NewFromFloat(it.Subtotal),
		}
	}
	o := &order.Order{
		ID:         d.ID.Hex(),
		UserEmail:  d.UserEmail,
		Items:      items,
		Total:      decimal.NewFromFloat(d.Total),
		FinalTotal: decimal.NewFromFloat(d.FinalTotal),
		CreatedAt:  d.CreatedAt,
	}
	if d.DiscountCode != nil {
		o.DiscountCode = *d.DiscountCode
	}
	return o, nil
}

// Create persists a new order and fills in its assigned ID.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	items := make([]orderItemDoc, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemDoc{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price.InexactFloat64(),
			Subtotal:  it.Subtotal.InexactFloat64(),
		}
	}

	doc := orderDoc{
		UserEmail:  o.UserEmail,
		Items:      items,
		Total:      o.Total.InexactFloat64(),
		FinalTotal: o.FinalTotal.InexactFloat64(),
		CreatedAt:  o.CreatedAt,
	}
	if o.DiscountCode != "" {
		doc.DiscountCode = &o.DiscountCode
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return errors.Wrapf(err, "insert order for %q", o.UserEmail)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return errors.New("unexpected inserted ID type")
	}
	o.ID = oid.Hex()
	return nil
}

// ListByUser returns all orders for the user sorted by creation time
// descending.
func (r *OrderRepository) ListByUser(ctx context.Context, userEmail string) ([]order.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"user_email": userEmail}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "find orders for %q", userEmail)
	}
	defer cur.Close(ctx)

	var out []order.Order
	for cur.Next(ctx) {
		var doc orderDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode order")
		}
		o, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate orders")
	}
	return out, nil
}
