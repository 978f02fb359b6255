package mongo

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xenking/shopcart/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by MongoDB.
// Prices cross the BSON boundary as doubles and are converted to decimals
// here; all arithmetic upstream is decimal.
type ProductRepository struct {
	col *mongo.Collection
}

// NewProductRepository returns a ProductRepository using the given database.
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection(productsCollection)}
}

// productDoc is the stored document shape. Catalog documents can carry
// extra attributes; unknown fields are ignored on decode.
type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Price       float64            `bson:"price"`
	Image       string             `bson:"image,omitempty"`
	Description string             `bson:"description,omitempty"`
}

func (d *productDoc) toDomain() (*product.Product, error) {
	p := &product.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Price:       decimal.NewFromFloat(d.Price),
		Image:       d.Image,
		Description: d.Description,
	}
	// Reject documents missing required fields rather than trusting shape.
	if err := p.Validate(); err != nil {
		return nil, errors.Wrapf(err, "product %s", p.ID)
	}
	return p, nil
}

// List returns every product in the catalog.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	defer cur.Close(ctx)

	var out []product.Product
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode product")
		}
		p, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate products")
	}
	return out, nil
}

// GetByID returns the product for the given hex ID. A malformed ID yields
// product.ErrInvalidID, a missing document product.ErrNotFound.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, product.ErrInvalidID
	}

	var doc productDoc
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find product %q", id)
	}
	return doc.toDomain()
}

// GetByIDs batch-fetches products with a single $in query. Malformed IDs
// can never resolve and are skipped up front.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}
	if len(oids) == 0 {
		return nil, nil
	}

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, errors.Wrap(err, "find products by ids")
	}
	defer cur.Close(ctx)

	out := make([]product.Product, 0, len(oids))
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode product")
		}
		p, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate products")
	}
	return out, nil
}

// Create validates and inserts a new product, returning its assigned ID.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	res, err := r.col.InsertOne(ctx, productDoc{
		Name:        p.Name,
		Price:       p.Price.InexactFloat64(),
		Image:       p.Image,
		Description: p.Description,
	})
	if err != nil {
		return "", errors.Wrap(err, "insert product")
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("unexpected inserted ID type")
	}
	return oid.Hex(), nil
}
