// Command seed-db loads a product catalog dump into MongoDB and registers
// an admin API key for the catalog write endpoint.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/shopcart/internal/domain/product"
	storage "github.com/xenking/shopcart/internal/storage/mongo"
)

type productJSON struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
}

func main() {
	var (
		mongoURI     string
		database     string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection URI (or MONGO_URI env)")
	flag.StringVar(&database, "database", "shopcart", "MongoDB database name")
	flag.StringVar(&productsFile, "products-file", "seed/products.json", "path to products JSON file (.gz accepted)")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or SHOPCART_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SHOPCART_API_KEY_PEPPER env)")
	flag.Parse()

	if mongoURI == "" {
		mongoURI = os.Getenv("MONGO_URI")
	}
	if mongoURI == "" {
		slog.Error("Mongo URI is required: set --mongo-uri or MONGO_URI")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("SHOPCART_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SHOPCART_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, mongoURI, database, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, mongoURI, database, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	db, err := storage.Connect(ctx, mongoURI, database)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer func() {
		_ = db.Client().Disconnect(context.Background())
	}()

	slog.Info("ensuring indexes")

	if err := storage.EnsureIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	// Seed the catalog and the API key concurrently; they touch disjoint
	// collections.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return seedProducts(gctx, storage.NewProductRepository(db), productsFile)
	})
	if apiKey != "" {
		g.Go(func() error {
			return seedAPIKey(gctx, storage.NewAPIKeyRepository(db), apiKey, pepper)
		})
	}
	return g.Wait()
}

func seedProducts(ctx context.Context, repo *storage.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	f, err := os.Open(productsFile)
	if err != nil {
		return errors.Wrap(err, "open products file")
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(productsFile, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrap(err, "open gzip reader")
		}
		defer gz.Close()
		reader = gz
	}

	var products []productJSON
	if err := json.NewDecoder(reader).Decode(&products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	for _, p := range products {
		id, err := repo.Create(ctx, &product.Product{
			Name:        p.Name,
			Price:       p.Price,
			Image:       p.Image,
			Description: p.Description,
		})
		if err != nil {
			return errors.Wrapf(err, "insert product %q", p.Name)
		}
		slog.Debug("product seeded", slog.String("id", id), slog.String("name", p.Name))
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

func seedAPIKey(ctx context.Context, repo *storage.APIKeyRepository, apiKey, pepper string) error {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	hash := hex.EncodeToString(mac.Sum(nil))

	if err := repo.InsertKey(ctx, hash, "seed admin key"); err != nil {
		return errors.Wrap(err, "insert api key")
	}

	slog.Info("api key seeded")
	return nil
}
