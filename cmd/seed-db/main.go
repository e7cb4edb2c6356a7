package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/shipping"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/repository"
)

type productJSON struct {
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Categories  []string        `json:"categories"`
	Quantity    int             `json:"quantity"`
}

// wilayas lists the 58 Algerian provinces in official order.
var wilayas = []string{
	"Adrar", "Chlef", "Laghouat", "Oum El Bouaghi", "Batna", "Béjaïa", "Biskra",
	"Béchar", "Blida", "Bouira", "Tamanrasset", "Tébessa", "Tlemcen", "Tiaret",
	"Tizi Ouzou", "Alger", "Djelfa", "Jijel", "Sétif", "Saïda", "Skikda",
	"Sidi Bel Abbès", "Annaba", "Guelma", "Constantine", "Médéa", "Mostaganem",
	"M'Sila", "Mascara", "Ouargla", "Oran", "El Bayadh", "Illizi",
	"Bordj Bou Arréridj", "Boumerdès", "El Tarf", "Tindouf", "Tissemsilt",
	"El Oued", "Khenchela", "Souk Ahras", "Tipaza", "Mila", "Aïn Defla", "Naâma",
	"Aïn Témouchent", "Ghardaïa", "Relizane", "Timimoun", "Bordj Badji Mokhtar",
	"Ouled Djellal", "Béni Abbès", "In Salah", "In Guezzam", "Touggourt",
	"Djanet", "El M'Ghair", "El Meniaa",
}

var defaultDiscounts = []discount.Discount{
	{Code: "WELCOME10", Value: decimal.NewFromInt(10), ValueType: discount.ValueTypePercentage, Active: true},
	{Code: "FREESHIP", Value: decimal.NewFromInt(600), ValueType: discount.ValueTypeFixed, Active: true},
}

type options struct {
	databaseURL   string
	productsFile  string
	shippingPrice string
	apiKey        string
	apiKeyPepper  string
	jwtSecret     string
	tokenTTL      time.Duration
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&opts.shippingPrice, "shipping-price", "600", "default shipping price for every wilaya")
	flag.StringVar(&opts.apiKey, "api-key", "", "API key to seed (or STOREFRONT_SEED_API_KEY env)")
	flag.StringVar(&opts.apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or STOREFRONT_API_KEY_PEPPER env)")
	flag.StringVar(&opts.jwtSecret, "jwt-secret", "", "print an admin JWT signed with this secret (or STOREFRONT_JWT_SECRET env)")
	flag.DurationVar(&opts.tokenTTL, "token-ttl", 24*time.Hour, "lifetime of the printed JWT")
	flag.Parse()

	envDefault(&opts.databaseURL, "DATABASE_URL")
	envDefault(&opts.apiKey, "STOREFRONT_SEED_API_KEY")
	envDefault(&opts.apiKeyPepper, "STOREFRONT_API_KEY_PEPPER")
	envDefault(&opts.jwtSecret, "STOREFRONT_JWT_SECRET")

	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func envDefault(v *string, key string) {
	if *v == "" {
		*v = os.Getenv(key)
	}
}

func run(ctx context.Context, opts options) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	applied, err := repository.RunMigrations(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "run migrations")
	}
	slog.Info("migrations applied", slog.Int("count", applied))

	if err := seedProducts(ctx, repository.NewProductRepository(pool), opts.productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedShipping(ctx, repository.NewShippingRepository(pool), opts.shippingPrice); err != nil {
		return errors.Wrap(err, "seed shipping prices")
	}
	if err := seedDiscounts(ctx, repository.NewDiscountRepository(pool)); err != nil {
		return errors.Wrap(err, "seed discounts")
	}
	if opts.apiKey != "" {
		if err := seedAPIKey(ctx, pool, opts.apiKey, opts.apiKeyPepper); err != nil {
			return errors.Wrap(err, "seed api key")
		}
	}
	if opts.jwtSecret != "" {
		token, err := handler.IssueToken(opts.jwtSecret, "seed-admin", opts.tokenTTL, time.Now())
		if err != nil {
			return errors.Wrap(err, "issue token")
		}
		fmt.Println(token)
	}
	return nil
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, pj := range products {
		p := product.Product{
			Title:       pj.Title,
			Price:       pj.Price,
			Description: pj.Description,
			Image:       pj.Image,
			Categories:  pj.Categories,
			Quantity:    pj.Quantity,
		}
		if err := repo.Upsert(ctx, &p); err != nil {
			return err
		}
		slog.Info("upserted product", slog.Int64("id", p.ID), slog.String("title", p.Title))
	}
	return nil
}

func seedShipping(ctx context.Context, repo shipping.Repository, rawPrice string) error {
	price, err := decimal.NewFromString(rawPrice)
	if err != nil || !price.IsPositive() {
		return errors.Errorf("shipping price must be a positive number: %q", rawPrice)
	}

	for _, w := range wilayas {
		if err := repo.Upsert(ctx, &shipping.Price{Wilaya: w, Price: price}); err != nil {
			return err
		}
	}
	slog.Info("upserted shipping prices", slog.Int("count", len(wilayas)), slog.String("price", price.String()))
	return nil
}

func seedDiscounts(ctx context.Context, repo discount.Repository) error {
	inserted, err := repo.InsertIgnore(ctx, defaultDiscounts)
	if err != nil {
		return err
	}
	slog.Info("seeded discounts", slog.Int64("inserted", inserted), slog.Int("total", len(defaultDiscounts)))
	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	key := &auth.APIKeyInfo{
		ID:      "default",
		KeyHash: auth.HashKey(pepper, apiKey),
		Name:    "Default admin key",
		Scopes:  []string{"admin"},
		Active:  true,
	}
	if err := repository.NewAPIKeyRepository(pool).Upsert(ctx, key); err != nil {
		return err
	}

	slog.Info("upserted API key", slog.String("id", key.ID), slog.String("name", key.Name))
	return nil
}
