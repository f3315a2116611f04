package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Bruce101github/crochethairbygg/internal/domain/auth"
	"github.com/Bruce101github/crochethairbygg/internal/repository"
)

type variantJSON struct {
	ProductTitle string          `json:"product_title"`
	SKU          string          `json:"sku"`
	Length       string          `json:"length"`
	Color        string          `json:"color"`
	Texture      string          `json:"texture"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
}

func main() {
	var (
		databaseURL  string
		variantsFile string
		adminKey     string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&variantsFile, "variants-file", "db/seed/variants.json", "path to product variants JSON file")
	flag.StringVar(&adminKey, "admin-key", "", "admin console API key to seed (or SHOP_SEED_ADMIN_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SHOP_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminKey == "" {
		adminKey = os.Getenv("SHOP_SEED_ADMIN_KEY")
	}
	if adminKey == "" {
		slog.Error("admin key is required: set --admin-key or SHOP_SEED_ADMIN_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SHOP_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, variantsFile, adminKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, variantsFile, adminKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedVariants(ctx, pool, variantsFile); err != nil {
		return errors.Wrap(err, "seed variants")
	}
	if err := seedShippingMethods(ctx, pool); err != nil {
		return errors.Wrap(err, "seed shipping methods")
	}
	if err := seedAdminKey(ctx, pool, adminKey, pepper); err != nil {
		return errors.Wrap(err, "seed admin key")
	}

	return nil
}

const upsertVariantSQL = `INSERT INTO product_variants
	(product_title, sku, length, color, texture, price, stock)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (sku) DO UPDATE SET
		product_title = EXCLUDED.product_title,
		length = EXCLUDED.length,
		color = EXCLUDED.color,
		texture = EXCLUDED.texture,
		price = EXCLUDED.price,
		stock = EXCLUDED.stock`

func seedVariants(ctx context.Context, pool *pgxpool.Pool, variantsFile string) error {
	slog.Info("reading variants file", slog.String("path", variantsFile))

	data, err := os.ReadFile(variantsFile)
	if err != nil {
		return errors.Wrap(err, "read variants file")
	}

	var variants []variantJSON
	if err := json.Unmarshal(data, &variants); err != nil {
		return errors.Wrap(err, "parse variants JSON")
	}

	slog.Info("upserting variants", slog.Int("count", len(variants)))

	for _, v := range variants {
		_, err := pool.Exec(ctx, upsertVariantSQL,
			v.ProductTitle, v.SKU, v.Length, v.Color, v.Texture, v.Price, int32(v.Stock))
		if err != nil {
			return errors.Wrapf(err, "upsert variant %s", v.SKU)
		}

		slog.Info("upserted variant", slog.String("sku", v.SKU), slog.String("title", v.ProductTitle))
	}

	return nil
}

const insertShippingMethodSQL = `INSERT INTO shipping_methods (name, price, active)
	SELECT $1, $2, TRUE
	WHERE NOT EXISTS (SELECT 1 FROM shipping_methods WHERE name = $1)`

func seedShippingMethods(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding shipping methods")

	methods := []struct {
		name  string
		price string
	}{
		{"Accra same-day delivery", "30.00"},
		{"Standard delivery (2-4 days)", "20.00"},
		{"Regional delivery (3-7 days)", "45.00"},
	}

	for _, m := range methods {
		price, err := decimal.NewFromString(m.price)
		if err != nil {
			return errors.Wrapf(err, "parse price for %s", m.name)
		}
		if _, err := pool.Exec(ctx, insertShippingMethodSQL, m.name, price); err != nil {
			return errors.Wrapf(err, "insert shipping method %s", m.name)
		}

		slog.Info("seeded shipping method", slog.String("name", m.name))
	}

	return nil
}

func seedAdminKey(ctx context.Context, pool *pgxpool.Pool, adminKey, pepper string) error {
	slog.Info("seeding admin console API key")

	keys := repository.NewAPIKeyRepository(pool)
	hash := auth.HashKey(adminKey, []byte(pepper))

	if err := keys.Insert(ctx, hash, "Admin console", nil, []string{auth.ScopeAdmin}); err != nil {
		return errors.Wrap(err, "insert admin key")
	}

	slog.Info("seeded API key", slog.String("name", "Admin console"))
	return nil
}
