package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/storefront/internal/repository"
)

func main() {
	_ = godotenv.Load()

	var (
		dataDir     string
		databaseURL string
		batchSize   int
		expected    uint
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.csv.gz discount files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&batchSize, "batch-size", 1000, "discounts inserted per batch")
	flag.UintVar(&expected, "expected-codes", 1_000_000, "expected number of distinct codes, sizes the bloom filter")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	files := flag.Args()
	if len(files) == 0 {
		var err error
		files, err = filepath.Glob(filepath.Join(dataDir, "*.csv.gz"))
		if err != nil {
			slog.Error("list data files", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if len(files) == 0 {
		slog.Error("no input files: pass paths or put *.csv.gz files in --data-dir")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, files, databaseURL, batchSize, expected); err != nil {
		slog.Error("discount import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("discount import completed successfully")
}

func run(ctx context.Context, files []string, databaseURL string, batchSize int, expected uint) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	imp := newImporter(repository.NewDiscountRepository(pool), batchSize, expected)
	if err := imp.importFiles(ctx, files); err != nil {
		return err
	}

	s := imp.stats()
	slog.Info("import finished",
		slog.Int("files", len(files)),
		slog.Int64("read", s.read),
		slog.Int64("inserted", s.inserted),
		slog.Int64("repeated", s.repeated),
		slog.Int64("invalid", s.invalid),
	)
	return nil
}
