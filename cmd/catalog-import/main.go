// Command catalog-import bulk-loads products into the document store through
// the same validation the admin panel applies.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/docstore"
	"github.com/xenking/food-kart/internal/storage/mongo"
	"github.com/xenking/food-kart/internal/storage/postgres"
)

func main() {
	var (
		backend       string
		databaseURL   string
		mongoURI      string
		mongoDatabase string
	)
	flag.StringVar(&backend, "store", "postgres", "document store: postgres, mongo or memory (dry run)")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection URI (or MONGO_URL env)")
	flag.StringVar(&mongoDatabase, "mongo-database", "kart", "MongoDB database name")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGO_URL")
	}
	files := flag.Args()
	if len(files) == 0 {
		lg.Fatal("No input files: pass one or more .json or .jsonl.gz files")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, backend, databaseURL, mongoURI, mongoDatabase, files); err != nil {
		lg.Fatal("Catalog import failed", zap.Error(err))
	}
}

func run(ctx context.Context, lg *zap.Logger, backend, databaseURL, mongoURI, mongoDatabase string, files []string) error {
	store, closeStore, err := openStore(ctx, lg, backend, databaseURL, mongoURI, mongoDatabase)
	if err != nil {
		return err
	}
	defer closeStore()

	batches, err := readFiles(ctx, lg, files)
	if err != nil {
		return errors.Wrap(err, "read input")
	}

	im, err := newImporter(ctx, store.Collection(docstore.Products), lg)
	if err != nil {
		return err
	}
	for i, batch := range batches {
		rep, err := im.Import(ctx, batch)
		lg.Info("File imported",
			zap.String("file", files[i]),
			zap.Int("added", rep.Added),
			zap.Int("duplicates", rep.Duplicates),
			zap.Int("rejected", rep.Rejected),
		)
		if err != nil {
			return errors.Wrapf(err, "import %s", files[i])
		}
	}
	lg.Info("Catalog import completed", zap.Int("products", im.catalog.Count()))
	return nil
}

func openStore(ctx context.Context, lg *zap.Logger, backend, databaseURL, mongoURI, mongoDatabase string) (docstore.Store, func(), error) {
	switch backend {
	case "postgres":
		if databaseURL == "" {
			return nil, nil, errors.New("database URL is required: set -database-url or DATABASE_URL")
		}
		pool, err := postgres.NewPool(ctx, databaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect to database")
		}
		if err := postgres.RunMigrations(pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		store := postgres.NewStore(pool, lg)
		return store, func() {
			_ = store.Close(context.Background())
			pool.Close()
		}, nil
	case "mongo":
		if mongoURI == "" {
			return nil, nil, errors.New("mongo URI is required: set -mongo-uri or MONGO_URL")
		}
		store, err := mongo.Connect(ctx, mongoURI, mongoDatabase)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect to mongo")
		}
		return store, func() { _ = store.Close(context.Background()) }, nil
	case "memory":
		lg.Warn("Dry run: products are validated but not persisted")
		store := docstore.NewMemoryStore()
		return store, func() { _ = store.Close(context.Background()) }, nil
	default:
		return nil, nil, errors.Errorf("unknown store %q", backend)
	}
}
