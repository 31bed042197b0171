// Command catalog-ingest loads a gzip-compressed NDJSON product dump into
// PostgreSQL. Each line is one product object in any shape the REST catalog
// client understands. Repeated product ids are skipped after their first
// occurrence.
package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pos-backoffice/internal/domain/catalog"
	"github.com/xenking/pos-backoffice/internal/storage/catalogapi"
	"github.com/xenking/pos-backoffice/internal/storage/postgres"
)

const (
	bloomFPR      = 0.0001
	progressEvery = 100_000
	maxLineSize   = 1 << 20
)

type options struct {
	file        string
	databaseURL string
	batchSize   int
	writers     int
	capacity    uint
}

// stats counts what the scanner saw.
type stats struct {
	lines      uint64
	products   uint64
	duplicates uint64
	invalid    uint64
}

func main() {
	var opts options

	flag.StringVar(&opts.file, "file", "data/products.ndjson.gz", "gzip-compressed NDJSON product dump")
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&opts.batchSize, "batch-size", 500, "products per upsert batch")
	flag.IntVar(&opts.writers, "writers", 4, "concurrent database writers")
	flag.UintVar(&opts.capacity, "expected-products", 1_000_000, "expected number of distinct products, sizes the duplicate filter")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if opts.batchSize < 1 || opts.writers < 1 {
		slog.Error("batch-size and writers must be positive")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, opts options) error {
	f, err := os.Open(opts.file)
	if err != nil {
		return errors.Wrapf(err, "open %s", opts.file)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", opts.file)
	}
	defer func() { _ = gz.Close() }()

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewProductRepository(pool)
	filter := bloom.NewWithEstimates(opts.capacity, bloomFPR)

	var (
		st      stats
		written atomic.Uint64
	)
	batches := make(chan []catalog.Product, opts.writers)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(batches)
		var err error
		st, err = scan(ctx, gz, filter, opts.batchSize, batches)
		return err
	})
	for range opts.writers {
		g.Go(func() error {
			for batch := range batches {
				if err := repo.Upsert(ctx, batch...); err != nil {
					return errors.Wrap(err, "upsert batch")
				}
				written.Add(uint64(len(batch)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("ingest summary",
		slog.Uint64("lines", st.lines),
		slog.Uint64("written", written.Load()),
		slog.Uint64("duplicates", st.duplicates),
		slog.Uint64("invalid", st.invalid),
	)
	return nil
}

// scan reads NDJSON products from r and sends them to out in batches of up to
// batchSize. Ids the filter has already seen are skipped; a bloom filter can
// report false positives, so a tiny fraction of distinct products may be
// skipped too. Lines that are not valid products are counted and skipped.
func scan(ctx context.Context, r io.Reader, filter *bloom.BloomFilter, batchSize int, out chan<- []catalog.Product) (stats, error) {
	var st stats

	send := func(batch []catalog.Product) error {
		select {
		case out <- batch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	batch := make([]catalog.Product, 0, batchSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		st.lines++
		if st.lines%progressEvery == 0 {
			slog.Info("scan progress", slog.Uint64("lines", st.lines), slog.Uint64("duplicates", st.duplicates))
		}

		p, err := catalogapi.DecodeProduct(jx.DecodeBytes(line))
		if err != nil {
			st.invalid++
			slog.Debug("skipping invalid line", slog.Uint64("line", st.lines), slog.String("error", err.Error()))
			continue
		}
		if filter.TestOrAddString(p.ID) {
			st.duplicates++
			continue
		}

		st.products++
		batch = append(batch, p)
		if len(batch) == batchSize {
			if err := send(batch); err != nil {
				return st, err
			}
			batch = make([]catalog.Product, 0, batchSize)
		}
	}
	if err := scanner.Err(); err != nil {
		return st, errors.Wrap(err, "scan")
	}

	if len(batch) > 0 {
		if err := send(batch); err != nil {
			return st, err
		}
	}
	return st, nil
}
