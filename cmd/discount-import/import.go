package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/discount"
)

const bloomFPR = 0.001

// inserter stores discounts, skipping codes that already exist.
type inserter interface {
	InsertIgnore(ctx context.Context, ds []discount.Discount) (int64, error)
}

type importStats struct {
	read     int64
	inserted int64
	repeated int64
	invalid  int64
}

// importer streams discounts from gzip CSV files into the database.
//
// Codes seen for the first time go into regular batches. Codes the bloom
// filter reports as already seen are held back and inserted once at the end,
// so a false positive still reaches the database and ON CONFLICT drops the
// real repeats.
type importer struct {
	repo      inserter
	batchSize int
	seen      *bloom.BloomFilter

	batch    []discount.Discount
	held     []discount.Discount
	read     int64
	inserted int64
	invalid  atomic.Int64
}

func newImporter(repo inserter, batchSize int, expected uint) *importer {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &importer{
		repo:      repo,
		batchSize: batchSize,
		seen:      bloom.NewWithEstimates(max(expected, 1), bloomFPR),
		batch:     make([]discount.Discount, 0, batchSize),
	}
}

func (imp *importer) stats() importStats {
	return importStats{
		read:     imp.read,
		inserted: imp.inserted,
		repeated: int64(len(imp.held)),
		invalid:  imp.invalid.Load(),
	}
}

// importFiles reads every file concurrently and feeds a single writer.
func (imp *importer) importFiles(ctx context.Context, files []string) error {
	records := make(chan discount.Discount, imp.batchSize)

	g, ctx := errgroup.WithContext(ctx)
	var readers sync.WaitGroup
	for _, path := range files {
		readers.Add(1)
		g.Go(func() error {
			defer readers.Done()
			return imp.readFile(ctx, path, records)
		})
	}
	go func() {
		readers.Wait()
		close(records)
	}()

	g.Go(func() error {
		for d := range records {
			if err := imp.add(ctx, d); err != nil {
				return err
			}
		}
		return imp.finish(ctx)
	})
	return g.Wait()
}

func (imp *importer) add(ctx context.Context, d discount.Discount) error {
	imp.read++
	if imp.seen.TestOrAddString(d.Code) {
		imp.held = append(imp.held, d)
		return nil
	}
	imp.batch = append(imp.batch, d)
	if len(imp.batch) >= imp.batchSize {
		return imp.flush(ctx)
	}
	return nil
}

func (imp *importer) flush(ctx context.Context) error {
	if len(imp.batch) == 0 {
		return nil
	}
	n, err := imp.repo.InsertIgnore(ctx, imp.batch)
	if err != nil {
		return errors.Wrap(err, "insert discounts")
	}
	imp.inserted += n
	imp.batch = imp.batch[:0]
	return nil
}

func (imp *importer) finish(ctx context.Context) error {
	if err := imp.flush(ctx); err != nil {
		return err
	}
	for start := 0; start < len(imp.held); start += imp.batchSize {
		end := min(start+imp.batchSize, len(imp.held))
		n, err := imp.repo.InsertIgnore(ctx, imp.held[start:end])
		if err != nil {
			return errors.Wrap(err, "insert held back discounts")
		}
		imp.inserted += n
	}
	return nil
}

// readFile decodes one gzip CSV file and sends every valid row to out.
// Invalid rows are logged and counted.
func (imp *importer) readFile(ctx context.Context, path string, out chan<- discount.Discount) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	r := csv.NewReader(gz)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	r.TrimLeadingSpace = true

	for line := 1; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		if line == 1 && isHeader(record) {
			continue
		}

		d, err := parseRecord(record)
		if err != nil {
			imp.invalid.Add(1)
			slog.Warn("skipping invalid row",
				slog.String("file", path),
				slog.Int("line", line),
				slog.String("error", err.Error()),
			)
			continue
		}

		select {
		case out <- d:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "code")
}

// parseRecord converts a CODE,VALUE,TYPE row into an active discount.
func parseRecord(record []string) (discount.Discount, error) {
	if len(record) != 3 {
		return discount.Discount{}, errors.Errorf("want 3 fields, got %d", len(record))
	}
	code := strings.TrimSpace(record[0])
	if code == "" {
		return discount.Discount{}, errors.New("empty code")
	}
	value, err := decimal.NewFromString(strings.TrimSpace(record[1]))
	if err != nil {
		return discount.Discount{}, errors.Wrap(err, "parse value")
	}

	d := discount.Discount{
		Code:      code,
		Value:     value,
		ValueType: discount.ValueType(strings.ToUpper(strings.TrimSpace(record[2]))),
		Active:    true,
	}
	if err := d.Validate(); err != nil {
		return discount.Discount{}, err
	}
	return d, nil
}
