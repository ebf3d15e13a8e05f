// Package bulkload performs the one-shot batched upload of the raw climate
// CSV into a document collection. Uploading is strictly sequential: one
// commit per batch, exponential-backoff retry on failure, and a fixed pause
// between batches to respect the downstream write quota.
package bulkload

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

var ErrBatchUpload = errors.New("batch upload failed")

// Row is one document to upload, keyed by its absolute row index in the
// source CSV so interrupted uploads can resume at an offset.
type Row struct {
	Index int
	Doc   map[string]any
}

// Committer commits one batch of rows to the document store. Implementations
// must be safe to retry: a failed commit may be re-attempted with the same
// rows.
type Committer interface {
	Commit(ctx context.Context, rows []Row) error
}

type Options struct {
	BatchSize    int
	StartRow     int
	MaxAttempts  int           // attempts per batch before giving up
	InitialDelay time.Duration // first retry delay, doubled per attempt
	BatchPause   time.Duration // minimum spacing between batch commits
}

func NewDefaultOptions() *Options {
	return &Options{
		BatchSize:    500,
		MaxAttempts:  5,
		InitialDelay: time.Second,
		BatchPause:   time.Second,
	}
}

type Uploader struct {
	committer Committer
	opt       *Options
	limiter   *rate.Limiter
	logger    *slog.Logger
}

func New(c Committer, opt *Options, logger *slog.Logger) *Uploader {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	o := *opt
	if o.BatchSize < 1 {
		o.BatchSize = 500
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if o.BatchPause > 0 {
		limiter = rate.NewLimiter(rate.Every(o.BatchPause), 1)
	}
	return &Uploader{
		committer: c,
		opt:       &o,
		limiter:   limiter,
		logger:    logger,
	}
}

// Run uploads all rows from the configured start offset. On retry exhaustion
// for a batch it halts and returns an error wrapping ErrBatchUpload; already
// committed batches stay committed.
func (u *Uploader) Run(ctx context.Context, rows []Row) error {
	if u.opt.StartRow > len(rows) {
		return fmt.Errorf("start row %d beyond %d rows", u.opt.StartRow, len(rows))
	}

	for i := u.opt.StartRow; i < len(rows); i += u.opt.BatchSize {
		if err := u.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for batch slot: %w", err)
		}

		end := min(i+u.opt.BatchSize, len(rows))
		batch := rows[i:end]

		if err := u.commitWithRetry(ctx, batch); err != nil {
			return fmt.Errorf("rows %d-%d after %d attempts: %w: %v",
				i, end-1, u.opt.MaxAttempts, ErrBatchUpload, err)
		}
		u.logger.Info("uploaded batch", "from", i, "to", end-1)
	}
	return nil
}

func (u *Uploader) commitWithRetry(ctx context.Context, batch []Row) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = u.opt.InitialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = u.opt.InitialDelay << (u.opt.MaxAttempts - 1)
	b.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		err := u.committer.Commit(ctx, batch)
		if err != nil {
			u.logger.Warn("batch commit failed",
				"attempt", attempt,
				"rows", len(batch),
				"error", err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(u.opt.MaxAttempts-1)), ctx)
	return backoff.Retry(op, policy)
}

// RowsFromCSV reads the raw climate CSV into uploadable documents. Column
// names are trimmed, "Date Time" is renamed to date_time, and rows with any
// empty cell are skipped.
func RowsFromCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	names := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "Date Time" {
			name = "date_time"
		}
		names[i] = name
	}

	var rows []Row
	idx := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", idx, err)
		}

		doc, complete := rowDoc(names, record)
		if complete {
			rows = append(rows, Row{Index: idx, Doc: doc})
		}
		idx++
	}
	return rows, nil
}

func rowDoc(names, record []string) (map[string]any, bool) {
	doc := make(map[string]any, len(names))
	for i, name := range names {
		if i >= len(record) {
			return nil, false
		}
		v := strings.TrimSpace(record[i])
		if v == "" {
			return nil, false
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil && name != "date_time" {
			doc[name] = f
			continue
		}
		doc[name] = v
	}
	return doc, true
}
