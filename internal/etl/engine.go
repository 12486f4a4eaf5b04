package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/BartekS5/xfer/pkg/models"
)

// Partition splits records into contiguous chunks of size n; the last chunk
// holds the remainder. The chunks share the backing array of records.
func Partition(records []models.Record, n int) [][]models.Record {
	if n <= 0 || len(records) == 0 {
		return nil
	}
	batches := make([][]models.Record, 0, (len(records)+n-1)/n)
	for start := 0; start < len(records); start += n {
		end := min(start+n, len(records))
		batches = append(batches, records[start:end:end])
	}
	return batches
}

// BatchStatus is the outcome of one batch.
type BatchStatus string

const (
	BatchWritten BatchStatus = "written"
	BatchFailed  BatchStatus = "failed"
	BatchResumed BatchStatus = "resumed"
	BatchDryRun  BatchStatus = "dry-run"
)

// BatchResult records what happened to one batch. Index is 1-based.
type BatchResult struct {
	Index    int
	Size     int
	Written  int
	Attempts int
	Status   BatchStatus
	Err      error
}

// EngineOptions are fixed for the duration of one run.
type EngineOptions struct {
	Table       string
	BatchSize   int
	Mode        models.WriteMode
	ConflictKey string
	DryRun      bool
	Retry       models.RetryPolicy
	Checkpoint  *Checkpoint
}

// Engine writes records to a destination table batch by batch. A failed
// batch is logged and skipped; it never aborts the run.
type Engine struct {
	writer Writer
	opts   EngineOptions
	log    *slog.Logger
}

func NewEngine(w Writer, opts EngineOptions, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{writer: w, opts: opts, log: log}
}

// TransferResult sums up the batches of one run.
type TransferResult struct {
	Batches []BatchResult
	Written int
	Failed  int // records in failed batches
	Resumed int // records skipped because a checkpoint marked them written
}

// FailedBatches returns the indexes of failed batches.
func (r *TransferResult) FailedBatches() []int {
	var out []int
	for _, b := range r.Batches {
		if b.Status == BatchFailed {
			out = append(out, b.Index)
		}
	}
	return out
}

// Transfer writes records sequentially. It only returns an error when ctx is
// cancelled; per-batch failures are reported in the result.
func (e *Engine) Transfer(ctx context.Context, records []models.Record) (*TransferResult, error) {
	if e.opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", e.opts.BatchSize)
	}
	if e.opts.Mode == models.ModeUpsert && e.opts.ConflictKey == "" {
		return nil, errors.New("upsert needs a conflict key")
	}

	batches := Partition(records, e.opts.BatchSize)
	res := &TransferResult{Batches: make([]BatchResult, 0, len(batches))}
	start := time.Now()

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("transfer interrupted before batch %d: %w", i+1, err)
		}

		br := BatchResult{Index: i + 1, Size: len(batch)}
		switch {
		case e.opts.Checkpoint.Done(br.Index):
			br.Status = BatchResumed
			res.Resumed += len(batch)
			e.log.Info("batch already written by a previous run", slog.Int("batch", br.Index), slog.Int("size", br.Size))
		case e.opts.DryRun:
			br.Status = BatchDryRun
			e.log.Info("[DRY RUN] would write batch", slog.Int("batch", br.Index), slog.Int("size", br.Size))
		default:
			br.Written, br.Attempts, br.Err = e.writeBatch(ctx, batch)
			if br.Err != nil {
				br.Status = BatchFailed
				res.Failed += len(batch)
				e.log.Error("batch rejected, skipping",
					slog.Int("batch", br.Index),
					slog.Int("size", br.Size),
					slog.Int("attempts", br.Attempts),
					slog.Any("error", br.Err))
			} else {
				br.Status = BatchWritten
				res.Written += br.Written
				if err := e.opts.Checkpoint.MarkDone(br.Index); err != nil {
					e.log.Warn("could not save checkpoint", slog.Any("error", err))
				}
				e.log.Info("batch written",
					slog.Int("batch", br.Index),
					slog.Int("rows", br.Written),
					slog.Float64("rows_per_sec", rate(res.Written, time.Since(start))))
			}
		}
		res.Batches = append(res.Batches, br)
	}
	return res, nil
}

func (e *Engine) writeBatch(ctx context.Context, batch []models.Record) (int, int, error) {
	attempts := max(e.opts.Retry.MaxAttempts, 1)
	tries := 0

	written, err := retry.DoWithData(
		func() (int, error) {
			tries++
			return e.write(ctx, batch)
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(durationOr(e.opts.Retry.InitialDelay.Std(), 500*time.Millisecond)),
		retry.MaxDelay(durationOr(e.opts.Retry.MaxDelay.Std(), 10*time.Second)),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			e.log.Warn("batch write failed, retrying", slog.Uint64("attempt", uint64(n+1)), slog.Any("error", err))
		}),
	)
	return written, tries, err
}

func (e *Engine) write(ctx context.Context, batch []models.Record) (int, error) {
	if e.opts.Mode == models.ModeUpsert {
		return e.writer.Upsert(ctx, e.opts.Table, e.opts.ConflictKey, batch)
	}
	return e.writer.Insert(ctx, e.opts.Table, batch)
}

func rate(n int, d time.Duration) float64 {
	if d.Seconds() <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
