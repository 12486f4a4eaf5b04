package etl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/BartekS5/xfer/pkg/models"
)

// Pipeline runs one transfer: read, transform, batch-write, verify.
type Pipeline struct {
	Job    *models.Job
	Source Reader
	Dest   Store
	Log    *slog.Logger
}

func NewPipeline(job *models.Job, source Reader, dest Store, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{Job: job, Source: source, Dest: dest, Log: log}
}

// RunReport describes a finished run.
type RunReport struct {
	RunID       string
	SourceCount int64
	DestBefore  int64
	DestAfter   int64
	Transfer    *TransferResult
	Outcome     Outcome
	Resumed     bool
	Duration    time.Duration
}

// Run executes the transfer. Errors are fatal: source read failures, a
// failing destination count before the first write, a broken checkpoint or
// cancellation. Rejected batches are not errors; they show up in the report.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	job := p.Job
	runID := uuid.NewString()
	log := p.Log.With(slog.String("run_id", runID), slog.String("job", job.Name))
	started := time.Now()

	log.Info("starting transfer",
		slog.String("source_table", job.Source.Table),
		slog.String("dest_table", job.Destination.Table),
		slog.Int("batch_size", job.BatchSize),
		slog.String("mode", string(job.Mode)),
		slog.Bool("dry_run", job.DryRun))

	raw, err := NewSourceReader(p.Source, job.Source, log).ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("source read failed: %w", err)
	}
	log.Info("source records read", slog.Int("count", len(raw)))

	records := NewTransformer(job.Fields).TransformAll(raw)

	v := &Validator{Mode: job.Mode, ConflictKey: job.ConflictKey, BatchSize: job.BatchSize}
	for _, issue := range v.Check(records) {
		log.Warn("suspicious record", slog.Int("record", issue.Index), slog.Int("batch", issue.Batch), slog.String("issue", issue.Message))
	}

	before, err := p.Dest.Count(ctx, job.Destination.Table)
	if err != nil {
		return nil, fmt.Errorf("destination count failed: %w", err)
	}
	log.Info("destination rows before transfer", slog.Int64("count", before))

	report := &RunReport{
		RunID:       runID,
		SourceCount: int64(len(raw)),
	}

	var cp *Checkpoint
	if job.Checkpoint != "" && !job.DryRun {
		cp, report.Resumed, err = OpenCheckpoint(job.Checkpoint, runID, job.Name, records, job.BatchSize)
		if err != nil {
			return nil, err
		}
		if report.Resumed {
			log.Info("resuming from checkpoint",
				slog.String("path", job.Checkpoint),
				slog.String("previous_run_id", cp.RunID),
				slog.Any("completed_batches", cp.Completed))
		}
	}

	// A resumed run keeps the rows its earlier batches wrote.
	switch {
	case !job.Truncate || job.DryRun || before == 0:
	case report.Resumed:
		log.Info("resuming, destination not cleared", slog.Int64("rows", before))
	default:
		before = p.truncate(ctx, log, before)
	}
	report.DestBefore = before

	engine := NewEngine(p.Dest, EngineOptions{
		Table:       job.Destination.Table,
		BatchSize:   job.BatchSize,
		Mode:        job.Mode,
		ConflictKey: job.ConflictKey,
		DryRun:      job.DryRun,
		Retry:       job.Retry,
		Checkpoint:  cp,
	}, log)

	report.Transfer, err = engine.Transfer(ctx, records)
	if err != nil {
		return report, err
	}

	if len(report.Transfer.FailedBatches()) == 0 {
		if err := cp.Remove(); err != nil {
			log.Warn("could not remove checkpoint", slog.Any("error", err))
		}
	}

	after, err := p.Dest.Count(ctx, job.Destination.Table)
	if err != nil {
		log.Error("final destination count failed", slog.Any("error", err))
		after = before
	}
	report.DestAfter = after
	if job.DryRun {
		report.Outcome = OutcomeDryRun
	} else {
		report.Outcome = Verify(report.SourceCount, before, after)
	}
	report.Duration = time.Since(started)

	p.summarize(log, report)
	return report, nil
}

// truncate empties the destination. Failure only warns, so the run goes on
// against whatever rows remain.
func (p *Pipeline) truncate(ctx context.Context, log *slog.Logger, before int64) int64 {
	log.Info("clearing destination table", slog.Int64("rows", before))
	deleted, err := p.Dest.DeleteAll(ctx, p.Job.Destination.Table)
	if err != nil {
		log.Warn("could not clear destination", slog.Any("error", err))
		return before
	}
	log.Info("destination cleared", slog.Int64("deleted", deleted))
	return max(before-deleted, 0)
}

func (p *Pipeline) summarize(log *slog.Logger, r *RunReport) {
	attrs := []any{
		slog.Int64("source", r.SourceCount),
		slog.Int("written", r.Transfer.Written),
		slog.Int("failed_records", r.Transfer.Failed),
		slog.Int("resumed_records", r.Transfer.Resumed),
		slog.Any("failed_batches", r.Transfer.FailedBatches()),
		slog.Int64("dest_before", r.DestBefore),
		slog.Int64("dest_after", r.DestAfter),
		slog.String("outcome", string(r.Outcome)),
		slog.Duration("elapsed", r.Duration),
	}
	switch {
	case p.Job.DryRun:
		log.Info("[DRY RUN] nothing was written", attrs...)
	case r.Outcome == OutcomeSuccess:
		log.Info(r.Outcome.Message(), attrs...)
	default:
		log.Warn(r.Outcome.Message(), attrs...)
	}
}
