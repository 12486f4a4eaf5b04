package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BartekS5/xfer/internal/config"
	"github.com/BartekS5/xfer/internal/etl"
	"github.com/BartekS5/xfer/internal/secrets"
	"github.com/BartekS5/xfer/pkg/database"
	"github.com/BartekS5/xfer/pkg/logger"
	"github.com/BartekS5/xfer/pkg/models"
)

func runMigration(cmd *cobra.Command, a *app, opts *MigrateOptions) error {
	ctx := cmd.Context()

	job, err := buildJob(opts, cmd.Flags().Changed)
	if err != nil {
		return err
	}

	resolver := newResolver(a.cfg)
	sourceKey, err := resolver.Resolve(ctx, job.Source.Credential)
	if err != nil {
		return fmt.Errorf("source credential: %w", err)
	}
	destKey, err := resolver.Resolve(ctx, job.Destination.Credential)
	if err != nil {
		return fmt.Errorf("destination credential: %w", err)
	}

	openOpts := etl.OpenOptions{
		ConnectTimeout: a.cfg.ConnectTimeout,
		HTTPTimeout:    a.cfg.HTTPTimeout,
		Log:            logger.L(),
	}

	source, err := etl.OpenStore(ctx, job.Source.URL, sourceKey, openOpts)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer closeStore(source)

	dest, err := etl.OpenStore(ctx, job.Destination.URL, destKey, openOpts)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	defer closeStore(dest)

	logger.Infof("Starting %s: %s/%s -> %s/%s", job.Name,
		database.Redact(job.Source.URL), job.Source.Table,
		database.Redact(job.Destination.URL), job.Destination.Table)

	report, err := etl.NewPipeline(job, source, dest, logger.L()).Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "source records:      %d\n", report.SourceCount)
	fmt.Fprintf(out, "records written:     %d\n", report.Transfer.Written)
	if report.Transfer.Resumed > 0 {
		fmt.Fprintf(out, "records resumed:     %d\n", report.Transfer.Resumed)
	}
	if failed := report.Transfer.FailedBatches(); len(failed) > 0 {
		fmt.Fprintf(out, "failed batches:      %v\n", failed)
	}
	fmt.Fprintf(out, "destination total:   %d\n", report.DestAfter)
	fmt.Fprintf(out, "result:              %s\n", report.Outcome)
	return nil
}

// buildJob loads the job file, if any, and lets explicitly set flags
// override it.
func buildJob(opts *MigrateOptions, changed func(string) bool) (*models.Job, error) {
	job := &models.Job{}
	if opts.JobFile != "" {
		loaded, err := config.LoadJob(opts.JobFile)
		if err != nil {
			return nil, err
		}
		job = loaded
	}

	setString := func(flag string, dst *string, v string) {
		if changed(flag) {
			*dst = v
		}
	}
	setString("source", &job.Source.URL, opts.Source)
	setString("dest", &job.Destination.URL, opts.Dest)
	setString("source-table", &job.Source.Table, opts.SourceTable)
	setString("dest-table", &job.Destination.Table, opts.DestTable)
	setString("source-credential", &job.Source.Credential, opts.SourceCredential)
	setString("dest-credential", &job.Destination.Credential, opts.DestCredential)
	setString("order-by", &job.Source.OrderBy, opts.OrderBy)
	setString("conflict-key", &job.ConflictKey, opts.ConflictKey)
	setString("checkpoint", &job.Checkpoint, opts.Checkpoint)
	if changed("preset") {
		job.Preset = opts.Preset
		job.Fields = nil
	}
	if changed("mode") {
		job.Mode = models.WriteMode(opts.Mode)
	}
	if changed("page-size") {
		job.Source.PageSize = opts.PageSize
	}
	if changed("batch-size") {
		job.BatchSize = opts.BatchSize
	}
	if changed("truncate") {
		job.Truncate = opts.Truncate
	}
	if changed("dry-run") {
		job.DryRun = opts.DryRun
	}
	if changed("retries") {
		job.Retry.MaxAttempts = opts.Retries
	}
	if changed("retry-delay") {
		job.Retry.InitialDelay = models.Duration(opts.RetryDelay)
	}

	if err := config.Finalize(job); err != nil {
		return nil, err
	}
	return job, nil
}

func runCount(ctx context.Context, a *app, endpoint, table, credential string) (int64, error) {
	secret, err := newResolver(a.cfg).Resolve(ctx, credential)
	if err != nil {
		return 0, err
	}
	store, err := etl.OpenStore(ctx, endpoint, secret, etl.OpenOptions{
		ConnectTimeout: a.cfg.ConnectTimeout,
		HTTPTimeout:    a.cfg.HTTPTimeout,
		Log:            logger.L(),
	})
	if err != nil {
		return 0, err
	}
	defer closeStore(store)

	return store.Count(ctx, table)
}

func newResolver(cfg *config.Config) *secrets.Resolver {
	return secrets.NewResolver().
		Register("env", secrets.Env{}).
		Register("dotenv", secrets.Dotenv{Path: cfg.SecretsDotenv}).
		Register("file", secrets.Dir{Root: cfg.SecretsDir}).
		Register("doppler", secrets.Doppler{
			Binary:  cfg.DopplerBinary,
			Project: cfg.DopplerProject,
			Config:  cfg.DopplerConfig,
		})
}

func closeStore(s etl.Store) {
	if err := s.Close(context.Background()); err != nil {
		logger.Warnf("closing store: %v", err)
	}
}
