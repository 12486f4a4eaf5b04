package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// MigrateOptions are the migrate flags. Any flag that is set overrides the
// corresponding job file setting.
type MigrateOptions struct {
	JobFile string

	Source           string
	Dest             string
	SourceTable      string
	DestTable        string
	SourceCredential string
	DestCredential   string
	OrderBy          string
	PageSize         int

	BatchSize   int
	Mode        string
	ConflictKey string
	Preset      string
	Truncate    bool
	DryRun      bool
	Checkpoint  string
	Retries     int
	RetryDelay  time.Duration
}

func NewMigrateCmd(a *app) *cobra.Command {
	opts := &MigrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy a table from a source endpoint into a destination endpoint",
		Example: `  xfer migrate -j jobs/colaboradores.yaml
  xfer migrate --source https://prod.supabase.co --source-credential env:VITE_SUPABASE_ANON_KEY \
    --dest https://homolog.supabase.co --dest-credential doppler:stg_homologacao/VITE_SUPABASE_SECRET \
    --source-table colaboradores --mode upsert --conflict-key email -b 20`,
		RunE: func(c *cobra.Command, args []string) error {
			return runMigration(c, a, opts)
		},
	}

	addMigrateFlags(cmd, opts)
	return cmd
}

func addMigrateFlags(cmd *cobra.Command, opts *MigrateOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.JobFile, "job", "j", "", "Path to a job file (JSON or YAML)")
	f.StringVar(&opts.Source, "source", "", "Source endpoint URL")
	f.StringVar(&opts.Dest, "dest", "", "Destination endpoint URL")
	f.StringVar(&opts.SourceTable, "source-table", "", "Source table")
	f.StringVar(&opts.DestTable, "dest-table", "", "Destination table (defaults to the source table)")
	f.StringVar(&opts.SourceCredential, "source-credential", "", "Source credential reference, e.g. env:KEY")
	f.StringVar(&opts.DestCredential, "dest-credential", "", "Destination credential reference, e.g. doppler:config/KEY")
	f.StringVar(&opts.OrderBy, "order-by", "", "Column that orders source reads")
	f.IntVar(&opts.PageSize, "page-size", 0, "Read the source in pages of this many rows (0 reads everything at once)")
	f.IntVarP(&opts.BatchSize, "batch-size", "b", 0, "Rows per write batch (default 20)")
	f.StringVar(&opts.Mode, "mode", "", "Write mode: insert or upsert")
	f.StringVar(&opts.ConflictKey, "conflict-key", "", "Unique column used by upsert")
	f.StringVar(&opts.Preset, "preset", "", "Built-in field policy when the job has no field rules")
	f.BoolVar(&opts.Truncate, "truncate", false, "Delete every destination row before writing")
	f.BoolVar(&opts.DryRun, "dry-run", false, "Read and transform, but write nothing")
	f.StringVar(&opts.Checkpoint, "checkpoint", "", "Run manifest file used to resume interrupted transfers")
	f.IntVar(&opts.Retries, "retries", 0, "Attempts per batch, including the first (default 1)")
	f.DurationVar(&opts.RetryDelay, "retry-delay", 0, "Initial backoff between batch attempts")
}
