// Package cli handles the command-line interface logic
// using the Cobra library.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/BartekS5/xfer/internal/config"
	"github.com/BartekS5/xfer/pkg/logger"
)

// app is the state shared by all sub-commands once PersistentPreRunE ran.
type app struct {
	environment string
	cfg         *config.Config
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "xfer",
		Short: "xfer - batch table transfer between data stores",
		Long: `xfer copies a table from one data store to another in fixed-size batches.
Rows are projected through a field policy, written with insert or upsert,
and the destination is re-counted at the end to verify the transfer.

Supported endpoints: Supabase/PostgREST (https://), Postgres (postgres://),
SQL Server (sqlserver://), MongoDB (mongodb://) and, as a source only,
CSV or JSON files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.environment, "env", "e", "",
		"Environment whose dotenv file to load (development, homologacao, production)")

	rootCmd.AddCommand(NewMigrateCmd(a), newCountCmd(a), newValidateCmd())
	return rootCmd
}

func (a *app) init() error {
	if a.environment != "" {
		dir := "config"
		if cfg, err := config.LoadConfig(); err == nil {
			dir = cfg.EnvDir
		}
		path, err := config.LoadEnvironment(dir, a.environment)
		if err != nil {
			return err
		}
		defer logger.Infof("Loaded environment %s from %s", a.environment, path)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	return logger.InitLogger(logger.Options{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		AddSource: cfg.LogAddSource,
		FilePath:  cfg.LogFilePath,
	})
}
