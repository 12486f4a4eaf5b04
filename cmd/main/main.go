package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/BartekS5/xfer/internal/cli"
	"github.com/BartekS5/xfer/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debugf("No .env file found, using system environment variables")
	}

	// Cancellation stops the transfer between batches.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := cli.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Errorf("%v", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}
