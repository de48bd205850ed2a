package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/fokus/internal/cli"
	"github.com/alexanderramin/fokus/internal/service"
	"github.com/alexanderramin/fokus/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Determine state path: env var or default ~/.fokus/stats.json
	statePath := os.Getenv("FOKUS_STATE")
	if statePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		statePath = filepath.Join(home, ".fokus", "stats.json")
	}

	blobs := openBlobStore(statePath, os.Stderr)

	opts := []service.Option{}
	if os.Getenv("FOKUS_LOG") != "" {
		opts = append(opts, service.WithObserver(service.NewLogUseCaseObserver(os.Stderr)))
	}

	stats := service.NewStatsService(blobs, opts...)
	defer stats.Close()

	app := &cli.App{
		Stats: stats,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}

// openBlobStore opens the durable store, degrading to an in-memory one
// when the path is unusable so the timer still runs for this session.
func openBlobStore(path string, warn io.Writer) store.BlobStore {
	blobs, err := store.NewFileStore(path)
	if err != nil {
		fmt.Fprintf(warn, "Warning: cannot open %s (%v); statistics will not be saved this run.\n", path, err)
		return store.NewMemStore()
	}
	return blobs
}
