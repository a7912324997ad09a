package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/portman/internal/cli"
	pmerrors "github.com/glorpus-work/portman/pkg/errors"
)

var (
	configPath string
	verbose    bool
	noColor    bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		// The dry-run gate is advisory, not a failure; give it its own
		// exit code so scripts can tell the two apart.
		if errors.Is(err, pmerrors.ErrDryRun) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portman",
		Short: "A source-based package manager for native libraries",
		Long: `portman builds and installs native libraries from a tree of port recipes:
- CLI: install, upgrade, outdated, list
- Ports: per-package recipe plus a build portfile
- Caching: reuse previously built binaries locally or from S3`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Set up CLI pkg variables
	cli.ConfigPath = &configPath
	cli.Verbose = &verbose
	cli.NoColor = &noColor

	// Add subcommands
	cmd.AddCommand(
		cli.NewInstallCmd(),
		cli.NewUpgradeCmd(),
		cli.NewOutdatedCmd(),
		cli.NewListCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
