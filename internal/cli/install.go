package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/portman/pkg/binarycache"
	"github.com/glorpus-work/portman/pkg/build"
	"github.com/glorpus-work/portman/pkg/cmakevars"
	"github.com/glorpus-work/portman/pkg/config"
	"github.com/glorpus-work/portman/pkg/errors"
	"github.com/glorpus-work/portman/pkg/installer"
	"github.com/glorpus-work/portman/pkg/model"
	"github.com/glorpus-work/portman/pkg/planner"
	"github.com/glorpus-work/portman/pkg/ports"
	"github.com/glorpus-work/portman/pkg/statusdb"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var opts installOptions

	cmd := &cobra.Command{
		Use:   "install PACKAGE[:TRIPLET]...",
		Short: "Build and install packages from the ports tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the install plan without performing it")
	cmd.Flags().BoolVar(&opts.keepGoing, "keep-going", false, "Continue past per-package build failures")
	cmd.Flags().BoolVar(&opts.allowUnsupported, "allow-unsupported", false, "Warn instead of erroring on ports that do not support the target triplet")

	return cmd
}

type installOptions struct {
	dryRun           bool
	keepGoing        bool
	allowUnsupported bool
}

func runInstall(ctx context.Context, args []string, opts installOptions) error {
	started := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	specs, err := parseSpecs(args, cfg.Settings.DefaultTriplet)
	if err != nil {
		return err
	}

	db := statusdb.New()
	if err := db.Load(cfg.StatusDBPath()); err != nil {
		return err
	}
	provider := ports.NewFSProvider(cfg.Settings.PortsDir)

	unsupportedAction := model.UnsupportedPortError
	if opts.allowUnsupported {
		unsupportedAction = model.UnsupportedPortWarn
	}

	plan, err := planner.CreateInstallPlan(provider, specs, db, planner.CreateUpgradePlanOptions{
		HostTriplet:           cfg.Settings.HostTriplet,
		UnsupportedPortAction: unsupportedAction,
	})
	if err != nil {
		return err
	}
	if plan.Empty() {
		fmt.Println("All requested packages are already installed.")
		return nil
	}

	for _, warning := range plan.Warnings {
		color.Warn.Println(warning)
	}
	printPlan(plan, cfg.Settings.PortsDir)

	if opts.dryRun {
		return errors.ErrDryRun
	}

	vars := cmakevars.NewFSProvider(cfg.Settings.TripletsDir)
	if err := vars.LoadTagVars(plan, cfg.Settings.HostTriplet); err != nil {
		return err
	}

	cache, err := openBinaryCache(ctx, cfg)
	if err != nil {
		return err
	}

	inst := &installer.Installer{
		DB:      db,
		Cache:   cache,
		Builder: build.NewTengoBuilder(cfg.Settings.PortsDir),
		Vars:    vars,
		Logs:    buildLogsRecorder(cfg),
		Paths: installer.Paths{
			InstalledRoot: cfg.Settings.InstalledRoot,
			BuildtreesDir: cfg.Settings.BuildtreesDir,
			StatusDBPath:  cfg.StatusDBPath(),
		},
		Key:   binarycache.AbiKey,
		Hooks: executionHooks(),
	}

	summary, performErr := inst.Perform(ctx, plan, installer.Options{
		KeepGoing:   opts.keepGoing,
		HostTriplet: cfg.Settings.HostTriplet,
	})

	fmt.Printf("\nTotal elapsed time: %s\n\n", time.Since(started).Round(time.Millisecond))

	if performErr != nil {
		return performErr
	}
	if opts.keepGoing {
		summary.Print()
	}
	return nil
}

// buildLogsRecorder returns a recorder appending to the configured build log
// file, or a no-op when none is configured.
func buildLogsRecorder(cfg *config.Config) build.LogsRecorder {
	if cfg.Settings.BuildLogsPath == "" {
		return build.NullLogsRecorder{}
	}
	return build.NewFileLogsRecorder(cfg.Settings.BuildLogsPath)
}
