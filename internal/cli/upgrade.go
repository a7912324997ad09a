package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
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

// NewUpgradeCmd creates the upgrade command.
func NewUpgradeCmd() *cobra.Command {
	var opts upgradeOptions

	cmd := &cobra.Command{
		Use:   "upgrade [PACKAGE[:TRIPLET]...]",
		Short: "Rebuild installed packages whose recipes changed",
		Long: `Rebuild installed packages whose port recipes no longer match the
installed version, together with every installed package that depends on them.

With no arguments, every outdated installed package is targeted. By default
the command only prints the rebuild plan; pass --no-dry-run to perform it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.noDryRun, "no-dry-run", false, "Actually perform the upgrade")
	cmd.Flags().BoolVar(&opts.keepGoing, "keep-going", false, "Continue past per-package build failures (default)")
	cmd.Flags().BoolVar(&opts.noKeepGoing, "no-keep-going", false, "Stop on the first build failure")
	cmd.Flags().BoolVar(&opts.allowUnsupported, "allow-unsupported", false, "Warn instead of erroring on ports that do not support the target triplet")

	return cmd
}

type upgradeOptions struct {
	noDryRun         bool
	keepGoing        bool
	noKeepGoing      bool
	allowUnsupported bool
}

// determineKeepGoing resolves the two keep-going switches. Upgrades default
// to keep going: a sweep that stops halfway leaves a more confusing state
// than one that finishes what it can.
func determineKeepGoing(keepGoingSet, noKeepGoingSet bool) (bool, error) {
	if keepGoingSet && noKeepGoingSet {
		return false, errors.ErrBothKeepGoingFlags
	}
	if noKeepGoingSet {
		return false, nil
	}
	return true, nil
}

func runUpgrade(ctx context.Context, args []string, opts upgradeOptions) error {
	started := time.Now()

	keepGoing, err := determineKeepGoing(opts.keepGoing, opts.noKeepGoing)
	if err != nil {
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}
	if config.ManifestModeEnabled(workDir) {
		return errors.ErrManifestMode
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	unsupportedAction := model.UnsupportedPortError
	if opts.allowUnsupported {
		unsupportedAction = model.UnsupportedPortWarn
	}

	db := statusdb.New()
	if err := db.Load(cfg.StatusDBPath()); err != nil {
		return err
	}
	provider := ports.NewFSProvider(cfg.Settings.PortsDir)

	specs, err := parseSpecs(args, cfg.Settings.DefaultTriplet)
	if err != nil {
		return err
	}

	var toUpgrade []model.PackageSpec
	if len(specs) == 0 {
		// Full sweep: every installed package whose recipe version changed.
		outdated, err := planner.FindOutdated(provider, db)
		if err != nil {
			return err
		}
		if len(outdated) == 0 {
			fmt.Println("All installed packages are up-to-date with the local portfiles.")
			return nil
		}
		for _, entry := range outdated {
			toUpgrade = append(toUpgrade, entry.Spec)
		}
	} else {
		buckets := classifySpecs(specs, db, provider)
		buckets.print()
		if len(buckets.NotInstalled) > 0 || len(buckets.NoRecipe) > 0 {
			return errors.ErrClassification
		}
		if len(buckets.ToUpgrade) == 0 {
			return nil
		}
		toUpgrade = buckets.ToUpgrade
	}

	plan, err := planner.CreateUpgradePlan(provider, toUpgrade, db, planner.CreateUpgradePlanOptions{
		HostTriplet:           cfg.Settings.HostTriplet,
		UnsupportedPortAction: unsupportedAction,
	})
	if err != nil {
		return err
	}
	if plan.Empty() {
		return errors.ErrEmptyPlan
	}

	for _, warning := range plan.Warnings {
		color.Warn.Println(warning)
	}

	normalizeBuildOptions(plan)

	printPlan(plan, cfg.Settings.PortsDir)

	if !opts.noDryRun {
		color.Warn.Println("If you are sure you want to rebuild the above packages, rerun this command with the --no-dry-run option.")
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
		Logs:    build.NullLogsRecorder{},
		Paths: installer.Paths{
			InstalledRoot: cfg.Settings.InstalledRoot,
			BuildtreesDir: cfg.Settings.BuildtreesDir,
			StatusDBPath:  cfg.StatusDBPath(),
		},
		Key:   binarycache.AbiKey,
		Hooks: executionHooks(),
	}

	summary, performErr := inst.Perform(ctx, plan, installer.Options{
		KeepGoing:    keepGoing,
		HostTriplet:  cfg.Settings.HostTriplet,
		ShowProgress: keepGoing,
	})

	fmt.Printf("\nTotal elapsed time: %s\n\n", time.Since(started).Round(time.Millisecond))

	if performErr != nil {
		return performErr
	}
	if keepGoing {
		summary.Print()
	}
	return nil
}

// normalizeBuildOptions overwrites every install action's build options with
// the system defaults. Per-action overrides from the planner are discarded so
// the whole sweep builds uniformly.
func normalizeBuildOptions(plan *model.ActionPlan) {
	for i := range plan.Installs {
		plan.Installs[i].BuildOptions = model.DefaultBuildOptions()
	}
}

// classificationBuckets partitions the user-supplied specs. Every input spec
// lands in at least one bucket; a spec that is both missing from the status
// database and recipe-less appears in two, because both diagnostics matter.
type classificationBuckets struct {
	NotInstalled []model.PackageSpec
	NoRecipe     []model.PackageSpec
	UpToDate     []model.PackageSpec
	ToUpgrade    []model.PackageSpec
}

// classifySpecs partitions specs by comparing the installed version against
// the current recipe version. Versions compare by equality only: any
// difference, including a recipe that regressed, means rebuild.
func classifySpecs(specs []model.PackageSpec, db *statusdb.Database, provider ports.Provider) classificationBuckets {
	var buckets classificationBuckets

	for _, spec := range specs {
		skipVersionCheck := false

		installed := db.FindInstalled(spec)
		if installed == nil {
			buckets.NotInstalled = append(buckets.NotInstalled, spec)
			skipVersionCheck = true
		}

		recipe, err := provider.GetControlFile(spec.Name)
		if err != nil {
			// A port that fails to parse is as unusable as a deleted one.
			buckets.NoRecipe = append(buckets.NoRecipe, spec)
			skipVersionCheck = true
		}

		if skipVersionCheck {
			continue
		}

		if recipe.Version.Equal(installed.Version) {
			buckets.UpToDate = append(buckets.UpToDate, spec)
		} else {
			buckets.ToUpgrade = append(buckets.ToUpgrade, spec)
		}
	}

	sortSpecs(buckets.NotInstalled)
	sortSpecs(buckets.NoRecipe)
	sortSpecs(buckets.UpToDate)
	sortSpecs(buckets.ToUpgrade)
	return buckets
}

func (b classificationBuckets) print() {
	if len(b.UpToDate) > 0 {
		printSpecList(color.Success.Style, "The following packages are up-to-date:", b.UpToDate)
	}
	if len(b.ToUpgrade) > 0 {
		printSpecList(color.Info.Style, "The following packages will be rebuilt:", b.ToUpgrade)
	}
	if len(b.NotInstalled) > 0 {
		printSpecList(color.Error.Style, "The following packages are not installed:", b.NotInstalled)
	}
	if len(b.NoRecipe) > 0 {
		printSpecList(color.Error.Style, "The following packages do not have a valid port recipe:", b.NoRecipe)
	}
}

// printPlan emits the human-readable action plan, with the ports tree as a
// source-location hint for each install.
func printPlan(plan *model.ActionPlan, portsDir string) {
	if len(plan.Removes) > 0 {
		color.Info.Println("The following packages will be removed:")
		for _, action := range plan.Removes {
			fmt.Printf("    %s %s\n", action.Spec, action.InstalledVersion)
		}
		fmt.Println()
	}
	if len(plan.Installs) > 0 {
		color.Info.Println("The following packages will be built and installed:")
		for _, action := range plan.Installs {
			fmt.Printf("    %s -> %s (%s) -- %s\n",
				action.Spec, action.Recipe.Version, installReason(action), filepath.Join(portsDir, action.Spec.Name))
		}
		fmt.Println()
	}
}

func installReason(action model.InstallAction) string {
	switch action.Reason {
	case model.InstallReasonDependent:
		return "dependent of " + action.DependentOf
	case model.InstallReasonDependency:
		return "dependency of " + action.DependentOf
	case model.InstallReasonRequested:
		return "requested"
	default:
		return "rebuild"
	}
}
