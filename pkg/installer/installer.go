//go:generate mockgen -destination=./mocks/installer.go -package=mocks . BinaryCache,PortBuilder,VariableProvider

// Package installer executes action plans: removes in plan order, then
// installs in plan order, consulting the binary cache before building and
// updating the status database after every action.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/glorpus-work/portman/pkg/build"
	"github.com/glorpus-work/portman/pkg/errors"
	"github.com/glorpus-work/portman/pkg/model"
	"github.com/glorpus-work/portman/pkg/statusdb"
)

// BinaryCache is the subset of the binary cache used by the installer.
type BinaryCache interface {
	Contains(ctx context.Context, key string) bool
	Fetch(ctx context.Context, key, destDir string) error
	Store(ctx context.Context, key, srcDir string) error
}

// PortBuilder is the subset of the builder used by the installer.
type PortBuilder interface {
	Build(ctx context.Context, action model.InstallAction, stageDir string, vars map[string]string) error
}

// VariableProvider serves the per-triplet variables loaded for the plan.
type VariableProvider interface {
	TagVars(spec model.PackageSpec) (map[string]string, bool)
}

// KeyFunc derives the binary cache key for an install action.
type KeyFunc func(action model.InstallAction, tripletVars map[string]string) string

// Paths locate the trees the installer mutates.
type Paths struct {
	InstalledRoot string // per-triplet prefixes live under <root>/<triplet>
	BuildtreesDir string // scratch space for staged builds
	StatusDBPath  string
}

// Options control one Perform run.
type Options struct {
	KeepGoing    bool
	HostTriplet  string
	ShowProgress bool
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // removing|restoring|building|installing|done|error
	ID    string
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Installer ties the status database, binary cache and port builder together
// for plan execution. The status database is exclusively owned by the
// running command; it is mutated action-by-action, in plan order.
type Installer struct {
	DB      *statusdb.Database
	Cache   BinaryCache
	Builder PortBuilder
	Vars    VariableProvider
	Logs    build.LogsRecorder
	Paths   Paths
	Key     KeyFunc
	Hooks   Hooks
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// installDir returns the tree one package installs into.
func (inst *Installer) installDir(spec model.PackageSpec) string {
	return filepath.Join(inst.Paths.InstalledRoot, spec.Triplet, spec.Name)
}

// Perform executes the plan. Under keep-going a build failure marks the
// action failed, cascades a skip to its dependents and continues; the
// returned summary is the authoritative result and err stays nil. Without
// keep-going the first failure aborts with an error.
func (inst *Installer) Perform(ctx context.Context, plan *model.ActionPlan, opts Options) (*Summary, error) {
	if inst.DB == nil {
		return nil, fmt.Errorf("status database is not configured")
	}
	if inst.Builder == nil {
		return nil, fmt.Errorf("port builder is not configured")
	}
	if inst.Logs == nil {
		inst.Logs = build.NullLogsRecorder{}
	}

	started := time.Now()
	summary := &Summary{}

	for _, action := range plan.Removes {
		emit(inst.Hooks, Event{Phase: "removing", ID: action.Spec.String(), Msg: action.InstalledVersion.String()})
		if err := inst.executeRemove(action); err != nil {
			return summary, err
		}
	}

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(len(plan.Installs)), "installing")
	}

	// Specs whose install failed or was skipped; their dependents cascade.
	unavailable := make(map[model.PackageSpec]bool)

	for _, action := range plan.Installs {
		if dep, blocked := inst.blockedBy(action, opts, unavailable); blocked {
			emit(inst.Hooks, Event{Phase: "error", ID: action.Spec.String(), Msg: "skipped: dependency " + dep.String() + " is unavailable"})
			unavailable[action.Spec] = true
			summary.add(action.Spec, ResultCascaded, 0)
			continue
		}

		actionStart := time.Now()
		err := inst.executeInstall(ctx, action)
		elapsed := time.Since(actionStart)
		inst.Logs.RecordBuild(action.Spec, err == nil, elapsed)

		if err != nil {
			emit(inst.Hooks, Event{Phase: "error", ID: action.Spec.String(), Msg: err.Error()})
			unavailable[action.Spec] = true
			summary.add(action.Spec, ResultBuildFailed, elapsed)
			if !opts.KeepGoing {
				summary.Elapsed = time.Since(started)
				return summary, err
			}
			continue
		}

		summary.add(action.Spec, ResultSucceeded, elapsed)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}
	emit(inst.Hooks, Event{Phase: "done"})
	summary.Elapsed = time.Since(started)
	return summary, nil
}

// blockedBy reports whether a dependency of the action is unavailable.
func (inst *Installer) blockedBy(action model.InstallAction, opts Options, unavailable map[model.PackageSpec]bool) (model.PackageSpec, bool) {
	for _, dep := range action.Recipe.Dependencies {
		depSpec := model.PackageSpec{Name: dep.Name, Triplet: action.Spec.Triplet}
		if dep.Host {
			depSpec.Triplet = opts.HostTriplet
		}
		if unavailable[depSpec] {
			return depSpec, true
		}
	}
	return model.PackageSpec{}, false
}

// executeRemove deletes the installed tree and the status record.
func (inst *Installer) executeRemove(action model.RemoveAction) error {
	if err := os.RemoveAll(inst.installDir(action.Spec)); err != nil {
		return fmt.Errorf("failed to remove installed tree for %s: %w", action.Spec, err)
	}
	inst.DB.Remove(action.Spec)
	if err := inst.DB.Save(inst.Paths.StatusDBPath); err != nil {
		return err
	}
	return nil
}

// executeInstall restores the package from the binary cache when possible,
// builds it otherwise, installs the tree and records the new status.
func (inst *Installer) executeInstall(ctx context.Context, action model.InstallAction) error {
	var vars map[string]string
	if inst.Vars != nil {
		vars, _ = inst.Vars.TagVars(action.Spec)
	}

	key := ""
	if inst.Key != nil {
		key = inst.Key(action, vars)
	}

	destDir := inst.installDir(action.Spec)

	restored := false
	if key != "" && inst.Cache != nil && inst.Cache.Contains(ctx, key) {
		emit(inst.Hooks, Event{Phase: "restoring", ID: action.Spec.String(), Msg: key})
		if err := inst.Cache.Fetch(ctx, key, destDir); err == nil {
			restored = true
		}
		// A corrupt cache entry falls through to a fresh build.
	}

	if !restored {
		emit(inst.Hooks, Event{Phase: "building", ID: action.Spec.String(), Msg: action.Recipe.Version.String()})
		stageDir := filepath.Join(inst.Paths.BuildtreesDir, action.Spec.Triplet, action.Spec.Name)
		defer func() {
			if action.BuildOptions.CleanBuildtrees {
				_ = os.RemoveAll(stageDir)
			}
		}()
		if err := inst.Builder.Build(ctx, action, stageDir, vars); err != nil {
			return err
		}
		if err := inst.installTree(stageDir, destDir); err != nil {
			return err
		}
		if key != "" && inst.Cache != nil {
			if err := inst.Cache.Store(ctx, key, destDir); err != nil {
				emit(inst.Hooks, Event{Phase: "error", ID: action.Spec.String(), Msg: "cache store failed: " + err.Error()})
			}
		}
	}

	inst.DB.Add(&model.InstalledPort{
		Name:        action.Spec.Name,
		Triplet:     action.Spec.Triplet,
		Version:     action.Recipe.Version,
		Features:    action.Features,
		Description: action.Recipe.Description,
		AbiKey:      key,
	})
	return inst.DB.Save(inst.Paths.StatusDBPath)
}

// installTree moves a staged tree into place, replacing any previous tree.
func (inst *Installer) installTree(stageDir, destDir string) error {
	if _, err := os.Stat(stageDir); err != nil {
		return errors.Wrapf(errors.ErrBuildFailed, "portfile staged nothing at %s", stageDir)
	}
	if err := os.RemoveAll(destDir); err != nil {
		return fmt.Errorf("failed to clear install directory %s: %w", destDir, err)
	}
	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return fmt.Errorf("failed to create install directory: %w", err)
	}
	if err := os.Rename(stageDir, destDir); err != nil {
		return fmt.Errorf("failed to move staged tree into place: %w", err)
	}
	return nil
}
