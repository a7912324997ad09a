// Package build runs port build recipes. A portfile is a tengo script next to
// the port's recipe; it stages the built package tree into a directory the
// installer then installs and caches.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/glorpus-work/portman/pkg/errors"
	"github.com/glorpus-work/portman/pkg/model"
)

// Builder builds one install action into a staged package tree.
type Builder interface {
	Build(ctx context.Context, action model.InstallAction, stageDir string, vars map[string]string) error
}

// TengoBuilder executes <ports>/<name>/portfile.tengo with the port context
// bound as script variables.
type TengoBuilder struct {
	portsDir string
}

// NewTengoBuilder creates a builder over the given ports tree.
func NewTengoBuilder(portsDir string) *TengoBuilder {
	return &TengoBuilder{portsDir: portsDir}
}

// Build runs the portfile for the action. The script sees the port name,
// version, triplet, resolved features, the stage directory to populate, and
// the triplet variables. A script reporting via an `err` variable fails the
// build.
func (b *TengoBuilder) Build(ctx context.Context, action model.InstallAction, stageDir string, vars map[string]string) error {
	portfile := filepath.Join(b.portsDir, action.Spec.Name, "portfile.tengo")
	source, err := os.ReadFile(portfile)
	if err != nil {
		return errors.Wrapf(errors.ErrBuildFailed, "cannot read portfile for %s: %v", action.Spec.Name, err)
	}

	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return fmt.Errorf("failed to create stage directory: %w", err)
	}

	script := tengo.NewScript(source)
	script.SetImports(stdlib.GetModuleMap("fmt", "os", "text", "times"))

	features := make([]interface{}, 0, len(action.Features))
	for _, f := range action.Features {
		features = append(features, f)
	}
	tripletVars := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		tripletVars[k] = v
	}

	bindings := map[string]interface{}{
		"port":            action.Spec.Name,
		"version":         action.Recipe.Version.String(),
		"triplet":         action.Spec.Triplet,
		"features":        features,
		"stage_dir":       stageDir,
		"triplet_vars":    tripletVars,
		"allow_downloads": action.BuildOptions.AllowDownloads,
	}
	for name, value := range bindings {
		if err := script.Add(name, value); err != nil {
			return fmt.Errorf("failed to add %s to portfile script: %w", name, err)
		}
	}

	compiled, err := script.RunContext(ctx)
	if err != nil {
		return errors.Wrapf(errors.ErrBuildFailed, "portfile for %s: %v", action.Spec.Name, err)
	}

	if errVar := compiled.Get("err"); errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return errors.Wrapf(errors.ErrBuildFailed, "portfile for %s: %v", action.Spec.Name, v)
		case string:
			if v != "" {
				return errors.Wrapf(errors.ErrBuildFailed, "portfile for %s: %s", action.Spec.Name, v)
			}
		}
	}
	return nil
}
