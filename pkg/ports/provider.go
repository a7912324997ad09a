// Package ports resolves port names to their current recipes from an
// on-disk ports tree (one directory per port with a port.yaml).
package ports

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	goversion "github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/portman/pkg/errors"
	"github.com/glorpus-work/portman/pkg/model"
)

// Provider resolves a port name to its current recipe. A port deleted from
// the tree yields errors.ErrPortNotFound.
type Provider interface {
	GetControlFile(name string) (*model.PortRecipe, error)
}

// FSProvider reads recipes from a local ports directory. Lookups are memoised
// for the lifetime of the provider; recipes are read-only snapshots.
type FSProvider struct {
	portsDir string
	mu       sync.Mutex
	cache    map[string]*model.PortRecipe
}

// NewFSProvider creates a provider over the given ports directory.
func NewFSProvider(portsDir string) *FSProvider {
	return &FSProvider{
		portsDir: portsDir,
		cache:    make(map[string]*model.PortRecipe),
	}
}

// PortsDir returns the root of the ports tree, used as a source-location hint
// when printing plans.
func (p *FSProvider) PortsDir() string {
	return p.portsDir
}

// GetControlFile returns the recipe for a port name.
func (p *FSProvider) GetControlFile(name string) (*model.PortRecipe, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if recipe, ok := p.cache[name]; ok {
		return recipe, nil
	}

	recipePath := filepath.Join(p.portsDir, name, "port.yaml")
	data, err := os.ReadFile(recipePath)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(errors.ErrPortNotFound, "port %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe for %s: %w", name, err)
	}

	recipe := &model.PortRecipe{}
	if err := yaml.Unmarshal(data, recipe); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRecipe, "failed to parse %s: %v", recipePath, err)
	}
	if err := validateRecipe(name, recipe); err != nil {
		return nil, err
	}

	p.cache[name] = recipe
	return recipe, nil
}

func validateRecipe(name string, recipe *model.PortRecipe) error {
	if recipe.Name == "" {
		recipe.Name = name
	}
	if recipe.Name != name {
		return errors.Wrapf(errors.ErrInvalidRecipe,
			"recipe in ports/%s declares name %q", name, recipe.Name)
	}
	if recipe.Version.Text == "" {
		return errors.Wrapf(errors.ErrInvalidRecipe, "port %s has no version", name)
	}
	if _, err := goversion.NewVersion(recipe.Version.Text); err != nil {
		return errors.Wrapf(errors.ErrInvalidRecipe,
			"port %s has unparseable version %q: %v", name, recipe.Version.Text, err)
	}
	if recipe.Version.Port < 0 {
		return errors.Wrapf(errors.ErrInvalidRecipe,
			"port %s has negative port_version %d", name, recipe.Version.Port)
	}
	for _, dep := range recipe.Dependencies {
		if dep.Name == "" {
			return errors.Wrapf(errors.ErrInvalidRecipe, "port %s has a dependency without a name", name)
		}
		if dep.Name == name {
			return errors.Wrapf(errors.ErrInvalidRecipe, "port %s depends on itself", name)
		}
	}
	return nil
}
