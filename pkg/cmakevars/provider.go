// Package cmakevars loads the per-triplet CMake variables ports are
// configured with (triplet files such as triplets/x64-linux.yaml).
package cmakevars

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/portman/pkg/errors"
	"github.com/glorpus-work/portman/pkg/model"
)

// Provider loads and serves per-triplet variables for plan actions.
type Provider interface {
	// LoadTagVars loads variables for exactly the set of ports named in the
	// plan. Must be called before TagVars.
	LoadTagVars(plan *model.ActionPlan, hostTriplet string) error
	// TagVars returns the variables for one plan action's spec.
	TagVars(spec model.PackageSpec) (map[string]string, bool)
}

// tripletFile is the on-disk shape of a triplet variable file.
type tripletFile struct {
	Vars map[string]string `yaml:"vars"`
}

// FSProvider reads triplet files from a local triplets directory.
type FSProvider struct {
	tripletsDir string

	mu     sync.Mutex
	byTrip map[string]map[string]string
	bySpec map[model.PackageSpec]map[string]string
}

// NewFSProvider creates a provider over the given triplets directory.
func NewFSProvider(tripletsDir string) *FSProvider {
	return &FSProvider{
		tripletsDir: tripletsDir,
		byTrip:      make(map[string]map[string]string),
		bySpec:      make(map[model.PackageSpec]map[string]string),
	}
}

// LoadTagVars resolves the triplet variables for every install action in the
// plan. Variables for the same triplet are read once and shared; the host
// triplet is always loaded because host dependencies build against it.
func (p *FSProvider) LoadTagVars(plan *model.ActionPlan, hostTriplet string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.loadTriplet(hostTriplet); err != nil {
		return err
	}
	for _, action := range plan.Installs {
		vars, err := p.loadTriplet(action.Spec.Triplet)
		if err != nil {
			return err
		}
		p.bySpec[action.Spec] = vars
	}
	return nil
}

// TagVars returns the variables loaded for a spec.
func (p *FSProvider) TagVars(spec model.PackageSpec) (map[string]string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	vars, ok := p.bySpec[spec]
	return vars, ok
}

// loadTriplet reads one triplet file, memoised. A missing file is not an
// error: a triplet without a file simply has no extra variables.
func (p *FSProvider) loadTriplet(triplet string) (map[string]string, error) {
	if vars, ok := p.byTrip[triplet]; ok {
		return vars, nil
	}

	path := filepath.Join(p.tripletsDir, triplet+".yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		vars := map[string]string{}
		p.byTrip[triplet] = vars
		return vars, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read triplet file %s: %w", path, err)
	}

	var file tripletFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(errors.ErrConfigParse, "failed to parse triplet file %s: %v", path, err)
	}
	if file.Vars == nil {
		file.Vars = map[string]string{}
	}
	p.byTrip[triplet] = file.Vars
	return file.Vars, nil
}
