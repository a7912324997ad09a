// Package planner turns rebuild and install requests into ordered action
// plans that respect dependency order within a triplet.
package planner

import (
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/glorpus-work/portman/pkg/errors"
	"github.com/glorpus-work/portman/pkg/model"
	"github.com/glorpus-work/portman/pkg/ports"
	"github.com/glorpus-work/portman/pkg/statusdb"
	"github.com/glorpus-work/portman/pkg/triplet"
)

// CreateUpgradePlanOptions configure upgrade planning.
type CreateUpgradePlanOptions struct {
	HostTriplet           string
	UnsupportedPortAction model.UnsupportedPortAction
}

// FindOutdated walks the status database and returns every installed package
// whose recipe version differs from the installed version. Packages whose
// port was removed from the ports tree are silently skipped so that a full
// sweep stays resilient to recently deleted ports.
func FindOutdated(provider ports.Provider, db *statusdb.Database) ([]model.OutdatedEntry, error) {
	var outdated []model.OutdatedEntry
	for _, pkg := range db.InstalledPackages() {
		recipe, err := provider.GetControlFile(pkg.Name)
		if stderrors.Is(err, errors.ErrPortNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !recipe.Version.Equal(pkg.Version) {
			outdated = append(outdated, model.OutdatedEntry{
				Spec:             pkg.Spec(),
				InstalledVersion: pkg.Version,
				RecipeVersion:    recipe.Version,
			})
		}
	}
	return outdated, nil
}

// CreateUpgradePlan computes the rebuild plan for the requested specs.
//
// The plan covers the transitive reverse-dependency closure of each request
// within its triplet: any installed package depending on a rebuilt package is
// rebuilt too, so ABI-linked downstream consumers stay consistent. Recipe
// dependencies that are not installed yet are added as plain installs. Every
// rebuilt package gets a remove action preceding its install; removes run in
// reverse dependency order, installs in dependency order.
func CreateUpgradePlan(provider ports.Provider, specs []model.PackageSpec, db *statusdb.Database, opts CreateUpgradePlanOptions) (*model.ActionPlan, error) {
	if len(specs) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyPlan, "no packages requested")
	}

	g := newPlanGraph(provider, db, opts)
	for _, spec := range specs {
		if err := g.addRebuild(spec, model.InstallReasonRebuild, ""); err != nil {
			return nil, err
		}
	}
	if err := g.expandReverseClosure(); err != nil {
		return nil, err
	}
	return g.plan()
}

// CreateInstallPlan computes the install plan for specs that are not yet
// installed: the forward dependency closure in dependency order, skipping
// packages already present in the status database.
func CreateInstallPlan(provider ports.Provider, specs []model.PackageSpec, db *statusdb.Database, opts CreateUpgradePlanOptions) (*model.ActionPlan, error) {
	if len(specs) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyPlan, "no packages requested")
	}

	g := newPlanGraph(provider, db, opts)
	for _, spec := range specs {
		if db.IsInstalled(spec) {
			continue
		}
		if err := g.addRebuild(spec, model.InstallReasonRequested, ""); err != nil {
			return nil, err
		}
	}
	return g.plan()
}

// planGraph accumulates the member set of a plan and their dependency edges.
type planGraph struct {
	provider ports.Provider
	db       *statusdb.Database
	opts     CreateUpgradePlanOptions

	members  map[model.PackageSpec]*planNode
	warnings []string
}

type planNode struct {
	spec        model.PackageSpec
	recipe      *model.PortRecipe
	installed   *model.InstalledPort
	reason      model.InstallReason
	dependentOf string
	deps        []model.PackageSpec // edges restricted to plan members
}

func newPlanGraph(provider ports.Provider, db *statusdb.Database, opts CreateUpgradePlanOptions) *planGraph {
	return &planGraph{
		provider: provider,
		db:       db,
		opts:     opts,
		members:  make(map[model.PackageSpec]*planNode),
	}
}

// addRebuild adds a spec and its recipe dependency closure to the plan.
func (g *planGraph) addRebuild(spec model.PackageSpec, reason model.InstallReason, dependentOf string) error {
	if node, ok := g.members[spec]; ok {
		// A requested reason wins over one derived during closure expansion.
		if reason == model.InstallReasonRebuild || reason == model.InstallReasonRequested {
			node.reason = reason
			node.dependentOf = ""
		}
		return nil
	}

	recipe, err := g.provider.GetControlFile(spec.Name)
	if err != nil {
		return errors.Wrapf(err, "cannot plan %s", spec)
	}
	if err := g.checkSupported(spec, recipe); err != nil {
		return err
	}

	node := &planNode{
		spec:        spec,
		recipe:      recipe,
		installed:   g.db.FindInstalled(spec),
		reason:      reason,
		dependentOf: dependentOf,
	}
	g.members[spec] = node

	for _, dep := range recipe.Dependencies {
		depSpec := model.PackageSpec{Name: dep.Name, Triplet: spec.Triplet}
		if dep.Host {
			depSpec.Triplet = g.opts.HostTriplet
		}
		node.deps = append(node.deps, depSpec)
		if g.db.IsInstalled(depSpec) {
			// Installed dependencies keep their installed version; they are
			// only rebuilt when the reverse closure pulls them in.
			continue
		}
		if err := g.addRebuild(depSpec, model.InstallReasonDependency, spec.Name); err != nil {
			return err
		}
	}
	return nil
}

// expandReverseClosure rebuilds every installed package that transitively
// depends on a plan member within the same triplet.
func (g *planGraph) expandReverseClosure() error {
	for {
		grown := false
		for _, pkg := range g.db.InstalledPackages() {
			spec := pkg.Spec()
			if _, ok := g.members[spec]; ok {
				continue
			}
			recipe, err := g.provider.GetControlFile(pkg.Name)
			if stderrors.Is(err, errors.ErrPortNotFound) {
				// A dependent whose port was deleted cannot be rebuilt; it
				// also cannot pull in members, so leave it alone.
				continue
			}
			if err != nil {
				return err
			}
			for _, dep := range recipe.Dependencies {
				depSpec := model.PackageSpec{Name: dep.Name, Triplet: spec.Triplet}
				if dep.Host {
					depSpec.Triplet = g.opts.HostTriplet
				}
				if _, ok := g.members[depSpec]; !ok {
					continue
				}
				if err := g.addRebuild(spec, model.InstallReasonDependent, depSpec.Name); err != nil {
					return err
				}
				grown = true
				break
			}
		}
		if !grown {
			return nil
		}
	}
}

// checkSupported gates a plan member on its supports expression.
func (g *planGraph) checkSupported(spec model.PackageSpec, recipe *model.PortRecipe) error {
	supported, err := triplet.EvalSupports(recipe.Supports, spec.Triplet, g.opts.HostTriplet)
	if err != nil {
		return err
	}
	if supported {
		return nil
	}
	warning := fmt.Sprintf("%s is only supported on '%s', which does not match %s",
		spec.Name, recipe.Supports, spec.Triplet)
	if g.opts.UnsupportedPortAction == model.UnsupportedPortWarn {
		g.warnings = append(g.warnings, warning)
		return nil
	}
	return errors.Wrap(errors.ErrUnsupportedPort, warning)
}

// plan orders the accumulated members into an action plan.
func (g *planGraph) plan() (*model.ActionPlan, error) {
	order, err := g.topoOrder()
	if err != nil {
		return nil, err
	}

	plan := &model.ActionPlan{Warnings: g.warnings}
	for i := len(order) - 1; i >= 0; i-- {
		node := g.members[order[i]]
		if node.installed != nil {
			plan.Removes = append(plan.Removes, model.RemoveAction{
				Spec:             node.spec,
				InstalledVersion: node.installed.Version,
			})
		}
	}
	for _, spec := range order {
		node := g.members[spec]
		plan.Installs = append(plan.Installs, model.InstallAction{
			Spec:         node.spec,
			Recipe:       node.recipe,
			Features:     resolveFeatures(node),
			BuildOptions: model.DefaultBuildOptions(),
			Reason:       node.reason,
			DependentOf:  node.dependentOf,
		})
	}
	return plan, nil
}

// topoOrder sorts plan members dependencies-first. Roots are visited in spec
// order so the result is stable across runs.
func (g *planGraph) topoOrder() ([]model.PackageSpec, error) {
	roots := make([]model.PackageSpec, 0, len(g.members))
	for spec := range g.members {
		roots = append(roots, spec)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Compare(roots[j]) < 0 })

	order := make([]model.PackageSpec, 0, len(g.members))
	done := make(map[model.PackageSpec]bool, len(g.members))
	visiting := make(map[model.PackageSpec]bool, len(g.members))

	var dfs func(spec model.PackageSpec) error
	dfs = func(spec model.PackageSpec) error {
		if done[spec] {
			return nil
		}
		if visiting[spec] {
			return fmt.Errorf("dependency cycle detected involving %s", spec)
		}
		visiting[spec] = true
		for _, dep := range g.members[spec].deps {
			if _, ok := g.members[dep]; !ok {
				continue
			}
			if err := dfs(dep); err != nil {
				return err
			}
		}
		delete(visiting, spec)
		done[spec] = true
		order = append(order, spec)
		return nil
	}

	for _, root := range roots {
		if err := dfs(root); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// resolveFeatures computes the resolved feature set for an install action:
// the features recorded for the installed package united with the recipe's
// default features, sorted for stable output.
func resolveFeatures(node *planNode) []string {
	seen := make(map[string]struct{})
	var features []string
	add := func(list []string) {
		for _, f := range list {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			features = append(features, f)
		}
	}
	if node.installed != nil {
		add(node.installed.Features)
	}
	add(node.recipe.DefaultFeatures)
	sort.Strings(features)
	return features
}
