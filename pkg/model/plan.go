package model

// UnsupportedPortAction controls planner behavior when a port's supports
// expression excludes the target triplet.
type UnsupportedPortAction string

const (
	// UnsupportedPortError aborts planning on an unsupported port.
	UnsupportedPortError UnsupportedPortAction = "error"
	// UnsupportedPortWarn records a plan warning and includes the port anyway.
	UnsupportedPortWarn UnsupportedPortAction = "warn"
)

// InstallReason explains why an install action is part of a plan.
type InstallReason string

const (
	// InstallReasonRequested marks a package the user asked for directly.
	InstallReasonRequested InstallReason = "requested"
	// InstallReasonRebuild marks a package rebuilt because its recipe changed.
	InstallReasonRebuild InstallReason = "rebuild"
	// InstallReasonDependency marks a package pulled in as a dependency.
	InstallReasonDependency InstallReason = "dependency"
	// InstallReasonDependent marks an installed package rebuilt because it
	// depends on another rebuilt package.
	InstallReasonDependent InstallReason = "dependent"
)

// BuildOptions is the per-action build configuration record.
type BuildOptions struct {
	AllowDownloads  bool
	CleanBuildtrees bool
	CleanPackages   bool
	UseHeadVersion  bool
	Editable        bool
}

// DefaultBuildOptions returns the system default build options. The upgrade
// flow overwrites every install action with these so the whole sweep builds
// uniformly.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		AllowDownloads:  true,
		CleanBuildtrees: true,
		CleanPackages:   true,
	}
}

// RemoveAction removes one installed package ahead of its rebuilt install.
type RemoveAction struct {
	Spec             PackageSpec
	InstalledVersion Version
}

// InstallAction installs one package at the recipe version with a resolved
// feature set.
type InstallAction struct {
	Spec         PackageSpec
	Recipe       *PortRecipe
	Features     []string
	BuildOptions BuildOptions
	Reason       InstallReason
	DependentOf  string // requested port this one is a dependent of, when Reason is InstallReasonDependent
}

// ActionPlan is an ordered sequence of remove actions followed by install
// actions, plus any warnings the planner collected.
//
// Invariants: install actions are topologically sorted (dependencies first),
// every remove precedes its paired install, and the plan covers the
// transitive reverse-dependency closure of the requested specs.
type ActionPlan struct {
	Removes  []RemoveAction
	Installs []InstallAction
	Warnings []string
}

// Empty reports whether the plan contains no actions at all.
func (p *ActionPlan) Empty() bool {
	return len(p.Removes) == 0 && len(p.Installs) == 0
}

// InstallSpecs returns the specs of all install actions in plan order.
func (p *ActionPlan) InstallSpecs() []PackageSpec {
	specs := make([]PackageSpec, 0, len(p.Installs))
	for _, action := range p.Installs {
		specs = append(specs, action.Spec)
	}
	return specs
}
