package model

import "time"

// Dependency names another port a recipe needs at build or run time.
type Dependency struct {
	Name     string   `json:"name" yaml:"name"`
	Features []string `json:"features,omitempty" yaml:"features,omitempty"`
	Host     bool     `json:"host,omitempty" yaml:"host,omitempty"`
}

// PortRecipe is the latest available metadata for a port, as read from the
// ports tree. Recipes are read-only snapshots; a port deleted from the tree
// simply has no recipe.
type PortRecipe struct {
	Name            string       `yaml:"name"`
	Version         Version      `yaml:",inline"`
	Description     string       `yaml:"description,omitempty"`
	Homepage        string       `yaml:"homepage,omitempty"`
	Supports        string       `yaml:"supports,omitempty"` // boolean expression over triplet attributes
	Dependencies    []Dependency `yaml:"dependencies,omitempty"`
	DefaultFeatures []string     `yaml:"default_features,omitempty"`
}

// InstalledPort is the status database record for one installed package.
// Immutable during planning; mutated only by executed actions.
type InstalledPort struct {
	Name        string    `json:"name"`
	Triplet     string    `json:"triplet"`
	Version     Version   `json:"version"`
	Features    []string  `json:"features,omitempty"`
	Description string    `json:"description,omitempty"`
	InstalledAt time.Time `json:"installed_at"`
	AbiKey      string    `json:"abi_key,omitempty"`
}

// Spec returns the package spec identifying this record.
func (p *InstalledPort) Spec() PackageSpec {
	return PackageSpec{Name: p.Name, Triplet: p.Triplet}
}

// OutdatedEntry pairs an installed package with its recipe version delta.
type OutdatedEntry struct {
	Spec             PackageSpec
	InstalledVersion Version
	RecipeVersion    Version
}

// VersionDiff renders the delta as "old -> new".
func (e OutdatedEntry) VersionDiff() string {
	return e.InstalledVersion.String() + " -> " + e.RecipeVersion.String()
}
