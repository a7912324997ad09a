// Package model provides the data structures shared between the status
// database, the port file provider, the planner and the installer.
package model

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/portman/pkg/errors"
)

// PackageSpec identifies one installable unit: a port name built for a triplet.
type PackageSpec struct {
	Name    string `json:"name" yaml:"name"`
	Triplet string `json:"triplet" yaml:"triplet"`
}

// String renders the spec as "name:triplet".
func (s PackageSpec) String() string {
	return s.Name + ":" + s.Triplet
}

// Compare orders specs lexicographically by name, then triplet.
func (s PackageSpec) Compare(other PackageSpec) int {
	if c := strings.Compare(s.Name, other.Name); c != 0 {
		return c
	}
	return strings.Compare(s.Triplet, other.Triplet)
}

// ParsePackageSpec parses "name[:triplet]", falling back to defaultTriplet
// when the triplet part is omitted.
func ParsePackageSpec(arg, defaultTriplet string) (PackageSpec, error) {
	name, triplet, found := strings.Cut(arg, ":")
	if !found {
		triplet = defaultTriplet
	}
	if name == "" || strings.Contains(triplet, ":") {
		return PackageSpec{}, errors.Wrapf(errors.ErrInvalidSpec, "expected name[:triplet], got %q", arg)
	}
	if triplet == "" {
		return PackageSpec{}, errors.Wrapf(errors.ErrInvalidTriplet, "spec %q has no triplet and no default is configured", arg)
	}
	if name != strings.ToLower(name) {
		return PackageSpec{}, errors.Wrapf(errors.ErrInvalidSpec, "port names must be lowercase, got %q", name)
	}
	return PackageSpec{Name: name, Triplet: triplet}, nil
}

// Version is the pair of upstream version text and port revision. Upgrade
// decisions compare versions for equality only; there is no ordering.
type Version struct {
	Text string `json:"version" yaml:"version"`
	Port int    `json:"port_version,omitempty" yaml:"port_version,omitempty"`
}

// Equal reports structural equality on both fields.
func (v Version) Equal(other Version) bool {
	return v.Text == other.Text && v.Port == other.Port
}

// String renders the version as "text" or "text#port" for nonzero revisions.
func (v Version) String() string {
	if v.Port == 0 {
		return v.Text
	}
	return fmt.Sprintf("%s#%d", v.Text, v.Port)
}
