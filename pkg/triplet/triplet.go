// Package triplet handles compile-target descriptors such as "x64-linux" or
// "arm64-osx-static" and evaluates port supports expressions against them.
package triplet

import (
	"strings"

	"github.com/glorpus-work/portman/pkg/errors"
)

// Well-known attribute names beyond the raw triplet tokens.
const (
	AttrStatic  = "static"
	AttrDynamic = "dynamic"
	AttrNative  = "native"
)

// Validate checks that a triplet name is well formed: lowercase tokens of
// letters and digits joined by single dashes.
func Validate(name string) error {
	if name == "" {
		return errors.Wrap(errors.ErrInvalidTriplet, "triplet cannot be empty")
	}
	for _, token := range strings.Split(name, "-") {
		if token == "" {
			return errors.Wrapf(errors.ErrInvalidTriplet, "triplet %q has an empty component", name)
		}
		for _, r := range token {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
				return errors.Wrapf(errors.ErrInvalidTriplet, "triplet %q contains invalid character %q", name, r)
			}
		}
	}
	return nil
}

// Attributes derives the boolean attribute set a supports expression is
// evaluated against. Every dash-separated token of the triplet becomes a true
// attribute; linkage defaults to dynamic unless the triplet names static.
// When host equals the target triplet, the native attribute is set.
func Attributes(name, host string) map[string]bool {
	attrs := make(map[string]bool)
	for _, token := range strings.Split(name, "-") {
		if token != "" {
			attrs[token] = true
		}
	}
	if !attrs[AttrStatic] {
		attrs[AttrDynamic] = true
	}
	if name == host {
		attrs[AttrNative] = true
	}
	return attrs
}

// NormalizeArch maps common architecture spellings to the triplet vocabulary.
func NormalizeArch(arch string) string {
	switch strings.ToLower(arch) {
	case "x86_64", "amd64":
		return "x64"
	case "i386", "i686", "386":
		return "x86"
	case "aarch64":
		return "arm64"
	default:
		return strings.ToLower(arch)
	}
}

// NormalizeOS maps common OS spellings to the triplet vocabulary.
func NormalizeOS(os string) string {
	switch strings.ToLower(os) {
	case "darwin", "macos":
		return "osx"
	case "win", "windows":
		return "windows"
	default:
		return strings.ToLower(os)
	}
}
