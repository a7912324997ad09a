// Package binarycache stores and restores prebuilt package trees keyed by a
// content address derived from everything that affects a build's ABI.
package binarycache

import (
	"context"
	"encoding/hex"
	"sort"
	"strings"

	"lukechampine.com/blake3"

	"github.com/glorpus-work/portman/pkg/model"
)

// Cache is the binary cache consumed by the installer. Implementations own
// their own network and filesystem handles.
type Cache interface {
	// Contains reports whether a package with this key is cached.
	Contains(ctx context.Context, key string) bool
	// Fetch restores the cached package tree for key into destDir.
	Fetch(ctx context.Context, key, destDir string) error
	// Store uploads the package tree rooted at srcDir under key.
	Store(ctx context.Context, key, srcDir string) error
}

// AbiKey derives the content address for one install action: a blake3 hash
// over the port identity, the resolved feature set, and the triplet variables
// the port is configured with. Any difference in these inputs produces a
// different key.
func AbiKey(action model.InstallAction, tripletVars map[string]string) string {
	var b strings.Builder
	b.WriteString(action.Spec.Name)
	b.WriteByte('\n')
	b.WriteString(action.Recipe.Version.String())
	b.WriteByte('\n')
	b.WriteString(action.Spec.Triplet)
	b.WriteByte('\n')

	features := append([]string(nil), action.Features...)
	sort.Strings(features)
	b.WriteString(strings.Join(features, ","))
	b.WriteByte('\n')

	keys := make([]string, 0, len(tripletVars))
	for k := range tripletVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tripletVars[k])
		b.WriteByte('\n')
	}

	sum := blake3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// NopCache never hits and silently drops stores. Used when no cache is
// configured and in tests.
type NopCache struct{}

// Contains always reports false.
func (NopCache) Contains(_ context.Context, _ string) bool { return false }

// Fetch always misses.
func (NopCache) Fetch(_ context.Context, _, _ string) error {
	return errMiss("nop cache")
}

// Store drops the package.
func (NopCache) Store(_ context.Context, _, _ string) error { return nil }
