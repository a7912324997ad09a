// Package errors defines the sentinel errors shared across portman packages.
package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")

	// Spec and recipe errors.
	ErrInvalidSpec     = fmt.Errorf("invalid package spec")
	ErrInvalidTriplet  = fmt.Errorf("invalid triplet")
	ErrPortNotFound    = fmt.Errorf("port has no valid port.yaml in the ports tree")
	ErrInvalidRecipe   = fmt.Errorf("invalid port recipe")
	ErrInvalidPath     = fmt.Errorf("invalid path")
	ErrUnsupportedPort = fmt.Errorf("port does not support the target triplet")

	// Planning errors.
	ErrEmptyPlan      = fmt.Errorf("planner returned an empty action plan")
	ErrClassification = fmt.Errorf("one or more requested packages cannot be upgraded")

	// Command errors.
	ErrBothKeepGoingFlags = fmt.Errorf("--keep-going and --no-keep-going cannot be used together")
	ErrManifestMode       = fmt.Errorf("the upgrade command does not support manifest mode; modify the manifest and run install")
	ErrDryRun             = fmt.Errorf("rerun with --no-dry-run to perform the upgrade")

	// Execution errors.
	ErrBuildFailed  = fmt.Errorf("port build failed")
	ErrCacheMiss    = fmt.Errorf("package not present in binary cache")
	ErrCacheStore   = fmt.Errorf("failed to store package in binary cache")
	ErrCacheRestore = fmt.Errorf("failed to restore package from binary cache")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
