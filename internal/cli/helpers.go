package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/gookit/color"

	"github.com/glorpus-work/portman/internal/logger"
	"github.com/glorpus-work/portman/pkg/binarycache"
	"github.com/glorpus-work/portman/pkg/config"
	"github.com/glorpus-work/portman/pkg/errors"
	"github.com/glorpus-work/portman/pkg/installer"
	"github.com/glorpus-work/portman/pkg/model"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	NoColor    *bool
)

// loadConfig loads the configuration and initializes logging and color output
// from it plus the global CLI flags.
func loadConfig() (*config.Config, error) {
	configPath := ""
	if ConfigPath != nil {
		configPath = *ConfigPath
	}
	if configPath == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get default config path")
		}
		configPath = defaultPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	logLevel := cfg.Settings.LogLevel
	if Verbose != nil && *Verbose {
		logLevel = "debug"
	}
	logger.InitLogger(logLevel)

	if NoColor != nil && *NoColor {
		color.Disable()
	}
	return cfg, nil
}

// parseSpecs validates the positional package specs against the configured
// default triplet.
func parseSpecs(args []string, defaultTriplet string) ([]model.PackageSpec, error) {
	specs := make([]model.PackageSpec, 0, len(args))
	for _, arg := range args {
		spec, err := model.ParsePackageSpec(arg, defaultTriplet)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// openBinaryCache constructs the configured binary cache backend. S3 settings
// win over the local directory; with neither, caching is disabled.
func openBinaryCache(ctx context.Context, cfg *config.Config) (installer.BinaryCache, error) {
	cacheCfg := cfg.Settings.Cache
	if cacheCfg.S3 != nil {
		return binarycache.NewS3Cache(ctx, binarycache.S3Options{
			Endpoint:  cacheCfg.S3.Endpoint,
			Region:    cacheCfg.S3.Region,
			Bucket:    cacheCfg.S3.Bucket,
			Prefix:    cacheCfg.S3.Prefix,
			AccessKey: cacheCfg.S3.AccessKey,
			SecretKey: cacheCfg.S3.SecretKey,
		})
	}
	if cacheCfg.Dir != "" {
		return binarycache.NewFilesystemCache(cacheCfg.Dir)
	}
	return binarycache.NopCache{}, nil
}

// sortSpecs orders a bucket by the package spec total order so output is
// stable across runs.
func sortSpecs(specs []model.PackageSpec) {
	sort.Slice(specs, func(i, j int) bool { return specs[i].Compare(specs[j]) < 0 })
}

// printSpecList prints a heading followed by one indented spec per line.
func printSpecList(style color.Style, heading string, specs []model.PackageSpec) {
	style.Println(heading)
	for _, spec := range specs {
		fmt.Println("    " + spec.String())
	}
	fmt.Println()
}

// executionHooks prints installer progress events.
func executionHooks() installer.Hooks {
	return installer.Hooks{OnEvent: func(e installer.Event) {
		switch e.Phase {
		case "error":
			logger.Error(e.Msg, logger.Fields{"package": e.ID})
		case "done":
		default:
			logger.Info(e.Phase, logger.Fields{"package": e.ID, "detail": e.Msg})
		}
	}}
}
