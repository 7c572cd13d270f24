package generator

import (
	"context"
	"log/slog"

	"github.com/sdkforge/sdk-gen/pkg/config"
	"github.com/sdkforge/sdk-gen/pkg/emit"
	"github.com/sdkforge/sdk-gen/pkg/openapi"
)

// GenerateSDKOptions contains options for the convenience GenerateSDK function
type GenerateSDKOptions struct {
	// Documents are the API documents to generate from, at least one
	Documents []config.Document
	// NamespaceRoot is the well-known namespace prefix (default "Sdk")
	NamespaceRoot string
	Isolated      bool

	Type        string   // Generator type (e.g., "csharp")
	OutDir      string   // Output directory
	PackageName string   // Package name for the generated SDK
	Name        string   // Client name
	IncludeTags []string // Regex patterns for tags to include
	ExcludeTags []string // Regex patterns for tags to exclude
	// IncludeClusterOnly keeps operations only internal credentials may call
	IncludeClusterOnly bool

	// Check reports stale files instead of writing them
	Check  bool
	Logger *slog.Logger
}

// config turns the options into a one-client run configuration
func (opts GenerateSDKOptions) config() (*config.Config, error) {
	cfg := &config.Config{
		Documents: opts.Documents,
		Namespace: config.Namespace{Root: opts.NamespaceRoot, Isolated: opts.Isolated},
		Clients: []config.Client{{
			Type:               opts.Type,
			OutDir:             opts.OutDir,
			PackageName:        opts.PackageName,
			Name:               opts.Name,
			IncludeTags:        opts.IncludeTags,
			ExcludeTags:        opts.ExcludeTags,
			IncludeClusterOnly: opts.IncludeClusterOnly,
		}},
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GenerateSDK is a convenience function for generating one SDK without a config file
func GenerateSDK(ctx context.Context, opts GenerateSDKOptions) (emit.Result, error) {
	cfg, err := opts.config()
	if err != nil {
		return emit.Result{}, err
	}
	return NewService().GenerateFromConfig(ctx, cfg, GenerateOptions{Check: opts.Check, Logger: opts.Logger})
}

// GenerateFromConfigFile is a convenience function for generating from a config file
func GenerateFromConfigFile(ctx context.Context, configPath string, opts GenerateOptions) (emit.Result, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return emit.Result{}, err
	}
	return NewService().GenerateFromConfig(ctx, cfg, opts)
}

// ValidateSpec validates an API description document
func ValidateSpec(ctx context.Context, specPath string) error {
	return openapi.ValidateDocument(ctx, specPath)
}
