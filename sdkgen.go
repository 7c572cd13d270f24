// Package sdkgen generates client SDKs from Swagger / OpenAPI documents.
//
// Documents are normalized into one intermediate representation (see package ir) which
// every target backend renders through its own type-resolution chain (see package
// typing). C#, TypeScript and Go backends are built in.
//
// Quick Start:
//
//	import sdkgen "github.com/sdkforge/sdk-gen"
//
//	// Generate a C# SDK for one document
//	_, err := sdkgen.Generate(ctx, sdkgen.GenerateSDKOptions{
//		Documents:   []config.Document{{ID: "lobby", Path: "./lobby.json"}},
//		Type:        "csharp",
//		OutDir:      "./out/csharp",
//		PackageName: "HiveMP.Lobby",
//		Name:        "LobbyClient",
//	})
//
// For more advanced usage, see the generator package.
package sdkgen

import (
	"context"

	"github.com/sdkforge/sdk-gen/pkg/config"
	"github.com/sdkforge/sdk-gen/pkg/emit"
	"github.com/sdkforge/sdk-gen/pkg/generator"
	"github.com/sdkforge/sdk-gen/pkg/ir"
)

// GenerateSDKOptions contains options for generating one SDK without a config file
type GenerateSDKOptions = generator.GenerateSDKOptions

// Generate generates one SDK. Nothing is written unless generation succeeded.
//
// Example:
//
//	res, err := sdkgen.Generate(ctx, sdkgen.GenerateSDKOptions{
//		Documents:   []config.Document{{ID: "lobby", Path: "./lobby.json"}},
//		Type:        "typescript",
//		OutDir:      "./my-sdk",
//		Name:        "lobby-client",
//		IncludeTags: []string{"^Lobby"},
//	})
func Generate(ctx context.Context, opts GenerateSDKOptions) (emit.Result, error) {
	return generator.GenerateSDK(ctx, opts)
}

// GenerateFromConfig generates SDKs from a YAML configuration file.
// Set opts.OnlyClient to generate a single client and opts.Check to only report
// files that are out of date.
//
// Example:
//
//	// Generate all clients from config
//	_, err := sdkgen.GenerateFromConfig(ctx, "./sdkgen.yaml", generator.GenerateOptions{})
//
//	// Generate only a specific client
//	_, err := sdkgen.GenerateFromConfig(ctx, "./sdkgen.yaml", generator.GenerateOptions{OnlyClient: "my-client"})
func GenerateFromConfig(ctx context.Context, configPath string, opts generator.GenerateOptions) (emit.Result, error) {
	return generator.GenerateFromConfigFile(ctx, configPath, opts)
}

// ValidateSpec validates a Swagger 2 or OpenAPI 3 document file or URL.
// This is useful for checking a document before attempting to generate an SDK.
//
// Example:
//
//	if err := sdkgen.ValidateSpec(ctx, "./lobby.json"); err != nil {
//		log.Fatalf("Invalid spec: %v", err)
//	}
func ValidateSpec(ctx context.Context, specPath string) error {
	return generator.ValidateSpec(ctx, specPath)
}

// BuildIR loads the documents of the config file and returns the IR the genType backend
// would render, before any client filtering
func BuildIR(ctx context.Context, configPath, genType string) (*ir.IR, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return generator.NewService().BuildIR(ctx, cfg, genType, nil)
}
