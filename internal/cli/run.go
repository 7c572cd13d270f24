package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/sdkforge/sdk-gen/pkg/config"
	"github.com/sdkforge/sdk-gen/pkg/emit"
	"github.com/sdkforge/sdk-gen/pkg/generator"
	"github.com/sdkforge/sdk-gen/pkg/openapi"
)

// FallbackParams describe a single client when no config file is given
type FallbackParams struct {
	// Documents use the "id[:version]=path" form
	Documents     []string
	NamespaceRoot string
	Isolated      bool
	Type          string
	OutDir        string
	PackageName   string
	Name          string
	IncludeTags   []string
	ExcludeTags   []string
}

// RunGenerateParams are the inputs of the generate command
type RunGenerateParams struct {
	ConfigPath   string
	SingleClient string
	Check        bool
	Fallback     FallbackParams
}

// loadConfig returns the config file named by configPath, or a one-client config built
// from the fallback flags
func loadConfig(configPath string, p FallbackParams) (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	if len(p.Documents) == 0 || p.Type == "" || p.OutDir == "" || p.Name == "" {
		return nil, errors.New("either --config or all of --doc, --type, --out, --client-name must be provided")
	}
	cfg := &config.Config{
		Namespace: config.Namespace{Root: p.NamespaceRoot, Isolated: p.Isolated},
		Clients: []config.Client{{
			Type:        p.Type,
			OutDir:      p.OutDir,
			PackageName: p.PackageName,
			Name:        p.Name,
			IncludeTags: p.IncludeTags,
			ExcludeTags: p.ExcludeTags,
		}},
	}
	for _, value := range p.Documents {
		doc, err := config.ParseDocumentFlag(value)
		if err != nil {
			return nil, err
		}
		cfg.Documents = append(cfg.Documents, doc)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunGenerate generates every selected client and prints a summary to w
func RunGenerate(ctx context.Context, w io.Writer, logger *slog.Logger, p RunGenerateParams) error {
	cfg, err := loadConfig(p.ConfigPath, p.Fallback)
	if err != nil {
		return err
	}
	res, err := generator.NewService().GenerateFromConfig(ctx, cfg, generator.GenerateOptions{
		OnlyClient: p.SingleClient,
		Check:      p.Check,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	if p.Check {
		fmt.Fprintf(w, "%d files up to date\n", len(res.Unchanged))
		return nil
	}
	fmt.Fprintf(w, "%d files written, %d unchanged\n", len(res.Written), len(res.Unchanged))
	return nil
}

// RunValidate validates one document
func RunValidate(ctx context.Context, w io.Writer, input string) error {
	if err := openapi.ValidateDocument(ctx, input); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s is valid\n", input)
	return nil
}

// RunIRParams are the inputs of the ir command
type RunIRParams struct {
	ConfigPath string
	// Type selects the backend whose namespace style names the IR
	Type     string
	Format   string
	Fallback FallbackParams
}

// RunIR prints the normalized IR as YAML or JSON
func RunIR(ctx context.Context, w io.Writer, logger *slog.Logger, p RunIRParams) error {
	fallback := p.Fallback
	fallback.Type = p.Type
	if fallback.OutDir == "" {
		fallback.OutDir = "."
	}
	if fallback.Name == "" {
		fallback.Name = "ir"
	}
	cfg, err := loadConfig(p.ConfigPath, fallback)
	if err != nil {
		return err
	}
	in, err := generator.NewService().BuildIR(ctx, cfg, p.Type, logger)
	if err != nil {
		return err
	}

	view := in.View()
	switch strings.ToLower(p.Format) {
	case "", "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		return fmt.Errorf("unknown format %q, expected yaml or json", p.Format)
	}
}

// RunTargets lists the registered backends
func RunTargets(w io.Writer) {
	for _, t := range generator.NewService().GetRegistry().GetAvailableTypes() {
		fmt.Fprintln(w, t)
	}
}

// IsCheckFailure reports whether err means check mode found stale files
func IsCheckFailure(err error) bool {
	return errors.Is(err, emit.ErrCheckFailed)
}
