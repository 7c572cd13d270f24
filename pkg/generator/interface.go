package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/sdkforge/sdk-gen/pkg/config"
	"github.com/sdkforge/sdk-gen/pkg/emit"
	"github.com/sdkforge/sdk-gen/pkg/generator/csharp"
	"github.com/sdkforge/sdk-gen/pkg/generator/golang"
	"github.com/sdkforge/sdk-gen/pkg/generator/typescript"
	"github.com/sdkforge/sdk-gen/pkg/ir"
)

// Generator defines the interface for SDK generators
type Generator interface {
	// GetType returns the type identifier for this generator (e.g., "typescript")
	GetType() string
	// NamespaceStyle derives the namespaces code for this target is emitted into; the
	// IR handed to Generate was built with it
	NamespaceStyle
	// Generate renders the SDK of one client into memory. Paths are rooted at client.OutDir.
	Generate(client config.Client, in *ir.IR) (*emit.FileSet, error)
}

// Registry manages available generators
type Registry struct {
	generators map[string]Generator
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// Register adds a generator to the registry
func (r *Registry) Register(gen Generator) {
	r.generators[gen.GetType()] = gen
}

// Get retrieves a generator by type
func (r *Registry) Get(genType string) (Generator, bool) {
	gen, exists := r.generators[genType]
	return gen, exists
}

// GetAvailableTypes returns all registered generator types, sorted
func (r *Registry) GetAvailableTypes() []string {
	types := make([]string, 0, len(r.generators))
	for t := range r.generators {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// GenerateOptions contains options for one generation run
type GenerateOptions struct {
	// OnlyClient generates only the named client from config (optional)
	OnlyClient string
	// Check reports stale files instead of writing them
	Check  bool
	Logger *slog.Logger
}

// Service provides high-level SDK generation functionality
type Service struct {
	registry *Registry
}

// NewService creates a new generator service with default generators
func NewService() *Service {
	registry := NewRegistry()
	registry.Register(csharp.NewCSharpGenerator())
	registry.Register(typescript.NewTypeScriptGenerator())
	registry.Register(golang.NewGoGenerator())
	return &Service{
		registry: registry,
	}
}

// NewServiceWithRegistry creates a new generator service with a custom registry
func NewServiceWithRegistry(registry *Registry) *Service {
	return &Service{
		registry: registry,
	}
}

// GetRegistry returns the generator registry
func (s *Service) GetRegistry() *Registry {
	return s.registry
}

// BuildIR loads the configured documents and normalizes them with the namespace style
// of the genType backend
func (s *Service) BuildIR(ctx context.Context, cfg *config.Config, genType string, logger *slog.Logger) (*ir.IR, error) {
	if logger == nil {
		logger = slog.Default()
	}
	gen, ok := s.registry.Get(genType)
	if !ok {
		return nil, fmt.Errorf("unsupported client type: %s", genType)
	}
	docs, err := LoadDocuments(ctx, cfg.Documents, logger)
	if err != nil {
		return nil, err
	}
	return BuildIR(docs, s.buildOptions(cfg, gen, logger))
}

func (s *Service) buildOptions(cfg *config.Config, gen Generator, logger *slog.Logger) BuildOptions {
	return BuildOptions{
		Namespaces: NamespaceResolver{
			Root:     cfg.Namespace.Root,
			Isolated: cfg.Namespace.Isolated,
			Style:    gen,
		},
		SystemError: cfg.SystemError,
		Logger:      logger,
	}
}

// GenerateFromConfig generates every client of cfg. Documents are loaded once and
// normalized once per target type. Nothing is written unless every client rendered.
func (s *Service) GenerateFromConfig(ctx context.Context, cfg *config.Config, opts GenerateOptions) (emit.Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var clients []config.Client
	for _, client := range cfg.Clients {
		if opts.OnlyClient != "" && client.Name != opts.OnlyClient {
			continue
		}
		if _, exists := s.registry.Get(client.Type); !exists {
			return emit.Result{}, fmt.Errorf("unsupported client type: %s", client.Type)
		}
		clients = append(clients, client)
	}
	if len(clients) == 0 {
		if opts.OnlyClient != "" {
			return emit.Result{}, fmt.Errorf("no client named %q in config", opts.OnlyClient)
		}
		return emit.Result{}, fmt.Errorf("config has no clients")
	}

	docs, err := LoadDocuments(ctx, cfg.Documents, logger)
	if err != nil {
		return emit.Result{}, err
	}

	built := make(map[string]*ir.IR)
	files := emit.NewFileSet()
	for _, client := range clients {
		gen, _ := s.registry.Get(client.Type)

		full, ok := built[client.Type]
		if !ok {
			full, err = BuildIR(docs, s.buildOptions(cfg, gen, logger))
			if err != nil {
				return emit.Result{}, err
			}
			built[client.Type] = full
		}

		// Filter IR based on client configuration
		filtered, err := filterIR(full, client)
		if err != nil {
			return emit.Result{}, fmt.Errorf("client %s: %w", client.Name, err)
		}

		rendered, err := gen.Generate(client, filtered)
		if err != nil {
			return emit.Result{}, fmt.Errorf("client %s: %w", client.Name, err)
		}
		kept := emit.NewFileSet()
		for _, f := range rendered.Files() {
			if client.ShouldExcludeFile(f.Path) {
				logger.Debug("file excluded", "client", client.Name, "path", f.Path)
				continue
			}
			if err := kept.Add(f.Path, f.Data); err != nil {
				return emit.Result{}, err
			}
		}
		if err := files.Merge(kept); err != nil {
			return emit.Result{}, fmt.Errorf("client %s: %w", client.Name, err)
		}
		logger.Info("backend rendered", "type", client.Type, "client", client.Name, "files", kept.Len())
	}

	result, err := files.Commit(emit.WriteOptions{Check: opts.Check})
	if err != nil {
		return emit.Result{}, err
	}
	logger.Info("files committed", "written", len(result.Written), "unchanged", len(result.Unchanged), "check", opts.Check)

	if opts.Check {
		return result, nil
	}
	for _, client := range clients {
		if err := s.executePostGenCommands(ctx, client); err != nil {
			return result, fmt.Errorf("post-generation commands failed for client %s: %w", client.Name, err)
		}
	}
	return result, nil
}

// executePostGenCommands executes the post-generation command for a client
func (s *Service) executePostGenCommands(ctx context.Context, client config.Client) error {
	if len(client.PostCommand) == 0 {
		return nil // No command to execute
	}
	return s.executeCommand(ctx, client.PostCommand, client.OutDir, "post-command")
}

// executeCommand executes a single command in Docker Compose array format
func (s *Service) executeCommand(ctx context.Context, command []string, workDir, commandLabel string) error {
	if len(command) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = workDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s (%s) failed: %w", commandLabel, strings.Join(command, " "), err)
	}
	return nil
}
