package typescript

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/sdkforge/sdk-gen/pkg/config"
	"github.com/sdkforge/sdk-gen/pkg/document"
	"github.com/sdkforge/sdk-gen/pkg/emit"
	"github.com/sdkforge/sdk-gen/pkg/ir"
	"github.com/sdkforge/sdk-gen/pkg/typing"
	"github.com/sdkforge/sdk-gen/pkg/utils"
)

//go:embed templates/*
var templatesFS embed.FS

// TypeScriptGenerator implements the Generator interface for TypeScript
type TypeScriptGenerator struct{}

// NewTypeScriptGenerator creates a new TypeScript generator
func NewTypeScriptGenerator() *TypeScriptGenerator {
	return &TypeScriptGenerator{}
}

// GetType returns the generator type identifier
func (g *TypeScriptGenerator) GetType() string {
	return "typescript"
}

// Namespace is Root.SdkName, with a VVersion segment for versions other than 1
func (g *TypeScriptGenerator) Namespace(root, apiID, version string, doc *document.Node) string {
	ns := root + "." + utils.ToPascalCase(document.SDKName(doc, apiID))
	if v := strings.TrimPrefix(strings.ToLower(version), "v"); v != "" && v != "1" {
		ns += "V" + utils.ToPascalCase(v)
	}
	return ns
}

// SharedNamespace is the root itself
func (g *TypeScriptGenerator) SharedNamespace(root string) string {
	return root
}

// Generate renders src/shared.ts, one directory per API with its schema and one client
// per tag, the package index and package.json
func (g *TypeScriptGenerator) Generate(client config.Client, in *ir.IR) (*emit.FileSet, error) {
	c := typing.NewContext(Chain(), in)
	if err := typing.Check(c, in); err != nil {
		return nil, err
	}

	r := emit.NewRenderer(templatesFS, template.FuncMap{
		"pascal":  utils.ToPascalCase,
		"camel":   utils.ToCamelCase,
		"kebab":   utils.ToKebabCase,
		"str":     utils.EscapeDoubleQuoted,
		"comment": func(s, prefix string) string { return utils.EscapeBlockComment(s, prefix) },
	})
	files := emit.NewFileSet()
	srcDir := filepath.Join(client.OutDir, "src")

	shared, err := buildShared(c.In(in.SharedNamespace), in)
	if err != nil {
		return nil, err
	}
	if err := r.Render(files, "shared.ts.gotmpl", filepath.Join(srcDir, "shared.ts"), shared); err != nil {
		return nil, err
	}

	var modules []moduleRef
	for _, api := range in.APIs {
		ac := c.In(api.Namespace)
		module := moduleRef{Alias: alias(api.Namespace), Dir: utils.ToKebabCase(alias(api.Namespace))}
		dir := filepath.Join(srcDir, module.Dir)

		schema, err := buildSchema(ac, api)
		if err != nil {
			return nil, err
		}
		if err := r.Render(files, "schema.ts.gotmpl", filepath.Join(dir, "schema.ts"), schema); err != nil {
			return nil, err
		}

		for _, tag := range api.Tags {
			cf, err := buildClient(ac, api, schema.Names, tag)
			if err != nil {
				return nil, err
			}
			if err := r.Render(files, "client.ts.gotmpl", filepath.Join(dir, cf.File+".ts"), cf); err != nil {
				return nil, err
			}
			module.Clients = append(module.Clients, cf.File)
		}
		if err := r.Render(files, "module.ts.gotmpl", filepath.Join(dir, "index.ts"), module); err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}

	index := map[string]any{"Client": client, "IR": in, "Modules": modules}
	if err := r.Render(files, "index.ts.gotmpl", filepath.Join(srcDir, "index.ts"), index); err != nil {
		return nil, err
	}
	if err := r.Render(files, "package.json.gotmpl", filepath.Join(client.OutDir, "package.json"), index); err != nil {
		return nil, err
	}
	if err := r.Render(files, "README.md.gotmpl", filepath.Join(client.OutDir, "README.md"), index); err != nil {
		return nil, err
	}
	return files, nil
}

// alias is the exported module name of a namespace: its last segment
func alias(namespace string) string {
	if i := strings.LastIndex(namespace, "."); i != -1 {
		return namespace[i+1:]
	}
	return namespace
}

type moduleRef struct {
	Alias   string
	Dir     string
	Clients []string
}

type sharedFile struct {
	SystemError string
	ErrorType   string
}

func buildShared(c *typing.Context, in *ir.IR) (sharedFile, error) {
	v := sharedFile{ErrorType: "unknown"}
	if in.SystemError == nil {
		return v, nil
	}
	code, _, err := c.EmitStructure(in.SystemError)
	if err != nil {
		return v, err
	}
	v.SystemError = code
	v.ErrorType = in.SystemError.Name()
	return v, nil
}

type schemaFile struct {
	API        *ir.ApiSpec
	Structures []string
	// Names lists the declared interfaces, imported by the client files
	Names []string
}

func buildSchema(c *typing.Context, api *ir.ApiSpec) (schemaFile, error) {
	v := schemaFile{API: api}
	for def := range api.Definitions.Values() {
		code, ok, err := c.EmitStructure(def)
		if err != nil {
			return v, ir.Locate(err, api.APIID, "")
		}
		if ok {
			v.Structures = append(v.Structures, code)
			v.Names = append(v.Names, def.Name())
		}
	}
	return v, nil
}

type clientFile struct {
	Name       string
	File       string
	Tag        string
	BasePath   string
	Imports    []string
	Operations []operationView
}

type operationView struct {
	Op      *ir.OperationNode
	Method  string
	Request string
	Fields  []fieldView
	// Path is a template literal body with ${...} substitutions
	Path    string
	Query   []encoded
	Headers []encoded
	Body    string
	// ContentType is set when Body is present
	ContentType string
	Returns     string
	Socket      *socket
}

type fieldView struct {
	Name        string
	Type        string
	Optional    bool
	Description string
}

type encoded struct {
	Wire  string
	Field string
	Value string
}

type socket struct {
	Name     string
	Requests []message
	Events   []message
}

type message struct {
	ID   string
	Name string
	Type string
}

func buildClient(c *typing.Context, api *ir.ApiSpec, imports []string, tag string) (clientFile, error) {
	v := clientFile{
		Name:     utils.ToPascalCase(tag) + "Client",
		File:     utils.ToKebabCase(tag) + "-client",
		Tag:      tag,
		BasePath: api.BasePath,
		Imports:  imports,
	}
	for _, op := range api.OperationsByTag(tag) {
		ov, err := buildOperation(c, op)
		if err != nil {
			return v, ir.Locate(err, api.APIID, op.ImplementationName)
		}
		v.Operations = append(v.Operations, ov)
	}
	return v, nil
}

func methodName(op *ir.OperationNode) string {
	if name := utils.ToCamelCase(op.OperationID); name != "" {
		return name
	}
	return utils.ToCamelCase(op.HTTPMethod + " " + op.HTTPPath)
}

func buildOperation(c *typing.Context, op *ir.OperationNode) (operationView, error) {
	method := methodName(op)
	v := operationView{Op: op, Method: method, Request: utils.ToPascalCase(method) + "Request"}

	for _, p := range op.Parameters {
		t, err := c.TypeName(p.Type)
		if err != nil {
			return v, err
		}
		v.Fields = append(v.Fields, fieldView{
			Name:        propertyKey(p.Name),
			Type:        t,
			Optional:    !p.Required,
			Description: p.Description,
		})
	}

	var path strings.Builder
	for _, seg := range utils.SplitPathTemplate(op.HTTPPath) {
		if seg.Param == "" {
			path.WriteString(strings.NewReplacer("`", "\\`", "${", "\\${").Replace(seg.Literal))
			continue
		}
		p, ok := findParameter(op, ir.InPath, seg.Param)
		if !ok {
			return v, &ir.Error{Kind: ir.ErrUnresolvedReference, Detail: fmt.Sprintf("path parameter %q is not declared", seg.Param)}
		}
		value, err := urlValue(c, accessor(p.Name), p)
		if err != nil {
			return v, err
		}
		path.WriteString("${encodeURIComponent(" + value + ")}")
	}
	v.Path = path.String()

	for _, loc := range []ir.ParameterLocation{ir.InQuery, ir.InHeader} {
		for _, p := range op.ParametersIn(loc) {
			value, err := urlValue(c, accessor(p.Name), p)
			if err != nil {
				return v, err
			}
			e := encoded{Wire: p.Name, Field: accessor(p.Name), Value: value}
			if loc == ir.InQuery {
				v.Query = append(v.Query, e)
			} else {
				v.Headers = append(v.Headers, e)
			}
		}
	}

	if body, ok := op.Body(); ok {
		if body.IsRawBody() || op.IsFileUpload {
			v.Body = accessor(body.Name)
			v.ContentType = "application/octet-stream"
		} else {
			payload, err := c.Serialize(accessor(body.Name), body.Type)
			if err != nil {
				return v, err
			}
			v.Body = "JSON.stringify(" + payload + ")"
			v.ContentType = "application/json"
		}
	}

	switch {
	case op.BinaryResponseHandling == ir.BinaryResponseRedirect:
		v.Returns = "string"
	case op.BinaryResponseHandling == ir.BinaryResponseDirect:
		v.Returns = "Blob"
	case op.Response != nil:
		t, err := c.TypeName(op.Response)
		if err != nil {
			return v, err
		}
		v.Returns = t
	default:
		v.Returns = "void"
	}

	if op.IsWebSocket {
		s := &socket{Name: utils.ToPascalCase(method) + "Socket"}
		for _, m := range op.RequestMessages {
			t, err := c.TypeName(m.Type)
			if err != nil {
				return v, err
			}
			s.Requests = append(s.Requests, message{ID: m.ID, Name: utils.NormalizeProtocolName(m.ID), Type: t})
		}
		for _, m := range op.ResponseMessages {
			t, err := c.TypeName(m.Type)
			if err != nil {
				return v, err
			}
			s.Events = append(s.Events, message{ID: m.ID, Name: utils.NormalizeProtocolName(m.ID), Type: t})
		}
		v.Socket = s
	}
	return v, nil
}

// accessor reads a request field off the "args" parameter
func accessor(name string) string {
	if plainKey.MatchString(name) {
		return "args." + name
	}
	return "args[\"" + utils.EscapeDoubleQuoted(name) + "\"]"
}

func urlValue(c *typing.Context, expr string, p ir.ParameterSpec) (string, error) {
	code, ok, err := c.EncodeQuery(expr, p.Type)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &ir.Error{
			Kind:   ir.ErrUnrepresentableType,
			Detail: fmt.Sprintf("%s parameter %q of type %s cannot be encoded in a URL", p.Location, p.Name, ir.TypeString(p.Type)),
		}
	}
	return code, nil
}

func findParameter(op *ir.OperationNode, loc ir.ParameterLocation, name string) (ir.ParameterSpec, bool) {
	for _, p := range op.ParametersIn(loc) {
		if p.Name == name {
			return p, true
		}
	}
	return ir.ParameterSpec{}, false
}
