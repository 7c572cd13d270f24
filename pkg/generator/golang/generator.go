package golang

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

const (
	websocketModule  = "github.com/gorilla/websocket"
	websocketVersion = "v1.5.3"
)

// GoGenerator implements the Generator interface for Go
type GoGenerator struct{}

// NewGoGenerator creates a new Go generator
func NewGoGenerator() *GoGenerator {
	return &GoGenerator{}
}

// GetType returns the generator type identifier
func (g *GoGenerator) GetType() string {
	return "go"
}

// Namespace is Root.SdkName, with a VVersion suffix for versions other than 1
func (g *GoGenerator) Namespace(root, apiID, version string, doc *document.Node) string {
	ns := root + "." + utils.ToPascalCase(document.SDKName(doc, apiID))
	if v := strings.TrimPrefix(strings.ToLower(version), "v"); v != "" && v != "1" {
		ns += "V" + utils.ToPascalCase(v)
	}
	return ns
}

// SharedNamespace is the root, emitted as the module's top-level package
func (g *GoGenerator) SharedNamespace(root string) string {
	return root
}

// Generate creates a Go module: the shared transport at the module root and one package
// per API holding its models and one client per tag
func (g *GoGenerator) Generate(client config.Client, in *ir.IR) (*emit.FileSet, error) {
	c := typing.NewContext(Chain(), in)
	if err := typing.Check(c, in); err != nil {
		return nil, err
	}

	sharedPkg := packageName(in.SharedNamespace)
	known := map[string]string{sharedPkg: client.PackageName, "websocket": websocketModule}
	for _, api := range in.APIs {
		known[packageName(api.Namespace)] = client.PackageName + "/" + packageName(api.Namespace)
	}

	r := emit.NewRenderer(templatesFS, template.FuncMap{
		"comment": func(s string) string { return utils.FormatLineComment(s, "") },
		"indent":  func(s, prefix string) string { return utils.FormatLineComment(s, prefix) },
		"str":     func(s string) string { return fmt.Sprintf("%q", s) },
		"pascal":  utils.ToPascalCase,
	})
	r.Format = func(path string, data []byte) ([]byte, error) {
		if filepath.Ext(path) != ".go" {
			return data, nil
		}
		return formatSource(path, data, known)
	}
	files := emit.NewFileSet()

	hasSockets := false
	for _, api := range in.APIs {
		for _, op := range api.Operations {
			hasSockets = hasSockets || op.IsWebSocket
		}
	}

	shared, err := buildShared(c.In(in.SharedNamespace), in, sharedPkg)
	if err != nil {
		return nil, err
	}
	if err := r.Render(files, "client.go.gotmpl", filepath.Join(client.OutDir, "client.go"), shared); err != nil {
		return nil, err
	}
	if hasSockets {
		if err := r.Render(files, "socket.go.gotmpl", filepath.Join(client.OutDir, "socket.go"), shared); err != nil {
			return nil, err
		}
	}

	var packages []packageRef
	for _, api := range in.APIs {
		ac := c.In(api.Namespace)
		pkg := packageRef{Name: packageName(api.Namespace), API: api}
		dir := filepath.Join(client.OutDir, pkg.Name)

		models, err := buildModels(ac, api, pkg.Name)
		if err != nil {
			return nil, err
		}
		if err := r.Render(files, "models.go.gotmpl", filepath.Join(dir, "models.go"), models); err != nil {
			return nil, err
		}
		for _, tag := range api.Tags {
			sv, err := buildService(ac, api, pkg.Name, sharedPkg, tag)
			if err != nil {
				return nil, err
			}
			fileName := utils.ToSnakeCase(tag) + ".go"
			if err := r.Render(files, "service.go.gotmpl", filepath.Join(dir, fileName), sv); err != nil {
				return nil, err
			}
			pkg.Services = append(pkg.Services, sv.Name)
		}
		packages = append(packages, pkg)
	}

	module := map[string]any{
		"Client":     client,
		"IR":         in,
		"Shared":     sharedPkg,
		"Packages":   packages,
		"HasSockets": hasSockets,
		"Websocket":  websocketModule + " " + websocketVersion,
	}
	if err := r.Render(files, "go.mod.gotmpl", filepath.Join(client.OutDir, "go.mod"), module); err != nil {
		return nil, err
	}
	if err := r.Render(files, "README.md.gotmpl", filepath.Join(client.OutDir, "README.md"), module); err != nil {
		return nil, err
	}
	return files, nil
}

type packageRef struct {
	Name     string
	API      *ir.ApiSpec
	Services []string
}

type sharedFile struct {
	Package     string
	SystemError string
	// ErrorType is the decoded error body type, "" when the run has no system error
	ErrorType string
}

func buildShared(c *typing.Context, in *ir.IR, pkg string) (sharedFile, error) {
	v := sharedFile{Package: pkg}
	if in.SystemError == nil {
		return v, nil
	}
	code, _, err := c.EmitStructure(in.SystemError)
	if err != nil {
		return v, err
	}
	v.SystemError = code
	v.ErrorType = exportedName(in.SystemError.Name())
	return v, nil
}

type modelsFile struct {
	Package    string
	API        *ir.ApiSpec
	Structures []string
}

func buildModels(c *typing.Context, api *ir.ApiSpec, pkg string) (modelsFile, error) {
	v := modelsFile{Package: pkg, API: api}
	for def := range api.Definitions.Values() {
		code, ok, err := c.EmitStructure(def)
		if err != nil {
			return v, ir.Locate(err, api.APIID, "")
		}
		if ok {
			v.Structures = append(v.Structures, code)
		}
	}
	return v, nil
}

type serviceFile struct {
	Package    string
	Shared     string
	Name       string
	Tag        string
	BasePath   string
	Operations []operationView
}

type operationView struct {
	Op      *ir.OperationNode
	Method  string
	Request string
	Fields  []fieldView
	// Path is a Go expression evaluating to the request path
	Path    string
	Query   []encoded
	Headers []encoded
	// Body is the request field sent as the body, "" for none
	Body        string
	RawBody     bool
	ContentType string
	// Returns is the result type besides error, "" for none
	Returns string
	Socket  *socket
}

type fieldView struct {
	Name        string
	Type        string
	Description string
}

type encoded struct {
	Wire     string
	Field    string
	Value    string
	Optional bool
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

func buildService(c *typing.Context, api *ir.ApiSpec, pkg, shared, tag string) (serviceFile, error) {
	v := serviceFile{
		Package:  pkg,
		Shared:   shared,
		Name:     exportedName(tag) + "Client",
		Tag:      tag,
		BasePath: api.BasePath,
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
	if op.OperationID != "" {
		return exportedName(op.OperationID)
	}
	return exportedName(op.HTTPMethod + " " + op.HTTPPath)
}

func buildOperation(c *typing.Context, op *ir.OperationNode) (operationView, error) {
	method := methodName(op)
	v := operationView{Op: op, Method: method, Request: method + "Request"}

	// fields are keyed by location and name; a path and a query parameter may share a name
	wire := make([]string, len(op.Parameters))
	for i, p := range op.Parameters {
		wire[i] = p.Name
	}
	names := uniqueNames(wire)
	fieldNames := make(map[string]string)
	field := func(p ir.ParameterSpec) string { return fieldNames[string(p.Location)+":"+p.Name] }
	for i, p := range op.Parameters {
		t, err := c.TypeName(p.Type)
		if err != nil {
			return v, err
		}
		fieldNames[string(p.Location)+":"+p.Name] = names[i]
		v.Fields = append(v.Fields, fieldView{Name: names[i], Type: t, Description: p.Description})
	}

	var parts []string
	for _, seg := range utils.SplitPathTemplate(op.HTTPPath) {
		if seg.Param == "" {
			parts = append(parts, fmt.Sprintf("%q", seg.Literal))
			continue
		}
		p, ok := findParameter(op, ir.InPath, seg.Param)
		if !ok {
			return v, &ir.Error{Kind: ir.ErrUnresolvedReference, Detail: fmt.Sprintf("path parameter %q is not declared", seg.Param)}
		}
		value, err := urlValue(c, "args."+field(p), p)
		if err != nil {
			return v, err
		}
		parts = append(parts, "url.PathEscape("+value+")")
	}
	if len(parts) == 0 {
		parts = []string{`""`}
	}
	v.Path = strings.Join(parts, " + ")

	for _, loc := range []ir.ParameterLocation{ir.InQuery, ir.InHeader} {
		for _, p := range op.ParametersIn(loc) {
			expr := "args." + field(p)
			value, err := urlValue(c, expr, p)
			if err != nil {
				return v, err
			}
			e := encoded{Wire: p.Name, Field: expr, Value: value, Optional: !isRequired(p.Type)}
			if loc == ir.InQuery {
				v.Query = append(v.Query, e)
			} else {
				v.Headers = append(v.Headers, e)
			}
		}
	}

	if body, ok := op.Body(); ok {
		v.Body = "args." + field(body)
		if body.IsRawBody() || op.IsFileUpload {
			v.RawBody = true
			v.ContentType = "application/octet-stream"
		} else {
			v.ContentType = "application/json"
		}
	}

	switch {
	case op.BinaryResponseHandling == ir.BinaryResponseRedirect:
		v.Returns = "string"
	case op.BinaryResponseHandling == ir.BinaryResponseDirect:
		v.Returns = "[]byte"
	case op.Response != nil:
		t, err := c.TypeName(op.Response)
		if err != nil {
			return v, err
		}
		v.Returns = t
	}

	if op.IsWebSocket {
		s, err := buildSocket(c, method, op)
		if err != nil {
			return v, err
		}
		v.Socket = s
	}
	return v, nil
}

func buildSocket(c *typing.Context, method string, op *ir.OperationNode) (*socket, error) {
	s := &socket{Name: method + "Socket"}
	build := func(msgs []ir.ProtocolMessage) ([]message, error) {
		var out []message
		for _, m := range msgs {
			t, err := c.TypeName(m.Type)
			if err != nil {
				return nil, err
			}
			out = append(out, message{ID: m.ID, Name: utils.NormalizeProtocolName(m.ID), Type: t})
		}
		return out, nil
	}
	var err error
	if s.Requests, err = build(op.RequestMessages); err != nil {
		return nil, err
	}
	if s.Events, err = build(op.ResponseMessages); err != nil {
		return nil, err
	}
	return s, nil
}

// urlValue is the string expression for a parameter that travels in the URL or a header
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
