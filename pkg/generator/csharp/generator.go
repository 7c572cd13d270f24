package csharp

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

// CSharpGenerator implements the Generator interface for C#
type CSharpGenerator struct{}

// NewCSharpGenerator creates a new C# generator
func NewCSharpGenerator() *CSharpGenerator {
	return &CSharpGenerator{}
}

// GetType returns the generator type identifier
func (g *CSharpGenerator) GetType() string {
	return "csharp"
}

// Namespace is Root.SdkName[.VVersion].Api; version 1 is left out
func (g *CSharpGenerator) Namespace(root, apiID, version string, doc *document.Node) string {
	parts := []string{root, utils.ToPascalCase(document.SDKName(doc, apiID))}
	v := strings.TrimPrefix(strings.ToLower(version), "v")
	if v != "" && v != "1" {
		parts = append(parts, "V"+utils.ToPascalCase(v))
	}
	return strings.Join(append(parts, "Api"), ".")
}

// SharedNamespace is Root.Api
func (g *CSharpGenerator) SharedNamespace(root string) string {
	return root + ".Api"
}

// Generate renders one file per namespace of models, one client class per tag and the
// shared error types
func (g *CSharpGenerator) Generate(client config.Client, in *ir.IR) (*emit.FileSet, error) {
	c := typing.NewContext(Chain(), in)
	if err := typing.Check(c, in); err != nil {
		return nil, err
	}

	r := emit.NewRenderer(templatesFS, template.FuncMap{
		"xml":    func(s, prefix string) string { return utils.EscapeXMLComment(s, prefix) },
		"str":    utils.EscapeDoubleQuoted,
		"pascal": utils.ToPascalCase,
	})
	files := emit.NewFileSet()

	shared, err := buildShared(c.In(in.SharedNamespace), in)
	if err != nil {
		return nil, err
	}
	if err := r.Render(files, "shared.cs.gotmpl", filepath.Join(client.OutDir, in.SharedNamespace+".cs"), shared); err != nil {
		return nil, err
	}

	for _, api := range in.APIs {
		ac := c.In(api.Namespace)
		models, err := buildModels(ac, api)
		if err != nil {
			return nil, err
		}
		dir := filepath.Join(client.OutDir, api.Namespace)
		if err := r.Render(files, "models.cs.gotmpl", filepath.Join(dir, "Models.cs"), models); err != nil {
			return nil, err
		}
		for _, tag := range api.Tags {
			cv, err := buildClient(ac, in, api, tag)
			if err != nil {
				return nil, err
			}
			if err := r.Render(files, "client.cs.gotmpl", filepath.Join(dir, cv.Name+".cs"), cv); err != nil {
				return nil, err
			}
		}
	}

	project := map[string]any{"Client": client, "IR": in}
	if err := r.Render(files, "project.csproj.gotmpl", filepath.Join(client.OutDir, client.PackageName+".csproj"), project); err != nil {
		return nil, err
	}
	if err := r.Render(files, "README.md.gotmpl", filepath.Join(client.OutDir, "README.md"), project); err != nil {
		return nil, err
	}
	return files, nil
}

type sharedFile struct {
	Namespace   string
	SystemError string
	ErrorType   string
}

func buildShared(c *typing.Context, in *ir.IR) (sharedFile, error) {
	v := sharedFile{Namespace: in.SharedNamespace, ErrorType: "string"}
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

type modelsFile struct {
	Namespace  string
	API        *ir.ApiSpec
	Structures []string
}

func buildModels(c *typing.Context, api *ir.ApiSpec) (modelsFile, error) {
	v := modelsFile{Namespace: api.Namespace, API: api}
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

type clientFile struct {
	Namespace       string
	SharedNamespace string
	Name            string
	Tag             string
	BasePath        string
	// ErrorType is the fully qualified system error, or "" when the run has none
	ErrorType  string
	Operations []operationView
}

type operationView struct {
	Op          *ir.OperationNode
	Method      string
	Request     string
	Fields      []fieldView
	Path        string
	Query       []encoded
	Headers     []encoded
	Body        string
	ContentType string
	// Returns is the awaited result type, "" for none
	Returns     string
	Deserialize string
	Socket      *socket
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
	Nullable bool
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
	// Decode converts the JToken "value_" into Type
	Decode string
}

func buildClient(c *typing.Context, in *ir.IR, api *ir.ApiSpec, tag string) (clientFile, error) {
	v := clientFile{
		Namespace:       api.Namespace,
		SharedNamespace: in.SharedNamespace,
		Name:            utils.ToPascalCase(tag) + "Client",
		Tag:             tag,
		BasePath:        api.BasePath,
	}
	if in.SystemError != nil {
		v.ErrorType = in.SystemError.ID.String()
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
	if name := utils.ToPascalCase(op.OperationID); name != "" {
		return name
	}
	return utils.ToPascalCase(op.HTTPMethod + " " + op.HTTPPath)
}

func buildOperation(c *typing.Context, op *ir.OperationNode) (operationView, error) {
	method := methodName(op)
	v := operationView{Op: op, Method: method, Request: method + "Request"}

	fieldNames := make(map[string]string)
	for _, p := range op.Parameters {
		t, err := c.TypeName(p.Type)
		if err != nil {
			return v, err
		}
		name := memberName(v.Request, p.Name)
		fieldNames[p.Name] = name
		v.Fields = append(v.Fields, fieldView{Name: name, Type: t, Description: p.Description})
	}

	var path strings.Builder
	path.WriteString(`"`)
	for _, seg := range utils.SplitPathTemplate(op.HTTPPath) {
		if seg.Param == "" {
			path.WriteString(utils.EscapeDoubleQuoted(seg.Literal))
			continue
		}
		p, ok := findParameter(op, ir.InPath, seg.Param)
		if !ok {
			return v, &ir.Error{Kind: ir.ErrUnresolvedReference, Detail: fmt.Sprintf("path parameter %q is not declared", seg.Param)}
		}
		value, err := urlValue(c, "arguments."+fieldNames[p.Name], p)
		if err != nil {
			return v, err
		}
		path.WriteString(`" + System.Uri.EscapeDataString(` + value + `) + "`)
	}
	path.WriteString(`"`)
	v.Path = strings.TrimPrefix(strings.TrimSuffix(path.String(), ` + ""`), `"" + `)

	for _, loc := range []ir.ParameterLocation{ir.InQuery, ir.InHeader} {
		for _, p := range op.ParametersIn(loc) {
			field := "arguments." + fieldNames[p.Name]
			value, err := urlValue(c, field, p)
			if err != nil {
				return v, err
			}
			e := encoded{Wire: p.Name, Field: field, Value: value, Nullable: isNullable(p)}
			if loc == ir.InQuery {
				v.Query = append(v.Query, e)
			} else {
				v.Headers = append(v.Headers, e)
			}
		}
	}

	if body, ok := op.Body(); ok {
		field := "arguments." + fieldNames[body.Name]
		if body.IsRawBody() || op.IsFileUpload {
			v.Body = "new System.Net.Http.ByteArrayContent(" + field + ")"
			v.ContentType = "application/octet-stream"
		} else {
			payload, err := c.Serialize(field, body.Type)
			if err != nil {
				return v, err
			}
			v.Body = "new System.Net.Http.StringContent(" + payload + ", System.Text.Encoding.UTF8)"
			v.ContentType = "application/json"
		}
	}

	switch {
	case op.BinaryResponseHandling == ir.BinaryResponseRedirect:
		v.Returns = "string"
	case op.BinaryResponseHandling == ir.BinaryResponseDirect:
		v.Returns = "System.IO.Stream"
	case op.Response != nil:
		t, err := c.TypeName(op.Response)
		if err != nil {
			return v, err
		}
		v.Returns = t
		if v.Deserialize, err = c.Deserialize("responseData_", op.Response); err != nil {
			return v, err
		}
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
			out = append(out, message{
				ID:     m.ID,
				Name:   utils.NormalizeProtocolName(m.ID),
				Type:   t,
				Decode: "value_ == null ? default(" + t + ") : value_.ToObject<" + t + ">()",
			})
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

func isNullable(p ir.ParameterSpec) bool {
	prim, ok := p.Type.(ir.Primitive)
	return !ok || !prim.Required || prim.Type == ir.String
}

func findParameter(op *ir.OperationNode, loc ir.ParameterLocation, name string) (ir.ParameterSpec, bool) {
	for _, p := range op.ParametersIn(loc) {
		if p.Name == name {
			return p, true
		}
	}
	return ir.ParameterSpec{}, false
}
