package golang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sdkforge/sdk-gen/pkg/ir"
	"github.com/sdkforge/sdk-gen/pkg/typing"
	"github.com/sdkforge/sdk-gen/pkg/utils"
)

// Chain is the Go matcher chain. Maps come before the general object matcher, which
// carries any unstructured object as raw JSON.
func Chain() *typing.Chain {
	return typing.NewChain(
		scalarType{prim: ir.Boolean, goType: "bool", format: "strconv.FormatBool(%s)"},
		scalarType{prim: ir.Int32, goType: "int32", format: "strconv.FormatInt(int64(%s), 10)"},
		scalarType{prim: ir.Int64, goType: "int64", format: "strconv.FormatInt(%s, 10)"},
		scalarType{prim: ir.Float32, goType: "float32", format: "strconv.FormatFloat(float64(%s), 'g', -1, 32)"},
		scalarType{prim: ir.Float64, goType: "float64", format: "strconv.FormatFloat(%s, 'g', -1, 64)"},
		scalarType{prim: ir.String, goType: "string", format: "%s"},
		binaryType{},
		arrayType{},
		mapType{},
		objectType{},
		definitionType{},
	)
}

// scalarType is a primitive; optional values are pointers
type scalarType struct {
	prim   ir.PrimitiveType
	goType string
	// format turns a value expression into its string form
	format string
}

func (m scalarType) Name() string { return string(m.prim) }

func (m scalarType) Match(t ir.TypeNode) bool {
	p, ok := t.(ir.Primitive)
	return ok && p.Type == m.prim
}

func (m scalarType) TypeName(_ *typing.Context, t ir.TypeNode) (string, error) {
	if t.(ir.Primitive).Required {
		return m.goType, nil
	}
	return "*" + m.goType, nil
}

func (m scalarType) EncodeQuery(_ *typing.Context, expr string, t ir.TypeNode) (string, bool) {
	if !t.(ir.Primitive).Required {
		expr = "*" + expr
	}
	return fmt.Sprintf(m.format, expr), true
}

type binaryType struct{}

func (binaryType) Name() string { return "binary" }

func (binaryType) Match(t ir.TypeNode) bool {
	p, ok := t.(ir.Primitive)
	return ok && p.Type == ir.Binary
}

func (binaryType) TypeName(*typing.Context, ir.TypeNode) (string, error) {
	return "[]byte", nil
}

type arrayType struct{}

func (arrayType) Name() string { return "array" }

func (arrayType) Match(t ir.TypeNode) bool { return t.Kind() == ir.KindArray }

func (arrayType) TypeName(c *typing.Context, t ir.TypeNode) (string, error) {
	elem, err := c.TypeName(t.(ir.Array).Element)
	if err != nil {
		return "", err
	}
	return "[]" + elem, nil
}

type mapType struct{}

func (mapType) Name() string { return "map" }

func (mapType) Match(t ir.TypeNode) bool { return t.Kind() == ir.KindMap }

func (mapType) TypeName(c *typing.Context, t ir.TypeNode) (string, error) {
	value, err := c.TypeName(t.(ir.Map).Value)
	if err != nil {
		return "", err
	}
	return "map[string]" + value, nil
}

// objectType is any object without a declared structure, maps included
type objectType struct{}

func (objectType) Name() string { return "object" }

func (objectType) Match(t ir.TypeNode) bool {
	return t.Kind() == ir.KindMap || t.Kind() == ir.KindOpaque
}

func (objectType) TypeName(*typing.Context, ir.TypeNode) (string, error) {
	return "json.RawMessage", nil
}

// definitionType references a named definition and declares it as a struct. References
// are pointers: structured values are nullable and definitions may be recursive.
type definitionType struct{}

func (definitionType) Name() string { return "definition" }

func (definitionType) Match(t ir.TypeNode) bool { return t.Kind() == ir.KindObject }

func (definitionType) TypeName(c *typing.Context, t ir.TypeNode) (string, error) {
	id := t.(ir.Object).Ref
	name := exportedName(id.Name)
	if id.Namespace == "" || id.Namespace == c.Namespace {
		return "*" + name, nil
	}
	return "*" + packageName(id.Namespace) + "." + name, nil
}

func (definitionType) EmitStructure(c *typing.Context, def *ir.DefinitionSpec) (string, error) {
	var b strings.Builder
	name := exportedName(def.Name())
	if def.Description != "" {
		b.WriteString(utils.FormatLineComment(name+" "+def.Description, ""))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "type %s struct {\n", name)
	fields := make([]string, len(def.Properties))
	for i, p := range def.Properties {
		fields[i] = p.Name
	}
	fields = uniqueNames(fields)
	for i, p := range def.Properties {
		typeName, err := c.TypeName(p.Type)
		if err != nil {
			return "", fmt.Errorf("property %s.%s: %w", def.Name(), p.Name, err)
		}
		if p.Description != "" {
			b.WriteString(utils.FormatLineComment(p.Description, "\t"))
			b.WriteString("\n")
		}
		tag := p.Name
		if !isRequired(p.Type) {
			tag += ",omitempty"
		}
		fmt.Fprintf(&b, "\t%s %s `json:\"%s\"`\n", fields[i], typeName, tag)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func isRequired(t ir.TypeNode) bool {
	p, ok := t.(ir.Primitive)
	return ok && p.Required
}

// goInitialisms are upper-cased as a whole, the way golint expects
var goInitialisms = map[string]bool{
	"Id": true, "Url": true, "Uri": true, "Http": true, "Api": true, "Json": true, "Ip": true,
}

// exportedName turns a wire name into an exported Go identifier
func exportedName(s string) string {
	words := utils.SplitWords(s)
	var b strings.Builder
	for _, w := range words {
		w = utils.ToPascalCase(w)
		if goInitialisms[w] {
			w = strings.ToUpper(w)
		}
		b.WriteString(w)
	}
	name := utils.SanitizeIdentifier(b.String())
	if name[0] == '_' {
		name = "X" + name
	}
	return name
}

// uniqueNames maps wire names to exported identifiers; a name that would repeat an
// earlier one ("foo_bar" after "fooBar") gets the first free numeric suffix
func uniqueNames(wire []string) []string {
	taken := make(map[string]bool, len(wire))
	out := make([]string, len(wire))
	for i, w := range wire {
		base := exportedName(w)
		name := base
		for n := 2; taken[name]; n++ {
			name = base + strconv.Itoa(n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

// packageName is the Go package a namespace is emitted into: its last segment, lower case
func packageName(namespace string) string {
	if i := strings.LastIndex(namespace, "."); i != -1 {
		namespace = namespace[i+1:]
	}
	name := strings.ToLower(utils.SanitizeIdentifier(namespace))
	return strings.ReplaceAll(name, "_", "")
}
