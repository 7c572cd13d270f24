package typescript

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sdkforge/sdk-gen/pkg/ir"
	"github.com/sdkforge/sdk-gen/pkg/typing"
	"github.com/sdkforge/sdk-gen/pkg/utils"
)

// sharedAlias is the import alias of the shared module in per-API files
const sharedAlias = "Shared"

var plainKey = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Chain is the TypeScript matcher chain. Enumerations come before plain strings and maps
// before the general object matcher.
func Chain() *typing.Chain {
	return typing.NewChain(
		scalarType{name: "boolean", ts: "boolean", prims: []ir.PrimitiveType{ir.Boolean}},
		scalarType{name: "number", ts: "number", prims: []ir.PrimitiveType{ir.Int32, ir.Int64, ir.Float32, ir.Float64}},
		binaryType{},
		enumType{},
		scalarType{name: "string", ts: "string", prims: []ir.PrimitiveType{ir.String}},
		arrayType{},
		mapType{},
		objectType{},
		definitionType{},
	)
}

type scalarType struct {
	name  string
	ts    string
	prims []ir.PrimitiveType
}

func (m scalarType) Name() string { return m.name }

func (m scalarType) Match(t ir.TypeNode) bool {
	p, ok := t.(ir.Primitive)
	if !ok {
		return false
	}
	for _, prim := range m.prims {
		if p.Type == prim {
			return true
		}
	}
	return false
}

func (m scalarType) TypeName(_ *typing.Context, t ir.TypeNode) (string, error) {
	return orNull(m.ts, t.(ir.Primitive).Required), nil
}

func (m scalarType) EncodeQuery(_ *typing.Context, expr string, _ ir.TypeNode) (string, bool) {
	if m.ts == "string" {
		return expr, true
	}
	return "String(" + expr + ")", true
}

type binaryType struct{}

func (binaryType) Name() string { return "binary" }

func (binaryType) Match(t ir.TypeNode) bool {
	p, ok := t.(ir.Primitive)
	return ok && p.Type == ir.Binary
}

func (binaryType) TypeName(*typing.Context, ir.TypeNode) (string, error) {
	return "Blob", nil
}

// enumType renders a string enumeration as a union of literals
type enumType struct{}

func (enumType) Name() string { return "enum" }

func (enumType) Match(t ir.TypeNode) bool {
	p, ok := t.(ir.Primitive)
	return ok && p.Type == ir.String && p.IsEnum()
}

func (enumType) TypeName(_ *typing.Context, t ir.TypeNode) (string, error) {
	p := t.(ir.Primitive)
	vals := make([]string, 0, len(p.Enum))
	for _, v := range p.Enum {
		vals = append(vals, "\""+utils.EscapeDoubleQuoted(v)+"\"")
	}
	return orNull(strings.Join(vals, " | "), p.Required), nil
}

func (enumType) EncodeQuery(_ *typing.Context, expr string, _ ir.TypeNode) (string, bool) {
	return expr, true
}

type arrayType struct{}

func (arrayType) Name() string { return "array" }

func (arrayType) Match(t ir.TypeNode) bool { return t.Kind() == ir.KindArray }

func (arrayType) TypeName(c *typing.Context, t ir.TypeNode) (string, error) {
	inner, err := c.TypeName(t.(ir.Array).Element)
	if err != nil {
		return "", err
	}
	return "Array<" + inner + ">", nil
}

type mapType struct{}

func (mapType) Name() string { return "map" }

func (mapType) Match(t ir.TypeNode) bool { return t.Kind() == ir.KindMap }

func (mapType) TypeName(c *typing.Context, t ir.TypeNode) (string, error) {
	value, err := c.TypeName(t.(ir.Map).Value)
	if err != nil {
		return "", err
	}
	return "Record<string, " + value + ">", nil
}

// objectType is any object without a declared structure, maps included
type objectType struct{}

func (objectType) Name() string { return "object" }

func (objectType) Match(t ir.TypeNode) bool {
	return t.Kind() == ir.KindMap || t.Kind() == ir.KindOpaque
}

func (objectType) TypeName(*typing.Context, ir.TypeNode) (string, error) {
	return "Record<string, unknown>", nil
}

// definitionType references a named definition and declares it as an interface
type definitionType struct{}

func (definitionType) Name() string { return "definition" }

func (definitionType) Match(t ir.TypeNode) bool { return t.Kind() == ir.KindObject }

func (definitionType) TypeName(c *typing.Context, t ir.TypeNode) (string, error) {
	id := t.(ir.Object).Ref
	if id.Namespace != c.Namespace && id.Namespace == c.SharedNamespace {
		return sharedAlias + "." + id.Name, nil
	}
	return c.Qualify(id, "."), nil
}

func (definitionType) EmitStructure(c *typing.Context, def *ir.DefinitionSpec) (string, error) {
	var b strings.Builder
	if def.Description != "" {
		fmt.Fprintf(&b, "/**\n * %s\n */\n", utils.EscapeBlockComment(def.Description, " * "))
	}
	fmt.Fprintf(&b, "export interface %s {\n", def.Name())
	for _, p := range def.Properties {
		typeName, err := c.TypeName(p.Type)
		if err != nil {
			return "", fmt.Errorf("property %s.%s: %w", def.Name(), p.Name, err)
		}
		if p.Description != "" {
			fmt.Fprintf(&b, "  /**\n   * %s\n   */\n", utils.EscapeBlockComment(p.Description, "   * "))
		}
		fmt.Fprintf(&b, "  %s%s: %s;\n", propertyKey(p.Name), optionalMark(p.Type), typeName)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func propertyKey(name string) string {
	if plainKey.MatchString(name) {
		return name
	}
	return "\"" + utils.EscapeDoubleQuoted(name) + "\""
}

// optionalMark is "?" for values that may be left out of a payload
func optionalMark(t ir.TypeNode) string {
	if p, ok := t.(ir.Primitive); ok && p.Required {
		return ""
	}
	return "?"
}

func orNull(name string, required bool) string {
	if required {
		return name
	}
	return name + " | null"
}
