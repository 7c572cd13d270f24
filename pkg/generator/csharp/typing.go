package csharp

import (
	"fmt"
	"strings"

	"github.com/sdkforge/sdk-gen/pkg/ir"
	"github.com/sdkforge/sdk-gen/pkg/typing"
	"github.com/sdkforge/sdk-gen/pkg/utils"
)

const invariantCulture = "System.Globalization.CultureInfo.InvariantCulture"

// Chain is the C# matcher chain. Maps must be tried before the general object matcher,
// which would otherwise render them as untyped objects.
func Chain() *typing.Chain {
	return typing.NewChain(
		booleanType{},
		valueType{prim: ir.Int32, cs: "int"},
		valueType{prim: ir.Int64, cs: "long"},
		valueType{prim: ir.Float32, cs: "float"},
		valueType{prim: ir.Float64, cs: "double"},
		binaryType{},
		stringType{},
		arrayType{},
		mapType{},
		objectType{},
		definitionType{},
	)
}

// jsonCodec moves values through Newtonsoft.Json
type jsonCodec struct{}

func (jsonCodec) Serialize(_ *typing.Context, expr string, _ ir.TypeNode) (string, error) {
	return "Newtonsoft.Json.JsonConvert.SerializeObject(" + expr + ")", nil
}

func (jsonCodec) Deserialize(c *typing.Context, expr string, t ir.TypeNode) (string, error) {
	name, err := c.TypeName(t)
	if err != nil {
		return "", err
	}
	return "Newtonsoft.Json.JsonConvert.DeserializeObject<" + name + ">(" + expr + ")", nil
}

type booleanType struct{ jsonCodec }

func (booleanType) Name() string { return "boolean" }

func (booleanType) Match(t ir.TypeNode) bool {
	p, ok := t.(ir.Primitive)
	return ok && p.Type == ir.Boolean
}

func (booleanType) TypeName(_ *typing.Context, t ir.TypeNode) (string, error) {
	return nullable("bool", t.(ir.Primitive).Required), nil
}

func (booleanType) EncodeQuery(_ *typing.Context, expr string, t ir.TypeNode) (string, bool) {
	if !t.(ir.Primitive).Required {
		expr += ".Value"
	}
	return "(" + expr + " ? \"true\" : \"false\")", true
}

// valueType is a numeric primitive rendered as a C# value type
type valueType struct {
	jsonCodec
	prim ir.PrimitiveType
	cs   string
}

func (m valueType) Name() string { return string(m.prim) }

func (m valueType) Match(t ir.TypeNode) bool {
	p, ok := t.(ir.Primitive)
	return ok && p.Type == m.prim
}

func (m valueType) TypeName(_ *typing.Context, t ir.TypeNode) (string, error) {
	return nullable(m.cs, t.(ir.Primitive).Required), nil
}

func (m valueType) EncodeQuery(_ *typing.Context, expr string, t ir.TypeNode) (string, bool) {
	if !t.(ir.Primitive).Required {
		expr += ".Value"
	}
	return expr + ".ToString(" + invariantCulture + ")", true
}

type binaryType struct{}

func (binaryType) Name() string { return "binary" }

func (binaryType) Match(t ir.TypeNode) bool {
	p, ok := t.(ir.Primitive)
	return ok && p.Type == ir.Binary
}

func (binaryType) TypeName(*typing.Context, ir.TypeNode) (string, error) {
	return "byte[]", nil
}

type stringType struct{ jsonCodec }

func (stringType) Name() string { return "string" }

func (stringType) Match(t ir.TypeNode) bool {
	p, ok := t.(ir.Primitive)
	return ok && p.Type == ir.String
}

func (stringType) TypeName(*typing.Context, ir.TypeNode) (string, error) {
	return "string", nil
}

func (stringType) EncodeQuery(_ *typing.Context, expr string, _ ir.TypeNode) (string, bool) {
	return expr, true
}

type arrayType struct{ jsonCodec }

func (arrayType) Name() string { return "array" }

func (arrayType) Match(t ir.TypeNode) bool { return t.Kind() == ir.KindArray }

func (arrayType) TypeName(c *typing.Context, t ir.TypeNode) (string, error) {
	elem, err := c.TypeName(t.(ir.Array).Element)
	if err != nil {
		return "", err
	}
	return elem + "[]", nil
}

type mapType struct{ jsonCodec }

func (mapType) Name() string { return "map" }

func (mapType) Match(t ir.TypeNode) bool { return t.Kind() == ir.KindMap }

func (mapType) TypeName(c *typing.Context, t ir.TypeNode) (string, error) {
	value, err := c.TypeName(t.(ir.Map).Value)
	if err != nil {
		return "", err
	}
	return "System.Collections.Generic.Dictionary<string, " + value + ">", nil
}

// objectType is any object without a declared structure, maps included
type objectType struct{ jsonCodec }

func (objectType) Name() string { return "object" }

func (objectType) Match(t ir.TypeNode) bool {
	return t.Kind() == ir.KindMap || t.Kind() == ir.KindOpaque
}

func (objectType) TypeName(*typing.Context, ir.TypeNode) (string, error) {
	return "Newtonsoft.Json.Linq.JObject", nil
}

// definitionType references a named definition and declares it as a class
type definitionType struct{ jsonCodec }

func (definitionType) Name() string { return "definition" }

func (definitionType) Match(t ir.TypeNode) bool { return t.Kind() == ir.KindObject }

func (definitionType) TypeName(c *typing.Context, t ir.TypeNode) (string, error) {
	return c.Qualify(t.(ir.Object).Ref, "."), nil
}

func (definitionType) EmitStructure(c *typing.Context, def *ir.DefinitionSpec) (string, error) {
	var b strings.Builder
	if def.Description != "" {
		fmt.Fprintf(&b, "    /// <summary>\n    /// %s\n    /// </summary>\n", utils.EscapeXMLComment(def.Description, "    /// "))
	}
	fmt.Fprintf(&b, "    public class %s\n    {\n", def.Name())
	for _, p := range def.Properties {
		typeName, err := c.TypeName(p.Type)
		if err != nil {
			return "", fmt.Errorf("property %s.%s: %w", def.Name(), p.Name, err)
		}
		if p.Description != "" {
			fmt.Fprintf(&b, "        /// <summary>\n        /// %s\n        /// </summary>\n", utils.EscapeXMLComment(p.Description, "        /// "))
		}
		fmt.Fprintf(&b, "        [Newtonsoft.Json.JsonProperty(\"%s\")]\n", utils.EscapeDoubleQuoted(p.Name))
		fmt.Fprintf(&b, "        public %s %s { get; set; }\n\n", typeName, memberName(def.Name(), p.Name))
	}
	b.WriteString("    }\n")
	return b.String(), nil
}

// memberName is the C# property name of a field; members may not share the class name
func memberName(class, field string) string {
	name := utils.ToPascalCase(field)
	if name == "" {
		name = "Value"
	}
	if name == class {
		name += "Value"
	}
	return name
}

func nullable(name string, required bool) string {
	if required {
		return name
	}
	return name + "?"
}
