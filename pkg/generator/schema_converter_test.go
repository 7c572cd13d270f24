package generator

import (
	"errors"
	"strings"
	"testing"

	"github.com/sdkforge/sdk-gen/internal/logging"
	"github.com/sdkforge/sdk-gen/pkg/document"
	"github.com/sdkforge/sdk-gen/pkg/ir"
)

const schemaDefinitions = `{
  "Player": {"type": "object", "properties": {"id": {"type": "string"}}},
  "Codes": {"type": "array", "items": {"type": "integer", "format": "int64"}}
}`

// normalizeSchema normalizes schema inside a document declaring schemaDefinitions
func normalizeSchema(t *testing.T, schema string, required bool) (ir.TypeNode, *normalizer, error) {
	t.Helper()
	root, err := document.Parse([]byte(`{"definitions": ` + schemaDefinitions + `, "x": ` + schema + `}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	n := newNormalizer("test", "Sdk.Test", root, ir.NewSystemErrorSlot("Sdk", "SystemError"), logging.Discard())
	typ, err := n.normalize(root.Get("x"), "Ctx", required)
	return typ, n, err
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		required bool
		expected string
	}{
		{"reference", `{"$ref": "#/definitions/Player"}`, false, "Sdk.Test.Player"},
		{"schema wrapped reference", `{"schema": {"$ref": "#/definitions/Player"}}`, false, "Sdk.Test.Player"},
		{"alias reference is inlined", `{"$ref": "#/definitions/Codes"}`, false, "[]int64"},
		{"array", `{"type": "array", "items": {"type": "integer", "format": "int64"}}`, false, "[]int64"},
		{"schema wrapped array", `{"schema": {"type": "array", "items": {"type": "number", "format": "float"}}}`, false, "[]float32"},
		{"array without items", `{"type": "array"}`, false, "[]opaque"},
		{"required integer", `{"type": "integer", "format": "int64"}`, true, "int64"},
		{"unknown integer format", `{"type": "integer", "format": "int128"}`, false, "int32?"},
		{"integer without format", `{"type": "integer"}`, false, "int32?"},
		{"float", `{"type": "number", "format": "float"}`, false, "float32?"},
		{"unknown number format", `{"type": "number", "format": "weird"}`, false, "float64?"},
		{"string byte", `{"type": "string", "format": "byte"}`, false, "binary?"},
		{"string binary", `{"type": "string", "format": "binary"}`, false, "binary?"},
		{"string date-time", `{"type": "string", "format": "date-time"}`, false, "string?"},
		{"enumeration", `{"type": "string", "enum": ["open", "closed"]}`, false, "string(open|closed)?"},
		{"boolean", `{"type": "boolean"}`, true, "boolean"},
		{"file", `{"type": "file"}`, false, "binary?"},
		{"map", `{"type": "object", "additionalProperties": {"type": "integer", "format": "int64"}}`, false, "map[string]int64"},
		{"bare object", `{"type": "object"}`, false, "opaque"},
		{"object with boolean additionalProperties", `{"type": "object", "additionalProperties": true}`, false, "opaque"},
		{"inline object", `{"type": "object", "properties": {"a": {"type": "string"}}}`, false, "Sdk.Test.Ctx"},
		{"schema wrapped primitive", `{"description": "ok", "schema": {"type": "string"}}`, false, "string?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, _, err := normalizeSchema(t, tt.schema, tt.required)
			if err != nil {
				t.Fatalf("normalize() error = %v", err)
			}
			if got := ir.TypeString(typ); got != tt.expected {
				t.Errorf("normalize() = %s, expected %s", got, tt.expected)
			}
		})
	}
}

func TestNormalizeUnrepresentable(t *testing.T) {
	tests := []struct {
		name   string
		schema string
	}{
		{"description only", `{"description": "ok"}`},
		{"unsupported type", `{"type": "tuple"}`},
		{"empty schema wrapper", `{"schema": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := normalizeSchema(t, tt.schema, false)
			if !errors.Is(err, ir.ErrUnrepresentableType) {
				t.Errorf("error = %v, want ErrUnrepresentableType", err)
			}
		})
	}
}

func TestNormalizeReusesInlineDefinition(t *testing.T) {
	root, err := document.Parse([]byte(`{"x": {"type": "object", "properties": {"a": {"type": "string"}}}}`))
	if err != nil {
		t.Fatal(err)
	}
	n := newNormalizer("test", "Sdk.Test", root, nil, logging.Discard())
	first, err := n.normalize(root.Get("x"), "First", false)
	if err != nil {
		t.Fatal(err)
	}
	second, err := n.normalize(root.Get("x"), "Second", false)
	if err != nil {
		t.Fatal(err)
	}
	if !ir.EqualType(first, second) || n.defs.Len() != 1 {
		t.Errorf("the same schema node registered twice: %s, %s (%d definitions)",
			ir.TypeString(first), ir.TypeString(second), n.defs.Len())
	}
}

func TestInlineNamesAvoidDeclaredDefinitions(t *testing.T) {
	src := `{"definitions": {
		"Player": {"type": "object", "properties": {
			"stats": {"type": "object", "properties": {"a": {"type": "string"}}},
			"best": {"$ref": "#/definitions/PlayerStats"}
		}},
		"PlayerStats": {"type": "object", "properties": {"b": {"type": "integer"}, "c": {"type": "boolean"}}},
		"Team": {"type": "object", "properties": {
			"stats": {"type": "object", "properties": {"d": {"type": "string"}}}
		}},
		"TeamStats2": {"type": "object", "properties": {"e": {"type": "string"}}}
	}}`
	in, err := BuildIR([]Document{parseDoc(t, "game", src)}, testOptions())
	if err != nil {
		t.Fatalf("BuildIR() error = %v", err)
	}
	api := in.APIs[0]
	if got := strings.Join(definitionNames(api), ","); got != "PlayerStats2,PlayerStats,Player,TeamStats,Team,TeamStats2" {
		t.Errorf("definitions = %s", got)
	}

	lookup := func(name string) *ir.DefinitionSpec {
		t.Helper()
		def, ok := api.Definitions.Lookup(ir.DefinitionID{Namespace: "HiveMP.Game", Name: name})
		if !ok {
			t.Fatalf("%s is not registered", name)
		}
		return def
	}
	propertyNames := func(def *ir.DefinitionSpec) string {
		var names []string
		for _, p := range def.Properties {
			names = append(names, p.Name)
		}
		return strings.Join(names, ",")
	}

	if got := propertyNames(lookup("PlayerStats")); got != "b,c" {
		t.Errorf("declared PlayerStats properties = %s, expected b,c", got)
	}
	if got := propertyNames(lookup("PlayerStats2")); got != "a" {
		t.Errorf("inline PlayerStats2 properties = %s, expected a", got)
	}
	player := lookup("Player")
	if got := ir.TypeString(player.Properties[0].Type); got != "HiveMP.Game.PlayerStats2" {
		t.Errorf("Player.stats = %s", got)
	}
	if got := ir.TypeString(player.Properties[1].Type); got != "HiveMP.Game.PlayerStats" {
		t.Errorf("Player.best = %s", got)
	}
	if got := propertyNames(lookup("TeamStats")); got != "d" {
		t.Errorf("inline TeamStats properties = %s, expected d", got)
	}
}
