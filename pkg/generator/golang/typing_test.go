package golang

import (
	"strings"
	"testing"

	"github.com/sdkforge/sdk-gen/pkg/ir"
	"github.com/sdkforge/sdk-gen/pkg/typing"
)

func testIR() *ir.IR {
	defs := ir.NewDefinitionRegistry()
	_, _ = defs.Register("HiveMP.Lobby", "Lobby", []ir.Property{
		{Name: "id", Type: ir.Primitive{Type: ir.String, Required: true}, Description: "Lobby id"},
		{Name: "maxPlayers", Type: ir.Primitive{Type: ir.Int32}},
		{Name: "tags", Type: ir.Map{Value: ir.Primitive{Type: ir.String, Required: true}}},
		{Name: "lastError", Type: ir.Object{Ref: ir.DefinitionID{Namespace: "HiveMP", Name: "SystemError"}}},
	})
	return &ir.IR{
		SharedNamespace: "HiveMP",
		SystemError: &ir.DefinitionSpec{
			ID:          ir.DefinitionID{Namespace: "HiveMP", Name: "SystemError"},
			SystemError: true,
			Properties:  []ir.Property{{Name: "code", Type: ir.Primitive{Type: ir.Int32, Required: true}}},
		},
		APIs: []*ir.ApiSpec{{APIID: "lobby", Namespace: "HiveMP.Lobby", Definitions: defs}},
	}
}

func TestChainOrdersMapBeforeObject(t *testing.T) {
	ch := Chain()
	if ch.Index("map") > ch.Index("object") {
		t.Errorf("map matcher (%d) must precede the general object matcher (%d)", ch.Index("map"), ch.Index("object"))
	}
	resolved, err := ch.Resolve(ir.Map{Value: ir.Opaque{}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.Name() != "map" {
		t.Errorf("Resolve(map) = %s, want map", resolved.Name())
	}
}

func TestTypeName(t *testing.T) {
	c := typing.NewContext(Chain(), testIR()).In("HiveMP.Lobby")
	tests := []struct {
		name     string
		node     ir.TypeNode
		expected string
	}{
		{"required bool", ir.Primitive{Type: ir.Boolean, Required: true}, "bool"},
		{"optional bool", ir.Primitive{Type: ir.Boolean}, "*bool"},
		{"int32", ir.Primitive{Type: ir.Int32, Required: true}, "int32"},
		{"optional int64", ir.Primitive{Type: ir.Int64}, "*int64"},
		{"float32", ir.Primitive{Type: ir.Float32, Required: true}, "float32"},
		{"float64", ir.Primitive{Type: ir.Float64, Required: true}, "float64"},
		{"optional string", ir.Primitive{Type: ir.String}, "*string"},
		{"binary", ir.Primitive{Type: ir.Binary}, "[]byte"},
		{"array", ir.Array{Element: ir.Primitive{Type: ir.Int64, Required: true}}, "[]int64"},
		{"map", ir.Map{Value: ir.Primitive{Type: ir.String, Required: true}}, "map[string]string"},
		{"opaque", ir.Opaque{}, "json.RawMessage"},
		{"local definition", ir.Object{Ref: ir.DefinitionID{Namespace: "HiveMP.Lobby", Name: "Lobby"}}, "*Lobby"},
		{"shared definition", ir.Object{Ref: ir.DefinitionID{Namespace: "HiveMP", Name: "SystemError"}}, "*hivemp.SystemError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.TypeName(tt.node)
			if err != nil {
				t.Fatalf("TypeName() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("TypeName() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestEncodeQuery(t *testing.T) {
	c := typing.NewContext(Chain(), testIR())
	tests := []struct {
		name     string
		node     ir.TypeNode
		expected string
		ok       bool
	}{
		{"bool", ir.Primitive{Type: ir.Boolean, Required: true}, "strconv.FormatBool(x)", true},
		{"optional int32", ir.Primitive{Type: ir.Int32}, "strconv.FormatInt(int64(*x), 10)", true},
		{"int64", ir.Primitive{Type: ir.Int64, Required: true}, "strconv.FormatInt(x, 10)", true},
		{"float32", ir.Primitive{Type: ir.Float32, Required: true}, "strconv.FormatFloat(float64(x), 'g', -1, 32)", true},
		{"optional string", ir.Primitive{Type: ir.String}, "*x", true},
		{"binary", ir.Primitive{Type: ir.Binary}, "", false},
		{"array", ir.Array{Element: ir.Primitive{Type: ir.String}}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := c.EncodeQuery("x", tt.node)
			if err != nil {
				t.Fatalf("EncodeQuery() error = %v", err)
			}
			if ok != tt.ok || got != tt.expected {
				t.Errorf("EncodeQuery() = (%q, %v), expected (%q, %v)", got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestEmitStructure(t *testing.T) {
	in := testIR()
	c := typing.NewContext(Chain(), in).In("HiveMP.Lobby")
	def, _ := in.APIs[0].Definitions.Lookup(ir.DefinitionID{Namespace: "HiveMP.Lobby", Name: "Lobby"})

	code, ok, err := c.EmitStructure(def)
	if err != nil || !ok {
		t.Fatalf("EmitStructure() = %v, %v", ok, err)
	}
	for _, want := range []string{
		"type Lobby struct {",
		"\t// Lobby id\n\tID string `json:\"id\"`",
		"MaxPlayers *int32 `json:\"maxPlayers,omitempty\"`",
		"Tags map[string]string `json:\"tags,omitempty\"`",
		"LastError *hivemp.SystemError",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("structure lacks %q:\n%s", want, code)
		}
	}
}

func TestEmitStructureDisambiguatesFields(t *testing.T) {
	in := testIR()
	id, err := in.APIs[0].Definitions.Register("HiveMP.Lobby", "Stats", []ir.Property{
		{Name: "fooBar", Type: ir.Primitive{Type: ir.String, Required: true}},
		{Name: "foo_bar", Type: ir.Primitive{Type: ir.Int32, Required: true}},
		{Name: "FooBar", Type: ir.Primitive{Type: ir.Boolean, Required: true}},
	})
	if err != nil {
		t.Fatal(err)
	}
	def, _ := in.APIs[0].Definitions.Lookup(id)

	code, _, err := typing.NewContext(Chain(), in).In("HiveMP.Lobby").EmitStructure(def)
	if err != nil {
		t.Fatalf("EmitStructure() error = %v", err)
	}
	for _, want := range []string{
		"\tFooBar string `json:\"fooBar\"`",
		"\tFooBar2 int32 `json:\"foo_bar\"`",
		"\tFooBar3 bool `json:\"FooBar\"`",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("structure lacks %q:\n%s", want, code)
		}
	}
}

func TestUniqueNames(t *testing.T) {
	tests := []struct {
		in       []string
		expected []string
	}{
		{[]string{"id", "name"}, []string{"ID", "Name"}},
		{[]string{"fooBar", "foo_bar", "foo-bar"}, []string{"FooBar", "FooBar2", "FooBar3"}},
		{[]string{"name", "NAME", "Name"}, []string{"Name", "Name2", "Name3"}},
	}
	for _, test := range tests {
		if got := uniqueNames(test.in); strings.Join(got, ",") != strings.Join(test.expected, ",") {
			t.Errorf("uniqueNames(%v) = %v, expected %v", test.in, got, test.expected)
		}
	}
}

func TestExportedName(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"id", "ID"},
		{"lobbyId", "LobbyID"},
		{"max_players", "MaxPlayers"},
		{"apiUrl", "APIURL"},
		{"2fa", "X_2fa"},
		{"", "X_"},
	}
	for _, test := range tests {
		if got := exportedName(test.in); got != test.expected {
			t.Errorf("exportedName(%q) = %q, expected %q", test.in, got, test.expected)
		}
	}
}

func TestPackageName(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"HiveMP", "hivemp"},
		{"HiveMP.Lobby", "lobby"},
		{"HiveMP.TempSessionV2", "tempsessionv2"},
		{"HiveMPIsolated.Lobby", "lobby"},
	}
	for _, test := range tests {
		if got := packageName(test.in); got != test.expected {
			t.Errorf("packageName(%q) = %q, expected %q", test.in, got, test.expected)
		}
	}
}
