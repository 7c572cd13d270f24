package typing

import (
	"errors"
	"testing"

	"github.com/sdkforge/sdk-gen/pkg/ir"
)

type primitiveMatcher struct{}

func (primitiveMatcher) Name() string { return "primitive" }
func (primitiveMatcher) Match(t ir.TypeNode) bool { return t.Kind() == ir.KindPrimitive }
func (primitiveMatcher) TypeName(_ *Context, t ir.TypeNode) (string, error) {
	return string(t.(ir.Primitive).Type), nil
}
func (primitiveMatcher) EncodeQuery(_ *Context, expr string, _ ir.TypeNode) (string, bool) {
	return "str(" + expr + ")", true
}

type mapMatcher struct{}

func (mapMatcher) Name() string { return "map" }
func (mapMatcher) Match(t ir.TypeNode) bool { return t.Kind() == ir.KindMap }
func (mapMatcher) TypeName(c *Context, t ir.TypeNode) (string, error) {
	v, err := c.TypeName(t.(ir.Map).Value)
	if err != nil {
		return "", err
	}
	return "dict<" + v + ">", nil
}

// anyObjectMatcher accepts every object-like node, maps included
type anyObjectMatcher struct{}

func (anyObjectMatcher) Name() string { return "object" }
func (anyObjectMatcher) Match(t ir.TypeNode) bool {
	return t.Kind() == ir.KindMap || t.Kind() == ir.KindOpaque
}
func (anyObjectMatcher) TypeName(*Context, ir.TypeNode) (string, error) { return "json", nil }

type refMatcher struct{}

func (refMatcher) Name() string { return "ref" }
func (refMatcher) Match(t ir.TypeNode) bool { return t.Kind() == ir.KindObject }
func (refMatcher) TypeName(c *Context, t ir.TypeNode) (string, error) {
	return c.Qualify(t.(ir.Object).Ref, "."), nil
}
func (refMatcher) EmitStructure(_ *Context, def *ir.DefinitionSpec) (string, error) {
	return "struct " + def.Name(), nil
}

func testChain() *Chain {
	return NewChain(primitiveMatcher{}, mapMatcher{}, refMatcher{}, anyObjectMatcher{})
}

func TestSpecificMatcherWinsInOrderedChain(t *testing.T) {
	chain := testChain()
	node := ir.Map{Value: ir.Primitive{Type: ir.Int32}}

	candidates := chain.Candidates(node)
	if len(candidates) != 2 {
		t.Fatalf("expected map and object to both accept a map node, got %d", len(candidates))
	}
	if chain.Index("map") >= chain.Index("object") {
		t.Fatalf("chain must order map (%d) before object (%d)", chain.Index("map"), chain.Index("object"))
	}

	m, err := chain.Resolve(node)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name() != "map" {
		t.Errorf("Resolve picked %s, expected map", m.Name())
	}

	// a misordered chain lets the general matcher swallow the map
	misordered := NewChain(anyObjectMatcher{}, mapMatcher{})
	if m, _ := misordered.Resolve(node); m.Name() != "object" {
		t.Errorf("misordered chain picked %s", m.Name())
	}
}

func TestResolveNoMatch(t *testing.T) {
	chain := NewChain(primitiveMatcher{})
	_, err := chain.Resolve(ir.Array{Element: ir.Opaque{}})
	if !errors.Is(err, ir.ErrNoMatchingTypeHandler) {
		t.Fatalf("expected ErrNoMatchingTypeHandler, got %v", err)
	}
}

func TestContextHelpers(t *testing.T) {
	player := &ir.DefinitionSpec{ID: ir.DefinitionID{Namespace: "Sdk.Lobby", Name: "Player"}}
	reg := ir.NewDefinitionRegistry()
	if _, err := reg.RegisterSpec(player); err != nil {
		t.Fatal(err)
	}
	in := &ir.IR{APIs: []*ir.ApiSpec{{APIID: "lobby", Namespace: "Sdk.Lobby", Definitions: reg}}, SharedNamespace: "Sdk"}
	c := NewContext(testChain(), in).In("Sdk.Lobby")

	tests := []struct {
		node     ir.TypeNode
		expected string
	}{
		{ir.Map{Value: ir.Primitive{Type: ir.Int64}}, "dict<int64>"},
		{ir.Object{Ref: player.ID}, "Player"},
		{ir.Object{Ref: ir.DefinitionID{Namespace: "Sdk", Name: "SystemError"}}, "Sdk.SystemError"},
		{ir.Opaque{}, "json"},
	}
	for _, test := range tests {
		got, err := c.TypeName(test.node)
		if err != nil {
			t.Errorf("TypeName(%s): %v", ir.TypeString(test.node), err)
			continue
		}
		if got != test.expected {
			t.Errorf("TypeName(%s) = %q, expected %q", ir.TypeString(test.node), got, test.expected)
		}
	}

	if _, ok := c.Definition(player.ID); !ok {
		t.Error("Definition lookup failed")
	}
	code, ok, err := c.EmitStructure(player)
	if err != nil || !ok || code != "struct Player" {
		t.Errorf("EmitStructure = %q, %v, %v", code, ok, err)
	}
	if code, ok, _ := c.EncodeQuery("x", ir.Primitive{Type: ir.Int32}); !ok || code != "str(x)" {
		t.Errorf("EncodeQuery(primitive) = %q, %v", code, ok)
	}
	if _, ok, _ := c.EncodeQuery("x", ir.Opaque{}); ok {
		t.Error("opaque values cannot be query parameters")
	}
	if got, _ := c.Serialize("x", ir.Opaque{}); got != "x" {
		t.Errorf("Serialize without codec = %q", got)
	}
}

func TestCheckReportsLocation(t *testing.T) {
	reg := ir.NewDefinitionRegistry()
	if _, err := reg.Register("Sdk", "Bag", []ir.Property{{Name: "items", Type: ir.Array{Element: ir.Opaque{}}}}); err != nil {
		t.Fatal(err)
	}
	in := &ir.IR{APIs: []*ir.ApiSpec{{APIID: "store", Definitions: reg}}}
	err := Check(NewContext(NewChain(primitiveMatcher{}, anyObjectMatcher{}), in), in)

	var e *ir.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *ir.Error, got %v", err)
	}
	if !errors.Is(err, ir.ErrNoMatchingTypeHandler) || e.Document != "store" || e.Definition != "Sdk.Bag" {
		t.Errorf("unexpected error %v", err)
	}
}
