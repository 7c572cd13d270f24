// Package ir is the normalized, document-independent model of APIs, operations and types
// that every backend consumes. It is built once per generation run and read-only after.
package ir

import (
	"strings"
)

// Kind is the active variant of a TypeNode
type Kind string

const (
	KindPrimitive Kind = "primitive"
	KindArray     Kind = "array"
	KindMap       Kind = "map"
	KindObject    Kind = "object"
	KindOpaque    Kind = "opaque"
)

// PrimitiveType is the concrete width/flavour of a Primitive
type PrimitiveType string

const (
	String  PrimitiveType = "string"
	Int32   PrimitiveType = "int32"
	Int64   PrimitiveType = "int64"
	Float32 PrimitiveType = "float32"
	Float64 PrimitiveType = "float64"
	Boolean PrimitiveType = "boolean"
	Binary  PrimitiveType = "binary"
)

// TypeNode is a closed union over Primitive, Array, Map, Object and Opaque.
// Backends switch on the concrete type or on Kind().
type TypeNode interface {
	Kind() Kind
	isTypeNode()
}

// Primitive is a scalar value. Required only affects nullability in emitted code.
type Primitive struct {
	Type     PrimitiveType
	Required bool
	// Enum holds the allowed values of a string enumeration, in document order
	Enum []string
}

// Array is a homogeneous list
type Array struct {
	Element TypeNode
}

// Map is an object keyed by string with no fixed property set
type Map struct {
	Value TypeNode
}

// Object references a named structured definition
type Object struct {
	Ref DefinitionID
}

// Opaque is an object with no known structure, carried as raw JSON text
type Opaque struct{}

func (Primitive) Kind() Kind { return KindPrimitive }
func (Array) Kind() Kind { return KindArray }
func (Map) Kind() Kind { return KindMap }
func (Object) Kind() Kind { return KindObject }
func (Opaque) Kind() Kind { return KindOpaque }

func (Primitive) isTypeNode() {}
func (Array) isTypeNode() {}
func (Map) isTypeNode() {}
func (Object) isTypeNode() {}
func (Opaque) isTypeNode() {}

// IsEnum reports whether a primitive carries enumeration values
func (p Primitive) IsEnum() bool { return len(p.Enum) > 0 }

// EqualType compares two type nodes structurally. Object nodes compare by reference
// identity, never by the shape of the referenced definition.
func EqualType(a, b TypeNode) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Primitive:
		y, ok := b.(Primitive)
		if !ok || x.Type != y.Type || x.Required != y.Required || len(x.Enum) != len(y.Enum) {
			return false
		}
		for i := range x.Enum {
			if x.Enum[i] != y.Enum[i] {
				return false
			}
		}
		return true
	case Array:
		y, ok := b.(Array)
		return ok && EqualType(x.Element, y.Element)
	case Map:
		y, ok := b.(Map)
		return ok && EqualType(x.Value, y.Value)
	case Object:
		y, ok := b.(Object)
		return ok && x.Ref == y.Ref
	case Opaque:
		_, ok := b.(Opaque)
		return ok
	}
	return false
}

// DefinitionLookup resolves a definition id, usually DefinitionRegistry.Lookup
type DefinitionLookup func(DefinitionID) (*DefinitionSpec, bool)

// EqualShape is EqualType across documents: references to different ids are equal when
// they name the same definition and the definitions, looked up in la and lb, have equal
// shapes. Cycles are assumed equal once entered.
func EqualShape(a, b TypeNode, la, lb DefinitionLookup) bool {
	c := shapeComparison{la: la, lb: lb, seen: make(map[[2]DefinitionID]bool)}
	return c.equal(a, b)
}

type shapeComparison struct {
	la, lb DefinitionLookup
	seen   map[[2]DefinitionID]bool
}

func (c shapeComparison) equal(a, b TypeNode) bool {
	switch x := a.(type) {
	case Array:
		y, ok := b.(Array)
		return ok && c.equal(x.Element, y.Element)
	case Map:
		y, ok := b.(Map)
		return ok && c.equal(x.Value, y.Value)
	case Object:
		y, ok := b.(Object)
		if !ok {
			return false
		}
		return c.equalRef(x.Ref, y.Ref)
	}
	return EqualType(a, b)
}

func (c shapeComparison) equalRef(a, b DefinitionID) bool {
	if a == b {
		return true
	}
	if a.Name != b.Name {
		return false
	}
	pair := [2]DefinitionID{a, b}
	if c.seen[pair] {
		return true
	}
	c.seen[pair] = true

	da, ok := c.la(a)
	if !ok {
		return false
	}
	db, ok := c.lb(b)
	if !ok {
		return false
	}
	return c.equalProperties(da.Properties, db.Properties)
}

func (c shapeComparison) equalProperties(a, b []Property) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !c.equal(a[i].Type, b[i].Type) {
			return false
		}
	}
	return true
}

// TypeString renders a compact, language-neutral description of t, e.g. "int64?",
// "[]Sdk.Lobby.Player" or "map[string]opaque". Used for diagnostics and IR dumps.
func TypeString(t TypeNode) string {
	switch v := t.(type) {
	case nil:
		return "void"
	case Primitive:
		s := string(v.Type)
		if v.IsEnum() {
			s += "(" + strings.Join(v.Enum, "|") + ")"
		}
		if !v.Required {
			s += "?"
		}
		return s
	case Array:
		return "[]" + TypeString(v.Element)
	case Map:
		return "map[string]" + TypeString(v.Value)
	case Object:
		return v.Ref.String()
	case Opaque:
		return "opaque"
	}
	return "unknown"
}

// DefinitionID identifies a named definition by (namespace, name)
type DefinitionID struct {
	Namespace string
	Name      string
}

func (id DefinitionID) String() string {
	if id.Namespace == "" {
		return id.Name
	}
	return id.Namespace + "." + id.Name
}

// Property is one field of a definition
type Property struct {
	Name        string
	Type        TypeNode
	Description string
}

// DefinitionSpec is a named structured type with ordered properties
type DefinitionSpec struct {
	ID          DefinitionID
	Description string
	Properties  []Property
	// SystemError marks the run-wide shared error shape
	SystemError bool
}

// Name is the unqualified definition name
func (d *DefinitionSpec) Name() string { return d.ID.Name }

func equalProperties(a, b []Property) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !EqualType(a[i].Type, b[i].Type) {
			return false
		}
	}
	return true
}

// ParameterLocation is where a parameter travels in the HTTP request
type ParameterLocation string

const (
	InQuery  ParameterLocation = "query"
	InPath   ParameterLocation = "path"
	InBody   ParameterLocation = "body"
	InHeader ParameterLocation = "header"
)

// ParameterSpec is one operation parameter
type ParameterSpec struct {
	Name        string
	Location    ParameterLocation
	Required    bool
	Type        TypeNode
	Description string
	// Format is the raw format hint; "binary" selects a raw byte body over JSON
	Format string
}

// IsRawBody reports whether a body parameter is sent as raw bytes instead of JSON
func (p ParameterSpec) IsRawBody() bool {
	if p.Location != InBody {
		return false
	}
	if p.Format == "binary" {
		return true
	}
	prim, ok := p.Type.(Primitive)
	return ok && prim.Type == Binary
}

// BinaryResponseHandling selects how a binary download response is surfaced
type BinaryResponseHandling string

const (
	BinaryResponseNone     BinaryResponseHandling = ""
	BinaryResponseRedirect BinaryResponseHandling = "redirect"
	BinaryResponseDirect   BinaryResponseHandling = "direct"
)

// ProtocolMessage is one entry of a WebSocket message catalog
type ProtocolMessage struct {
	ID   string
	Type TypeNode
}

// OperationNode is one callable operation (path + verb)
type OperationNode struct {
	APIID       string
	BasePath    string
	HTTPPath    string
	HTTPMethod  string
	OperationID string
	Tag         string

	Summary                   string
	Description               string
	DescriptionLimited        string
	DescriptionLimitedEscaped string
	DisplayName               string
	DisplayNameEscaped        string

	// ImplementationName is namespace_tag_operationId, unique across the run
	ImplementationName string

	Parameters []ParameterSpec
	// Response is nil when the operation returns nothing
	Response TypeNode

	IsClusterOnly          bool
	IsWebSocket            bool
	IsFileUpload           bool
	BinaryResponseHandling BinaryResponseHandling

	RequestMessages  []ProtocolMessage
	ResponseMessages []ProtocolMessage
}

// ParametersIn returns the parameters at loc, in document order
func (o *OperationNode) ParametersIn(loc ParameterLocation) []ParameterSpec {
	var out []ParameterSpec
	for _, p := range o.Parameters {
		if p.Location == loc {
			out = append(out, p)
		}
	}
	return out
}

// Body returns the body parameter, if any
func (o *OperationNode) Body() (ParameterSpec, bool) {
	for _, p := range o.Parameters {
		if p.Location == InBody {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// ApiSpec is the normalized form of one input document
type ApiSpec struct {
	APIID        string
	Version      string
	FriendlyName string
	Namespace    string
	BasePath     string
	Host         string

	Definitions *DefinitionRegistry
	Operations  []*OperationNode
	// Tags lists every tag used by an operation, in first-use order
	Tags []string
}

// OperationsByTag returns the operations grouped under tag, in document order
func (a *ApiSpec) OperationsByTag(tag string) []*OperationNode {
	var out []*OperationNode
	for _, op := range a.Operations {
		if op.Tag == tag {
			out = append(out, op)
		}
	}
	return out
}

// IR is the complete model handed to a backend
type IR struct {
	APIs []*ApiSpec
	// SystemError is the shared error definition, nil when no document references it
	SystemError *DefinitionSpec
	// SharedNamespace is where the system error and other run-wide code is emitted
	SharedNamespace string
}

// Lookup finds a definition by id across every API and the system error
func (in *IR) Lookup(id DefinitionID) (*DefinitionSpec, bool) {
	if in.SystemError != nil && in.SystemError.ID == id {
		return in.SystemError, true
	}
	for _, api := range in.APIs {
		if def, ok := api.Definitions.Lookup(id); ok {
			return def, true
		}
	}
	return nil, false
}
