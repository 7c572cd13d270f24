package generator

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sdkforge/sdk-gen/pkg/document"
	"github.com/sdkforge/sdk-gen/pkg/ir"
	"github.com/sdkforge/sdk-gen/pkg/utils"
)

// definitionPrefixes are the local pointer prefixes a $ref may use to name a definition
var definitionPrefixes = []string{"#/definitions/", "#/components/schemas/"}

// normalizer converts the schema nodes of one document into IR type nodes and
// registers the definitions they reference, dependencies first.
type normalizer struct {
	apiID       string
	namespace   string
	doc         *document.Node
	defs        *ir.DefinitionRegistry
	systemError *ir.SystemErrorSlot
	logger      *slog.Logger

	// pending holds definitions whose properties are being normalized; a reference back
	// to one of them is a cycle and resolves to its id without recursing again
	pending      map[string]bool
	aliasPending map[string]bool

	// inlined maps the pointer of an inline object schema to the definition synthesized
	// for it; synthesized holds the names taken that way
	inlined     map[string]ir.DefinitionID
	synthesized map[string]bool

	// systemErrorDone is set once this document's system error declaration was checked
	systemErrorDone bool
	// systemErrorRef points at a reference to a system error this document does not declare
	systemErrorRef  string
}

func newNormalizer(apiID, namespace string, doc *document.Node, systemError *ir.SystemErrorSlot, logger *slog.Logger) *normalizer {
	return &normalizer{
		apiID:        apiID,
		namespace:    namespace,
		doc:          doc,
		defs:         ir.NewDefinitionRegistry(),
		systemError:  systemError,
		logger:       logger,
		pending:      make(map[string]bool),
		aliasPending: make(map[string]bool),
		inlined:      make(map[string]ir.DefinitionID),
		synthesized:  make(map[string]bool),
	}
}

// definitions returns the named schema section of the document
func (n *normalizer) definitions() *document.Node {
	if defs := n.doc.Get("definitions"); defs != nil {
		return defs
	}
	return n.doc.Get("components").Get("schemas")
}

// normalize converts node into a TypeNode. naming is the name a nested inline object
// would be registered under ("" when there is no naming context) and required is whether
// the value is mandatory at this site.
//
// Precedence, first match wins: reference, array, primitive, object, schema wrapper.
func (n *normalizer) normalize(node *document.Node, naming string, required bool) (ir.TypeNode, error) {
	if node == nil {
		return nil, n.unrepresentable(node, "missing schema")
	}
	schema := node.Get("schema")

	if ref := node.Get("$ref"); ref.IsString() {
		return n.reference(ref, required)
	}
	if ref := schema.Get("$ref"); ref.IsString() {
		return n.reference(ref, required)
	}

	typ := node.Get("type").Str()
	switch {
	case typ == "array":
		return n.array(node.Get("items"), naming)
	case typ == "" && schema.Get("type").Str() == "array":
		return n.array(schema.Get("items"), naming)
	}

	switch typ {
	case "string", "integer", "number", "boolean", "file":
		return primitive(node, required), nil
	case "object":
		return n.object(node, naming)
	case "":
		if node.Has("properties") {
			return n.object(node, naming)
		}
	}

	if schema != nil {
		return n.normalize(schema, naming, required)
	}

	detail := "no type, $ref or schema"
	if typ != "" {
		detail = fmt.Sprintf("unsupported type %q", typ)
	}
	return nil, n.unrepresentable(node, detail)
}

func (n *normalizer) array(items *document.Node, naming string) (ir.TypeNode, error) {
	if items == nil {
		return ir.Array{Element: ir.Opaque{}}, nil
	}
	// elements are present by construction; nullability only applies to the array itself
	elem, err := n.normalize(items, naming, true)
	if err != nil {
		return nil, err
	}
	return ir.Array{Element: elem}, nil
}

func primitive(node *document.Node, required bool) ir.Primitive {
	p := ir.Primitive{Required: required}
	format := node.Get("format").Str()
	switch node.Get("type").Str() {
	case "string":
		switch format {
		case "byte", "binary":
			p.Type = ir.Binary
		default:
			p.Type = ir.String
			p.Enum = node.Get("enum").Strings()
		}
	case "integer":
		if format == "int64" {
			p.Type = ir.Int64
		} else {
			p.Type = ir.Int32
		}
	case "number":
		if format == "float" {
			p.Type = ir.Float32
		} else {
			p.Type = ir.Float64
		}
	case "boolean":
		p.Type = ir.Boolean
	case "file":
		p.Type = ir.Binary
	}
	return p
}

func (n *normalizer) object(node *document.Node, naming string) (ir.TypeNode, error) {
	if node.Get("properties").Len() > 0 {
		if naming == "" {
			return ir.Opaque{}, nil
		}
		return n.inline(node, naming)
	}
	if extra := node.Get("additionalProperties"); extra.IsObject() {
		value, err := n.normalize(extra, naming+"Value", true)
		if err != nil {
			return nil, err
		}
		return ir.Map{Value: value}, nil
	}
	return ir.Opaque{}, nil
}

// inline registers an object schema declared in place as a synthesized definition. The
// same schema node always yields the same definition.
func (n *normalizer) inline(node *document.Node, naming string) (ir.TypeNode, error) {
	if id, ok := n.inlined[node.Pointer]; ok {
		return ir.Object{Ref: id}, nil
	}
	id := ir.DefinitionID{Namespace: n.namespace, Name: n.inlineName(utils.SanitizeIdentifier(naming))}
	n.inlined[node.Pointer] = id

	props, err := n.properties(node, id.Name)
	if err != nil {
		return nil, err
	}
	def := &ir.DefinitionSpec{ID: id, Description: node.Get("description").Str(), Properties: props}
	if _, err := n.defs.RegisterSpec(def); err != nil {
		return nil, n.locate(err, node)
	}
	return ir.Object{Ref: id}, nil
}

// inlineName is base, or base with the first free numeric suffix when the document
// declares a definition of that name or another inline object already took it
func (n *normalizer) inlineName(base string) string {
	name := base
	for i := 2; n.nameTaken(name); i++ {
		name = base + strconv.Itoa(i)
	}
	n.synthesized[name] = true
	return name
}

func (n *normalizer) nameTaken(name string) bool {
	if n.synthesized[name] || n.definitions().Has(name) {
		return true
	}
	return n.systemError != nil && name == n.systemError.Name()
}

// reference resolves a $ref to a definition id, registering the definition on first use
func (n *normalizer) reference(ref *document.Node, required bool) (ir.TypeNode, error) {
	name, ok := definitionName(ref.Str())
	if !ok {
		return nil, &ir.Error{
			Kind:     ir.ErrUnresolvedReference,
			Document: n.apiID,
			Pointer:  ref.Pointer,
			Detail:   fmt.Sprintf("%q is not a local definition reference", ref.Str()),
		}
	}
	return n.ensureDefinition(name, ref.Pointer, required)
}

// ensureDefinition returns the type a reference to name resolves to. required only
// matters for aliases, which inline to a primitive or container at the use site.
func (n *normalizer) ensureDefinition(name, pointer string, required bool) (ir.TypeNode, error) {
	if n.systemError != nil && name == n.systemError.Name() {
		return n.ensureSystemError(pointer)
	}

	id := ir.DefinitionID{Namespace: n.namespace, Name: name}
	if n.defs.Has(id) || n.pending[name] {
		return ir.Object{Ref: id}, nil
	}
	if n.aliasPending[name] {
		// an alias that contains itself has no finite shape
		return ir.Opaque{}, nil
	}

	def := n.definitions().Get(name)
	if def == nil {
		return nil, &ir.Error{
			Kind:       ir.ErrUnresolvedReference,
			Document:   n.apiID,
			Definition: name,
			Pointer:    pointer,
			Detail:     "definition is not declared by the document",
		}
	}
	if isAlias(def) {
		n.aliasPending[name] = true
		defer delete(n.aliasPending, name)
		return n.normalize(def, name, required)
	}

	n.pending[name] = true
	props, err := n.properties(def, name)
	delete(n.pending, name)
	if err != nil {
		return nil, err
	}
	spec := &ir.DefinitionSpec{ID: id, Description: def.Get("description").Str(), Properties: props}
	if _, err := n.defs.RegisterSpec(spec); err != nil {
		return nil, n.locate(err, def)
	}
	return ir.Object{Ref: id}, nil
}

func (n *normalizer) ensureSystemError(pointer string) (ir.TypeNode, error) {
	id := n.systemError.ID()
	name := n.systemError.Name()
	if n.systemErrorDone || n.pending[name] {
		return ir.Object{Ref: id}, nil
	}
	def := n.definitions().Get(name)
	if def == nil {
		// declared by another document; the builder fails the run if none does
		if n.systemErrorRef == "" {
			n.systemErrorRef = pointer
		}
		return ir.Object{Ref: id}, nil
	}

	n.pending[name] = true
	props, err := n.properties(def, name)
	delete(n.pending, name)
	if err != nil {
		return nil, err
	}
	if _, err := n.systemError.Define(n.apiID, def.Get("description").Str(), props, n.defs.Lookup); err != nil {
		return nil, n.locate(err, def)
	}
	n.systemErrorDone = true
	return ir.Object{Ref: id}, nil
}

// properties normalizes the property map of an object schema in document order
func (n *normalizer) properties(node *document.Node, owner string) ([]ir.Property, error) {
	required := make(map[string]bool)
	for _, name := range node.Get("required").Strings() {
		required[name] = true
	}

	members := node.Get("properties").Members()
	props := make([]ir.Property, 0, len(members))
	for _, m := range members {
		t, err := n.normalize(m.Value, owner+utils.ToPascalCase(m.Key), required[m.Key])
		if err != nil {
			return nil, n.inDefinition(err, owner)
		}
		props = append(props, ir.Property{Name: m.Key, Type: t, Description: m.Value.Get("description").Str()})
	}
	return props, nil
}

// isAlias reports whether a named definition is a plain alias of a non-structured type
// (a string enumeration, an array, a typed map). Aliases are inlined at each reference
// because they have no fields to declare.
func isAlias(def *document.Node) bool {
	if def.Has("properties") || def.Has("$ref") {
		return false
	}
	switch def.Get("type").Str() {
	case "string", "integer", "number", "boolean", "array":
		return true
	case "object":
		return def.Get("additionalProperties").IsObject()
	}
	return false
}

// definitionName strips the local definition prefix from a $ref
func definitionName(ref string) (string, bool) {
	for _, prefix := range definitionPrefixes {
		if name, ok := strings.CutPrefix(ref, prefix); ok && name != "" {
			return name, true
		}
	}
	return "", false
}

func (n *normalizer) unrepresentable(node *document.Node, detail string) error {
	e := &ir.Error{Kind: ir.ErrUnrepresentableType, Document: n.apiID, Detail: detail}
	if node != nil {
		e.Pointer = node.Pointer
	}
	return e
}

func (n *normalizer) locate(err error, node *document.Node) error {
	var e *ir.Error
	if errors.As(err, &e) {
		if e.Document == "" {
			e.Document = n.apiID
		}
		if e.Pointer == "" {
			e.Pointer = node.Pointer
		}
	}
	return err
}

func (n *normalizer) inDefinition(err error, owner string) error {
	var e *ir.Error
	if errors.As(err, &e) && e.Definition == "" {
		e.Definition = owner
	}
	return err
}
