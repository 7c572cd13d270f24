// Package typing resolves IR type nodes to target-language representations.
//
// A backend supplies an ordered Chain of Matchers. Resolution picks the first matcher
// whose Match accepts a node, so specific matchers must come before general ones.
// Matchers never mutate the IR.
package typing

import (
	"errors"
	"fmt"

	"github.com/sdkforge/sdk-gen/pkg/ir"
)

// Matcher handles one family of type nodes for a target language
type Matcher interface {
	// Name identifies the matcher in diagnostics and precedence tests
	Name() string
	// Match reports whether this matcher represents t
	Match(t ir.TypeNode) bool
	// TypeName returns the target type name of t, nullability included
	TypeName(c *Context, t ir.TypeNode) (string, error)
}

// StructEmitter is implemented by matchers whose nodes need a standalone declaration
type StructEmitter interface {
	EmitStructure(c *Context, def *ir.DefinitionSpec) (string, error)
}

// QueryEncoder is implemented by matchers whose values may travel in a URL. ok is false
// when the node cannot be a query or path parameter.
type QueryEncoder interface {
	EncodeQuery(c *Context, expr string, t ir.TypeNode) (code string, ok bool)
}

// Codec is implemented by matchers for targets that convert wire values explicitly
type Codec interface {
	Serialize(c *Context, expr string, t ir.TypeNode) (string, error)
	Deserialize(c *Context, expr string, t ir.TypeNode) (string, error)
}

// Chain is an ordered list of matchers
type Chain struct {
	matchers []Matcher
}

// NewChain builds a chain that tries matchers in the given order
func NewChain(matchers ...Matcher) *Chain {
	return &Chain{matchers: matchers}
}

// Matchers returns the chain in resolution order
func (ch *Chain) Matchers() []Matcher {
	return ch.matchers
}

// Resolve returns the first matcher accepting t
func (ch *Chain) Resolve(t ir.TypeNode) (Matcher, error) {
	for _, m := range ch.matchers {
		if m.Match(t) {
			return m, nil
		}
	}
	return nil, &ir.Error{Kind: ir.ErrNoMatchingTypeHandler, Detail: fmt.Sprintf("no matcher accepts %s", ir.TypeString(t))}
}

// Candidates lists every matcher that accepts t, in chain order
func (ch *Chain) Candidates(t ir.TypeNode) []Matcher {
	var out []Matcher
	for _, m := range ch.matchers {
		if m.Match(t) {
			out = append(out, m)
		}
	}
	return out
}

// Index returns the position of the matcher called name, or -1
func (ch *Chain) Index(name string) int {
	for i, m := range ch.matchers {
		if m.Name() == name {
			return i
		}
	}
	return -1
}

// Lookup finds a definition by id
type Lookup func(id ir.DefinitionID) (*ir.DefinitionSpec, bool)

// Context is what matchers see while resolving: the chain itself (for element and value
// types), the definitions of the run and the namespace code is being emitted into.
type Context struct {
	Chain *Chain
	// Namespace is the namespace of the file being rendered; references into it are
	// emitted unqualified
	Namespace       string
	SharedNamespace string
	definitions     Lookup
}

// NewContext creates a resolution context over the definitions of in
func NewContext(chain *Chain, in *ir.IR) *Context {
	return &Context{Chain: chain, SharedNamespace: in.SharedNamespace, definitions: in.Lookup}
}

// In returns a copy of c for rendering code inside namespace
func (c *Context) In(namespace string) *Context {
	cp := *c
	cp.Namespace = namespace
	return &cp
}

// Definition looks up a referenced definition
func (c *Context) Definition(id ir.DefinitionID) (*ir.DefinitionSpec, bool) {
	if c.definitions == nil {
		return nil, false
	}
	return c.definitions(id)
}

// TypeName resolves t and returns its type name
func (c *Context) TypeName(t ir.TypeNode) (string, error) {
	m, err := c.Chain.Resolve(t)
	if err != nil {
		return "", err
	}
	return m.TypeName(c, t)
}

// EmitStructure returns the declaration of def, emitted by the matcher that handles
// references to it. ok is false when that matcher declares nothing.
func (c *Context) EmitStructure(def *ir.DefinitionSpec) (code string, ok bool, err error) {
	m, err := c.Chain.Resolve(ir.Object{Ref: def.ID})
	if err != nil {
		return "", false, err
	}
	emitter, isEmitter := m.(StructEmitter)
	if !isEmitter {
		return "", false, nil
	}
	code, err = emitter.EmitStructure(c, def)
	return code, err == nil, err
}

// EncodeQuery returns the code that turns expr of type t into URL text. ok is false
// when t cannot be encoded positionally.
func (c *Context) EncodeQuery(expr string, t ir.TypeNode) (string, bool, error) {
	m, err := c.Chain.Resolve(t)
	if err != nil {
		return "", false, err
	}
	encoder, isEncoder := m.(QueryEncoder)
	if !isEncoder {
		return "", false, nil
	}
	code, ok := encoder.EncodeQuery(c, expr, t)
	return code, ok, nil
}

// Serialize returns the code converting expr to its wire form, or expr unchanged when
// the resolving matcher has no codec
func (c *Context) Serialize(expr string, t ir.TypeNode) (string, error) {
	m, err := c.Chain.Resolve(t)
	if err != nil {
		return "", err
	}
	if codec, ok := m.(Codec); ok {
		return codec.Serialize(c, expr, t)
	}
	return expr, nil
}

// Deserialize returns the code converting wire value expr into t, or expr unchanged when
// the resolving matcher has no codec
func (c *Context) Deserialize(expr string, t ir.TypeNode) (string, error) {
	m, err := c.Chain.Resolve(t)
	if err != nil {
		return "", err
	}
	if codec, ok := m.(Codec); ok {
		return codec.Deserialize(c, expr, t)
	}
	return expr, nil
}

// Qualify returns the name of id as seen from the current namespace
func (c *Context) Qualify(id ir.DefinitionID, sep string) string {
	if id.Namespace == "" || id.Namespace == c.Namespace {
		return id.Name
	}
	return id.Namespace + sep + id.Name
}

// Check resolves every type reachable from in, failing on the first node no matcher
// accepts. Backends call it before rendering so nothing is emitted for an IR they
// cannot represent.
func Check(c *Context, in *ir.IR) error {
	check := func(t ir.TypeNode, where ir.Error) error {
		if t == nil {
			return nil
		}
		if _, err := c.TypeName(t); err != nil {
			var e *ir.Error
			if !errors.As(err, &e) {
				return err
			}
			where.Kind = e.Kind
			where.Detail = e.Detail
			return &where
		}
		return nil
	}
	if in.SystemError != nil {
		for _, p := range in.SystemError.Properties {
			if err := check(p.Type, ir.Error{Definition: in.SystemError.ID.String()}); err != nil {
				return err
			}
		}
	}
	for _, api := range in.APIs {
		for def := range api.Definitions.Values() {
			for _, p := range def.Properties {
				if err := check(p.Type, ir.Error{Document: api.APIID, Definition: def.ID.String()}); err != nil {
					return err
				}
			}
		}
		for _, op := range api.Operations {
			where := ir.Error{Document: api.APIID, Operation: op.ImplementationName}
			for _, p := range op.Parameters {
				if err := check(p.Type, where); err != nil {
					return err
				}
			}
			if err := check(op.Response, where); err != nil {
				return err
			}
			for _, m := range append(append([]ir.ProtocolMessage{}, op.RequestMessages...), op.ResponseMessages...) {
				if err := check(m.Type, where); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
