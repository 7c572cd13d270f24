// Package document holds API description documents as an order-preserving tree.
//
// Swagger-style documents are loosely typed and the order of their maps matters
// (property order drives emitted field order), so documents are never decoded into Go
// maps. Every node remembers its JSON pointer for diagnostics.
package document

import (
	"strconv"
	"strings"
)

// Kind identifies the JSON type of a Node
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Member is one key/value pair of an object node
type Member struct {
	Key   string
	Value *Node
}

// Node is a single value in a document. All accessors are nil-safe so lookups can be
// chained through optional fields: doc.Get("info").Get("title").Str().
type Node struct {
	Kind Kind
	// Pointer is the JSON pointer of this node from the document root ("" for the root)
	Pointer string

	scalar  string
	boolean bool
	items   []*Node
	members []Member
	index   map[string]int
}

func newObject(pointer string) *Node {
	return &Node{Kind: Object, Pointer: pointer, index: map[string]int{}}
}

func (n *Node) set(key string, value *Node) {
	if i, ok := n.index[key]; ok {
		n.members[i].Value = value
		return
	}
	n.index[key] = len(n.members)
	n.members = append(n.members, Member{Key: key, Value: value})
}

// Get returns the member named key of an object node, or nil
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != Object {
		return nil
	}
	if i, ok := n.index[key]; ok {
		return n.members[i].Value
	}
	return nil
}

// Has reports whether an object node declares key
func (n *Node) Has(key string) bool {
	return n.Get(key) != nil
}

// Index returns the i-th element of an array node, or nil
func (n *Node) Index(i int) *Node {
	if n == nil || n.Kind != Array || i < 0 || i >= len(n.items) {
		return nil
	}
	return n.items[i]
}

// Str returns the text of a string or number node and "" for anything else
func (n *Node) Str() string {
	if n == nil || (n.Kind != String && n.Kind != Number) {
		return ""
	}
	return n.scalar
}

// IsString reports whether n is a string node
func (n *Node) IsString() bool { return n != nil && n.Kind == String }

// IsObject reports whether n is an object node
func (n *Node) IsObject() bool { return n != nil && n.Kind == Object }

// IsArray reports whether n is an array node
func (n *Node) IsArray() bool { return n != nil && n.Kind == Array }

// Truthy is true only for a boolean node holding true
func (n *Node) Truthy() bool {
	return n != nil && n.Kind == Bool && n.boolean
}

// Items returns the elements of an array node
func (n *Node) Items() []*Node {
	if n == nil || n.Kind != Array {
		return nil
	}
	return n.items
}

// Members returns the members of an object node in document order
func (n *Node) Members() []Member {
	if n == nil || n.Kind != Object {
		return nil
	}
	return n.members
}

// Len is the number of elements or members; 0 for scalars
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case Array:
		return len(n.items)
	case Object:
		return len(n.members)
	}
	return 0
}

// Strings returns the string elements of an array node, skipping non-strings
func (n *Node) Strings() []string {
	var out []string
	for _, item := range n.Items() {
		if item.IsString() {
			out = append(out, item.scalar)
		}
	}
	return out
}

// Interface converts the node into plain Go values (map[string]any, []any, string,
// float64/int64, bool, nil). Ordering of object members is lost.
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case Bool:
		return n.boolean
	case Number:
		if i, err := strconv.ParseInt(n.scalar, 10, 64); err == nil {
			return i
		}
		f, _ := strconv.ParseFloat(n.scalar, 64)
		return f
	case String:
		return n.scalar
	case Array:
		out := make([]any, 0, len(n.items))
		for _, item := range n.items {
			out = append(out, item.Interface())
		}
		return out
	case Object:
		out := make(map[string]any, len(n.members))
		for _, m := range n.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	}
	return nil
}

// Resolve follows a local JSON pointer ("#/definitions/Foo" or "/definitions/Foo")
// from n and returns the target node, or nil.
func (n *Node) Resolve(pointer string) *Node {
	pointer = strings.TrimPrefix(pointer, "#")
	if pointer == "" {
		return n
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil
	}
	cur := n
	for _, token := range strings.Split(pointer[1:], "/") {
		token = unescapePointer(token)
		switch {
		case cur.IsObject():
			cur = cur.Get(token)
		case cur.IsArray():
			i, err := strconv.Atoi(token)
			if err != nil {
				return nil
			}
			cur = cur.Index(i)
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

func childPointer(parent, token string) string {
	return parent + "/" + pointerEscaper.Replace(token)
}

func unescapePointer(token string) string {
	return pointerUnescaper.Replace(token)
}
