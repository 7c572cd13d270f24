package generator

import (
	"strings"

	"github.com/sdkforge/sdk-gen/pkg/config"
	"github.com/sdkforge/sdk-gen/pkg/document"
)

// isolatedSuffix is appended to the root in isolated mode: "Sdk.Lobby" -> "SdkIsolated.Lobby"
const isolatedSuffix = "Isolated"

// NamespaceStyle is how a backend names the namespace of each API and the shared one.
// Both must be pure functions of their arguments.
type NamespaceStyle interface {
	Namespace(root, apiID, version string, doc *document.Node) string
	SharedNamespace(root string) string
}

// NamespaceResolver applies a backend's NamespaceStyle and, in isolated mode, rewrites the
// root prefix of every computed namespace. Isolation is applied once, after computation.
type NamespaceResolver struct {
	Root     string
	Isolated bool
	Style    NamespaceStyle
}

func (r NamespaceResolver) root() string {
	if r.Root == "" {
		return config.DefaultNamespaceRoot
	}
	return r.Root
}

// Namespace computes the namespace of one API document
func (r NamespaceResolver) Namespace(apiID, version string, doc *document.Node) string {
	return r.isolate(r.Style.Namespace(r.root(), apiID, version, doc))
}

// Shared computes the namespace holding run-wide code such as the system error
func (r NamespaceResolver) Shared() string {
	return r.isolate(r.Style.SharedNamespace(r.root()))
}

func (r NamespaceResolver) isolate(ns string) string {
	if !r.Isolated {
		return ns
	}
	root := r.root()
	if ns == root {
		return root + isolatedSuffix
	}
	if rest, ok := strings.CutPrefix(ns, root+"."); ok {
		return root + isolatedSuffix + "." + rest
	}
	return ns
}
