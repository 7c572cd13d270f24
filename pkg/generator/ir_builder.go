package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sdkforge/sdk-gen/pkg/config"
	"github.com/sdkforge/sdk-gen/pkg/document"
	"github.com/sdkforge/sdk-gen/pkg/ir"
)

// Document is a loaded API description document
type Document struct {
	ID      string
	Version string
	// Name is the configured friendly name, may be empty
	Name   string
	Source string
	Root   *document.Node
}

// Key is the document key, "id" or "id:version"
func (d Document) Key() string {
	if d.Version == "" {
		return d.ID
	}
	return d.ID + ":" + d.Version
}

// FriendlyName is the configured name, else info.title, else the api id
func (d Document) FriendlyName() string {
	if d.Name != "" {
		return d.Name
	}
	if title := document.Title(d.Root); title != "" {
		return title
	}
	return d.ID
}

// LoadDocuments reads every configured document, in configuration order
func LoadDocuments(ctx context.Context, docs []config.Document, logger *slog.Logger) ([]Document, error) {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		root, err := document.Load(ctx, d.Path)
		if err != nil {
			return nil, fmt.Errorf("load document %s: %w", d.Key(), err)
		}
		logger.Info("document loaded", "id", d.ID, "version", d.Version, "path", d.Path)
		out = append(out, Document{ID: d.ID, Version: d.Version, Name: d.Name, Source: d.Path, Root: root})
	}
	return out, nil
}

// BuildOptions configures one IR build
type BuildOptions struct {
	Namespaces NamespaceResolver
	// SystemError is the definition name every document shares as its error shape
	SystemError string
	Logger      *slog.Logger
}

// BuildIR normalizes every document into one IR. Either all documents normalize or the
// first failure is returned; a partial IR is never produced.
func BuildIR(docs []Document, opts BuildOptions) (*ir.IR, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := opts.SystemError
	if name == "" {
		name = config.DefaultSystemError
	}

	shared := opts.Namespaces.Shared()
	slot := ir.NewSystemErrorSlot(shared, name)
	ids := make(operationIdentities)

	out := &ir.IR{SharedNamespace: shared}
	var dangling []*normalizer
	for _, doc := range docs {
		api, n, err := loadAPI(doc, opts.Namespaces, slot, ids, logger)
		if err != nil {
			return nil, err
		}
		if n.systemErrorRef != "" {
			dangling = append(dangling, n)
		}
		out.APIs = append(out.APIs, api)
	}

	if !slot.Defined() && len(dangling) > 0 {
		n := dangling[0]
		return nil, &ir.Error{
			Kind:       ir.ErrUnresolvedReference,
			Document:   n.apiID,
			Definition: name,
			Pointer:    n.systemErrorRef,
			Detail:     "system error definition is not declared by any document",
		}
	}
	out.SystemError = slot.Definition()
	return out, nil
}

// loadAPI normalizes one document: named definitions first in document order, then
// operations
func loadAPI(doc Document, namespaces NamespaceResolver, slot *ir.SystemErrorSlot, ids operationIdentities, logger *slog.Logger) (*ir.ApiSpec, *normalizer, error) {
	namespace := namespaces.Namespace(doc.ID, doc.Version, doc.Root)
	n := newNormalizer(doc.Key(), namespace, doc.Root, slot, logger)

	for _, def := range n.definitions().Members() {
		if _, err := n.ensureDefinition(def.Key, def.Value.Pointer, false); err != nil {
			return nil, nil, ir.Locate(err, doc.Key(), "")
		}
	}

	ops, tags, err := n.loadOperations(ids)
	if err != nil {
		return nil, nil, err
	}

	api := &ir.ApiSpec{
		APIID:        doc.ID,
		Version:      doc.Version,
		FriendlyName: doc.FriendlyName(),
		Namespace:    namespace,
		BasePath:     doc.Root.Get("basePath").Str(),
		Host:         doc.Root.Get("host").Str(),
		Definitions:  n.defs,
		Operations:   ops,
		Tags:         tags,
	}
	logger.Info("api normalized",
		"api", doc.Key(), "namespace", namespace,
		"definitions", api.Definitions.Len(), "operations", len(ops))
	return api, n, nil
}
