// Package openapi checks API description documents for structural validity before they
// are normalized. Swagger 2 documents are converted to OpenAPI 3 and validated there.
package openapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"

	"github.com/sdkforge/sdk-gen/pkg/document"
)

var errUnknownVersion = errors.New("document declares neither swagger nor openapi version")

// LoadDocument loads a document from a local file path or an HTTP(S) URL and returns it
// as OpenAPI 3, converting Swagger 2 input
func LoadDocument(ctx context.Context, input string) (*openapi3.T, error) {
	data, err := document.ReadSource(ctx, input)
	if err != nil {
		return nil, err
	}
	return LoadDocumentFromData(data)
}

// LoadDocumentFromData parses JSON or YAML bytes into an OpenAPI 3 document
func LoadDocumentFromData(data []byte) (*openapi3.T, error) {
	root, err := document.Parse(data)
	if err != nil {
		return nil, err
	}
	// the document tree accepts both encodings; kin-openapi takes JSON
	raw, err := json.Marshal(root.Interface())
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	switch {
	case root.Get("swagger").IsString():
		var doc2 openapi2.T
		if err := json.Unmarshal(raw, &doc2); err != nil {
			return nil, fmt.Errorf("swagger2: decode failed: %w", err)
		}
		v3, err := openapi2conv.ToV3(&doc2)
		if err != nil {
			return nil, fmt.Errorf("swagger2: convert to v3 failed: %w", err)
		}
		return v3, nil
	case root.Get("openapi").IsString():
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(raw)
		if err != nil {
			return nil, fmt.Errorf("openapi3: %w", err)
		}
		return doc, nil
	}
	return nil, errUnknownVersion
}

// ValidateDocument validates a document from a local file path or an HTTP(S) URL
func ValidateDocument(ctx context.Context, input string) error {
	doc, err := LoadDocument(ctx, input)
	if err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	return nil
}
