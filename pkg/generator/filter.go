package generator

import (
	"fmt"
	"regexp"

	"github.com/sdkforge/sdk-gen/pkg/config"
	"github.com/sdkforge/sdk-gen/pkg/ir"
)

// filterIR narrows an IR to what one client should see. Cluster-only operations are
// dropped unless the client asks for them; tag filters keep an operation when its tag
// matches any include pattern and no exclude pattern; tags left without operations are
// dropped. When tag filters are set, definitions no remaining operation reaches are
// dropped too. The input IR is not modified.
func filterIR(full *ir.IR, client config.Client) (*ir.IR, error) {
	include, exclude, err := compileTagFilters(client.IncludeTags, client.ExcludeTags)
	if err != nil {
		return nil, err
	}
	prune := len(include) > 0 || len(exclude) > 0

	out := &ir.IR{SystemError: full.SystemError, SharedNamespace: full.SharedNamespace}
	for _, api := range full.APIs {
		filtered := *api
		filtered.Operations = nil
		filtered.Tags = nil

		seenTags := make(map[string]bool)
		for _, op := range api.Operations {
			if op.IsClusterOnly && !client.IncludeClusterOnly {
				continue
			}
			if !shouldIncludeOperation(op.Tag, include, exclude) {
				continue
			}
			filtered.Operations = append(filtered.Operations, op)
			if !seenTags[op.Tag] {
				seenTags[op.Tag] = true
				filtered.Tags = append(filtered.Tags, op.Tag)
			}
		}

		if prune {
			filtered.Definitions = reachableDefinitions(full, api, filtered.Operations)
		}
		out.APIs = append(out.APIs, &filtered)
	}
	return out, nil
}

func compileTagFilters(include, exclude []string) ([]*regexp.Regexp, []*regexp.Regexp, error) {
	inc := make([]*regexp.Regexp, 0, len(include))
	for _, p := range include {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid includeTags pattern %q: %w", p, err)
		}
		inc = append(inc, r)
	}
	exc := make([]*regexp.Regexp, 0, len(exclude))
	for _, p := range exclude {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid excludeTags pattern %q: %w", p, err)
		}
		exc = append(exc, r)
	}
	return inc, exc, nil
}

func shouldIncludeOperation(tag string, include, exclude []*regexp.Regexp) bool {
	// If no include patterns, assume all tags are initially included
	included := len(include) == 0
	for _, r := range include {
		if r.MatchString(tag) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, r := range exclude {
		if r.MatchString(tag) {
			return false
		}
	}
	return true
}

// reachableDefinitions returns a registry with the definitions of api that ops reach,
// directly or through other definitions, in the original registration order
func reachableDefinitions(full *ir.IR, api *ir.ApiSpec, ops []*ir.OperationNode) *ir.DefinitionRegistry {
	reached := make(map[ir.DefinitionID]bool)
	var visit func(t ir.TypeNode)
	visit = func(t ir.TypeNode) {
		switch v := t.(type) {
		case ir.Array:
			visit(v.Element)
		case ir.Map:
			visit(v.Value)
		case ir.Object:
			if reached[v.Ref] {
				return
			}
			reached[v.Ref] = true
			if def, ok := full.Lookup(v.Ref); ok {
				for _, p := range def.Properties {
					visit(p.Type)
				}
			}
		}
	}
	if full.SystemError != nil {
		for _, p := range full.SystemError.Properties {
			visit(p.Type)
		}
	}
	for _, op := range ops {
		for _, p := range op.Parameters {
			visit(p.Type)
		}
		visit(op.Response)
		for _, m := range op.RequestMessages {
			visit(m.Type)
		}
		for _, m := range op.ResponseMessages {
			visit(m.Type)
		}
	}

	out := ir.NewDefinitionRegistry()
	for def := range api.Definitions.Values() {
		if reached[def.ID] {
			// definitions of a consistent registry cannot collide
			_, _ = out.RegisterSpec(def)
		}
	}
	return out
}
