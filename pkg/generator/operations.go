package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sdkforge/sdk-gen/pkg/document"
	"github.com/sdkforge/sdk-gen/pkg/ir"
	"github.com/sdkforge/sdk-gen/pkg/utils"
)

const (
	clusterOnlyKeyType   = "__cluster_only__"
	octetStream          = "application/octet-stream"
	descriptionLimit     = 1000
	descriptionEllipsis  = "..."
	implementationJoiner = "_"
)

var httpVerbs = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true,
}

// lineBreaks collapses CRLF, CR and LF into single spaces
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// displayName derives a short label from an operation summary: line breaks become
// spaces, then the text is cut at the first "." and after that at the first double space.
func displayName(summary string) string {
	name := lineBreaks.Replace(summary)
	if i := strings.Index(name, "."); i != -1 {
		name = name[:i]
	}
	if i := strings.Index(name, "  "); i != -1 {
		name = name[:i]
	}
	return name
}

// descriptionLimited bounds a description to 1000 characters plus an ellipsis
func descriptionLimited(description string) string {
	runes := []rune(description)
	if len(runes) <= descriptionLimit {
		return description
	}
	return string(runes[:descriptionLimit]) + descriptionEllipsis
}

// isClusterOnly is true when the accepted key types are exactly the cluster-only sentinel
func isClusterOnly(keyTypes *document.Node) bool {
	return keyTypes.Len() == 1 && keyTypes.Index(0).IsString() && keyTypes.Index(0).Str() == clusterOnlyKeyType
}

// operationIdentities enforces run-wide uniqueness of implementation names
type operationIdentities map[string]string

func (ids operationIdentities) claim(implementationName, owner string) error {
	if prev, ok := ids[implementationName]; ok {
		return &ir.Error{
			Kind:      ir.ErrDuplicateOperationIdentity,
			Operation: owner,
			Detail:    fmt.Sprintf("implementation name %q is already used by %s", implementationName, prev),
		}
	}
	ids[implementationName] = owner
	return nil
}

// loadOperations converts every (path, verb) pair of the document into an OperationNode,
// in document order, and returns the tags in first-use order.
func (n *normalizer) loadOperations(ids operationIdentities) ([]*ir.OperationNode, []string, error) {
	basePath := n.doc.Get("basePath").Str()
	defaultConsumes := n.doc.Get("consumes")

	var ops []*ir.OperationNode
	var tags []string
	seenTags := make(map[string]bool)

	for _, path := range n.doc.Get("paths").Members() {
		shared := path.Value.Get("parameters")
		for _, verb := range path.Value.Members() {
			if !httpVerbs[strings.ToLower(verb.Key)] {
				continue
			}
			label := strings.ToUpper(verb.Key) + " " + path.Key
			op, err := n.loadOperation(basePath, path.Key, verb.Key, verb.Value, shared, defaultConsumes)
			if err != nil {
				return nil, nil, ir.Locate(err, n.apiID, label)
			}
			if err := ids.claim(op.ImplementationName, n.apiID+" "+label); err != nil {
				return nil, nil, ir.Locate(err, n.apiID, label)
			}
			if !seenTags[op.Tag] {
				seenTags[op.Tag] = true
				tags = append(tags, op.Tag)
			}
			ops = append(ops, op)
		}
	}
	return ops, tags, nil
}

func (n *normalizer) loadOperation(basePath, path, verb string, node, shared, defaultConsumes *document.Node) (*ir.OperationNode, error) {
	tags := node.Get("tags")
	if tags.Len() == 0 || !tags.Index(0).IsString() {
		return nil, &ir.Error{Kind: ir.ErrMissingTag, Pointer: node.Pointer, Detail: "every operation must declare at least one tag"}
	}
	tag := tags.Index(0).Str()

	operationID := node.Get("operationId").Str()
	summary := node.Get("summary").Str()
	description := node.Get("description").Str()
	limited := descriptionLimited(description)
	display := displayName(summary)

	op := &ir.OperationNode{
		APIID:                     n.apiID,
		BasePath:                  basePath,
		HTTPPath:                  path,
		HTTPMethod:                strings.ToLower(verb),
		OperationID:               operationID,
		Tag:                       tag,
		Summary:                   summary,
		Description:               description,
		DescriptionLimited:        limited,
		DescriptionLimitedEscaped: utils.EscapeDoubleQuoted(limited),
		DisplayName:               display,
		DisplayNameEscaped:        utils.EscapeDoubleQuoted(display),
		ImplementationName:        n.namespace + implementationJoiner + tag + implementationJoiner + operationID,
		IsClusterOnly:             isClusterOnly(node.Get("x-accepted-api-key-types")),
		IsWebSocket:               node.Get("x-websocket").Truthy(),
	}

	consumes := node.Get("consumes")
	if consumes == nil {
		consumes = defaultConsumes
	}
	op.IsFileUpload = consumes.Len() > 0 && consumes.Index(0).Str() == octetStream

	switch handling := node.Get("x-binary-response-handling").Str(); handling {
	case "":
	case string(ir.BinaryResponseRedirect), string(ir.BinaryResponseDirect):
		op.BinaryResponseHandling = ir.BinaryResponseHandling(handling)
	default:
		n.logger.Warn("ignoring unknown binary response handling",
			"api", n.apiID, "operation", op.ImplementationName, "value", handling)
	}

	prefix := utils.ToPascalCase(operationID)
	if prefix == "" {
		prefix = utils.ToPascalCase(tag + " " + verb + " " + path)
	}

	params, err := n.parameters(shared, node.Get("parameters"), prefix)
	if err != nil {
		return nil, err
	}
	op.Parameters = params

	if op.IsWebSocket {
		if op.RequestMessages, err = n.protocolMessages(node.Get("x-websocket-request-messages"), prefix); err != nil {
			return nil, err
		}
		if op.ResponseMessages, err = n.protocolMessages(node.Get("x-websocket-response-messages"), prefix); err != nil {
			return nil, err
		}
	}

	if success := node.Get("responses").Get("200"); success != nil {
		response, err := n.normalize(success, prefix+"Response", false)
		switch {
		case isBodyless(err, success):
			// a 200 without a recognizable body means the operation returns nothing
			n.logger.Debug("operation has no response value", "api", n.apiID, "operation", op.ImplementationName)
		case err != nil:
			return nil, err
		default:
			op.Response = response
		}
	}
	return op, nil
}

// parameters merges path-level and operation-level parameters, the operation winning
// on the same (name, in), and normalizes them in document order.
func (n *normalizer) parameters(shared, own *document.Node, prefix string) ([]ir.ParameterSpec, error) {
	var nodes []*document.Node
	index := make(map[string]int)
	add := func(list *document.Node) error {
		for _, raw := range list.Items() {
			p := raw
			if ref := raw.Get("$ref"); ref.IsString() {
				p = n.doc.Resolve(ref.Str())
				if p == nil {
					return &ir.Error{Kind: ir.ErrUnresolvedReference, Pointer: ref.Pointer, Detail: fmt.Sprintf("parameter %q is not declared", ref.Str())}
				}
			}
			key := p.Get("in").Str() + ":" + p.Get("name").Str()
			if i, ok := index[key]; ok {
				nodes[i] = p
				continue
			}
			index[key] = len(nodes)
			nodes = append(nodes, p)
		}
		return nil
	}
	if err := add(shared); err != nil {
		return nil, err
	}
	if err := add(own); err != nil {
		return nil, err
	}

	params := make([]ir.ParameterSpec, 0, len(nodes))
	for _, p := range nodes {
		param, err := n.parameter(p, prefix)
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	return params, nil
}

func (n *normalizer) parameter(p *document.Node, prefix string) (ir.ParameterSpec, error) {
	name := p.Get("name").Str()
	in := p.Get("in").Str()

	var loc ir.ParameterLocation
	switch in {
	case "query":
		loc = ir.InQuery
	case "path":
		loc = ir.InPath
	case "header":
		loc = ir.InHeader
	case "body", "formData":
		loc = ir.InBody
	default:
		return ir.ParameterSpec{}, &ir.Error{
			Kind:    ir.ErrUnrepresentableType,
			Pointer: p.Pointer,
			Detail:  fmt.Sprintf("parameter %q has unsupported location %q", name, in),
		}
	}

	required := p.Get("required").Truthy() || loc == ir.InPath
	t, err := n.normalize(p, prefix+utils.ToPascalCase(name), required)
	if err != nil {
		return ir.ParameterSpec{}, err
	}

	format := p.Get("format").Str()
	if format == "" {
		format = p.Get("schema").Get("format").Str()
	}
	if p.Get("type").Str() == "file" {
		format = "binary"
	}

	return ir.ParameterSpec{
		Name:        name,
		Location:    loc,
		Required:    required,
		Type:        t,
		Description: p.Get("description").Str(),
		Format:      format,
	}, nil
}

// protocolMessages normalizes a WebSocket message catalog. Entries are schemas carrying
// an extra protocolMessageId; failures are fatal.
func (n *normalizer) protocolMessages(list *document.Node, prefix string) ([]ir.ProtocolMessage, error) {
	var out []ir.ProtocolMessage
	for _, entry := range list.Items() {
		id := entry.Get("protocolMessageId").Str()
		t, err := n.normalize(entry, prefix+utils.NormalizeProtocolName(id), true)
		if err != nil {
			return nil, err
		}
		out = append(out, ir.ProtocolMessage{ID: id, Type: t})
	}
	return out, nil
}

// isBodyless reports whether err says the response entry itself, or its schema wrapper,
// has no recognizable shape. A failure further down the schema is a real error.
func isBodyless(err error, response *document.Node) bool {
	var e *ir.Error
	if !errors.As(err, &e) || e.Kind != ir.ErrUnrepresentableType {
		return false
	}
	if e.Pointer == response.Pointer {
		return true
	}
	schema := response.Get("schema")
	return schema != nil && e.Pointer == schema.Pointer
}
