package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Parse decodes a JSON or YAML document. Content starting with '{' or '[' is treated as
// JSON, everything else as YAML.
func Parse(data []byte) (*Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return ParseJSON(trimmed)
	}
	return ParseYAML(data)
}

// ParseJSON decodes a JSON document keeping object member order
func ParseJSON(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	root, err := parseJSONValue(dec, tok, "")
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("parse json: unexpected data after top-level value")
	}
	return root, nil
}

func parseJSONValue(dec *json.Decoder, tok json.Token, pointer string) (*Node, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return parseJSONObject(dec, pointer)
		case '[':
			return parseJSONArray(dec, pointer)
		}
		return nil, fmt.Errorf("unexpected delimiter %q at %q", v, pointer)
	case string:
		return &Node{Kind: String, Pointer: pointer, scalar: v}, nil
	case json.Number:
		return &Node{Kind: Number, Pointer: pointer, scalar: string(v)}, nil
	case float64:
		return &Node{Kind: Number, Pointer: pointer, scalar: strconv.FormatFloat(v, 'g', -1, 64)}, nil
	case bool:
		return &Node{Kind: Bool, Pointer: pointer, boolean: v}, nil
	case nil:
		return &Node{Kind: Null, Pointer: pointer}, nil
	}
	return nil, fmt.Errorf("unexpected token %v at %q", tok, pointer)
}

func parseJSONObject(dec *json.Decoder, pointer string) (*Node, error) {
	obj := newObject(pointer)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key at %q, got %v", pointer, tok)
		}
		valueTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		value, err := parseJSONValue(dec, valueTok, childPointer(pointer, key))
		if err != nil {
			return nil, err
		}
		obj.set(key, value)
	}
}

func parseJSONArray(dec *json.Decoder, pointer string) (*Node, error) {
	arr := &Node{Kind: Array, Pointer: pointer}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return arr, nil
		}
		item, err := parseJSONValue(dec, tok, childPointer(pointer, strconv.Itoa(len(arr.items))))
		if err != nil {
			return nil, err
		}
		arr.items = append(arr.items, item)
	}
}

// ParseYAML decodes a YAML document keeping mapping order
func ParseYAML(data []byte) (*Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if root.Kind == 0 {
		return nil, errors.New("parse yaml: empty document")
	}
	return fromYAML(&root, "")
}

func fromYAML(y *yaml.Node, pointer string) (*Node, error) {
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return &Node{Kind: Null, Pointer: pointer}, nil
		}
		return fromYAML(y.Content[0], pointer)
	case yaml.AliasNode:
		if y.Alias == nil {
			return nil, fmt.Errorf("parse yaml: dangling alias at %q", pointer)
		}
		return fromYAML(y.Alias, pointer)
	case yaml.MappingNode:
		obj := newObject(pointer)
		for i := 0; i+1 < len(y.Content); i += 2 {
			key := y.Content[i].Value
			value, err := fromYAML(y.Content[i+1], childPointer(pointer, key))
			if err != nil {
				return nil, err
			}
			obj.set(key, value)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := &Node{Kind: Array, Pointer: pointer}
		for i, c := range y.Content {
			item, err := fromYAML(c, childPointer(pointer, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			arr.items = append(arr.items, item)
		}
		return arr, nil
	case yaml.ScalarNode:
		switch y.ShortTag() {
		case "!!null":
			return &Node{Kind: Null, Pointer: pointer}, nil
		case "!!bool":
			var b bool
			if err := y.Decode(&b); err != nil {
				return nil, fmt.Errorf("parse yaml: %w", err)
			}
			return &Node{Kind: Bool, Pointer: pointer, boolean: b}, nil
		case "!!int", "!!float":
			return &Node{Kind: Number, Pointer: pointer, scalar: y.Value}, nil
		default:
			return &Node{Kind: String, Pointer: pointer, scalar: y.Value}, nil
		}
	}
	return nil, fmt.Errorf("parse yaml: unsupported node kind %d at %q", y.Kind, pointer)
}
