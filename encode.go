package opendata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EncodeJSON writes v as JSON followed by a newline. Object keys keep
// their source order. indent <= 0 writes compact output.
func EncodeJSON(w io.Writer, v Value, indent int) error {
	data, err := appendJSON(nil, v, "")
	if err != nil {
		return err
	}
	if indent > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", strings.Repeat(" ", indent)); err != nil {
			return &SerializationError{Msg: err.Error()}
		}
		data = buf.Bytes()
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// MarshalJSON encodes i as a JSON number.
func (i Int) MarshalJSON() ([]byte, error) { return appendJSON(nil, i, "") }

// MarshalJSON encodes f as a JSON number that keeps its fractional part.
func (f Float) MarshalJSON() ([]byte, error) { return appendJSON(nil, f, "") }

// MarshalJSON encodes s as a JSON string.
func (s Text) MarshalJSON() ([]byte, error) { return appendJSON(nil, s, "") }

// MarshalJSON encodes n as its dotted string form.
func (n Name) MarshalJSON() ([]byte, error) { return appendJSON(nil, n, "") }

// MarshalJSON encodes m as an object in insertion order.
func (m *Mapping) MarshalJSON() ([]byte, error) { return appendJSON(nil, m, "") }

// MarshalJSON encodes s as an array.
func (s Sequence) MarshalJSON() ([]byte, error) { return appendJSON(nil, s, "") }

// MarshalJSON encodes t as {"__type__", "__value__"} followed by its
// attached entries.
func (t *Tagged) MarshalJSON() ([]byte, error) { return appendJSON(nil, t, "") }

// MarshalJSON encodes d with its __type__ and __name__ markers first.
func (d *Document) MarshalJSON() ([]byte, error) { return appendJSON(nil, d, "") }

func appendJSON(buf []byte, v Value, path string) ([]byte, error) {
	switch val := v.(type) {
	case Int:
		return strconv.AppendInt(buf, int64(val), 10), nil
	case Float:
		s, err := formatFloat(float64(val))
		if err != nil {
			return nil, &SerializationError{Path: path, Msg: err.Error()}
		}
		return append(buf, s...), nil
	case Text:
		return appendJSONString(buf, string(val)), nil
	case Name:
		return appendJSONString(buf, val.String()), nil
	case Sequence:
		buf = append(buf, '[')
		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendJSON(buf, item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case *Mapping:
		if val == nil {
			return nil, &SerializationError{Path: path, Msg: "nil mapping"}
		}
		var err error
		buf = append(buf, '{')
		buf, err = appendJSONEntries(buf, val, path, true)
		if err != nil {
			return nil, err
		}
		return append(buf, '}'), nil
	case *Tagged:
		if val == nil {
			return nil, &SerializationError{Path: path, Msg: "nil tagged value"}
		}
		var err error
		buf = append(buf, '{')
		buf = appendJSONString(buf, TypeKey)
		buf = append(buf, ':')
		buf = appendJSONString(buf, val.Tag.String())
		buf = append(buf, ',')
		buf = appendJSONString(buf, ValueKey)
		buf = append(buf, ':')
		buf, err = appendJSON(buf, val.Value, joinPath(path, ValueKey))
		if err != nil {
			return nil, err
		}
		buf, err = appendJSONEntries(buf, val.attached, path, false)
		if err != nil {
			return nil, err
		}
		return append(buf, '}'), nil
	case *Document:
		if val == nil {
			return nil, &SerializationError{Path: path, Msg: "nil document"}
		}
		return appendJSON(buf, val.fields, path)
	default:
		return nil, &SerializationError{Path: path, Msg: fmt.Sprintf("unsupported value %T", v)}
	}
}

func appendJSONEntries(buf []byte, m *Mapping, path string, first bool) ([]byte, error) {
	var err error
	m.Range(func(k string, v Value) bool {
		if !first {
			buf = append(buf, ',')
		}
		first = false
		buf = appendJSONString(buf, k)
		buf = append(buf, ':')
		buf, err = appendJSON(buf, v, joinPath(path, k))
		return err == nil
	})
	return buf, err
}

// appendJSONString quotes s as a JSON string without HTML escaping.
// Printable ASCII without quotes or backslashes is copied as is.
func appendJSONString(buf []byte, s string) []byte {
	if isPlainJSON(s) {
		buf = append(buf, '"')
		buf = append(buf, s...)
		return append(buf, '"')
	}
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	// Encoding a string never fails.
	_ = enc.Encode(s)
	return append(buf, bytes.TrimRight(b.Bytes(), "\n")...)
}

func isPlainJSON(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c >= 0x7f || c == '"' || c == '\\' {
			return false
		}
	}
	return true
}

// formatFloat renders f so that integral values keep a fractional part
// (5.0, not 5) and very large or small values use exponent notation.
func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite float %v", f)
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64), nil
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// EncodeYAML writes v as a YAML document. Mapping keys keep their source
// order.
func EncodeYAML(w io.Writer, v Value, indent int) error {
	node, err := ToYAMLNode(v)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	if indent > 0 {
		enc.SetIndent(indent)
	}
	if err := enc.Encode(node); err != nil {
		return &SerializationError{Msg: err.Error()}
	}
	return enc.Close()
}

// ToYAMLNode converts v into an order-preserving yaml.Node tree with the
// same shape as the JSON encoding.
func ToYAMLNode(v Value) (*yaml.Node, error) {
	return yamlNode(v, "")
}

func yamlNode(v Value, path string) (*yaml.Node, error) {
	switch val := v.(type) {
	case Int:
		return scalarNode("!!int", strconv.FormatInt(int64(val), 10)), nil
	case Float:
		s, err := formatFloat(float64(val))
		if err != nil {
			return nil, &SerializationError{Path: path, Msg: err.Error()}
		}
		return scalarNode("!!float", s), nil
	case Text:
		return scalarNode("!!str", string(val)), nil
	case Name:
		return scalarNode("!!str", val.String()), nil
	case Sequence:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range val {
			child, err := yamlNode(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		if len(val) == 0 {
			node.Style = yaml.FlowStyle
		}
		return node, nil
	case *Mapping:
		if val == nil {
			return nil, &SerializationError{Path: path, Msg: "nil mapping"}
		}
		node := mappingNode()
		return node, appendYAMLEntries(node, val, path)
	case *Tagged:
		if val == nil {
			return nil, &SerializationError{Path: path, Msg: "nil tagged value"}
		}
		inner, err := yamlNode(val.Value, joinPath(path, ValueKey))
		if err != nil {
			return nil, err
		}
		node := mappingNode()
		node.Content = append(node.Content,
			scalarNode("!!str", TypeKey), scalarNode("!!str", val.Tag.String()),
			scalarNode("!!str", ValueKey), inner)
		return node, appendYAMLEntries(node, val.attached, path)
	case *Document:
		if val == nil {
			return nil, &SerializationError{Path: path, Msg: "nil document"}
		}
		return yamlNode(val.fields, path)
	default:
		return nil, &SerializationError{Path: path, Msg: fmt.Sprintf("unsupported value %T", v)}
	}
}

func appendYAMLEntries(node *yaml.Node, m *Mapping, path string) error {
	var err error
	m.Range(func(k string, v Value) bool {
		var child *yaml.Node
		child, err = yamlNode(v, joinPath(path, k))
		if err != nil {
			return false
		}
		node.Content = append(node.Content, scalarNode("!!str", k), child)
		return true
	})
	return err
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// Outline renders the shape of a value tree, one node per line, for
// diagnosing values that fail to serialize.
func Outline(v Value) string {
	var b strings.Builder
	outline(&b, v, 0)
	return b.String()
}

func outline(b *strings.Builder, v Value, depth int) {
	pad := strings.Repeat("  ", depth)
	switch val := v.(type) {
	case *Document:
		if val == nil {
			fmt.Fprintf(b, "%s<nil document>\n", pad)
			return
		}
		fmt.Fprintf(b, "%sDocument %s\n", pad, val.Name)
		outlineEntries(b, val.fields, depth+1)
	case *Mapping:
		if val == nil {
			fmt.Fprintf(b, "%s<nil mapping>\n", pad)
			return
		}
		fmt.Fprintf(b, "%sMapping(%d)\n", pad, val.Len())
		outlineEntries(b, val, depth+1)
	case *Tagged:
		if val == nil {
			fmt.Fprintf(b, "%s<nil tagged>\n", pad)
			return
		}
		fmt.Fprintf(b, "%sTagged %s\n", pad, val.Tag)
		outline(b, val.Value, depth+1)
		outlineEntries(b, val.attached, depth+1)
	case Sequence:
		fmt.Fprintf(b, "%sSequence(%d)\n", pad, len(val))
		for _, item := range val {
			outline(b, item, depth+1)
		}
	case Float:
		fmt.Fprintf(b, "%sFloat %v\n", pad, float64(val))
	case Int:
		fmt.Fprintf(b, "%sInt %d\n", pad, int64(val))
	case Text:
		fmt.Fprintf(b, "%sText %q\n", pad, string(val))
	case Name:
		fmt.Fprintf(b, "%sName %s\n", pad, val)
	default:
		fmt.Fprintf(b, "%s<%T>\n", pad, v)
	}
}

func outlineEntries(b *strings.Builder, m *Mapping, depth int) {
	m.Range(func(k string, v Value) bool {
		fmt.Fprintf(b, "%s%s:\n", strings.Repeat("  ", depth), k)
		outline(b, v, depth+1)
		return true
	})
}
