package persist

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned when YAML input is not a mapping document.
var ErrInvalidDocument = errors.New("persist: document is not a mapping")

const (
	tagInt    = "!!int"
	tagFloat  = "!!float"
	tagBool   = "!!bool"
	tagStr    = "!!str"
	tagBinary = "!!binary"
	tagMap    = "!!map"
	tagSeq    = "!!seq"
)

// MarshalYAML encodes a dictionary as a YAML mapping, preserving field order.
// Struct blobs are written as !!binary scalars.
func MarshalYAML(d *Dict) ([]byte, error) {
	return yaml.Marshal(dictNode(d))
}

// UnmarshalYAML decodes a YAML mapping document into a dictionary.
func UnmarshalYAML(data []byte) (*Dict, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("persist: decode yaml: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return NewDict(), nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, ErrInvalidDocument
	}
	return nodeDict(root)
}

func dictNode(d *Dict) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: tagMap}
	for _, k := range d.keys {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: k},
			valueNode(d.values[k]))
	}
	return n
}

func listNode(l *List) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: tagSeq}
	for _, v := range l.items {
		n.Content = append(n.Content, valueNode(v))
	}
	return n
}

func valueNode(v any) *yaml.Node {
	switch tv := v.(type) {
	case int64:
		return scalar(tagInt, strconv.FormatInt(tv, 10))
	case float64:
		return scalar(tagFloat, formatFloat(tv))
	case bool:
		return scalar(tagBool, strconv.FormatBool(tv))
	case string:
		return scalar(tagStr, tv)
	case blob:
		return scalar(tagBinary, base64.StdEncoding.EncodeToString(tv))
	case *Dict:
		return dictNode(tv)
	case *List:
		return listNode(tv)
	}
	panic(fmt.Sprintf("persist: unsupported value %T", v))
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// formatFloat keeps a decimal point so the scalar resolves back to !!float.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func parseFloat(s string) (float64, error) {
	switch strings.ToLower(s) {
	case ".nan":
		return math.NaN(), nil
	case ".inf", "+.inf":
		return math.Inf(1), nil
	case "-.inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}

func nodeDict(n *yaml.Node) (*Dict, error) {
	d := NewDict()
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		v, err := nodeValue(n.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		d.set(key, v)
	}
	return d, nil
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		return nodeDict(n)
	case yaml.SequenceNode:
		l := &List{}
		for i, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			l.items = append(l.items, v)
		}
		return l, nil
	case yaml.ScalarNode:
		return scalarValue(n)
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	}
	return nil, fmt.Errorf("persist: unsupported yaml node kind %d", n.Kind)
}

func scalarValue(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case tagInt:
		return strconv.ParseInt(n.Value, 0, 64)
	case tagFloat:
		return parseFloat(n.Value)
	case tagBool:
		return strconv.ParseBool(n.Value)
	case tagBinary:
		b, err := base64.StdEncoding.DecodeString(n.Value)
		if err != nil {
			return nil, fmt.Errorf("persist: binary scalar: %w", err)
		}
		return blob(b), nil
	}
	return n.Value, nil
}
