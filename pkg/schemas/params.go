package schemas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Param is one keyword option of a filter, input or output
type Param struct {
	Key   string
	Value interface{}
}

// Params is an ordered list of keyword options.
//
// Values are scalars normalised to string, bool, int64 or float64.
// Keys are unique once normalised: the last write wins and the key keeps
// the position of its first occurrence.
type Params []Param

// Get returns the value stored under key
func (p Params) Get(key string) (interface{}, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Set returns a copy of p with key set to value
func (p Params) Set(key string, value interface{}) Params {
	out := make(Params, len(p), len(p)+1)
	copy(out, p)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Param{Key: key, Value: value})
}

// Keys returns the option keys in order
func (p Params) Keys() []string {
	keys := make([]string, len(p))
	for i, kv := range p {
		keys[i] = kv.Key
	}
	return keys
}

// Normalize converts every value to its canonical scalar type and collapses
// duplicate keys.
func (p Params) Normalize() (Params, error) {
	if len(p) == 0 {
		return nil, nil
	}

	out := make(Params, 0, len(p))
	pos := make(map[string]int, len(p))
	for _, kv := range p {
		if kv.Key == "" {
			return nil, fmt.Errorf("option key must not be empty")
		}
		v, err := NormalizeValue(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("option '%s': %w", kv.Key, err)
		}
		if i, ok := pos[kv.Key]; ok {
			out[i].Value = v
			continue
		}
		pos[kv.Key] = len(out)
		out = append(out, Param{Key: kv.Key, Value: v})
	}
	return out, nil
}

// NormalizeValue maps a Go scalar onto string, bool, int64 or float64
func NormalizeValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string, bool, int64, float64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", v)
		}
		return int64(v), nil
	case float32:
		return float64(v), nil
	case json.Number:
		return numberValue(string(v))
	case time.Duration:
		return v.Seconds(), nil
	case Duration:
		return v.Seconds(), nil
	default:
		return nil, fmt.Errorf("unsupported option value type %T", value)
	}
}

// FormatValue renders a normalised value the way ffmpeg expects it
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		switch {
		case math.IsNaN(v):
			return "nan"
		case math.IsInf(v, 1):
			return "inf"
		case math.IsInf(v, -1):
			return "-inf"
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// numberValue keeps integer literals as int64 and everything else as float64
func numberValue(s string) (interface{}, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

// MarshalJSON writes params as a JSON object in option order
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("option '%s': %w", kv.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat JSON object keeping key order
func (p *Params) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("params must be a JSON object")
	}

	var out Params
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)

		tok, err = dec.Token()
		if err != nil {
			return err
		}
		if _, ok := tok.(json.Delim); ok {
			return fmt.Errorf("option '%s': value must be a scalar", key)
		}
		if tok == nil {
			return fmt.Errorf("option '%s': value must not be null", key)
		}
		out = append(out, Param{Key: key, Value: tok})
	}

	normalized, err := out.Normalize()
	if err != nil {
		return err
	}
	*p = normalized
	return nil
}

// UnmarshalYAML reads a YAML mapping keeping key order
func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: params must be a mapping", node.Line)
	}

	out := make(Params, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		if valNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: option '%s' must be a scalar", valNode.Line, keyNode.Value)
		}
		var v interface{}
		if err := valNode.Decode(&v); err != nil {
			return err
		}
		if v == nil {
			return fmt.Errorf("line %d: option '%s' must not be null", valNode.Line, keyNode.Value)
		}
		out = append(out, Param{Key: keyNode.Value, Value: v})
	}

	normalized, err := out.Normalize()
	if err != nil {
		return err
	}
	*p = normalized
	return nil
}

// MarshalYAML writes params as an ordered mapping
func (p Params) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, kv := range p {
		var val yaml.Node
		if err := val.Encode(kv.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: kv.Key},
			&val,
		)
	}
	return node, nil
}
