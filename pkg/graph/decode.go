package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/chicogong/ffgraph/pkg/schemas"
)

// Unmarshal rebuilds a graph from Marshal output. The result is
// structurally equal to the serialized graph, and equal sub-pipelines
// decode to the same node value.
func Unmarshal(data []byte) (Node, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads one serialized graph from r
func Decode(r io.Reader) (Node, error) {
	doc, err := parseJSON(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}
	d := &decoder{
		ids:    make(map[int64]Node),
		intern: make(map[Hash]Node),
		done:   make(map[*jsonValue]Node),
	}
	return d.node(doc)
}

type jsonKind uint8

const (
	jsonObject jsonKind = iota
	jsonArray
	jsonString
	jsonNumber
	jsonBool
	jsonNull
)

// jsonValue is a generic JSON tree that keeps object key order
type jsonValue struct {
	kind jsonKind
	keys []string
	vals []*jsonValue
	str  string
	b    bool
}

func (v *jsonValue) field(name string) (*jsonValue, bool) {
	for i, k := range v.keys {
		if k == name {
			return v.vals[i], true
		}
	}
	return nil, false
}

// parseJSON builds the tree from the token stream with an explicit stack,
// so nesting depth is limited by memory only
func parseJSON(r io.Reader) (*jsonValue, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	type frame struct {
		v       *jsonValue
		key     string
		wantKey bool
	}
	var (
		stack []*frame
		root  *jsonValue
	)

	attach := func(v *jsonValue) {
		if len(stack) == 0 {
			root = v
			return
		}
		top := stack[len(stack)-1]
		if top.v.kind == jsonObject {
			top.v.keys = append(top.v.keys, top.key)
			top.wantKey = true
		}
		top.v.vals = append(top.v.vals, v)
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}

		if n := len(stack); n > 0 && stack[n-1].wantKey {
			if key, ok := tok.(string); ok {
				stack[n-1].key = key
				stack[n-1].wantKey = false
				continue
			}
		}

		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				v := &jsonValue{kind: jsonObject}
				attach(v)
				stack = append(stack, &frame{v: v, wantKey: true})
			case '[':
				v := &jsonValue{kind: jsonArray}
				attach(v)
				stack = append(stack, &frame{v: v})
			default:
				stack = stack[:len(stack)-1]
			}
		case string:
			attach(&jsonValue{kind: jsonString, str: t})
		case json.Number:
			attach(&jsonValue{kind: jsonNumber, str: string(t)})
		case bool:
			attach(&jsonValue{kind: jsonBool, b: t})
		case nil:
			attach(&jsonValue{kind: jsonNull})
		}

		if root != nil && len(stack) == 0 {
			return root, nil
		}
	}
}

type decoder struct {
	ids    map[int64]Node
	intern map[Hash]Node
	done   map[*jsonValue]Node
}

func kindOf(v *jsonValue) (string, error) {
	if v.kind != jsonObject {
		return "", fmt.Errorf("expected a tagged object")
	}
	tag, ok := v.field(kindTag)
	if !ok || tag.kind != jsonString {
		return "", &UnknownNodeKindError{Kind: ""}
	}
	return tag.str, nil
}

// node decodes the node tree rooted at root in post-order, inputs first
func (d *decoder) node(root *jsonValue) (Node, error) {
	stack := []*jsonValue{root}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		if _, ok := d.done[v]; ok {
			stack = stack[:len(stack)-1]
			continue
		}

		kind, err := kindOf(v)
		if err != nil {
			return nil, err
		}

		if kind == tagNodeRef {
			n, err := d.ref(v)
			if err != nil {
				return nil, err
			}
			d.done[v] = n
			stack = stack[:len(stack)-1]
			continue
		}

		children, err := d.children(v, Kind(kind))
		if err != nil {
			return nil, err
		}
		pending := false
		for i := len(children) - 1; i >= 0; i-- {
			if _, ok := d.done[children[i]]; !ok {
				stack = append(stack, children[i])
				pending = true
			}
		}
		if pending {
			continue
		}

		n, err := d.build(v, Kind(kind))
		if err != nil {
			return nil, err
		}
		if existing, ok := d.intern[n.Hash()]; ok {
			n = existing
		} else {
			d.intern[n.Hash()] = n
		}
		d.done[v] = n
		if idv, ok := v.field(idTag); ok {
			id, err := intField(idv)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", idTag, err)
			}
			d.ids[id] = n
		}
		stack = stack[:len(stack)-1]
	}
	return d.done[root], nil
}

func (d *decoder) ref(v *jsonValue) (Node, error) {
	idv, ok := v.field("id")
	if !ok {
		return nil, fmt.Errorf("NodeRef without id")
	}
	id, err := intField(idv)
	if err != nil {
		return nil, err
	}
	n, ok := d.ids[id]
	if !ok {
		return nil, fmt.Errorf("NodeRef to undefined node %d", id)
	}
	return n, nil
}

// children returns the node objects referenced by v's input streams
func (d *decoder) children(v *jsonValue, kind Kind) ([]*jsonValue, error) {
	streams, err := streamValues(v, kind)
	if err != nil {
		return nil, err
	}
	out := make([]*jsonValue, len(streams))
	for i, s := range streams {
		nv, ok := s.field("node")
		if !ok {
			return nil, fmt.Errorf("%s: stream %d has no node", kind, i)
		}
		out[i] = nv
	}
	return out, nil
}

func streamValues(v *jsonValue, kind Kind) ([]*jsonValue, error) {
	var raw []*jsonValue
	switch kind {
	case KindInput:
		return nil, nil
	case KindFilter, KindOutput, KindMerge:
		arr, ok := v.field("inputs")
		if !ok || arr.kind != jsonArray {
			return nil, fmt.Errorf("%s: missing inputs", kind)
		}
		raw = arr.vals
	case KindGlobal:
		s, ok := v.field("input")
		if !ok {
			return nil, fmt.Errorf("%s: missing input", kind)
		}
		raw = []*jsonValue{s}
	default:
		return nil, &UnknownNodeKindError{Kind: string(kind)}
	}

	for _, s := range raw {
		tag, err := kindOf(s)
		if err != nil {
			return nil, err
		}
		if tag != tagStream {
			return nil, &UnknownNodeKindError{Kind: tag}
		}
	}
	return raw, nil
}

func (d *decoder) build(v *jsonValue, kind Kind) (Node, error) {
	streamVals, err := streamValues(v, kind)
	if err != nil {
		return nil, err
	}
	streams := make([]Stream, len(streamVals))
	for i, sv := range streamVals {
		if streams[i], err = d.stream(sv); err != nil {
			return nil, err
		}
	}

	switch kind {
	case KindInput:
		filename, err := stringField(v, "filename")
		if err != nil {
			return nil, err
		}
		opts, err := optionsField(v)
		if err != nil {
			return nil, err
		}
		return Input(filename, opts...)

	case KindFilter:
		name, err := stringField(v, "name")
		if err != nil {
			return nil, err
		}
		opts, err := optionsField(v)
		if err != nil {
			return nil, err
		}
		in, err := typingField(v, "input_typing")
		if err != nil {
			return nil, err
		}
		out, err := typingField(v, "output_typing")
		if err != nil {
			return nil, err
		}
		return newFilter(name, opts, streams, in, out)

	case KindOutput:
		filename, err := stringField(v, "filename")
		if err != nil {
			return nil, err
		}
		opts, err := optionsField(v)
		if err != nil {
			return nil, err
		}
		return Output(filename, streams, opts...)

	case KindGlobal:
		op, err := stringField(v, "op")
		if err != nil {
			return nil, err
		}
		var args []string
		if av, ok := v.field("args"); ok && av.kind == jsonArray {
			for _, a := range av.vals {
				if a.kind != jsonString {
					return nil, fmt.Errorf("Global: args must be strings")
				}
				args = append(args, a.str)
			}
		}
		opts, err := optionsField(v)
		if err != nil {
			return nil, err
		}
		return Global(streams[0], op, args, opts...)

	case KindMerge:
		return Merge(streams...)
	}
	return nil, &UnknownNodeKindError{Kind: string(kind)}
}

func (d *decoder) stream(v *jsonValue) (Stream, error) {
	nv, _ := v.field("node")
	n, ok := d.done[nv]
	if !ok {
		return Stream{}, fmt.Errorf("stream references an undecoded node")
	}
	s := Stream{node: n}
	if iv, ok := v.field("index"); ok {
		idx, err := intField(iv)
		if err != nil {
			return Stream{}, fmt.Errorf("stream index: %w", err)
		}
		s.index = int(idx)
	}
	if sv, ok := v.field("selector"); ok && sv.kind != jsonNull {
		t, err := mediaType(sv)
		if err != nil {
			return Stream{}, err
		}
		s.selector = t
	}
	return s, nil
}

func stringField(v *jsonValue, name string) (string, error) {
	f, ok := v.field(name)
	if !ok || f.kind != jsonString {
		return "", fmt.Errorf("field '%s' must be a string", name)
	}
	return f.str, nil
}

func intField(v *jsonValue) (int64, error) {
	if v.kind != jsonNumber {
		return 0, fmt.Errorf("expected an integer")
	}
	n, err := schemas.NormalizeValue(json.Number(v.str))
	if err != nil {
		return 0, err
	}
	i, ok := n.(int64)
	if !ok {
		return 0, fmt.Errorf("expected an integer, got %s", v.str)
	}
	return i, nil
}

func optionsField(v *jsonValue) (Options, error) {
	ov, ok := v.field("options")
	if !ok || ov.kind == jsonNull {
		return nil, nil
	}
	if ov.kind != jsonObject {
		return nil, fmt.Errorf("options must be an object")
	}
	opts := make(Options, 0, len(ov.keys))
	for i, key := range ov.keys {
		val, err := scalar(ov.vals[i])
		if err != nil {
			return nil, fmt.Errorf("option '%s': %w", key, err)
		}
		opts = append(opts, Option{Key: key, Value: val})
	}
	return opts, nil
}

func scalar(v *jsonValue) (interface{}, error) {
	switch v.kind {
	case jsonString:
		return v.str, nil
	case jsonBool:
		return v.b, nil
	case jsonNumber:
		return schemas.NormalizeValue(json.Number(v.str))
	case jsonObject:
		tag, err := kindOf(v)
		if err != nil {
			return nil, err
		}
		if tag != tagFloat {
			return nil, &UnknownNodeKindError{Kind: tag}
		}
		s, err := stringField(v, "value")
		if err != nil {
			return nil, err
		}
		switch s {
		case nanSentinel:
			return math.NaN(), nil
		case posInf:
			return math.Inf(1), nil
		case negInf:
			return math.Inf(-1), nil
		}
		return nil, fmt.Errorf("unknown float sentinel %q", s)
	default:
		return nil, fmt.Errorf("option values must be scalars")
	}
}

func typingField(v *jsonValue, name string) (Typing, error) {
	tv, ok := v.field(name)
	if !ok {
		return Typing{Dynamic: true}, nil
	}
	tag, err := kindOf(tv)
	if err != nil {
		return Typing{}, err
	}
	if tag != tagTyping {
		return Typing{}, &UnknownNodeKindError{Kind: tag}
	}
	if dv, ok := tv.field("dynamic"); ok && dv.kind == jsonBool && dv.b {
		return Typing{Dynamic: true}, nil
	}
	pv, ok := tv.field("ports")
	if !ok || pv.kind != jsonArray {
		return Typing{}, fmt.Errorf("%s: ports must be a list", name)
	}
	ports := make([]schemas.MediaType, 0, len(pv.vals))
	for _, p := range pv.vals {
		t, err := mediaType(p)
		if err != nil {
			return Typing{}, err
		}
		ports = append(ports, t)
	}
	return Typing{Ports: ports}, nil
}

func mediaType(v *jsonValue) (schemas.MediaType, error) {
	tag, err := kindOf(v)
	if err != nil {
		return "", err
	}
	if tag != tagMedia {
		return "", &UnknownNodeKindError{Kind: tag}
	}
	name, err := stringField(v, "name")
	if err != nil {
		return "", err
	}
	t, err := schemas.MediaTypeFromEnumName(name)
	if err != nil {
		return "", err
	}
	if value, err := stringField(v, "value"); err == nil && value != string(t) {
		return "", fmt.Errorf("media type %s has mismatched value %q", name, value)
	}
	return t, nil
}
