package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/chicogong/ffgraph/pkg/schemas"
)

// Tags used in serialized graphs
const (
	kindTag     = "__kind__"
	idTag       = "__id__"
	tagStream   = "Stream"
	tagNodeRef  = "NodeRef"
	tagTyping   = "PortTyping"
	tagMedia    = "MediaType"
	tagFloat    = "Float"
	nanSentinel = "NaN"
	posInf      = "Infinity"
	negInf      = "-Infinity"
)

// Marshal serializes the graph rooted at root.
//
// Every node becomes a tagged object {"__kind__": ..., "__id__": n, ...}
// nested through its input streams. A node reached a second time is written
// as {"__kind__": "NodeRef", "id": n}, which keeps shared sub-pipelines from
// being repeated.
func Marshal(root Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the serialized graph to w
func Encode(w io.Writer, root Node) error {
	var buf bytes.Buffer
	if err := encode(&buf, root); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

type encTask struct {
	lit    string
	node   Node
	stream Stream
	isStrm bool
}

// encode walks the graph with an explicit task stack so chain length does
// not grow the call stack
func encode(buf *bytes.Buffer, root Node) error {
	if root == nil {
		return fmt.Errorf("cannot serialize a nil graph")
	}

	ids := make(map[Hash]int)
	stack := []encTask{{node: root}}

	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch {
		case t.lit != "":
			buf.WriteString(t.lit)

		case t.isStrm:
			buf.WriteString(`{"__kind__":"Stream","index":`)
			buf.WriteString(strconv.Itoa(t.stream.index))
			if t.stream.selector != "" {
				buf.WriteString(`,"selector":`)
				writeMediaType(buf, t.stream.selector)
			}
			buf.WriteString(`,"node":`)
			stack = append(stack, encTask{lit: "}"}, encTask{node: t.stream.node})

		default:
			h := t.node.Hash()
			if id, ok := ids[h]; ok {
				fmt.Fprintf(buf, `{"__kind__":"NodeRef","id":%d}`, id)
				continue
			}
			id := len(ids)
			ids[h] = id

			fmt.Fprintf(buf, `{"__kind__":%q,"__id__":%d`, string(t.node.Kind()), id)
			var inputs []Stream
			switch n := t.node.(type) {
			case *InputNode:
				buf.WriteString(`,"filename":`)
				if err := writeString(buf, n.filename); err != nil {
					return err
				}
				buf.WriteString(`,"options":`)
				if err := writeOptions(buf, n.options); err != nil {
					return err
				}
				buf.WriteString("}")
				continue

			case *FilterNode:
				buf.WriteString(`,"name":`)
				if err := writeString(buf, n.name); err != nil {
					return err
				}
				buf.WriteString(`,"options":`)
				if err := writeOptions(buf, n.options); err != nil {
					return err
				}
				buf.WriteString(`,"input_typing":`)
				writeTyping(buf, n.inTyping)
				buf.WriteString(`,"output_typing":`)
				writeTyping(buf, n.outTyping)
				inputs = n.inputs

			case *OutputNode:
				buf.WriteString(`,"filename":`)
				if err := writeString(buf, n.filename); err != nil {
					return err
				}
				buf.WriteString(`,"options":`)
				if err := writeOptions(buf, n.options); err != nil {
					return err
				}
				inputs = n.inputs

			case *GlobalNode:
				buf.WriteString(`,"op":`)
				if err := writeString(buf, n.op); err != nil {
					return err
				}
				buf.WriteString(`,"args":[`)
				for i, a := range n.args {
					if i > 0 {
						buf.WriteByte(',')
					}
					if err := writeString(buf, a); err != nil {
						return err
					}
				}
				buf.WriteString(`],"options":`)
				if err := writeOptions(buf, n.options); err != nil {
					return err
				}
				buf.WriteString(`,"input":`)
				stack = append(stack, encTask{lit: "}"}, encTask{stream: n.input, isStrm: true})
				continue

			case *MergeNode:
				inputs = n.inputs
			}

			buf.WriteString(`,"inputs":[`)
			stack = append(stack, encTask{lit: "]}"})
			for i := len(inputs) - 1; i >= 0; i-- {
				stack = append(stack, encTask{stream: inputs[i], isStrm: true})
				if i > 0 {
					stack = append(stack, encTask{lit: ","})
				}
			}
		}
	}
	return nil
}

// writeString fails on invalid UTF-8, which encoding/json would silently
// replace with U+FFFD
func writeString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("string %q is not valid UTF-8", s)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func writeMediaType(buf *bytes.Buffer, t schemas.MediaType) {
	fmt.Fprintf(buf, `{"__kind__":"MediaType","name":%q,"value":%q}`, t.EnumName(), string(t))
}

func writeTyping(buf *bytes.Buffer, t Typing) {
	if t.Dynamic {
		buf.WriteString(`{"__kind__":"PortTyping","dynamic":true}`)
		return
	}
	buf.WriteString(`{"__kind__":"PortTyping","ports":[`)
	for i, p := range t.Ports {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeMediaType(buf, p)
	}
	buf.WriteString("]}")
}

func writeOptions(buf *bytes.Buffer, opts Options) error {
	buf.WriteByte('{')
	for i, kv := range opts {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, kv.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, kv.Value); err != nil {
			return fmt.Errorf("option '%s': %w", kv.Key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeValue keeps floats distinguishable from integers on the way back
// and writes non-finite floats as tagged sentinels
func writeValue(buf *bytes.Buffer, v interface{}) error {
	switch x := v.(type) {
	case string:
		if err := writeString(buf, x); err != nil {
			return err
		}
	case bool:
		buf.WriteString(strconv.FormatBool(x))
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case float64:
		switch {
		case math.IsNaN(x):
			fmt.Fprintf(buf, `{"__kind__":"Float","value":%q}`, nanSentinel)
		case math.IsInf(x, 1):
			fmt.Fprintf(buf, `{"__kind__":"Float","value":%q}`, posInf)
		case math.IsInf(x, -1):
			fmt.Fprintf(buf, `{"__kind__":"Float","value":%q}`, negInf)
		default:
			s := strconv.FormatFloat(x, 'g', -1, 64)
			if !strings.ContainsAny(s, ".e") {
				s += ".0"
			}
			buf.WriteString(s)
		}
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}
