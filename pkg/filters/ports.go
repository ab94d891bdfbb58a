package filters

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chicogong/ffgraph/pkg/schemas"
)

// PortSpec is the typing of a filter's inputs or outputs: either a static
// positional list of media types or dynamic (unchecked).
type PortSpec struct {
	Dynamic bool
	Ports   []schemas.MediaType
}

// Static returns a static typing with the given ports
func Static(ports ...schemas.MediaType) PortSpec {
	return PortSpec{Ports: ports}
}

// Dynamic returns the unchecked typing
func Dynamic() PortSpec {
	return PortSpec{Dynamic: true}
}

// Repeat returns a static typing of n ports of type t
func Repeat(t schemas.MediaType, n int) PortSpec {
	ports := make([]schemas.MediaType, n)
	for i := range ports {
		ports[i] = t
	}
	return PortSpec{Ports: ports}
}

// Len returns the number of static ports, or -1 when dynamic
func (p PortSpec) Len() int {
	if p.Dynamic {
		return -1
	}
	return len(p.Ports)
}

// Port returns the media type of port i, or "" when unknown
func (p PortSpec) Port(i int) schemas.MediaType {
	if p.Dynamic || i < 0 || i >= len(p.Ports) {
		return ""
	}
	return p.Ports[i]
}

func (p PortSpec) String() string {
	if p.Dynamic {
		return "dynamic"
	}
	parts := make([]string, len(p.Ports))
	for i, t := range p.Ports {
		parts[i] = string(t)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Equal compares two typings
func (p PortSpec) Equal(o PortSpec) bool {
	if p.Dynamic != o.Dynamic || len(p.Ports) != len(o.Ports) {
		return false
	}
	for i := range p.Ports {
		if p.Ports[i] != o.Ports[i] {
			return false
		}
	}
	return true
}

// UnmarshalYAML accepts "dynamic" or a sequence of media types
func (p *PortSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value != "dynamic" {
			return fmt.Errorf("line %d: port typing must be 'dynamic' or a list", node.Line)
		}
		*p = Dynamic()
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		return p.fromNames(names)
	default:
		return fmt.Errorf("line %d: port typing must be 'dynamic' or a list", node.Line)
	}
}

// UnmarshalJSON accepts "dynamic" or an array of media types
func (p *PortSpec) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s != "dynamic" {
			return fmt.Errorf("port typing must be 'dynamic' or a list")
		}
		*p = Dynamic()
		return nil
	}

	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return fmt.Errorf("port typing must be 'dynamic' or a list: %w", err)
	}
	return p.fromNames(names)
}

// MarshalJSON writes "dynamic" or an array of media types
func (p PortSpec) MarshalJSON() ([]byte, error) {
	if p.Dynamic {
		return json.Marshal("dynamic")
	}
	if p.Ports == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.Ports)
}

func (p *PortSpec) fromNames(names []string) error {
	ports := make([]schemas.MediaType, 0, len(names))
	for _, name := range names {
		t, err := schemas.ParseMediaType(name)
		if err != nil {
			return err
		}
		ports = append(ports, t)
	}
	*p = PortSpec{Ports: ports}
	return nil
}
