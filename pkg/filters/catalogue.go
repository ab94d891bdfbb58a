package filters

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// catalogueFile is the on-disk catalogue layout. JSON files parse as well,
// JSON being a subset of YAML.
//
//	filters:
//	  - name: trim
//	    category: timeline
//	    inputs: [video]
//	    outputs: [video]
//	    options:
//	      - name: start_frame
//	        type: int
//	        validation: {min: 0}
type catalogueFile struct {
	Filters []catalogueEntry `yaml:"filters"`
}

type catalogueEntry struct {
	Name        string                `yaml:"name"`
	Category    Category              `yaml:"category"`
	Description string                `yaml:"description"`
	Inputs      *PortSpec             `yaml:"inputs"`
	Outputs     *PortSpec             `yaml:"outputs"`
	Options     []ParameterDescriptor `yaml:"options"`
}

var knownTypes = map[ParameterType]bool{
	TypeString: true, TypeInt: true, TypeFloat: true, TypeBool: true,
	TypeDuration: true, TypeTimecode: true, TypeResolution: true,
	TypeEnum: true, TypeExpression: true, TypeColor: true,
}

// LoadCatalogue parses a catalogue document produced by the upstream
// schema extractor. Entries without port typings are dynamic.
func LoadCatalogue(r io.Reader) ([]*Descriptor, error) {
	var file catalogueFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}

	var errs error
	seen := make(map[string]bool, len(file.Filters))
	descs := make([]*Descriptor, 0, len(file.Filters))
	for i, entry := range file.Filters {
		if entry.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("entry %d: name is required", i))
			continue
		}
		if seen[entry.Name] {
			errs = multierr.Append(errs, fmt.Errorf("entry %d: duplicate filter '%s'", i, entry.Name))
			continue
		}
		seen[entry.Name] = true

		for _, p := range entry.Options {
			if p.Type == "" {
				p.Type = TypeString
			}
			if !knownTypes[p.Type] {
				errs = multierr.Append(errs, fmt.Errorf("filter '%s': option '%s': unknown type '%s'", entry.Name, p.Name, p.Type))
			}
		}

		d := &Descriptor{
			Name:        entry.Name,
			Category:    entry.Category,
			Description: entry.Description,
			Parameters:  entry.Options,
			Inputs:      Dynamic(),
			Outputs:     Dynamic(),
		}
		if d.Category == "" {
			d.Category = CategoryAdvanced
		}
		for j := range d.Parameters {
			if d.Parameters[j].Type == "" {
				d.Parameters[j].Type = TypeString
			}
		}
		if entry.Inputs != nil {
			d.Inputs = *entry.Inputs
		}
		if entry.Outputs != nil {
			d.Outputs = *entry.Outputs
		}
		descs = append(descs, d)
	}

	if errs != nil {
		return nil, errs
	}
	return descs, nil
}
