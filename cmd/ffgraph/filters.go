package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/chicogong/ffgraph/pkg/filters"
)

type filtersCmd struct {
	Category string `arg:"--category" help:"only list this category"`
	JSON     bool   `arg:"--json" help:"print descriptors as JSON"`
}

type filterEntry struct {
	Name        string                        `json:"name"`
	Category    filters.Category              `json:"category"`
	Description string                        `json:"description,omitempty"`
	Inputs      filters.PortSpec              `json:"inputs"`
	Outputs     filters.PortSpec              `json:"outputs"`
	Parameters  []filters.ParameterDescriptor `json:"parameters,omitempty"`
}

func (x *app) filters(c *filtersCmd) error {
	reg := filters.GlobalRegistry()
	descs := reg.List()
	if c.Category != "" {
		descs = reg.ListByCategory(filters.Category(c.Category))
	}

	if c.JSON {
		entries := make([]filterEntry, len(descs))
		for i, d := range descs {
			entries[i] = filterEntry{d.Name, d.Category, d.Description, d.Inputs, d.Outputs, d.Parameters}
		}
		enc := json.NewEncoder(x.out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	tw := tabwriter.NewWriter(x.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tINPUTS\tOUTPUTS\tDESCRIPTION")
	for _, d := range descs {
		in, out := d.Inputs.String(), d.Outputs.String()
		if d.Resolve != nil {
			in, out = in+"*", out+"*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Name, d.Category, in, out, d.Description)
	}
	return tw.Flush()
}
