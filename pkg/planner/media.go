package planner

import (
	"fmt"

	"github.com/chicogong/ffgraph/pkg/schemas"
)

// checkMedia verifies that input id carries a stream of type want. Inputs
// without probe results are not checked.
func (p *Planner) checkMedia(id string, want schemas.MediaType) error {
	if want == "" {
		return nil
	}
	info, ok := p.media[id]
	if !ok || info == nil {
		return nil
	}
	if !info.HasStream(want) {
		return fmt.Errorf("input '%s' has no %s stream", id, want)
	}
	return nil
}
