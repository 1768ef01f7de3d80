package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/mockgraph/internal/resolve"
)

// Policy runs a Risor script once per output-bound candidate. The script
// sees the globals name, module, kind, attributes and is_nested; the
// truthiness of its result decides whether the candidate stays slated for
// output. Policy satisfies resolve.Policy and is safe for concurrent use.
type Policy struct {
	rt     *Runtime
	source string
	label  string
}

var _ resolve.Policy = (*Policy)(nil)

// NewPolicy loads the script at path through rt.
func NewPolicy(rt *Runtime, path string) (*Policy, error) {
	src, err := rt.LoadScript(path)
	if err != nil {
		return nil, err
	}
	return &Policy{rt: rt, source: src, label: path}, nil
}

// NewPolicySource wraps inline script source.
func NewPolicySource(rt *Runtime, source string) *Policy {
	return &Policy{rt: rt, source: source, label: "<inline>"}
}

// Allow evaluates the script for c.
func (p *Policy) Allow(ctx context.Context, c resolve.Candidate) (bool, error) {
	result, err := p.rt.eval(ctx, p.source, p.label, candidateGlobals(c))
	if err != nil {
		return false, err
	}
	if errObj, ok := result.(*object.Error); ok {
		return false, fmt.Errorf("runtime: script %s: %s", p.label, errObj.Inspect())
	}
	return result != nil && result.IsTruthy(), nil
}

func candidateGlobals(c resolve.Candidate) map[string]any {
	return map[string]any{
		"name":       object.NewString(c.Name),
		"module":     object.NewString(c.Module),
		"kind":       object.NewString(c.Kind),
		"attributes": stringList(c.Attributes),
		"is_nested":  object.NewBool(c.IsNested),
	}
}
