package resolve

import (
	"fmt"
	"sort"
)

// Order returns the descriptors sorted by identity key. Types that are not
// slated for output may share a name-only identity; those ties break on the
// fully-qualified name. Two output-bound types with the same identity are an
// error. The input slice is not modified.
func Order(types []*MockableType) ([]*MockableType, error) {
	out := append([]*MockableType(nil), types...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].identity != out[j].identity {
			return out[i].identity < out[j].identity
		}
		return out[i].FullyQualifiedName < out[j].FullyQualifiedName
	})
	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], out[i]
		if prev.identity == cur.identity && prev.ShouldMock && cur.ShouldMock {
			return nil, fmt.Errorf("resolve: %s and %s share identity %q: %w",
				prev.FullyQualifiedName, cur.FullyQualifiedName, cur.identity, ErrDuplicateIdentity)
		}
	}
	return out, nil
}
