package flatdoc

import (
	"fmt"

	"github.com/theory/jsonpath"
)

// Select evaluates a JSONPath expression (RFC 9535) against the subtree at c
// and returns the matching values in the form produced by ToAny.
func (c Cursor) Select(expr string) ([]any, error) {
	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("flatdoc: invalid JSONPath %q: %w", expr, err)
	}
	return path.Select(c.ToAny()), nil
}

// Select evaluates a JSONPath expression against the whole document.
func (t *Tree) Select(expr string) ([]any, error) {
	return t.Sentinel().Select(expr)
}
