//go:build !cgo

package syntax

import "context"

// Python parsing needs tree-sitter, which needs cgo.
func checkPython(ctx context.Context, src string) (*Error, error) {
	return nil, ErrParserUnavailable
}
