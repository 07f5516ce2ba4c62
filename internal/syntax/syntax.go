// Package syntax checks source files against the full grammar of their language.
package syntax

import (
	"context"
	"errors"
	"fmt"

	"github.com/steveyegge/resonator/internal/lang"
)

var (
	// ErrUnsupported is returned for languages without a parser.
	ErrUnsupported = errors.New("no parser for language")

	// ErrParserUnavailable is returned when the parser for a supported
	// language is not compiled into this build.
	ErrParserUnavailable = errors.New("parser unavailable in this build")
)

// Error is the first syntax error found in a file.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Check parses src as language l. It returns a nil *Error for a well-formed
// file, the first syntax error otherwise, and a non-nil error only when the
// file could not be checked at all.
func Check(ctx context.Context, l lang.Language, path, src string) (*Error, error) {
	switch l {
	case lang.Go:
		return checkGo(path, src), nil
	case lang.Python:
		return checkPython(ctx, src)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
}
