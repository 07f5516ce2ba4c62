package syntax

import (
	"go/parser"
	"go/scanner"
	"go/token"
)

func checkGo(path, src string) *Error {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution)
	if err == nil {
		return nil
	}

	if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
		list.Sort()
		line := list[0].Pos.Line
		if line < 1 {
			line = 1
		}
		return &Error{Line: line, Message: list[0].Msg}
	}
	return &Error{Line: 1, Message: err.Error()}
}
