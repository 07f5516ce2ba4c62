//go:build cgo

package syntax

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

func checkPython(ctx context.Context, src string) (*Error, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, []byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	c := &pythonChecker{lines: strings.Split(src, "\n")}
	return c.walk(tree.RootNode()), nil
}

// pythonChecker rejects what the tree-sitter grammar tolerates but the
// Python 3 compiler does not: error recovery, Python 2 statements, bodies
// that are not indented and positional arguments after keyword arguments.
type pythonChecker struct {
	lines []string
}

// walk returns the first violation in document order.
func (c *pythonChecker) walk(n *sitter.Node) *Error {
	if e := c.check(n); e != nil {
		return e
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if e := c.walk(n.Child(i)); e != nil {
			return e
		}
	}
	return nil
}

func (c *pythonChecker) check(n *sitter.Node) *Error {
	switch {
	case n.IsError():
		return &Error{Line: lineOf(n), Message: "invalid syntax"}
	case n.IsMissing():
		return &Error{Line: lineOf(n), Message: fmt.Sprintf("expected %q", n.Type())}
	}

	switch n.Type() {
	case "print_statement":
		return &Error{Line: lineOf(n), Message: "Missing parentheses in call to 'print'"}
	case "exec_statement":
		return &Error{Line: lineOf(n), Message: "Missing parentheses in call to 'exec'"}
	case "block":
		return c.checkBlock(n)
	case "argument_list":
		return checkArguments(n)
	}
	return nil
}

// checkBlock requires a compound statement body to hold at least one
// statement, either on the header line or on following lines indented deeper
// than the header.
func (c *pythonChecker) checkBlock(block *sitter.Node) *Error {
	header := block.Parent()
	if header == nil {
		return nil
	}

	first := firstStatement(block)
	if first == nil {
		// The body is empty; the header ends at the colon before it.
		row := int(block.StartPoint().Row)
		if colon := block.PrevSibling(); colon != nil {
			row = int(colon.EndPoint().Row)
		}
		return &Error{Line: c.nextCodeLine(row), Message: "expected an indented block"}
	}

	start := first.StartPoint()
	if start.Row > header.StartPoint().Row && int(start.Column) <= c.indentation(int(header.StartPoint().Row)) {
		return &Error{Line: int(start.Row) + 1, Message: "expected an indented block"}
	}
	return nil
}

func firstStatement(block *sitter.Node) *sitter.Node {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		if child := block.NamedChild(i); child.Type() != "comment" {
			return child
		}
	}
	return nil
}

// nextCodeLine returns the 1-based line of the first statement after row,
// or the line after the last one at end of input.
func (c *pythonChecker) nextCodeLine(row int) int {
	for i := row + 1; i < len(c.lines); i++ {
		text := strings.TrimSpace(c.lines[i])
		if text != "" && !strings.HasPrefix(text, "#") {
			return i + 1
		}
	}
	return row + 2
}

func (c *pythonChecker) indentation(row int) int {
	if row >= len(c.lines) {
		return 0
	}
	line := c.lines[row]
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// checkArguments enforces Python 3 argument order: no positional argument
// after a keyword argument or **mapping, no *iterable after **mapping.
func checkArguments(args *sitter.Node) *Error {
	seenKeyword, seenMapping := false, false
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.IsError() {
			continue
		}
		switch arg.Type() {
		case "comment":
		case "keyword_argument":
			seenKeyword = true
		case "dictionary_splat":
			seenMapping = true
		case "list_splat":
			if seenMapping {
				return &Error{Line: lineOf(arg), Message: "iterable argument unpacking follows keyword argument unpacking"}
			}
		default:
			if seenMapping {
				return &Error{Line: lineOf(arg), Message: "positional argument follows keyword argument unpacking"}
			}
			if seenKeyword {
				return &Error{Line: lineOf(arg), Message: "positional argument follows keyword argument"}
			}
		}
	}
	return nil
}

func lineOf(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}
