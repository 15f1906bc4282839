package room

import (
	"strings"
	"unicode/utf8"

	"github.com/kasca/coordinator/pkg/api"
)

// ApplyEdit replaces the span of the edit in code with its text.
// Lines and columns are 1-based, columns count UTF-16 code units the
// way browser editors do. Positions past the end of a line or of the
// buffer are clamped.
func ApplyEdit(code string, op api.EditOp) string {
	start := offset(code, op.StartLine, op.StartColumn)
	end := offset(code, op.EndLine, op.EndColumn)
	if end < start {
		end = start
	}
	return code[:start] + op.Text + code[end:]
}

// offset converts a line/column position into a byte offset.
func offset(code string, line, col int) int {
	pos := 0
	for l := 1; l < line; l++ {
		i := strings.IndexByte(code[pos:], '\n')
		if i < 0 {
			// past the last line
			return len(code)
		}
		pos += i + 1
	}
	rest := code[pos:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	units := col - 1
	for units > 0 && len(rest) > 0 {
		r, size := utf8.DecodeRuneInString(rest)
		n := 1
		if r > 0xFFFF {
			n = 2
		}
		if n > units {
			// inside of a surrogate pair
			break
		}
		units -= n
		pos += size
		rest = rest[size:]
	}
	return pos
}
