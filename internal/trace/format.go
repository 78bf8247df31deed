package trace

import (
	"fmt"
	"strings"
)

// String renders the diagnostic in the eqshare log format:
//
//	[eqshare][epoch=3]: UF -> DL t4 = t7  because v1, ¬v2
func (d Diagnostic) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[eqshare][epoch=%d]: %s -> %s %s = %s",
		d.Epoch, d.FromName, d.ToName, d.A, d.B)
	if len(d.Because) > 0 || d.Truncated {
		sb.WriteString("  because ")
		sb.WriteString(d.BecauseString())
	}
	return sb.String()
}

// BecauseString joins the reason literals, marking truncation with "...".
func (d Diagnostic) BecauseString() string {
	s := strings.Join(d.Because, ", ")
	if d.Truncated {
		if s == "" {
			return "..."
		}
		return s + ", ..."
	}
	return s
}
