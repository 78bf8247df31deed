// Package bundle writes debug bundles: a directory holding the
// equality-sharing graph, the DAG of one explanation, and a README that
// says how to render them.
//
// Writing is best effort. Failures are swallowed and reported only as an
// empty path; a bundle never changes solver behavior.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vaucouleur/decision/internal/reason"
)

// File names inside a bundle directory.
const (
	EqShareFile  = "eqshare.dot"
	ConflictFile = "conflict.dot"
	ReadmeFile   = "README.txt"
)

// Source supplies the bundle contents. *engine.Engine implements it.
type Source interface {
	Epoch() uint64
	DumpEqShareDOT() string
	DumpReasonDOT(root reason.ID) string
}

// Writer writes bundles under Dir.
type Writer struct {
	Dir string

	// IDs names each bundle in its README. Defaults to UUIDv7Generator.
	IDs IDGenerator

	// PID goes into the directory name. Defaults to os.Getpid().
	PID int
}

// Write writes a bundle under dir with default settings.
func Write(dir string, src Source, root reason.ID) string {
	return Writer{Dir: dir}.Write(src, root)
}

// Write creates <Dir>/smt-debug-<pid>-<epoch> and fills it. It returns the
// bundle path, or "" if the directory or README could not be written.
// A failed DOT file still leaves a README behind.
func (w Writer) Write(src Source, root reason.ID) string {
	ids := w.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	pid := w.PID
	if pid == 0 {
		pid = os.Getpid()
	}

	dir := filepath.Join(w.Dir, fmt.Sprintf("smt-debug-%d-%d", pid, src.Epoch()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}

	_ = os.WriteFile(filepath.Join(dir, EqShareFile), []byte(src.DumpEqShareDOT()), 0o644)
	_ = os.WriteFile(filepath.Join(dir, ConflictFile), []byte(src.DumpReasonDOT(root)), 0o644)

	if err := os.WriteFile(filepath.Join(dir, ReadmeFile), []byte(readme(ids.Generate(), root)), 0o644); err != nil {
		return ""
	}
	return dir
}

func readme(id string, root reason.ID) string {
	var sb strings.Builder
	sb.WriteString("SMT DEBUG BUNDLE\n\n")
	fmt.Fprintf(&sb, "Bundle: %s\n\n", id)
	sb.WriteString("Files:\n")
	fmt.Fprintf(&sb, "  - %-13s : equality-sharing exchanges (terms + edges with direction/epoch)\n", EqShareFile)
	fmt.Fprintf(&sb, "  - %-13s : reason DAG for the reported root\n", ConflictFile)
	sb.WriteString("\nRender to SVG:\n")
	sb.WriteString("  dot -Tsvg eqshare.dot  > eqshare.svg\n")
	sb.WriteString("  dot -Tsvg conflict.dot > conflict.svg\n")
	fmt.Fprintf(&sb, "\nRoot reason: %d\n", root)
	return sb.String()
}
