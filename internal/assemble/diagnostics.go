package assemble

import "fmt"

// DiagnosticKind classifies a non-fatal inconsistency found while
// assembling.
type DiagnosticKind int

const (
	// ChecksumMismatch: a vertex or strip file was built from a different
	// compile of the model than its header.
	ChecksumMismatch DiagnosticKind = iota
	// ArityMismatch: parallel tables disagree in length; the shorter one
	// bounds the walk.
	ArityMismatch
	// MaterialResolutionFailure: a texture had no loadable material and the
	// default material was substituted.
	MaterialResolutionFailure
)

func (k DiagnosticKind) String() string {
	switch k {
	case ChecksumMismatch:
		return "checksum mismatch"
	case ArityMismatch:
		return "arity mismatch"
	case MaterialResolutionFailure:
		return "material resolution failure"
	}
	return fmt.Sprintf("diagnostic(%d)", int(k))
}

type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string {
	return d.Kind.String() + ": " + d.Message
}

type diagnostics []Diagnostic

func (ds *diagnostics) add(kind DiagnosticKind, format string, args ...any) {
	*ds = append(*ds, Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Count returns how many diagnostics of kind are in ds.
func Count(ds []Diagnostic, kind DiagnosticKind) int {
	n := 0
	for _, d := range ds {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
