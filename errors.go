package xmldiffview

import (
	"errors"
	"fmt"
)

// Addressing errors
var (
	// ErrInvalidExpression indicates a malformed path expression.
	ErrInvalidExpression = errors.New("invalid expression")

	// ErrNoMatchingNode indicates an ordinal outside the baseline children of a
	// parent, or a named attribute that does not exist.
	ErrNoMatchingNode = errors.New("no matching node")

	// ErrIndexNotBuilt indicates positional addressing of a parent whose source
	// index was never created. It signals a bug in the caller, not bad input.
	ErrIndexNotBuilt = errors.New("source node index not built")
)

// Diffgram errors
var (
	// ErrInvalidDiffgram indicates a structurally invalid diffgram: wrong root,
	// missing required attributes, or elements outside the diffgram namespace.
	ErrInvalidDiffgram = errors.New("invalid diffgram")

	// ErrWrongCardinality indicates a match that selected a number of nodes the
	// directive does not accept.
	ErrWrongCardinality = errors.New("match selects wrong number of nodes")

	// ErrUnknownDescriptor indicates a descriptor with an unrecognised type.
	ErrUnknownDescriptor = errors.New("unknown descriptor type")
)

// Source errors
var (
	// ErrMalformedXML indicates that a baseline or diffgram stream is not
	// well-formed XML.
	ErrMalformedXML = errors.New("malformed xml")
)

// PathError records a failed resolution of a path expression.
type PathError struct {
	Expr string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %q: %v", e.Expr, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// DirectiveError records the diffgram directive that aborted a merge.
type DirectiveError struct {
	Directive string
	Match     string
	Err       error
}

func (e *DirectiveError) Error() string {
	if e.Match == "" {
		return fmt.Sprintf("%s: %v", e.Directive, e.Err)
	}
	return fmt.Sprintf("%s match=%q: %v", e.Directive, e.Match, e.Err)
}

func (e *DirectiveError) Unwrap() error { return e.Err }
