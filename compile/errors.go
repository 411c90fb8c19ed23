package compile

import "fmt"

// Kind distinguishes the categories of compile-time failure named in
// SPEC_FULL.md §9. Every Error carries the originating Path so a caller
// can highlight the offending subtree of the user's original tree.
type Kind int

const (
	IllFormed Kind = iota
	DuplicateLabel
	InvalidArity
	Reference
	InvalidGroupingSets
	RebaseFailure
)

func (k Kind) String() string {
	switch k {
	case IllFormed:
		return "IllFormed"
	case DuplicateLabel:
		return "DuplicateLabel"
	case InvalidArity:
		return "InvalidArity"
	case Reference:
		return "Reference"
	case InvalidGroupingSets:
		return "InvalidGroupingSets"
	case RebaseFailure:
		return "Rebase"
	default:
		return "Unknown"
	}
}

// RefCode enumerates the specific Reference-kind failures link-time
// validation can raise.
type RefCode string

const (
	UndefinedName            RefCode = "UNDEFINED_NAME"
	UnexpectedRowType        RefCode = "UNEXPECTED_ROW_TYPE"
	UnexpectedScalarType     RefCode = "UNEXPECTED_SCALAR_TYPE"
	UnexpectedAggregate      RefCode = "UNEXPECTED_AGGREGATE"
	AmbiguousName            RefCode = "AMBIGUOUS_NAME"
	AmbiguousHandle          RefCode = "AMBIGUOUS_HANDLE"
	AmbiguousAggregate       RefCode = "AMBIGUOUS_AGGREGATE"
	UndefinedHandle          RefCode = "UNDEFINED_HANDLE"
	UndefinedTableReference  RefCode = "UNDEFINED_TABLE_REFERENCE"
	InvalidTableReference    RefCode = "INVALID_TABLE_REFERENCE"
	InvalidSelfReference     RefCode = "INVALID_SELF_REFERENCE"
)

// Path is a chain of child indices from the root of the original user
// tree to the node an Error concerns, used purely for diagnostics.
type Path []int

func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	s := "$"
	for _, i := range p {
		s += fmt.Sprintf("[%d]", i)
	}
	return s
}

// Error is the structured failure type every compile pass returns instead
// of a bare error string, so a caller can branch on Kind/Code and render
// Path against the original query.
type Error struct {
	Kind Kind
	Code RefCode // only meaningful when Kind == Reference
	Path Path
	Msg  string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s) at %s: %s", e.Kind, e.Code, e.Path, e.Msg)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Path, e.Msg)
}

func illFormed(path Path, msg string) *Error {
	return &Error{Kind: IllFormed, Path: path, Msg: msg}
}

func duplicateLabel(path Path, name string) *Error {
	return &Error{Kind: DuplicateLabel, Path: path, Msg: fmt.Sprintf("duplicate label %q", name)}
}

func invalidArity(path Path, name string, want, got int) *Error {
	return &Error{Kind: InvalidArity, Path: path, Msg: fmt.Sprintf("%s expects %d args, got %d", name, want, got)}
}

func refError(code RefCode, path Path, msg string) *Error {
	return &Error{Kind: Reference, Code: code, Path: path, Msg: msg}
}

func invalidGroupingSets(path Path, msg string) *Error {
	return &Error{Kind: InvalidGroupingSets, Path: path, Msg: msg}
}

func rebaseFailure(path Path, msg string) *Error {
	return &Error{Kind: RebaseFailure, Path: path, Msg: msg}
}
