package ir

import (
	"errors"
	"strings"
)

var (
	// ErrUnrepresentableType means a schema node has no recognizable shape
	ErrUnrepresentableType = errors.New("unrepresentable type")
	// ErrMissingTag means an operation declares no grouping tag
	ErrMissingTag = errors.New("missing tag")
	// ErrNoMatchingTypeHandler means a backend cannot represent a type node
	ErrNoMatchingTypeHandler = errors.New("no matching type handler")
	// ErrDuplicateOperationIdentity means two operations share an implementation name
	ErrDuplicateOperationIdentity = errors.New("duplicate operation identity")
	// ErrNameCollisionOnDefinition means two shapes were registered under one name
	ErrNameCollisionOnDefinition = errors.New("name collision on definition")
	// ErrUnresolvedReference means a $ref points at a definition the document lacks
	ErrUnresolvedReference = errors.New("unresolved reference")
)

// Error locates a normalization or resolution failure. Kind is one of the sentinel
// errors above and is what errors.Is matches.
type Error struct {
	Kind       error
	Document   string
	Operation  string
	Definition string
	// Pointer is the JSON pointer of the offending node inside Document
	Pointer string
	Detail  string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())

	var where []string
	if e.Document != "" {
		where = append(where, "document "+e.Document)
	}
	if e.Operation != "" {
		where = append(where, "operation "+e.Operation)
	}
	if e.Definition != "" {
		where = append(where, "definition "+e.Definition)
	}
	if len(where) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(where, ", "))
		if e.Pointer != "" {
			b.WriteString(" at #")
			b.WriteString(e.Pointer)
		}
		b.WriteString(")")
	} else if e.Pointer != "" {
		b.WriteString(" (at #")
		b.WriteString(e.Pointer)
		b.WriteString(")")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Kind }

// Locate fills in missing location fields of err when it is an *Error, so inner
// functions can fail without knowing which document or operation they serve.
func Locate(err error, document, operation string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	if e.Document == "" {
		e.Document = document
	}
	if e.Operation == "" {
		e.Operation = operation
	}
	return err
}
