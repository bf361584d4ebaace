package model

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindDuplicateKey      ErrorKind = "duplicate_key"
	KindUndeclared        ErrorKind = "undeclared_variable"
	KindEmptyDomain       ErrorKind = "empty_domain"
	KindInconsistentBound ErrorKind = "inconsistent_bound"
	KindModelBuilt        ErrorKind = "model_built"
	KindNonBooleanLiteral ErrorKind = "non_boolean_literal"
)

var (
	ErrDuplicateKey      = errors.New("variable key already declared")
	ErrUndeclared        = errors.New("variable does not belong to this space")
	ErrEmptyDomain       = errors.New("domain lower bound exceeds upper bound")
	ErrInconsistentBound = errors.New("clause lower bound exceeds upper bound")
	ErrModelBuilt        = errors.New("model is no longer in draft state")
	ErrNonBoolean        = errors.New("literal over a non-boolean variable")
)

// ConstructionError reports a rejected declaration or clause.
type ConstructionError struct {
	Op   string
	Kind ErrorKind
	Key  Key
	Err  error
}

func (e *ConstructionError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q: %s: %v", e.Op, e.Key, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

func IsKind(err error, kind ErrorKind) bool {
	var constructionErr *ConstructionError
	if errors.As(err, &constructionErr) {
		return constructionErr.Kind == kind
	}
	return false
}

func constructionError(op string, kind ErrorKind, key Key, err error) error {
	return &ConstructionError{Op: op, Kind: kind, Key: key, Err: err}
}
