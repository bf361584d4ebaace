package model

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Key identifies a decision variable by the tuple of domain keys it was declared for
type Key string

func NewKey(parts ...any) Key {
	return Key(strings.Join(lo.Map(parts, func(part any, _ int) string { return fmt.Sprint(part) }), "/"))
}

type Domain struct {
	Lower   int64
	Upper   int64
	Boolean bool
}

func BoolDomain() Domain {
	return Domain{Lower: 0, Upper: 1, Boolean: true}
}

func IntDomain(lower, upper int64) Domain {
	return Domain{Lower: lower, Upper: upper}
}

func (d Domain) Size() int64 {
	return d.Upper - d.Lower + 1
}

func (d Domain) Contains(value int64) bool {
	return value >= d.Lower && value <= d.Upper
}

// Variable is an immutable decision variable owned by the Space that declared it
type Variable struct {
	index  int
	key    Key
	domain Domain
}

// Index is the declaration position of the variable inside its Space, starting at 0
func (v *Variable) Index() int     { return v.index }
func (v *Variable) Key() Key       { return v.key }
func (v *Variable) Domain() Domain { return v.domain }
func (v *Variable) IsBool() bool   { return v.domain.Boolean }

func (v *Variable) Lit() Literal { return Literal{Var: v} }
func (v *Variable) Not() Literal { return Literal{Var: v, Negated: true} }

func (v *Variable) String() string {
	return string(v.key)
}

// Literal is a boolean variable or its negation
type Literal struct {
	Var     *Variable
	Negated bool
}

func (l Literal) Not() Literal {
	return Literal{Var: l.Var, Negated: !l.Negated}
}

// Holds reports whether the literal is true under the given value of its variable
func (l Literal) Holds(value int64) bool {
	return (value != 0) != l.Negated
}

func (l Literal) String() string {
	if l.Negated {
		return "!" + l.Var.String()
	}
	return l.Var.String()
}
