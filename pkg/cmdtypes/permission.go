// Package cmdtypes defines the shared data model of cmdengine.
// This file contains the permission expression type: a small AND/OR tree of leaf
// permission strings evaluated through a caller-supplied predicate.
package cmdtypes

import (
	"strings"
)

// PermissionPredicate reports whether sender holds the given permission string.
// The engine never interprets permission contents.
type PermissionPredicate func(sender any, permission string) bool

// AllowAll is a predicate granting every permission.
func AllowAll(any, string) bool { return true }

// PermissionKind identifies the variant of a Permission expression.
type PermissionKind int

const (
	// PermissionEmpty always evaluates to true.
	PermissionEmpty PermissionKind = iota
	// PermissionLeaf is a single permission string.
	PermissionLeaf
	// PermissionAnd requires every operand.
	PermissionAnd
	// PermissionOr requires at least one operand.
	PermissionOr
)

// Permission is an immutable permission expression.
// The zero value is the empty permission.
type Permission struct {
	kind     PermissionKind
	value    string
	operands []Permission
}

// EmptyPermission returns the permission that everybody holds.
func EmptyPermission() Permission {
	return Permission{}
}

// Perm returns a leaf permission. An empty string yields the empty permission.
func Perm(value string) Permission {
	if value == "" {
		return Permission{}
	}
	return Permission{kind: PermissionLeaf, value: value}
}

// And returns the conjunction of the given permissions. Empty operands are dropped.
func And(perms ...Permission) Permission {
	return combine(PermissionAnd, perms)
}

// Or returns the disjunction of the given permissions. If any operand is empty the
// result is empty, since an empty permission is always satisfied.
func Or(perms ...Permission) Permission {
	for _, p := range perms {
		if p.IsEmpty() {
			return Permission{}
		}
	}
	return combine(PermissionOr, perms)
}

func combine(kind PermissionKind, perms []Permission) Permission {
	operands := make([]Permission, 0, len(perms))
	for _, p := range perms {
		if p.IsEmpty() {
			continue
		}
		if p.kind == kind {
			operands = append(operands, p.operands...)
			continue
		}
		operands = append(operands, p)
	}
	switch len(operands) {
	case 0:
		return Permission{}
	case 1:
		return operands[0]
	}
	return Permission{kind: kind, operands: operands}
}

// Kind returns the variant of the expression.
func (p Permission) Kind() PermissionKind {
	return p.kind
}

// IsEmpty reports whether the permission is always satisfied.
func (p Permission) IsEmpty() bool {
	return p.kind == PermissionEmpty
}

// Evaluate reports whether sender satisfies the expression under predicate.
func (p Permission) Evaluate(sender any, predicate PermissionPredicate) bool {
	switch p.kind {
	case PermissionEmpty:
		return true
	case PermissionLeaf:
		if predicate == nil {
			return true
		}
		return predicate(sender, p.value)
	case PermissionAnd:
		for _, op := range p.operands {
			if !op.Evaluate(sender, predicate) {
				return false
			}
		}
		return true
	case PermissionOr:
		for _, op := range p.operands {
			if op.Evaluate(sender, predicate) {
				return true
			}
		}
		return false
	default:
		panic("cmdtypes: unknown permission kind")
	}
}

// Equal reports structural equality.
func (p Permission) Equal(other Permission) bool {
	return p.String() == other.String()
}

// String renders the expression, e.g. "(a & (b | c))". The empty permission renders as "".
func (p Permission) String() string {
	switch p.kind {
	case PermissionLeaf:
		return p.value
	case PermissionAnd, PermissionOr:
		sep := " & "
		if p.kind == PermissionOr {
			sep = " | "
		}
		parts := make([]string, len(p.operands))
		for i, op := range p.operands {
			parts[i] = op.String()
		}
		return "(" + strings.Join(parts, sep) + ")"
	default:
		return ""
	}
}
