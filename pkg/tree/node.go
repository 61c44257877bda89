package tree

import (
	"sync/atomic"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"cmdengine/pkg/cmdtypes"
)

// Node is one token position of the tree. A node is immutable once reachable
// except for its children, owning command and access permission, which are
// replaced atomically by the tree's single writer.
type Node struct {
	component Component
	parent    *Node

	children atomic.Pointer[childSet]
	command  atomic.Pointer[Command]
	access   atomic.Pointer[cmdtypes.Permission]
}

// childSet is an immutable snapshot of a node's children.
type childSet struct {
	ordered []*Node
	// literals indexes literal children by name and alias in registration order.
	literals  *orderedmap.OrderedMap[string, *Node]
	argument  *Node
	flagGroup *Node
}

var emptyChildren = &childSet{literals: orderedmap.New[string, *Node]()}

func newNode(component Component, parent *Node) *Node {
	n := &Node{component: component, parent: parent}
	n.children.Store(emptyChildren)
	return n
}

// withChild returns a copy of s with child added.
func (s *childSet) withChild(child *Node) *childSet {
	next := &childSet{
		ordered:   append(append([]*Node(nil), s.ordered...), child),
		literals:  orderedmap.New[string, *Node](),
		argument:  s.argument,
		flagGroup: s.flagGroup,
	}
	for pair := s.literals.Oldest(); pair != nil; pair = pair.Next() {
		next.literals.Set(pair.Key, pair.Value)
	}
	switch child.component.kind {
	case KindLiteral:
		next.literals.Set(child.component.name, child)
		for _, a := range child.component.aliases {
			next.literals.Set(a, child)
		}
	case KindArgument:
		next.argument = child
	case KindFlagGroup:
		next.flagGroup = child
	}
	return next
}

// without returns a copy of s without child.
func (s *childSet) without(child *Node) *childSet {
	next := emptyChildren
	for _, n := range s.ordered {
		if n != child {
			next = next.withChild(n)
		}
	}
	return next
}

func (n *Node) snapshot() *childSet {
	return n.children.Load()
}

// Component returns the node's component.
func (n *Node) Component() Component { return n.component }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Command returns the owning command, or nil.
func (n *Node) Command() *Command { return n.command.Load() }

// Children returns the children in registration order.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.snapshot().ordered...)
}

// Literal returns the literal child named token.
func (n *Node) Literal(token string) (*Node, bool) {
	return n.snapshot().literals.Get(token)
}

// Argument returns the argument child, or nil.
func (n *Node) Argument() *Node { return n.snapshot().argument }

// FlagGroup returns the flag group child, or nil.
func (n *Node) FlagGroup() *Node { return n.snapshot().flagGroup }

// Permission returns what a sender needs to descend into the node: the disjunction
// of the permissions of every command owned at or below it.
func (n *Node) Permission() cmdtypes.Permission {
	if p := n.access.Load(); p != nil {
		return *p
	}
	return cmdtypes.EmptyPermission()
}

// Path returns the component names from the first level down to n.
func (n *Node) Path() []string {
	var path []string
	for cur := n; cur != nil && cur.component.kind != KindRoot; cur = cur.parent {
		path = append(path, cur.component.name)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FirstCommand returns the first command found at or below n in registration order.
func (n *Node) FirstCommand() *Command {
	if cmd := n.Command(); cmd != nil {
		return cmd
	}
	for _, child := range n.snapshot().ordered {
		if cmd := child.FirstCommand(); cmd != nil {
			return cmd
		}
	}
	return nil
}

// grant widens the node's access permission with p.
func (n *Node) grant(p cmdtypes.Permission) {
	next := p
	if current := n.access.Load(); current != nil {
		if current.Equal(p) {
			return
		}
		next = cmdtypes.Or(*current, p)
	}
	n.access.Store(&next)
}

// reachableFlagGroup returns the flag group child of n or of a chain of optional
// argument descendants.
func (n *Node) reachableFlagGroup() *Node {
	cur := n
	for {
		set := cur.snapshot()
		if set.flagGroup != nil {
			return set.flagGroup
		}
		arg := set.argument
		if arg == nil || !arg.component.optional {
			return nil
		}
		cur = arg
	}
}

func (n *Node) usage() string {
	if cmd := n.FirstCommand(); cmd != nil {
		return cmd.Usage()
	}
	return ""
}
