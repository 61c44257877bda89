package tree

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"cmdengine/internal/logger"
)

// Registration errors.
var (
	ErrDuplicateCommand  = errors.New("command already registered")
	ErrAmbiguousArgument = errors.New("sibling arguments with different names")
	ErrLiteralConflict   = errors.New("literal conflicts with a sibling")
	ErrFlagGroupConflict = errors.New("node already has a different flag group")
)

// RegistrationHandler mirrors commands into a host's native command table.
type RegistrationHandler interface {
	// RegisterCommand is offered every command after it is inserted. The result is
	// informational only.
	RegisterCommand(cmd *Command) bool
	// UnregisterRootCommand is called after a root literal is deleted.
	UnregisterRootCommand(root string)
}

// NullRegistrationHandler accepts everything and does nothing.
type NullRegistrationHandler struct{}

// RegisterCommand implements RegistrationHandler.
func (NullRegistrationHandler) RegisterCommand(*Command) bool { return true }

// UnregisterRootCommand implements RegistrationHandler.
func (NullRegistrationHandler) UnregisterRootCommand(string) {}

// Tree is the command tree. Registration is serialized; resolution and
// completion read published snapshots and take no locks.
type Tree struct {
	mu      sync.Mutex
	root    *Node
	handler RegistrationHandler
	logger  *log.Logger
}

// New creates an empty tree. A nil handler is replaced by NullRegistrationHandler.
func New(handler RegistrationHandler) *Tree {
	if handler == nil {
		handler = NullRegistrationHandler{}
	}
	return &Tree{
		root:    newNode(Component{kind: KindRoot}, nil),
		handler: handler,
		logger:  logger.NewStyledLogger("CommandTree"),
	}
}

// Root returns the virtual root node.
func (t *Tree) Root() *Node {
	return t.root
}

// Insert registers cmd. The tree is left untouched when an error is returned.
func (t *Tree) Insert(cmd *Command) error {
	if cmd == nil || len(cmd.components) == 0 {
		return fmt.Errorf("%w: empty command", ErrInvalidComponent)
	}
	t.mu.Lock()
	err := t.insertLocked(cmd)
	t.mu.Unlock()
	if err != nil {
		return err
	}

	t.logger.Debug("Registered command", "command", cmd.Usage())
	if !t.handler.RegisterCommand(cmd) {
		t.logger.Warn("Native registration rejected command", "command", cmd.RootName())
	}
	return nil
}

func (t *Tree) insertLocked(cmd *Command) error {
	attach := cmd.attachIndex()

	// Walk the existing prefix without mutating anything.
	var existing []*Node
	parent := t.root
	for _, comp := range cmd.components {
		child, err := findChild(parent, comp)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Usage(), err)
		}
		if child == nil {
			break
		}
		existing = append(existing, child)
		parent = child
	}
	for i := attach; i < len(existing); i++ {
		if existing[i].Command() != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateCommand, cmd.Usage())
		}
	}

	// Build the missing suffix detached from the tree.
	var head *Node
	prev := parent
	for i := len(existing); i < len(cmd.components); i++ {
		n := newNode(cmd.components[i], prev)
		n.grant(cmd.permission)
		if i >= attach {
			n.command.Store(cmd)
		}
		if head == nil {
			head = n
		} else {
			prev.children.Store(prev.snapshot().withChild(n))
		}
		prev = n
	}

	for i, n := range existing {
		n.grant(cmd.permission)
		if i >= attach {
			n.command.Store(cmd)
		}
	}
	if head != nil {
		parent.children.Store(parent.snapshot().withChild(head))
	}
	return nil
}

// findChild returns the child of parent that comp maps onto, nil when comp would
// create a new child, or an error when comp conflicts with the existing children.
func findChild(parent *Node, comp Component) (*Node, error) {
	set := parent.snapshot()
	switch comp.kind {
	case KindLiteral:
		child, ok := set.literals.Get(comp.name)
		if ok && child.component.name != comp.name {
			return nil, fmt.Errorf("%w: %q is an alias of %q", ErrLiteralConflict, comp.name, child.component.name)
		}
		for _, a := range comp.aliases {
			other, taken := set.literals.Get(a)
			if !taken {
				if ok {
					return nil, fmt.Errorf("%w: %q adds alias %q", ErrLiteralConflict, comp.name, a)
				}
				continue
			}
			if !ok || other != child {
				return nil, fmt.Errorf("%w: alias %q of %q", ErrLiteralConflict, a, comp.name)
			}
		}
		if ok {
			return child, nil
		}
		return nil, nil
	case KindArgument:
		if set.argument == nil {
			return nil, nil
		}
		if set.argument.component.name != comp.name {
			return nil, fmt.Errorf("%w: <%s> and <%s>", ErrAmbiguousArgument, set.argument.component.name, comp.name)
		}
		existing := set.argument.component
		if existing.optional != comp.optional {
			return nil, fmt.Errorf("%w: <%s> is both required and optional", ErrAmbiguousArgument, comp.name)
		}
		if !existing.sameAs(comp) {
			return nil, fmt.Errorf("%w: <%s> is registered with a different parser or default", ErrAmbiguousArgument, comp.name)
		}
		return set.argument, nil
	case KindFlagGroup:
		if set.flagGroup == nil {
			return nil, nil
		}
		if !set.flagGroup.component.sameAs(comp) {
			return nil, ErrFlagGroupConflict
		}
		return set.flagGroup, nil
	default:
		return nil, fmt.Errorf("%w: kind %s", ErrInvalidComponent, comp.kind)
	}
}

// Delete removes the root literal name, matched by name or alias, with every
// command below it.
func (t *Tree) Delete(name string) bool {
	t.mu.Lock()
	set := t.root.snapshot()
	node, ok := set.literals.Get(name)
	if ok {
		t.root.children.Store(set.without(node))
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	t.logger.Debug("Deleted root command", "command", node.component.name)
	t.handler.UnregisterRootCommand(node.component.name)
	return true
}

// NamedNode returns the root literal node named name or one of its aliases.
func (t *Tree) NamedNode(name string) (*Node, bool) {
	return t.root.Literal(name)
}

// RootNodes returns the root literal nodes in registration order.
func (t *Tree) RootNodes() []*Node {
	return t.root.Children()
}

// Commands returns every registered command once, in registration order of the
// nodes that own them.
func (t *Tree) Commands() []*Command {
	seen := make(map[*Command]struct{})
	var result []*Command
	var walk func(n *Node)
	walk = func(n *Node) {
		if cmd := n.Command(); cmd != nil {
			if _, dup := seen[cmd]; !dup {
				seen[cmd] = struct{}{}
				result = append(result, cmd)
			}
		}
		for _, child := range n.snapshot().ordered {
			walk(child)
		}
	}
	walk(t.root)
	return result
}
