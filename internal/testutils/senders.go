// Package testutils provides senders, permission predicates, executors and
// file helpers shared by cmdengine tests.
package testutils

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"cmdengine/pkg/cmdtypes"
)

// Sender is a named sender that records the messages sent to it.
type Sender struct {
	Name string

	mu       sync.Mutex
	messages []string
}

// NewSender creates a recording sender.
func NewSender(name string) *Sender {
	return &Sender{Name: name}
}

// Sendf records a formatted message.
func (s *Sender) Sendf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, fmt.Sprintf(format, args...))
}

// Messages returns a copy of the recorded messages.
func (s *Sender) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Output returns the recorded messages joined by newlines.
func (s *Sender) Output() string {
	return strings.Join(s.Messages(), "\n")
}

// String implements fmt.Stringer.
func (s *Sender) String() string {
	return s.Name
}

// Denying returns a predicate refusing the listed permissions and granting the rest.
func Denying(denied ...string) cmdtypes.PermissionPredicate {
	return func(_ any, permission string) bool {
		return !slices.Contains(denied, permission)
	}
}

// Granting returns a predicate allowing only the listed permissions.
func Granting(granted ...string) cmdtypes.PermissionPredicate {
	return func(_ any, permission string) bool {
		return slices.Contains(granted, permission)
	}
}
