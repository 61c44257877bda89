package shell

import (
	"strings"

	"cmdengine/pkg/manager"
)

// Completer provides tab completion from the command tree. It implements the
// readline AutoCompleter interface used by ishell.
type Completer struct {
	manager *manager.Manager
	sender  any
}

// NewCompleter creates a completer suggesting on behalf of sender.
func NewCompleter(m *manager.Manager, sender any) *Completer {
	return &Completer{manager: m, sender: sender}
}

// Do returns the suffixes completing the word under the cursor and the length
// of that word.
func (c *Completer) Do(line []rune, pos int) (newLine [][]rune, offset int) {
	if pos > len(line) {
		pos = len(line)
	}
	if pos < 0 {
		pos = 0
	}
	prefix := string(line[:pos])
	tokens := manager.TokenizeForCompletion(prefix)
	partial := tokens[len(tokens)-1]

	for _, candidate := range c.manager.Suggest(prefix, c.sender) {
		// readline only appends, so candidates differing in case are dropped
		if !strings.HasPrefix(candidate, partial) {
			continue
		}
		newLine = append(newLine, []rune(strings.TrimPrefix(candidate, partial)))
	}
	return newLine, len([]rune(partial))
}
