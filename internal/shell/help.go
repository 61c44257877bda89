package shell

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"cmdengine/pkg/manager"
	"cmdengine/pkg/tree"
)

// HelpMarkdown lists the commands visible to sender as a markdown table. When
// root is not empty only commands below that root literal or alias are listed.
func HelpMarkdown(m *manager.Manager, sender any, root string) (string, error) {
	commands := m.Commands()
	if root != "" {
		node, ok := m.Tree().NamedNode(root)
		if !ok {
			return "", fmt.Errorf("no command named %q", root)
		}
		name := node.Component().Name()
		filtered := commands[:0:0]
		for _, cmd := range commands {
			if cmd.RootName() == name {
				filtered = append(filtered, cmd)
			}
		}
		commands = filtered
	}

	visible := visibleCommands(m, sender, commands)
	var b strings.Builder
	b.WriteString("# Commands\n\n")
	if len(visible) == 0 {
		b.WriteString("No commands available.\n")
		return b.String(), nil
	}
	b.WriteString("| Usage | Description |\n|---|---|\n")
	for _, cmd := range visible {
		fmt.Fprintf(&b, "| `%s` | %s |\n", cmd.Usage(), escapeCell(cmd.Description()))
	}

	if root != "" {
		writeFlags(&b, visible)
	}
	return b.String(), nil
}

func writeFlags(b *strings.Builder, commands []*tree.Command) {
	seen := map[string]bool{}
	var lines []string
	for _, cmd := range commands {
		group := cmd.FlagGroup()
		if group == nil {
			continue
		}
		for _, f := range group.Flags() {
			if seen[f.Name()] {
				continue
			}
			seen[f.Name()] = true
			lines = append(lines, fmt.Sprintf("- `%s` %s", f.Syntax().String(), f.Description()))
		}
	}
	if len(lines) == 0 {
		return
	}
	b.WriteString("\n## Flags\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
}

func visibleCommands(m *manager.Manager, sender any, commands []*tree.Command) []*tree.Command {
	visible := make([]*tree.Command, 0, len(commands))
	for _, cmd := range commands {
		if m.CanUse(sender, cmd) {
			visible = append(visible, cmd)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].Usage() < visible[j].Usage() })
	return visible
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// RenderMarkdown renders markdown for the terminal. Style is a glamour standard
// style name such as "dark" or "notty"; "auto" detects the terminal.
func RenderMarkdown(markdown, style string, width int) (string, error) {
	styleOpt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return rendered, nil
}
