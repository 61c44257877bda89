// Package output writes shell results in plain, styled or JSON form.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Mode selects how a Printer renders messages.
type Mode int

const (
	// ModePlain writes text as is.
	ModePlain Mode = iota
	// ModeStyled colors messages by their semantic type.
	ModeStyled
	// ModeJSON writes one JSON object per message.
	ModeJSON
)

// ParseMode converts a mode name to a Mode, defaulting to plain.
func ParseMode(name string) Mode {
	switch strings.ToLower(name) {
	case "styled":
		return ModeStyled
	case "json":
		return ModeJSON
	default:
		return ModePlain
	}
}

// SemanticType is the meaning of a message, used to pick its style.
type SemanticType string

// Semantic types.
const (
	SemanticPlain   SemanticType = "plain"
	SemanticInfo    SemanticType = "info"
	SemanticWarning SemanticType = "warning"
	SemanticError   SemanticType = "error"
)

var styles = map[SemanticType]lipgloss.Style{
	SemanticPlain:   lipgloss.NewStyle(),
	SemanticInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	SemanticWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	SemanticError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}

// Printer writes messages to one writer. It is safe for concurrent use.
type Printer struct {
	mu     sync.Mutex
	writer io.Writer
	mode   Mode
}

// Option configures a Printer.
type Option func(*Printer)

// WithWriter sets the destination. The default is stdout.
func WithWriter(w io.Writer) Option {
	return func(p *Printer) {
		if w != nil {
			p.writer = w
		}
	}
}

// WithMode sets the rendering mode.
func WithMode(mode Mode) Option {
	return func(p *Printer) { p.mode = mode }
}

// NewPrinter creates a plain printer writing to stdout unless configured otherwise.
func NewPrinter(opts ...Option) *Printer {
	p := &Printer{writer: os.Stdout, mode: ModePlain}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Println writes text without semantic styling.
func (p *Printer) Println(text string) { p.output(SemanticPlain, text) }

// Info writes informational text.
func (p *Printer) Info(text string) { p.output(SemanticInfo, text) }

// Warning writes warning text.
func (p *Printer) Warning(text string) { p.output(SemanticWarning, text) }

// Error writes error text.
func (p *Printer) Error(text string) { p.output(SemanticError, text) }

func (p *Printer) output(semantic SemanticType, text string) {
	var rendered string
	switch p.mode {
	case ModeJSON:
		rendered = renderJSON(semantic, text)
	case ModeStyled:
		rendered = styles[semantic].Render(text)
	default:
		rendered = text
	}
	if !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprint(p.writer, rendered)
}

func renderJSON(semantic SemanticType, text string) string {
	data, err := json.Marshal(map[string]string{"type": string(semantic), "message": text})
	if err != nil {
		return text
	}
	return string(data)
}
