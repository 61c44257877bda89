package output

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter_Modes(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		print func(p *Printer)
		want  string
	}{
		{name: "plain", mode: ModePlain, print: func(p *Printer) { p.Println("hello") }, want: "hello\n"},
		{name: "plain error", mode: ModePlain, print: func(p *Printer) { p.Error("boom") }, want: "boom\n"},
		{name: "keeps trailing newline", mode: ModePlain, print: func(p *Printer) { p.Info("line\n") }, want: "line\n"},
		{name: "json", mode: ModeJSON, print: func(p *Printer) { p.Warning("careful") }, want: `{"message":"careful","type":"warning"}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.print(NewPrinter(WithWriter(&buf), WithMode(tt.mode)))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrinter_StyledKeepsText(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(WithWriter(&buf), WithMode(ModeStyled)).Error("failed")
	assert.Contains(t, buf.String(), "failed")
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeJSON, ParseMode("JSON"))
	assert.Equal(t, ModeStyled, ParseMode("styled"))
	assert.Equal(t, ModePlain, ParseMode("plain"))
	assert.Equal(t, ModePlain, ParseMode("unknown"))
}

func TestPrinter_ConcurrentLinesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(WithWriter(&buf), WithMode(ModeJSON))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Info("message")
		}()
	}
	wg.Wait()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 20)
	for _, line := range lines {
		var decoded map[string]string
		require.NoError(t, json.Unmarshal(line, &decoded))
		assert.Equal(t, "message", decoded["message"])
	}
}
