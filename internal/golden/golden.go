// Package golden runs command scripts through a shell and compares their output
// with recorded .expected files.
package golden

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"cmdengine/internal/shell"
)

// File extensions of scripts and their recorded output.
const (
	ScriptExt   = ".cmds"
	ExpectedExt = ".expected"
)

// ShellFactory builds a fresh shell writing to out for each script.
type ShellFactory func(out io.Writer) (*shell.Shell, error)

// MismatchError reports a script whose output differs from its recording.
type MismatchError struct {
	Name     string
	Expected string
	Actual   string
}

// Error implements error.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("test %s failed: output doesn't match expected", e.Name)
}

// Diff renders the differences, one changed fragment per line.
func (e *MismatchError) Diff() string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(e.Expected, e.Actual, false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(&b, "- %q\n", d.Text)
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(&b, "+ %q\n", d.Text)
		case diffmatchpatch.DiffEqual:
			text := d.Text
			if len(text) > 50 {
				text = text[:47] + "..."
			}
			fmt.Fprintf(&b, "  %q\n", text)
		}
	}
	return b.String()
}

// Runner runs the scripts of one directory.
type Runner struct {
	Dir      string
	NewShell ShellFactory
}

// RunScript executes every line of the script at path and returns the output.
// Execution stops at \exit.
func (r *Runner) RunScript(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open script: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out bytes.Buffer
	sh, err := r.NewShell(&out)
	if err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if !sh.Process(ctx, scanner.Text()) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read script %s: %w", path, err)
	}
	return strings.TrimRight(out.String(), "\n"), nil
}

// RunTest runs the named script and compares it with its recording.
func (r *Runner) RunTest(ctx context.Context, name string) error {
	actual, err := r.RunScript(ctx, r.path(name, ScriptExt))
	if err != nil {
		return err
	}
	expectedPath := r.path(name, ExpectedExt)
	content, err := os.ReadFile(expectedPath)
	if err != nil {
		return fmt.Errorf("failed to read expected file %s: %w", expectedPath, err)
	}
	expected := strings.TrimRight(string(content), "\n")
	if expected != actual {
		return &MismatchError{Name: name, Expected: expected, Actual: actual}
	}
	return nil
}

// Record runs the named script and stores its output as the recording.
func (r *Runner) Record(ctx context.Context, name string) error {
	actual, err := r.RunScript(ctx, r.path(name, ScriptExt))
	if err != nil {
		return err
	}
	expectedPath := r.path(name, ExpectedExt)
	if err := os.WriteFile(expectedPath, []byte(actual+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write expected file %s: %w", expectedPath, err)
	}
	return nil
}

// Tests lists the script names in Dir, sorted.
func (r *Runner) Tests() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.Dir, "*"+ScriptExt))
	if err != nil {
		return nil, fmt.Errorf("failed to find tests: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ScriptExt))
	}
	sort.Strings(names)
	return names, nil
}

// RunAll runs every script and returns the names of the failed ones. Failures
// are reported to report as they happen.
func (r *Runner) RunAll(ctx context.Context, report io.Writer) ([]string, error) {
	names, err := r.Tests()
	if err != nil {
		return nil, err
	}
	var failed []string
	for _, name := range names {
		if err := r.RunTest(ctx, name); err != nil {
			failed = append(failed, name)
			fmt.Fprintf(report, "FAIL %s: %v\n", name, err)
			var mismatch *MismatchError
			if errors.As(err, &mismatch) {
				fmt.Fprint(report, mismatch.Diff())
			}
			continue
		}
		fmt.Fprintf(report, "PASS %s\n", name)
	}
	fmt.Fprintf(report, "\nResults: %d passed, %d failed\n", len(names)-len(failed), len(failed))
	return failed, nil
}

func (r *Runner) path(name, ext string) string {
	return filepath.Join(r.Dir, name+ext)
}
