// Package prompt reads line answers from the user and prints styled notices.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer

	title lipgloss.Style
	info  lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
	hint  lipgloss.Style
}

// New builds a Prompter. Styles degrade to plain text when out is not a terminal.
func New(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = strings.NewReader("")
	}
	if out == nil {
		out = io.Discard
	}
	r := lipgloss.NewRenderer(out)
	return &Prompter{
		scanner: bufio.NewScanner(in),
		out:     out,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		info:    r.NewStyle().Foreground(lipgloss.Color("252")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		err:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		hint:    r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// Ask prints label and returns the trimmed answer. It returns io.EOF when input is exhausted.
func (p *Prompter) Ask(label string) (string, error) {
	_, _ = fmt.Fprint(p.out, p.hint.Render(label))
	if !p.scanner.Scan() {
		_, _ = fmt.Fprintln(p.out)
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Confirm asks a yes/no question; only "y" or "yes" count as yes.
func (p *Prompter) Confirm(label string) bool {
	answer, err := p.Ask(label)
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Title prints a bold heading.
func (p *Prompter) Title(text string) {
	_, _ = fmt.Fprintln(p.out, p.title.Render(text))
}

// Println prints plain text.
func (p *Prompter) Println(text string) {
	_, _ = fmt.Fprintln(p.out, text)
}

// Infof prints an informational line.
func (p *Prompter) Infof(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, p.info.Render(fmt.Sprintf(format, args...)))
}

// Warnf prints a warning line.
func (p *Prompter) Warnf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, p.warn.Render(fmt.Sprintf(format, args...)))
}

// Errorf prints an error line.
func (p *Prompter) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, p.err.Render(fmt.Sprintf(format, args...)))
}

// IsQuit reports whether answer is the "q" escape.
func IsQuit(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), "q")
}
