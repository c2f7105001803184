// Package prompt implements the numbered-menu interaction style the station
// commands use. All readers/writers are injected so workflows are testable
// without a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrOutOfRange reports a menu selection outside the listed options.
var ErrOutOfRange = errors.New("prompt: choice out of range")

// Prompter reads operator answers line by line.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New builds a Prompter over the given streams.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Interactive reports whether stdin is a terminal. Commands that would need
// prompts refuse to guess when it isn't.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Menu prints a numbered list and returns the zero-based index the operator
// picked (input is 1-based, matching the printed numbers).
func (p *Prompter) Menu(title string, items []string) (int, error) {
	if len(items) == 0 {
		return 0, errors.New("prompt: no options to choose from")
	}
	fmt.Fprintln(p.out, title)
	for i, item := range items {
		fmt.Fprintf(p.out, " %2d) %s\n", i+1, item)
	}
	fmt.Fprint(p.out, "> ")
	line, err := p.readLine()
	if err != nil {
		return 0, err
	}
	idx, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("prompt: invalid selection %q", line)
	}
	if idx < 1 || idx > len(items) {
		return 0, ErrOutOfRange
	}
	return idx - 1, nil
}

// Ask prompts for a string, returning def on empty input.
func (p *Prompter) Ask(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", question)
	}
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// AskInt prompts for an integer, returning def on empty input.
func (p *Prompter) AskInt(question string, def int) (int, error) {
	line, err := p.Ask(question, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("prompt: expected a number, got %q", line)
	}
	return n, nil
}

// Confirm asks a yes/no question defaulting to no. Anything starting with
// "y" (either case) is a yes.
func (p *Prompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(line), "y"), nil
}
