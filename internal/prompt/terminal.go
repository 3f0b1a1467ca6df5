package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	lwerrors "lacewing/internal/errors"
)

// Terminal is the stdin/stdout Responder the CLI front-end wires up,
// grounded on the teacher's cmd/main/auth.go bufio.NewReader(os.Stdin)
// prompt pattern rather than a survey/TUI library, since ask-for-input
// steps need only a single line of text per Request.
type Terminal struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewTerminal constructs a Terminal reading from in and writing prompts to
// out (typically os.Stdin and os.Stdout).
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{reader: bufio.NewReader(in), out: out}
}

// Respond implements Responder by printing req.Message and reading one
// line of input, coercing it per req.Type.
func (t *Terminal) Respond(ctx context.Context, req Request) (any, error) {
	t.printPrompt(req)

	line, err := t.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, lwerrors.ProviderWrap(err, "failed to read terminal input")
	}
	line = strings.TrimSpace(line)

	switch req.Type {
	case Confirm:
		return parseConfirm(line, req.Default)
	case Select:
		return resolveSelectAnswer(line, req.Options)
	default:
		return line, nil
	}
}

func (t *Terminal) printPrompt(req Request) {
	switch req.Type {
	case Confirm:
		suffix := "[y/n]"
		if b, ok := req.Default.(bool); ok {
			if b {
				suffix = "[Y/n]"
			} else {
				suffix = "[y/N]"
			}
		}
		fmt.Fprintf(t.out, "%s %s ", req.Message, suffix)
	case Select:
		fmt.Fprintf(t.out, "%s\n", req.Message)
		for i, opt := range req.Options {
			fmt.Fprintf(t.out, "  %d) %s\n", i+1, opt)
		}
		fmt.Fprint(t.out, "> ")
	default:
		if req.Default != nil {
			fmt.Fprintf(t.out, "%s [%v]: ", req.Message, req.Default)
		} else {
			fmt.Fprintf(t.out, "%s: ", req.Message)
		}
	}
}

func parseConfirm(line string, def any) (bool, error) {
	if line == "" {
		if b, ok := def.(bool); ok {
			return b, nil
		}
		return false, lwerrors.Validation("confirm prompt requires an answer")
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, lwerrors.Validation("expected y/n, got %q", line)
	}
}

// resolveSelectAnswer accepts either the option text itself or its 1-based
// list position, so a terminal user can type "2" instead of retyping a
// long option string.
func resolveSelectAnswer(line string, options []string) (string, error) {
	if n, err := strconv.Atoi(line); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		return "", lwerrors.Validation("option %d is out of range (1-%d)", n, len(options))
	}
	return line, nil
}
