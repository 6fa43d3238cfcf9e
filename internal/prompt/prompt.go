// Package prompt asks the user for template variable values.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cmdvault/cv/internal/template"
)

// CancelInput is the line that dismisses a console prompt.
const CancelInput = "."

// Request describes one variable being asked for.
type Request struct {
	Name    string // placeholder name
	Title   string // entry title
	Preview string // command with values given so far filled in
	Index   int    // 1-based position among the distinct placeholders
	Total   int
}

// Prompter supplies a value for one placeholder. Returning
// template.ErrCancelled means the user dismissed the prompt.
type Prompter interface {
	Prompt(req Request) (string, error)
}

// ValueFunc adapts p into a template.ValueFunc for one command, keeping the
// preview current as values come in.
func ValueFunc(p Prompter, title, command string) template.ValueFunc {
	names := template.Placeholders(command)
	filled := make(map[string]string, len(names))
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i + 1
	}

	return func(name string) (string, error) {
		v, err := p.Prompt(Request{
			Name:    name,
			Title:   title,
			Preview: template.Fill(command, filled),
			Index:   index[name],
			Total:   len(names),
		})
		if err != nil {
			return "", err
		}
		filled[name] = v
		return v, nil
	}
}

// Console reads values line by line. End of input or a lone "." cancels.
// An empty line is a valid empty value.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	headed bool

	// Style renders placeholders in the preview. Nil leaves them plain.
	Style func(string) string
}

// NewConsole returns a Console reading from in and writing prompts to out.
// A *bufio.Reader is read directly, so input past the last answer stays
// available to the caller.
func NewConsole(in io.Reader, out io.Writer) *Console {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Console{in: br, out: out}
}

// Prompt implements Prompter.
func (c *Console) Prompt(req Request) (string, error) {
	// The header goes before whichever prompt comes first, which is not
	// the first placeholder when other prompters answered it.
	if !c.headed {
		c.headed = true
		fmt.Fprintf(c.out, "✎ Fill in template variables: %s\n", req.Title)
		fmt.Fprintf(c.out, "(enter %q or end input to cancel)\n", CancelInput)
	}
	preview := req.Preview
	if c.Style != nil {
		preview = template.Highlight(preview, c.Style)
	}
	fmt.Fprintf(c.out, "\n  %s\n", strings.ReplaceAll(preview, "\n", "\n  "))
	fmt.Fprintf(c.out, "[%d/%d] %s: ", req.Index, req.Total, req.Name)

	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading %s: %w", req.Name, err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(c.out)
		return "", template.ErrCancelled
	}

	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == CancelInput {
		return "", template.ErrCancelled
	}
	return line, nil
}

// Static answers from a fixed set of values and cancels on anything else.
type Static map[string]string

// Prompt implements Prompter.
func (s Static) Prompt(req Request) (string, error) {
	if v, ok := s[req.Name]; ok {
		return v, nil
	}
	return "", template.ErrCancelled
}

// Chain asks each prompter in turn until one answers. A cancellation moves
// on to the next prompter; any other error stops the chain.
type Chain []Prompter

// Prompt implements Prompter.
func (c Chain) Prompt(req Request) (string, error) {
	for _, p := range c {
		v, err := p.Prompt(req)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, template.ErrCancelled) {
			return "", err
		}
	}
	return "", template.ErrCancelled
}
