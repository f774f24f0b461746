package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ANSI escape sequences.
const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiWhite = "\033[37m"
	ansiGray  = "\033[90m"
)

var colorEnabled = true

// DisableColors turns off ANSI colors in formatted output.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI colors back on.
func EnableColors() { colorEnabled = true }

// paint wraps text in the given escape sequences when colors are on.
func paint(text string, codes ...string) string {
	if !colorEnabled || len(codes) == 0 {
		return text
	}
	return strings.Join(codes, "") + text + ansiReset
}

const detailWidth = 70

// Format renders the error for a terminal: a header, the offending
// source lines with a column marker, the detail and the hint.
func (e *Error) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		fmt.Fprintf(&b, "%s%s%s\n\n",
			paint("ERROR ", ansiRed, ansiBold),
			paint(e.Code+": ", ansiWhite, ansiBold),
			paint(e.Message, ansiWhite))
	} else {
		fmt.Fprintf(&b, "%s%s\n\n", paint("ERROR: ", ansiRed, ansiBold), paint(e.Message, ansiWhite))
	}

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s\n\n", paint(e.Location.String(), ansiCyan))
		e.writeSource(&b)
	}

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, detailWidth) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", paint("Hint: ", ansiCyan), e.Suggestion)
	}
	return b.String()
}

func (e *Error) writeSource(b *strings.Builder) {
	if len(e.Context) == 0 {
		return
	}
	bar := paint(" │ ", ansiGray)
	for i, text := range e.Context {
		n := e.ContextStart + i
		if n != e.Location.Line {
			fmt.Fprintf(b, "    %4d%s%s\n", n, bar, text)
			continue
		}
		fmt.Fprintf(b, "  %s%4d%s%s\n", paint("→ ", ansiRed), n, bar, text)
		if e.Location.Column > 0 {
			fmt.Fprintf(b, "       %s%s%s\n",
				paint("│ ", ansiGray),
				strings.Repeat(" ", e.Location.Column-1),
				paint("^", ansiRed))
		}
	}
	b.WriteString("\n")
}

// FormatCompact returns "[file:line:col: ]CODE: message".
func (e *Error) FormatCompact() string {
	parts := make([]string, 0, 3)
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	return strings.Join(append(parts, e.Message), ": ")
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// FormatJSON returns the error as a JSON object for machine consumers.
func (e *Error) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
	}
	if l := e.Location; l != nil {
		out.Location = &jsonLocation{File: l.File, Line: l.Line, Column: l.Column}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// wrapText breaks text on spaces into lines of at most width runes
// where possible; a longer word gets a line of its own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}

// Fprint writes err to w, using Format when err is or wraps an *Error.
func Fprint(w io.Writer, err error) {
	var e *Error
	if stderrors.As(err, &e) {
		io.WriteString(w, e.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint("ERROR:", ansiRed, ansiBold), err)
}

// PrintError prints err to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}
