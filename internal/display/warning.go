package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// warnColor is shared so tests can force color on or off.
var warnColor = color.New(color.FgYellow)

// String renders the warning without color.
func (w Warning) String() string {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		if len(w.Files) == 1 {
			b.WriteString("    Affected file:\n")
		} else {
			b.WriteString("    Affected files:\n")
		}
		for i, file := range w.Files {
			fmt.Fprintf(&b, "      %d. %s\n", i+1, file)
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	return b.String()
}

// Display shows a formatted warning in yellow
func (w Warning) Display(out io.Writer) {
	fmt.Fprint(out, warnColor.Sprint(w.String()))
}

// Warn is a shorthand for a warning with a title and the error that caused it.
func Warn(out io.Writer, title string, err error, files ...string) {
	w := Warning{Title: title, Files: files}
	if err != nil {
		w.Message = err.Error()
	}
	w.Display(out)
}
