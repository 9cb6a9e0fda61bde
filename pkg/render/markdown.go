// Package render prints the step catalog for terminal display.
package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
)

// Catalog is anything that can describe itself as markdown, e.g. a step registry.
type Catalog interface {
	Markdown() string
}

// defaultWrap is the word wrap width for rendered markdown.
const defaultWrap = 100

// Markdown renders markdown content for terminal display.
// If noColor is true, returns the content unchanged.
// Otherwise, uses glamour to render with auto-detected style and word wrap.
func Markdown(content string, noColor bool) (string, error) {
	if noColor {
		return content, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(defaultWrap),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	result, err := renderer.Render(content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	return result, nil
}

// WriteCatalog renders the catalog and writes it to w.
func WriteCatalog(w io.Writer, c Catalog, noColor bool) error {
	out, err := Markdown(c.Markdown(), noColor)
	if err != nil {
		return fmt.Errorf("render step catalog: %w", err)
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("write step catalog: %w", err)
	}
	return nil
}
