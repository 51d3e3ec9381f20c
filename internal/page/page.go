package page

import (
	"fmt"
	"os"
	"strings"
)

// Renderer serves a static HTML file with $PLACEHOLDER tokens replaced.
// The file is read on every call so edits show up without a restart.
type Renderer struct {
	path     string
	replacer *strings.Replacer
}

// NewRenderer builds a Renderer. Keys of values are the placeholder
// tokens including the leading "$".
func NewRenderer(path string, values map[string]string) *Renderer {
	pairs := make([]string, 0, len(values)*2)
	for token, value := range values {
		pairs = append(pairs, token, value)
	}
	return &Renderer{path: path, replacer: strings.NewReplacer(pairs...)}
}

// Render returns the page with all placeholders substituted.
func (r *Renderer) Render() ([]byte, error) {
	content, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", r.path, err)
	}
	return []byte(r.replacer.Replace(string(content))), nil
}
