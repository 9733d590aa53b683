// Package knowledge holds the marketplace knowledge base that grounds the
// assistant's free-form answers. The default base ships embedded in the
// binary; deployments can override it with a file on disk.
package knowledge

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed knowledge_base.md
var embedded string

// Base is the system-prompt knowledge for assistant mode.
type Base struct {
	content string
}

// Load returns the knowledge base. If path is empty the embedded base is
// used; otherwise the file at path replaces it entirely.
func Load(path string) (*Base, error) {
	if path == "" {
		return &Base{content: embedded}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge base %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("knowledge base %s is empty", path)
	}
	return &Base{content: string(data)}, nil
}

// Content returns the raw knowledge text.
func (b *Base) Content() string {
	return b.content
}

// SystemPrompt renders the knowledge base as a system prompt, appending a
// language directive when the conversation is not in English.
func (b *Base) SystemPrompt(language string) string {
	var sb strings.Builder
	sb.WriteString(b.content)
	if language != "" && language != "en" {
		sb.WriteString("\n\nThe buyer prefers language code ")
		sb.WriteString(language)
		sb.WriteString(". Reply in that language.")
	}
	return sb.String()
}
