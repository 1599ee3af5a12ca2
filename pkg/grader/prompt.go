package grader

import (
	"os"
	"strings"
	"sync"
)

// promptMarker delimits the grading instructions inside the template file.
// Anything before the marker (authoring notes, changelog) is dropped.
const promptMarker = "# Grading System Prompt"

const languagePlaceholder = "${language}"

// PromptSource supplies the grading system prompt. The template file is
// read once on first use and cached for the process lifetime; the language
// placeholder is substituted per request.
type PromptSource struct {
	path string

	once     sync.Once
	template string
	err      error
}

// NewPromptSource builds a source that lazily reads the template at path.
func NewPromptSource(path string) *PromptSource {
	return &PromptSource{path: path}
}

// NewStaticPromptSource builds a source around an in-memory template.
func NewStaticPromptSource(template string) *PromptSource {
	source := &PromptSource{template: template}
	source.once.Do(func() {})
	return source
}

func (p *PromptSource) load() {
	data, err := os.ReadFile(p.path)
	if err != nil {
		p.err = &ConfigurationError{Message: "failed to load grading prompt template", Err: err}
		return
	}

	text := string(data)
	if idx := strings.Index(text, promptMarker); idx >= 0 {
		text = text[idx:]
	}
	p.template = text
}

// SystemPrompt returns the grading directive with every language placeholder
// replaced by the given language. A ConfigurationError is returned when the
// template cannot be read.
func (p *PromptSource) SystemPrompt(language string) (string, error) {
	p.once.Do(p.load)
	if p.err != nil {
		return "", p.err
	}

	return strings.ReplaceAll(p.template, languagePlaceholder, language), nil
}
