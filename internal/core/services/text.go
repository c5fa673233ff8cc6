package services

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// truncateRunes returns at most limit characters of s. A non-positive
// limit leaves s unchanged.
func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// renderPrompt loads a prompt template and executes it with data.
func renderPrompt(store driven.PromptStore, name string, data any) (string, error) {
	raw, err := store.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", name, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse prompt %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
