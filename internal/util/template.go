package util

import (
	"bytes"
	"strings"
	"text/template"
)

// RenderTemplate replaces template variables using Go's text/template
// package. Unresolved placeholders render as empty strings so one missing
// upstream binding never aborts a stage.
func RenderTemplate(text string, bindings map[string]string) (string, error) {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text, nil
	}

	tmpl, err := template.New("prompt").Option("missingkey=zero").Funcs(template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"trim":  strings.TrimSpace,
	}).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, bindings); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// TemplatePlaceholders parses the template and returns the field names it
// references, enabling validation against a closed placeholder vocabulary
// at agent-set registration time.
func TemplatePlaceholders(text string) ([]string, error) {
	if !strings.Contains(text, "{{") {
		return nil, nil
	}

	tmpl, err := template.New("prompt").Option("missingkey=zero").Funcs(template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"trim":  strings.TrimSpace,
	}).Parse(text)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var names []string
	for _, t := range tmpl.Templates() {
		if t.Tree == nil || t.Tree.Root == nil {
			continue
		}
		for _, name := range fieldNames(t.Tree.Root.String()) {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// fieldNames extracts ".name" references from a template tree's text form.
// Template syntax is restricted enough in prompt templates (plain field
// actions, optionally piped through helper funcs) that a scan suffices.
func fieldNames(src string) []string {
	var names []string
	for i := 0; i < len(src); i++ {
		if src[i] != '.' {
			continue
		}
		if i > 0 && isIdentChar(src[i-1]) {
			continue
		}
		j := i + 1
		for j < len(src) && isIdentChar(src[j]) {
			j++
		}
		if j > i+1 {
			names = append(names, src[i+1:j])
		}
		i = j - 1
	}
	return names
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
