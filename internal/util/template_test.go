package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("Analyze {{.section_title}}: {{.section_content}}", map[string]string{
		"section_title":   "Intro",
		"section_content": "body text",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Analyze Intro: body text", out)
}

func TestRenderTemplate_NoMarkers(t *testing.T) {
	out, err := RenderTemplate("plain text, no substitution", nil)
	assert.NoError(t, err)
	assert.Equal(t, "plain text, no substitution", out)
}

func TestRenderTemplate_MissingKeyRendersEmpty(t *testing.T) {
	out, err := RenderTemplate("before[{{.unknown}}]after", map[string]string{"other": "x"})
	assert.NoError(t, err)
	assert.Equal(t, "before[]after", out)
}

func TestRenderTemplate_Malformed(t *testing.T) {
	_, err := RenderTemplate("{{.unclosed", nil)
	assert.Error(t, err)
}

func TestRenderTemplate_Funcs(t *testing.T) {
	out, err := RenderTemplate("{{upper .name}}", map[string]string{"name": "actor"})
	assert.NoError(t, err)
	assert.Equal(t, "ACTOR", out)
}

func TestTemplatePlaceholders(t *testing.T) {
	names, err := TemplatePlaceholders("{{.section_title}} {{.actor_output}} {{.section_title}}")
	assert.NoError(t, err)
	assert.Equal(t, []string{"section_title", "actor_output"}, names)
}

func TestTemplatePlaceholders_None(t *testing.T) {
	names, err := TemplatePlaceholders("no placeholders here")
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestTemplatePlaceholders_Malformed(t *testing.T) {
	_, err := TemplatePlaceholders("{{.bad")
	assert.Error(t, err)
}
