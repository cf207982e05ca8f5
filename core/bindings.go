package core

// Placeholder names recognized by prompt templates. Templates reference them
// with Go template syntax, e.g. {{.section_content}}. The vocabulary is
// closed: catalogs validate templates against it (plus the set's stage
// output keys) at registration time, never at run time.
const (
	// PlaceholderSectionTitle binds the current section's title.
	PlaceholderSectionTitle = "section_title"
	// PlaceholderSectionContent binds the current section's content.
	PlaceholderSectionContent = "section_content"
	// PlaceholderRAGContext binds retrieved context for the section, or
	// empty when retrieval is disabled or degraded.
	PlaceholderRAGContext = "rag_context"
	// PlaceholderDataSample is an alias for the section content kept for
	// single-agent compliance templates.
	PlaceholderDataSample = "data_sample"
	// PlaceholderPreviousOutput is reserved for sequential stages: it binds
	// the immediately preceding instance's output within the same stage.
	PlaceholderPreviousOutput = "previous_output"
)

// StageOutputKey returns the placeholder under which a completed stage's
// consolidated output is exposed to later stages, e.g. "actor_output".
func StageOutputKey(stageName string) string { return stageName + "_output" }

// Bindings is the accumulated placeholder map available to a stage's prompt
// templates. Unresolved placeholders render as empty strings; a missing
// upstream output never aborts a stage.
type Bindings map[string]string

// Clone returns an independent copy.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// WithStageOutput returns a copy with the given stage's consolidated output
// bound under its stage output key.
func (b Bindings) WithStageOutput(stageName, output string) Bindings {
	out := b.Clone()
	out[StageOutputKey(stageName)] = output
	return out
}
