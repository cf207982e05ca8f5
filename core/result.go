package core

import "time"

// AgentInvocationResult records one model invocation on behalf of an agent
// instance. Failures are data, not errors: a failed invocation carries its
// error detail here and never aborts siblings or the stage.
type AgentInvocationResult struct {
	AgentID        string        `json:"agent_id"`
	AgentName      string        `json:"agent_name"`
	ModelName      string        `json:"model_name"`
	RenderedPrompt string        `json:"rendered_prompt,omitempty"`
	Success        bool          `json:"success"`
	Output         string        `json:"output,omitempty"`
	Error          string        `json:"error,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// StageResult aggregates one stage's invocations for one section. Entries
// match the stage's agent-instance references one to one, in submission
// order, regardless of execution mode or individual failures.
type StageResult struct {
	StageName     string                  `json:"stage_name"`
	ExecutionMode ExecutionMode           `json:"execution_mode"`
	AgentResults  []AgentInvocationResult `json:"agent_results"`
}

// SuccessCount returns the number of successful invocations.
func (r StageResult) SuccessCount() int {
	n := 0
	for _, ar := range r.AgentResults {
		if ar.Success {
			n++
		}
	}
	return n
}

// SectionResult aggregates all stage results for one section plus the
// section's consolidated text.
type SectionResult struct {
	SectionTitle          string        `json:"section_title"`
	SectionContentPreview string        `json:"section_content_preview"`
	StageResults          []StageResult `json:"stage_results"`
	ConsolidatedText      string        `json:"consolidated_text"`
}

// PipelineResult is the final output artifact of one pipeline run. Its JSON
// shape is the wire contract consumed by dashboard clients.
type PipelineResult struct {
	Title                string          `json:"title"`
	AgentSetID           string          `json:"agent_set_id"`
	AgentSetName         string          `json:"agent_set_name"`
	TotalSections        int             `json:"total_sections"`
	TotalStagesExecuted  int             `json:"total_stages_executed"`
	TotalAgentsExecuted  int             `json:"total_agents_executed"`
	FailedAgentCount     int             `json:"failed_agent_count"`
	ProcessingTime       float64         `json:"processing_time"`
	RAGContextUsed       bool            `json:"rag_context_used"`
	RAGCollection        string          `json:"rag_collection,omitempty"`
	ConsolidatedOutput   string          `json:"consolidated_output"`
	FormattedCitations   string          `json:"formatted_citations,omitempty"`
	SectionResults       []SectionResult `json:"section_results"`
}
