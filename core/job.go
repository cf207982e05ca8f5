package core

import "time"

// JobStatus is the lifecycle state of a pipeline job.
// Transitions: QUEUED -> PROCESSING -> {COMPLETED | FAILED}.
type JobStatus string

const (
	// JobQueued is the initial state immediately after submission.
	JobQueued JobStatus = "QUEUED"
	// JobProcessing means the pipeline runner has begun executing.
	JobProcessing JobStatus = "PROCESSING"
	// JobCompleted is terminal and carries the full PipelineResult.
	JobCompleted JobStatus = "COMPLETED"
	// JobFailed is terminal and carries an error detail; partial results
	// are discarded.
	JobFailed JobStatus = "FAILED"
)

// Terminal reports whether the status permits no further mutation.
func (s JobStatus) Terminal() bool { return s == JobCompleted || s == JobFailed }

// PipelineJob is one asynchronous execution of a pipeline against an input.
// A job is created at submission time, mutated only by the runner executing
// it, and immutable once terminal. Progress is monotonically non-decreasing
// while the job is QUEUED or PROCESSING.
type PipelineJob struct {
	ID              string          `json:"pipeline_id"`
	Title           string          `json:"title"`
	AgentSetID      string          `json:"agent_set_id"`
	AgentSetName    string          `json:"agent_set_name"`
	Status          JobStatus       `json:"status"`
	Progress        int             `json:"progress"`
	ProgressMessage string          `json:"progress_message,omitempty"`
	Created         time.Time       `json:"created_at"`
	Result          *PipelineResult `json:"result,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// Clone returns a deep copy preventing external mutation of tracker state.
func (j *PipelineJob) Clone() *PipelineJob {
	out := *j
	if j.Result != nil {
		res := *j.Result
		res.SectionResults = append([]SectionResult(nil), j.Result.SectionResults...)
		out.Result = &res
	}
	return &out
}

// Summary reduces the job to its listing shape.
func (j *PipelineJob) Summary() JobSummary {
	return JobSummary{
		PipelineID:   j.ID,
		Status:       j.Status,
		Title:        j.Title,
		AgentSetName: j.AgentSetName,
		Progress:     j.Progress,
		Created:      j.Created,
	}
}

// JobSummary is the compact job representation returned by list queries.
type JobSummary struct {
	PipelineID   string    `json:"pipeline_id"`
	Status       JobStatus `json:"status"`
	Title        string    `json:"title"`
	AgentSetName string    `json:"agent_set_name"`
	Progress     int       `json:"progress"`
	Created      time.Time `json:"created_at"`
}
