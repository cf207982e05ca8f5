// Package core provides the foundational domain types and interfaces used by
// AgentPipe. It defines the core abstractions for:
//
//   - Agent definitions (prompt + model configurations) and agent sets
//     (ordered pipelines of stages)
//   - Sections (independently processed units of input text)
//   - Invocation, stage, section and pipeline results
//   - Pipeline jobs (asynchronous execution lifecycle records)
//   - Pluggable collaborators: the agent catalog and the retrieval provider
//
// The package intentionally keeps implementation concerns (persistence,
// execution, transport) out of scope, exposing small interfaces to enable
// custom backends and extensions.
package core
