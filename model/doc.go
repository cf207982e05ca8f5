// Package model defines the provider-agnostic abstraction for invoking
// language models inside AgentPipe.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Isolate per-call parameters (model, temperature, max tokens) so one
//     invoker serves many agent definitions
//   - Facilitate lightweight mocking for tests (MockInvoker)
//
// Providers (e.g. OpenAI, Anthropic) implement the Invoker interface from
// this package so the pipeline executor remains decoupled from vendor SDKs.
package model
