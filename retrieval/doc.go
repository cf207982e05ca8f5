// Package retrieval houses concrete implementations of core.Retriever plus
// the pipeline-facing glue that degrades retrieval failures into missing
// context instead of pipeline failures.
//
// The bundled DocStore is a naive process-local document store with
// substring scoring. Swap in a vector database or semantic index for
// production retrieval; only the wiring layer changes.
package retrieval
