// Package server exposes the pipeline engine over HTTP using the endpoint
// contract the dashboard consumes: synchronous and asynchronous runs, job
// status and result polling, job listing and the agent-set read surface.
//
// The server is a thin JSON layer: all validation and execution semantics
// live in the pipeline and job packages. Error taxonomy maps onto status
// codes (InvalidInput 400, NotFound 404, NotReady 409, everything else 500).
package server
