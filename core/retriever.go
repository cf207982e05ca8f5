package core

import "context"

// RetrievalQuery describes one context lookup against a document store.
type RetrievalQuery struct {
	// Query is the search text; the runner uses the section's content.
	Query string
	// Collection names the document collection to search.
	Collection string
	// DocumentID optionally restricts the search to one document.
	DocumentID string
	// TopK bounds the number of returned chunks.
	TopK int
}

// Retrieval is the outcome of a context lookup. Citations is opaque
// preformatted text passed through unmodified to the final result.
type Retrieval struct {
	Context   string
	Citations string
}

// Retriever supplies ranked context chunks with citation metadata for a
// query string. Implementations may back retrieval with vector search,
// keyword indexes or any heuristic.
type Retriever interface {
	Retrieve(ctx context.Context, q RetrievalQuery) (Retrieval, error)
}
