package retrieval

import (
	"context"

	"github.com/hupe1980/agentpipe/core"
	"github.com/hupe1980/agentpipe/logging"
)

// ForSection performs one retrieval on behalf of a section, degrading any
// failure to empty context plus a warning. A retrieval failure must never
// fail the pipeline; analysis proceeds with reduced context.
func ForSection(ctx context.Context, r core.Retriever, section core.Section, q core.RetrievalQuery, logger logging.Logger) core.Retrieval {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	q.Query = section.Content
	ret, err := r.Retrieve(ctx, q)
	if err != nil {
		logger.Warn("retrieval degraded for section", "section", section.Title, "collection", q.Collection, "error", err)
		return core.Retrieval{}
	}
	return ret
}
