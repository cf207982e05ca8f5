package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/agentpipe/core"
)

// Chunk is one retrievable unit of a stored document.
type Chunk struct {
	ID         string
	DocumentID string
	Title      string
	Content    string
	Metadata   map[string]any
}

// DocStore is a naive process-local core.Retriever. It offers:
//  1. Collection scoped chunk storage (Add)
//  2. Term-overlap Search with optional document filter and top-K
//
// Concurrency: protected by RWMutex.
// Scoring: counts query terms contained in the chunk, case insensitive.
// Suitable only for tests / demos; production retrieval belongs in a vector
// store behind the same interface.
type DocStore struct {
	mu          sync.RWMutex
	collections map[string][]Chunk
}

// NewDocStore creates a new in-memory document store.
func NewDocStore() *DocStore {
	return &DocStore{collections: make(map[string][]Chunk)}
}

// Add appends a chunk to a collection, generating an id when absent.
func (d *DocStore) Add(collection string, chunk Chunk) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if chunk.ID == "" {
		chunk.ID = fmt.Sprintf("chunk_%d", len(d.collections[collection]))
	}
	d.collections[collection] = append(d.collections[collection], chunk)
	return chunk.ID
}

// Collections returns the known collection names, sorted.
func (d *DocStore) Collections() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.collections))
	for name := range d.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type scoredChunk struct {
	chunk Chunk
	score int
	pos   int
}

// Retrieve implements core.Retriever. Results are ranked by term overlap
// with ties broken by insertion order; the formatted citations list the
// contributing chunks in rank order.
func (d *DocStore) Retrieve(ctx context.Context, q core.RetrievalQuery) (core.Retrieval, error) {
	if err := ctx.Err(); err != nil {
		return core.Retrieval{}, err
	}
	if q.Collection == "" {
		return core.Retrieval{}, fmt.Errorf("%w: no collection specified", core.ErrRetrieval)
	}

	d.mu.RLock()
	chunks, ok := d.collections[q.Collection]
	d.mu.RUnlock()
	if !ok {
		return core.Retrieval{}, fmt.Errorf("%w: unknown collection %q", core.ErrRetrieval, q.Collection)
	}

	terms := strings.Fields(strings.ToLower(q.Query))
	var scored []scoredChunk
	for i, c := range chunks {
		if q.DocumentID != "" && c.DocumentID != q.DocumentID {
			continue
		}
		content := strings.ToLower(c.Content)
		score := 0
		for _, t := range terms {
			if strings.Contains(content, t) {
				score++
			}
		}
		if score > 0 {
			scored = append(scored, scoredChunk{chunk: c, score: score, pos: i})
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		if scored[a].score != scored[b].score {
			return scored[a].score > scored[b].score
		}
		return scored[a].pos < scored[b].pos
	})

	topK := q.TopK
	if topK <= 0 {
		topK = 5
	}
	if len(scored) > topK {
		scored = scored[:topK]
	}

	var contextParts, citations []string
	for i, sc := range scored {
		contextParts = append(contextParts, sc.chunk.Content)
		title := sc.chunk.Title
		if title == "" {
			title = sc.chunk.DocumentID
		}
		citations = append(citations, fmt.Sprintf("[%d] %s (%s)", i+1, title, sc.chunk.ID))
	}

	return core.Retrieval{
		Context:   strings.Join(contextParts, "\n\n"),
		Citations: strings.Join(citations, "\n"),
	}, nil
}
