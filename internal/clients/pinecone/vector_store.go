package pinecone

import (
	"context"
	"fmt"
	"os"
	"strings"

	pkgerrors "github.com/draftline/draftline-backend/internal/pkg/errors"
	"github.com/draftline/draftline-backend/internal/pkg/logger"
)

// Snippet is one retrieved reference text with its similarity score, in the
// order the remote service returned it.
type Snippet struct {
	Text  string
	Score float64
}

type VectorStore interface {
	// Search returns up to topK snippets ordered by descending similarity.
	// Remote failures surface as pkgerrors.ErrRetrievalUnavailable so callers
	// can degrade to empty context.
	Search(ctx context.Context, namespace string, q []float32, topK int) ([]Snippet, error)

	// Upsert writes vectors into the index. Unlike Search, failures are
	// surfaced verbatim: ingestion callers want the write to fail loudly.
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
}

type vectorStore struct {
	log       *logger.Logger
	pc        Client
	indexName string
	indexHost string
}

func NewVectorStore(log *logger.Logger, pc Client) (VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if pc == nil {
		return nil, fmt.Errorf("pinecone client required")
	}

	indexName := strings.TrimSpace(os.Getenv("PINECONE_INDEX_NAME"))
	if indexName == "" {
		return nil, fmt.Errorf("missing PINECONE_INDEX_NAME")
	}

	host := strings.TrimSpace(os.Getenv("PINECONE_INDEX_HOST"))

	// If host missing, bootstrap via describe_index (fine for local/dev;
	// avoid in prod).
	if host == "" {
		desc, err := pc.DescribeIndex(context.Background(), indexName)
		if err != nil {
			return nil, fmt.Errorf("pinecone describe_index failed: %w", err)
		}
		host = strings.TrimSpace(desc.Host)
		log.Warn("PINECONE_INDEX_HOST not set; resolved via describe_index (avoid this in production)",
			"index_name", indexName,
			"index_host", host,
		)
	}

	return &vectorStore{
		log:       log.With("service", "PineconeVectorStore"),
		pc:        pc,
		indexName: indexName,
		indexHost: host,
	}, nil
}

// NewUnavailableStore stands in when retrieval is not configured; every
// search reports pkgerrors.ErrRetrievalUnavailable so generation degrades to
// empty context instead of failing.
func NewUnavailableStore(log *logger.Logger) VectorStore {
	return &unavailableStore{log: log.With("service", "PineconeVectorStore")}
}

type unavailableStore struct {
	log *logger.Logger
}

func (s *unavailableStore) Search(ctx context.Context, namespace string, q []float32, topK int) ([]Snippet, error) {
	return nil, fmt.Errorf("%w: vector store not configured", pkgerrors.ErrRetrievalUnavailable)
}

func (s *unavailableStore) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	return fmt.Errorf("%w: vector store not configured", pkgerrors.ErrRetrievalUnavailable)
}

func (s *vectorStore) Search(ctx context.Context, namespace string, q []float32, topK int) ([]Snippet, error) {
	resp, err := s.pc.Query(ctx, s.indexHost, QueryRequest{
		Namespace:       strings.TrimSpace(namespace),
		Vector:          q,
		TopK:            topK,
		IncludeValues:   false,
		IncludeMetadata: true,
	})
	if err != nil {
		s.log.Warn("Pinecone query failed", "error", err)
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrRetrievalUnavailable, err)
	}

	out := make([]Snippet, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		text, _ := m.Metadata["text"].(string)
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, Snippet{Text: text, Score: m.Score})
	}
	return out, nil
}

func (s *vectorStore) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	resp, err := s.pc.UpsertVectors(ctx, s.indexHost, UpsertRequest{
		Vectors:   vectors,
		Namespace: strings.TrimSpace(namespace),
	})
	if err != nil {
		return fmt.Errorf("Failed to upsert vectors: %w", err)
	}
	s.log.Debug("Upserted vectors", "count", resp.UpsertedCount, "namespace", namespace)
	return nil
}
