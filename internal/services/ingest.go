package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/draftline/draftline-backend/internal/clients/openai"
	"github.com/draftline/draftline-backend/internal/clients/pinecone"
	pkgerrors "github.com/draftline/draftline-backend/internal/pkg/errors"
	"github.com/draftline/draftline-backend/internal/pkg/logger"
)

// IngestService writes reference texts into the vector index so later
// suggestion runs can retrieve them as guideline context. Each text is
// embedded and upserted with the raw text kept in metadata, which is the
// shape retrieval reads back.
type IngestService interface {
	Ingest(ctx context.Context, texts []string) (int, error)
}

type ingestService struct {
	log       *logger.Logger
	ai        openai.Client
	store     pinecone.VectorStore
	namespace string
}

func NewIngestService(log *logger.Logger, ai openai.Client, store pinecone.VectorStore) (IngestService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	if store == nil {
		return nil, fmt.Errorf("vector store required")
	}
	return &ingestService{
		log:       log.With("service", "IngestService"),
		ai:        ai,
		store:     store,
		namespace: strings.TrimSpace(os.Getenv("PINECONE_NAMESPACE")),
	}, nil
}

// Ingest embeds and upserts the given texts, returning how many were
// written. Blank texts are dropped; all-blank input is an invalid argument.
// Unlike retrieval, a failed write is surfaced to the caller.
func (is *ingestService) Ingest(ctx context.Context, texts []string) (int, error) {
	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return 0, fmt.Errorf("%w: no texts to ingest", pkgerrors.ErrInvalidArgument)
	}

	vectors := make([]pinecone.Vector, 0, len(cleaned))
	for _, text := range cleaned {
		vec, err := is.ai.Embed(ctx, text)
		if err != nil {
			return 0, fmt.Errorf("Failed to embed text: %w", err)
		}
		vectors = append(vectors, pinecone.Vector{
			ID:       uuid.NewString(),
			Values:   vec,
			Metadata: map[string]any{"text": text},
		})
	}

	if err := is.store.Upsert(ctx, is.namespace, vectors); err != nil {
		is.log.Error("Vector upsert failed", "count", len(vectors), "error", err)
		return 0, err
	}
	is.log.Info("Ingested reference texts", "count", len(vectors), "namespace", is.namespace)
	return len(vectors), nil
}
