package services

import (
	"context"
	"errors"
	"testing"

	"github.com/draftline/draftline-backend/internal/clients/openai"
	"github.com/draftline/draftline-backend/internal/clients/pinecone"
	pkgerrors "github.com/draftline/draftline-backend/internal/pkg/errors"
	"github.com/draftline/draftline-backend/internal/pkg/logger"
)

type fakeEmbedder struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedFn != nil {
		return f.embedFn(ctx, text)
	}
	return []float32{0.1, 0.2}, nil
}

func (f *fakeEmbedder) GenerateText(ctx context.Context, prompt string, opts openai.CompletionOptions) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeEmbedder) StreamText(ctx context.Context, prompt string, opts openai.CompletionOptions, onDelta func(string)) (string, error) {
	return "", errors.New("not used")
}

type fakeVectorStore struct {
	upserted []pinecone.Vector
	err      error
}

func (f *fakeVectorStore) Search(ctx context.Context, namespace string, q []float32, topK int) ([]pinecone.Snippet, error) {
	return nil, errors.New("not used")
}

func (f *fakeVectorStore) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error {
	f.upserted = append(f.upserted, vectors...)
	return f.err
}

func newTestIngest(t *testing.T, ai openai.Client, store pinecone.VectorStore) IngestService {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}
	svc, err := NewIngestService(log, ai, store)
	if err != nil {
		t.Fatalf("Failed to build ingest service: %v", err)
	}
	return svc
}

func TestIngestEmbedsAndUpserts(t *testing.T) {
	store := &fakeVectorStore{}
	svc := newTestIngest(t, &fakeEmbedder{}, store)

	count, err := svc.Ingest(context.Background(), []string{"post like a founder", "  ", "keep hooks short"})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 ingested, got %d", count)
	}
	if len(store.upserted) != 2 {
		t.Fatalf("expected 2 vectors upserted, got %d", len(store.upserted))
	}
	if store.upserted[0].ID == "" || store.upserted[0].ID == store.upserted[1].ID {
		t.Fatalf("expected distinct vector IDs, got %q and %q", store.upserted[0].ID, store.upserted[1].ID)
	}
	if store.upserted[0].Metadata["text"] != "post like a founder" {
		t.Fatalf("expected raw text in metadata, got %v", store.upserted[0].Metadata)
	}
	if store.upserted[1].Metadata["text"] != "keep hooks short" {
		t.Fatalf("expected blank text dropped, got %v", store.upserted[1].Metadata)
	}
}

func TestIngestRejectsAllBlankInput(t *testing.T) {
	store := &fakeVectorStore{}
	svc := newTestIngest(t, &fakeEmbedder{}, store)

	_, err := svc.Ingest(context.Background(), []string{"", "   "})
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(store.upserted) != 0 {
		t.Fatalf("no vectors should be written for blank input, got %d", len(store.upserted))
	}
}

func TestIngestSurfacesEmbedFailure(t *testing.T) {
	ai := &fakeEmbedder{embedFn: func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding backend down")
	}}
	store := &fakeVectorStore{}
	svc := newTestIngest(t, ai, store)

	_, err := svc.Ingest(context.Background(), []string{"some text"})
	if err == nil {
		t.Fatal("expected embed failure to surface")
	}
	if len(store.upserted) != 0 {
		t.Fatalf("no vectors should be written after embed failure, got %d", len(store.upserted))
	}
}

func TestIngestSurfacesUpsertFailure(t *testing.T) {
	store := &fakeVectorStore{err: errors.New("index write failed")}
	svc := newTestIngest(t, &fakeEmbedder{}, store)

	_, err := svc.Ingest(context.Background(), []string{"some text"})
	if err == nil {
		t.Fatal("expected upsert failure to surface")
	}
}
