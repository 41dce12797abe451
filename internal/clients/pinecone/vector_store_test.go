package pinecone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/draftline/draftline-backend/internal/pkg/errors"
	"github.com/draftline/draftline-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}
	return log
}

func newTestStore(t *testing.T, host string) VectorStore {
	t.Helper()
	t.Setenv("PINECONE_INDEX_NAME", "test-index")
	t.Setenv("PINECONE_INDEX_HOST", host)

	log := testLogger(t)
	pc, err := New(log, Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("Failed to build pinecone client: %v", err)
	}
	store, err := NewVectorStore(log, pc)
	if err != nil {
		t.Fatalf("Failed to build vector store: %v", err)
	}
	return store
}

func TestSearchExtractsSnippets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Api-Key"); got != "test-key" {
			t.Errorf("unexpected api key header %q", got)
		}
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.TopK != 3 || !req.IncludeMetadata {
			t.Errorf("unexpected query shape %+v", req)
		}
		fmt.Fprint(w, `{"matches":[
			{"id":"a","score":0.91,"metadata":{"text":"first guideline"}},
			{"id":"b","score":0.84,"metadata":{"text":"  "}},
			{"id":"c","score":0.80,"metadata":{"text":"second guideline"}}
		]}`)
	}))
	defer srv.Close()

	store := newTestStore(t, srv.URL)
	snippets, err := store.Search(context.Background(), "", []float32{0.1, 0.2}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(snippets) != 2 {
		t.Fatalf("expected blank-text match dropped, got %d snippets", len(snippets))
	}
	if snippets[0].Text != "first guideline" || snippets[0].Score != 0.91 {
		t.Fatalf("unexpected first snippet %+v", snippets[0])
	}
	if snippets[1].Text != "second guideline" {
		t.Fatalf("unexpected second snippet %+v", snippets[1])
	}
}

func TestSearchWrapsFailureAsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	store := newTestStore(t, srv.URL)
	_, err := store.Search(context.Background(), "", []float32{0.1}, 3)
	if !errors.Is(err, pkgerrors.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestUpsertSendsVectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vectors/upsert" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Api-Key"); got != "test-key" {
			t.Errorf("unexpected api key header %q", got)
		}
		var req UpsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Vectors) != 2 {
			t.Errorf("expected 2 vectors, got %d", len(req.Vectors))
		}
		if req.Namespace != "team-a" {
			t.Errorf("unexpected namespace %q", req.Namespace)
		}
		if req.Vectors[0].ID == "" || req.Vectors[0].Metadata["text"] != "first guideline" {
			t.Errorf("unexpected first vector %+v", req.Vectors[0])
		}
		fmt.Fprint(w, `{"upsertedCount":2}`)
	}))
	defer srv.Close()

	store := newTestStore(t, srv.URL)
	err := store.Upsert(context.Background(), "team-a", []Vector{
		{ID: "v1", Values: []float32{0.1, 0.2}, Metadata: map[string]any{"text": "first guideline"}},
		{ID: "v2", Values: []float32{0.3, 0.4}, Metadata: map[string]any{"text": "second guideline"}},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
}

func TestUpsertEmptyVectorsSkipsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty upsert")
	}))
	defer srv.Close()

	store := newTestStore(t, srv.URL)
	if err := store.Upsert(context.Background(), "", nil); err != nil {
		t.Fatalf("empty upsert should be a no-op, got %v", err)
	}
}

func TestUpsertSurfacesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	store := newTestStore(t, srv.URL)
	err := store.Upsert(context.Background(), "", []Vector{{ID: "v1", Values: []float32{0.1}}})
	if err == nil {
		t.Fatal("expected upsert failure to surface")
	}
}

func TestUnavailableStoreAlwaysDegrades(t *testing.T) {
	store := NewUnavailableStore(testLogger(t))
	_, err := store.Search(context.Background(), "", []float32{0.1}, 3)
	if !errors.Is(err, pkgerrors.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
	if err := store.Upsert(context.Background(), "", []Vector{{ID: "v1"}}); !errors.Is(err, pkgerrors.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable from upsert, got %v", err)
	}
}
