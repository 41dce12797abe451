package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/draftline/draftline-backend/internal/pkg/errors"
	"github.com/draftline/draftline-backend/internal/pkg/logger"
)

func newTestClient(t *testing.T, serverURL string) Client {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", serverURL)
	t.Setenv("OPENAI_MAX_RETRIES", "0")

	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("Failed to build client: %v", err)
	}
	return c
}

func TestEmbedBlankInputSkipsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("blank input must not reach the network")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Embed(context.Background(), "   \n\t ")
	if !errors.Is(err, pkgerrors.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestEmbedDecodesVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Input) != 1 || req.Input[0] != "hello world" {
			t.Errorf("unexpected input %v", req.Input)
		}
		fmt.Fprint(w, `{"data":[{"embedding":[0.25,-0.5,1.0],"index":0}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vec, err := c.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.25 || vec[1] != -0.5 || vec[2] != 1.0 {
		t.Fatalf("unexpected vector %v", vec)
	}
}

func TestGenerateTextExtractsOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req responsesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Instructions != "be helpful" {
			t.Errorf("unexpected instructions %q", req.Instructions)
		}
		fmt.Fprint(w, `{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"hello "},{"type":"output_text","text":"there"}]}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	text, err := c.GenerateText(context.Background(), "say hi", CompletionOptions{System: "be helpful"})
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "hello there" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestGenerateTextNonRetryableStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.GenerateText(context.Background(), "x", CompletionOptions{})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	var httpErr *openAIHTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected openAIHTTPError with 400, got %v", err)
	}
}

func TestStreamTextAssemblesDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			`event: response.output_text.delta` + "\n" + `data: {"type":"response.output_text.delta","delta":"Hel"}` + "\n\n",
			`event: response.output_text.delta` + "\n" + `data: {"type":"response.output_text.delta","delta":"lo"}` + "\n\n",
			`event: response.completed` + "\n" + `data: {"type":"response.completed"}` + "\n\n",
			"data: [DONE]\n\n",
		}
		for _, f := range frames {
			fmt.Fprint(w, f)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	var deltas []string
	text, err := c.StreamText(context.Background(), "say hi", CompletionOptions{}, func(d string) {
		deltas = append(deltas, d)
	})
	if err != nil {
		t.Fatalf("StreamText failed: %v", err)
	}
	if text != "Hello" {
		t.Fatalf("unexpected text %q", text)
	}
	if strings.Join(deltas, "") != "Hello" {
		t.Fatalf("unexpected deltas %v", deltas)
	}
}

func TestStreamTextSurfacesStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"type":"response.failed","error":{"message":"overloaded"}}`+"\n\n")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.StreamText(context.Background(), "say hi", CompletionOptions{}, nil)
	if err == nil || !strings.Contains(err.Error(), "overloaded") {
		t.Fatalf("expected stream error with upstream message, got %v", err)
	}
}
