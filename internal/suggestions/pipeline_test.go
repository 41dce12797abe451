package suggestions

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/draftline/draftline-backend/internal/clients/openai"
	"github.com/draftline/draftline-backend/internal/clients/pinecone"
	pkgerrors "github.com/draftline/draftline-backend/internal/pkg/errors"
	"github.com/draftline/draftline-backend/internal/pkg/logger"
	"github.com/draftline/draftline-backend/internal/types"
)

type fakeAI struct {
	embedFn  func(ctx context.Context, text string) ([]float32, error)
	genFn    func(ctx context.Context, prompt string, opts openai.CompletionOptions) (string, error)
	streamFn func(ctx context.Context, prompt string, opts openai.CompletionOptions) (string, error)
}

func (f *fakeAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedFn != nil {
		return f.embedFn(ctx, text)
	}
	return []float32{0.1, 0.2}, nil
}

func (f *fakeAI) GenerateText(ctx context.Context, prompt string, opts openai.CompletionOptions) (string, error) {
	if f.genFn != nil {
		return f.genFn(ctx, prompt, opts)
	}
	return "", errors.New("genFn not set")
}

func (f *fakeAI) StreamText(ctx context.Context, prompt string, opts openai.CompletionOptions, onDelta func(string)) (string, error) {
	if f.streamFn != nil {
		out, err := f.streamFn(ctx, prompt, opts)
		if err == nil && onDelta != nil {
			onDelta(out)
		}
		return out, err
	}
	return "", errors.New("streamFn not set")
}

type fakeProfiles struct {
	profile *types.Profile
	err     error
}

func (f *fakeProfiles) GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	return f.profile, f.err
}

type fakeStore struct {
	snippets []pinecone.Snippet
	err      error
	calls    int
}

func (f *fakeStore) Search(ctx context.Context, namespace string, q []float32, topK int) ([]pinecone.Snippet, error) {
	f.calls++
	return f.snippets, f.err
}

func (f *fakeStore) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error {
	return f.err
}

type staticPlanner struct{ topics []string }

func (p *staticPlanner) Plan(ctx context.Context, userInfo string) []string {
	return p.topics
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}
	return log
}

func newTestPipeline(t *testing.T, profiles ProfileGetter, ai openai.Client, store pinecone.VectorStore) Pipeline {
	t.Helper()
	p, err := NewPipeline(testLogger(t), profiles, ai, store, &staticPlanner{topics: []string{"topic one", "topic two"}})
	if err != nil {
		t.Fatalf("Failed to build pipeline: %v", err)
	}
	return p
}

func collectEvents(t *testing.T, p Pipeline, userID uuid.UUID, mode Mode) []Event {
	t.Helper()
	var events []Event
	if err := p.Run(context.Background(), userID, mode, func(e Event) {
		events = append(events, e)
	}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return events
}

func TestRunEmitsWarningForBlankCategory(t *testing.T) {
	profiles := &fakeProfiles{profile: &types.Profile{
		Name:            "Dana",
		Goal:            "grow an audience",
		PlannedContent:  "",
		ReactiveContent: "reacting to industry news",
		CompanyContent:  "our quarterly update",
	}}
	ai := &fakeAI{
		streamFn: func(ctx context.Context, prompt string, opts openai.CompletionOptions) (string, error) {
			return `{"content":"A post","hashtags":["go"],"callToAction":"Comment below"}`, nil
		},
	}
	p := newTestPipeline(t, profiles, ai, &fakeStore{})

	events := collectEvents(t, p, uuid.New(), ModeCategories)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}

	if events[0].Category != "plannedContent" || events[0].Warning == "" || events[0].Post != nil {
		t.Fatalf("expected warning for blank plannedContent, got %+v", events[0])
	}
	for i, want := range []string{"reactiveContent", "companyContent"} {
		e := events[i+1]
		if e.Category != want {
			t.Fatalf("event %d: expected category %q, got %q", i+1, want, e.Category)
		}
		if e.Post == nil || e.Post.Content != "A post" {
			t.Fatalf("event %d: expected a post, got %+v", i+1, e)
		}
	}
}

func TestRunDegradesWhenRetrievalUnavailable(t *testing.T) {
	profiles := &fakeProfiles{profile: &types.Profile{
		Name:            "Dana",
		Goal:            "grow an audience",
		PlannedContent:  "launch plan",
		ReactiveContent: "industry news",
		CompanyContent:  "company update",
	}}
	ai := &fakeAI{
		streamFn: func(ctx context.Context, prompt string, opts openai.CompletionOptions) (string, error) {
			return `{"content":"A post","hashtags":[],"callToAction":"Reply"}`, nil
		},
	}
	store := &fakeStore{err: pkgerrors.ErrRetrievalUnavailable}
	p := newTestPipeline(t, profiles, ai, store)

	events := collectEvents(t, p, uuid.New(), ModeCategories)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, e := range events {
		if e.Post == nil {
			t.Fatalf("event %d: expected a post despite retrieval outage, got %+v", i, e)
		}
	}
	if store.calls != 3 {
		t.Fatalf("expected 3 retrieval attempts, got %d", store.calls)
	}
}

func TestRunMissingProfileIsFatal(t *testing.T) {
	profiles := &fakeProfiles{err: pkgerrors.ErrNotFound}
	ai := &fakeAI{
		embedFn: func(ctx context.Context, text string) ([]float32, error) {
			t.Fatal("no item should be processed without a profile")
			return nil, nil
		},
	}
	p := newTestPipeline(t, profiles, ai, &fakeStore{})

	events := collectEvents(t, p, uuid.New(), ModeCategories)
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(events))
	}
	if events[0].Error == "" || events[0].Post != nil || events[0].Category != "" {
		t.Fatalf("expected a stream-fatal error event, got %+v", events[0])
	}
}

func TestRunGenerationFailureIsPerItem(t *testing.T) {
	profiles := &fakeProfiles{profile: &types.Profile{
		Name:            "Dana",
		PlannedContent:  "a",
		ReactiveContent: "b",
		CompanyContent:  "c",
	}}
	calls := 0
	ai := &fakeAI{
		streamFn: func(ctx context.Context, prompt string, opts openai.CompletionOptions) (string, error) {
			calls++
			if calls == 2 {
				return "", errors.New("upstream timeout")
			}
			return `{"content":"ok","hashtags":[],"callToAction":"x"}`, nil
		},
	}
	p := newTestPipeline(t, profiles, ai, &fakeStore{})

	events := collectEvents(t, p, uuid.New(), ModeCategories)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Post == nil || events[2].Post == nil {
		t.Fatalf("expected items 0 and 2 to succeed: %+v", events)
	}
	if events[1].Error == "" || events[1].Category != "reactiveContent" {
		t.Fatalf("expected item 1 to carry an error event, got %+v", events[1])
	}
}

func TestRunTopicsMode(t *testing.T) {
	profiles := &fakeProfiles{profile: &types.Profile{Name: "Dana", Goal: "grow"}}
	ai := &fakeAI{
		streamFn: func(ctx context.Context, prompt string, opts openai.CompletionOptions) (string, error) {
			return `{"content":"ok","hashtags":[],"callToAction":"x"}`, nil
		},
	}
	p := newTestPipeline(t, profiles, ai, &fakeStore{})

	events := collectEvents(t, p, uuid.New(), ModeTopics)
	if len(events) != 2 {
		t.Fatalf("expected one event per planned topic, got %d", len(events))
	}
	if events[0].Category != "topic one" || events[1].Category != "topic two" {
		t.Fatalf("expected topic labels as categories, got %+v", events)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	profiles := &fakeProfiles{profile: &types.Profile{
		Name:            "Dana",
		PlannedContent:  "a",
		ReactiveContent: "b",
		CompanyContent:  "c",
	}}
	ctx, cancel := context.WithCancel(context.Background())
	ai := &fakeAI{
		streamFn: func(_ context.Context, prompt string, opts openai.CompletionOptions) (string, error) {
			cancel()
			return `{"content":"ok","hashtags":[],"callToAction":"x"}`, nil
		},
	}
	p := newTestPipeline(t, profiles, ai, &fakeStore{})

	var events []Event
	err := p.Run(ctx, uuid.New(), ModeCategories, func(e Event) {
		events = append(events, e)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected run to stop after the cancelling item, got %d events", len(events))
	}
}
