package suggestions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/draftline/draftline-backend/internal/clients/openai"
	"github.com/draftline/draftline-backend/internal/clients/pinecone"
	pkgerrors "github.com/draftline/draftline-backend/internal/pkg/errors"
	"github.com/draftline/draftline-backend/internal/pkg/logger"
	"github.com/draftline/draftline-backend/internal/types"
)

const retrievalTopK = 3

// ProfileGetter is the slice of profile access the pipeline needs.
type ProfileGetter interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
}

// Pipeline runs one suggestion generation pass for a user and emits events
// in item order. It holds no per-run state and is safe for concurrent use.
type Pipeline interface {
	// Run processes every item for the requested mode, calling emit once per
	// event. It returns early only when ctx is done; individual item failures
	// are reported as events, not as an error.
	Run(ctx context.Context, userID uuid.UUID, mode Mode, emit func(Event)) error
}

type pipeline struct {
	log       *logger.Logger
	profiles  ProfileGetter
	ai        openai.Client
	store     pinecone.VectorStore
	planner   Planner
	namespace string
	tracer    trace.Tracer
}

func NewPipeline(
	log *logger.Logger,
	profiles ProfileGetter,
	ai openai.Client,
	store pinecone.VectorStore,
	planner Planner,
) (Pipeline, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile getter required")
	}
	if ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	if store == nil {
		return nil, fmt.Errorf("vector store required")
	}
	if planner == nil {
		return nil, fmt.Errorf("planner required")
	}
	return &pipeline{
		log:       log.With("service", "SuggestionPipeline"),
		profiles:  profiles,
		ai:        ai,
		store:     store,
		planner:   planner,
		namespace: strings.TrimSpace(os.Getenv("PINECONE_NAMESPACE")),
		tracer:    otel.Tracer("suggestions"),
	}, nil
}

// item is one unit of work: the label reported in events plus the seed text
// the generation is grounded on.
type item struct {
	label string
	seed  string
}

func (p *pipeline) Run(ctx context.Context, userID uuid.UUID, mode Mode, emit func(Event)) error {
	log := p.log.With("user_id", userID, "mode", string(mode))

	profile, err := p.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			log.Warn("Suggestion run aborted: no profile for user")
			emit(Event{Error: "profile not found; create a profile before requesting suggestions"})
			return nil
		}
		log.Error("Failed to load profile for suggestion run", "error", err)
		emit(Event{Error: "failed to load profile"})
		return nil
	}

	items := p.buildItems(ctx, mode, profile)
	log.Info("Starting suggestion run", "items", len(items))

	for _, it := range items {
		if ctx.Err() != nil {
			log.Info("Suggestion run cancelled", "error", ctx.Err())
			return ctx.Err()
		}
		emit(p.processItem(ctx, log, profile, it))
	}

	log.Info("Suggestion run complete")
	return nil
}

func (p *pipeline) buildItems(ctx context.Context, mode Mode, profile *types.Profile) []item {
	if mode == ModeTopics {
		topics := p.planner.Plan(ctx, plannerInput(profile))
		items := make([]item, 0, len(topics))
		for _, t := range topics {
			items = append(items, item{label: t, seed: t})
		}
		return items
	}

	items := make([]item, 0, len(Categories))
	for _, c := range Categories {
		items = append(items, item{label: c, seed: profile.CategoryContent(c)})
	}
	return items
}

func plannerInput(profile *types.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\nGoal: %s\n", profile.Name, profile.Goal)
	for _, c := range Categories {
		if seed := strings.TrimSpace(profile.CategoryContent(c)); seed != "" {
			fmt.Fprintf(&b, "%s: %s\n", c, seed)
		}
	}
	return b.String()
}

func (p *pipeline) processItem(ctx context.Context, log *logger.Logger, profile *types.Profile, it item) Event {
	ctx, span := p.tracer.Start(ctx, "suggestions.item",
		trace.WithAttributes(attribute.String("suggestions.item", it.label)))
	defer span.End()

	seed := strings.TrimSpace(it.seed)
	if seed == "" {
		log.Warn("Skipping item with no seed content", "item", it.label)
		return Event{Category: it.label, Warning: "no content provided for this category"}
	}

	vec, err := p.ai.Embed(ctx, seed)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrEmptyInput) {
			log.Warn("Skipping item with no seed content", "item", it.label)
			return Event{Category: it.label, Warning: "no content provided for this category"}
		}
		log.Error("Embedding failed", "item", it.label, "error", err)
		return Event{Category: it.label, Error: "failed to generate a suggestion for this category"}
	}

	snippets, err := p.store.Search(ctx, p.namespace, vec, retrievalTopK)
	if err != nil {
		// Retrieval is best-effort context; generation proceeds without it.
		log.Warn("Retrieval unavailable, generating without guideline context", "item", it.label, "error", err)
		snippets = nil
	}

	prompt := BuildPrompt(it.label, seed, profile.Goal, snippets)
	raw, err := p.ai.StreamText(ctx, prompt, openai.CompletionOptions{System: SystemPersona}, func(string) {})
	if err != nil {
		log.Error("Generation failed", "item", it.label, "error", err)
		return Event{Category: it.label, Error: "failed to generate a suggestion for this category"}
	}

	post, err := ParsePost(it.label, raw)
	if err != nil {
		log.Error("Failed to parse generation output", "item", it.label, "error", err, "raw", raw)
		return Event{Category: it.label, Error: "generated output could not be parsed"}
	}

	return Event{Category: it.label, Post: post}
}
