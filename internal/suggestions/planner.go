package suggestions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/draftline/draftline-backend/internal/clients/openai"
	"github.com/draftline/draftline-backend/internal/pkg/logger"
)

// TopicCount is the fixed number of topics a plan always contains.
const TopicCount = 9

var defaultFallbackTopics = []string{
	"Industry trends and analysis",
	"Lessons learned from recent projects",
	"Career growth and development",
	"Team culture and leadership",
	"Productivity and ways of working",
	"Customer success stories",
	"Emerging tools and technology",
	"Networking and community",
	"Personal milestones and reflections",
}

// Planner derives a fixed-size topic list from a user's profile text. Plan
// never fails: any model or parse problem falls back to a deterministic
// static list, so the pipeline always has usable items.
type Planner interface {
	Plan(ctx context.Context, userInfo string) []string
}

type planner struct {
	log      *logger.Logger
	ai       openai.Client
	fallback []string
}

// NewPlanner builds a planner. The fallback topic list can be overridden by
// a YAML file pathed in TOPIC_FALLBACK_FILE (a plain list of exactly
// TopicCount strings); otherwise the compiled-in list is used.
func NewPlanner(log *logger.Logger, ai openai.Client) (Planner, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ai == nil {
		return nil, fmt.Errorf("openai client required")
	}

	fallback := defaultFallbackTopics
	if path := strings.TrimSpace(os.Getenv("TOPIC_FALLBACK_FILE")); path != "" {
		loaded, err := loadFallbackTopics(path)
		if err != nil {
			return nil, fmt.Errorf("load fallback topics: %w", err)
		}
		fallback = loaded
	}

	return &planner{
		log:      log.With("service", "TopicPlanner"),
		ai:       ai,
		fallback: fallback,
	}, nil
}

func loadFallbackTopics(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var topics []string
	if err := yaml.Unmarshal(raw, &topics); err != nil {
		return nil, err
	}
	if len(topics) != TopicCount {
		return nil, fmt.Errorf("fallback topics file must contain exactly %d entries, got %d", TopicCount, len(topics))
	}
	for i, t := range topics {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("fallback topic %d is blank", i)
		}
	}
	return topics, nil
}

func (p *planner) Plan(ctx context.Context, userInfo string) []string {
	prompt := buildPlannerPrompt(userInfo, TopicCount)

	raw, err := p.ai.GenerateText(ctx, prompt, openai.CompletionOptions{
		System:      SystemPersona,
		Temperature: 0.4,
	})
	if err != nil {
		p.log.Warn("Topic planning call failed, using fallback topics", "error", err)
		return p.fallbackCopy()
	}

	topics, err := parseTopicList(raw)
	if err != nil {
		p.log.Warn("Topic planning output unusable, using fallback topics", "error", err, "raw", raw)
		return p.fallbackCopy()
	}
	return topics
}

func parseTopicList(raw string) ([]string, error) {
	text := StripCodeFence(raw)

	var topics []string
	if err := json.Unmarshal([]byte(text), &topics); err != nil {
		return nil, fmt.Errorf("topic list decode: %w", err)
	}
	if len(topics) != TopicCount {
		return nil, fmt.Errorf("expected %d topics, got %d", TopicCount, len(topics))
	}
	for i := range topics {
		topics[i] = strings.TrimSpace(topics[i])
		if topics[i] == "" {
			return nil, fmt.Errorf("topic %d is blank", i)
		}
	}
	return topics, nil
}

func (p *planner) fallbackCopy() []string {
	out := make([]string, TopicCount)
	copy(out, p.fallback)
	return out
}
