package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/draftline/draftline-backend/internal/pkg/logger"
	"github.com/draftline/draftline-backend/internal/requestdata"
	"github.com/draftline/draftline-backend/internal/suggestions"
)

type fakePipeline struct {
	events []suggestions.Event
	mode   suggestions.Mode
}

func (f *fakePipeline) Run(ctx context.Context, userID uuid.UUID, mode suggestions.Mode, emit func(suggestions.Event)) error {
	f.mode = mode
	for _, e := range f.events {
		emit(e)
	}
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}
	return log
}

func performStream(t *testing.T, pipeline suggestions.Pipeline, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sh := NewSuggestionsHandler(testLogger(t), pipeline, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rd := &requestdata.RequestData{UserID: uuid.New(), TokenString: "tok"}
	c.Request = req.WithContext(requestdata.WithRequestData(req.Context(), rd))

	sh.Stream(c)
	return w
}

func TestStreamFramesEventsAndTerminator(t *testing.T) {
	pipeline := &fakePipeline{events: []suggestions.Event{
		{Category: "plannedContent", Warning: "no content provided for this category"},
		{Category: "reactiveContent", Post: &suggestions.Post{
			Content:      "A post",
			Hashtags:     []string{"go"},
			CallToAction: "Reply",
		}},
	}}

	w := performStream(t, pipeline, "/api/suggestions")

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	body := w.Body.String()
	if !strings.HasSuffix(body, "data: [DONE]\n\n") {
		t.Fatalf("stream must end with the [DONE] frame, got %q", body)
	}

	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	if len(frames) != 3 {
		t.Fatalf("expected 2 event frames plus terminator, got %d: %q", len(frames), body)
	}

	var first suggestions.Event
	if err := json.Unmarshal([]byte(strings.TrimPrefix(frames[0], "data: ")), &first); err != nil {
		t.Fatalf("first frame is not JSON: %v", err)
	}
	if first.Category != "plannedContent" || first.Warning == "" {
		t.Fatalf("unexpected first event %+v", first)
	}

	var second suggestions.Event
	if err := json.Unmarshal([]byte(strings.TrimPrefix(frames[1], "data: ")), &second); err != nil {
		t.Fatalf("second frame is not JSON: %v", err)
	}
	if second.Post == nil || second.Post.Content != "A post" {
		t.Fatalf("unexpected second event %+v", second)
	}
}

func TestStreamModeQueryParam(t *testing.T) {
	pipeline := &fakePipeline{}
	performStream(t, pipeline, "/api/suggestions?mode=topics")
	if pipeline.mode != suggestions.ModeTopics {
		t.Fatalf("expected topics mode, got %q", pipeline.mode)
	}

	pipeline = &fakePipeline{}
	performStream(t, pipeline, "/api/suggestions?mode=bogus")
	if pipeline.mode != suggestions.ModeCategories {
		t.Fatalf("expected categories default, got %q", pipeline.mode)
	}
}

func TestStreamRequiresIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sh := NewSuggestionsHandler(testLogger(t), &fakePipeline{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/suggestions", nil)

	sh.Stream(c)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
