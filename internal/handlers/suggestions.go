package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/draftline/draftline-backend/internal/clients/rediscache"
	"github.com/draftline/draftline-backend/internal/pkg/logger"
	"github.com/draftline/draftline-backend/internal/requestdata"
	"github.com/draftline/draftline-backend/internal/suggestions"
)

// streamTimeout bounds one full suggestion run end to end.
const streamTimeout = 5 * time.Minute

type SuggestionsHandler struct {
	log      *logger.Logger
	pipeline suggestions.Pipeline
	cache    rediscache.SuggestionCache
}

// NewSuggestionsHandler builds the handler; cache may be nil, in which case
// recent-suggestion lookups report the feature as unavailable.
func NewSuggestionsHandler(log *logger.Logger, pipeline suggestions.Pipeline, cache rediscache.SuggestionCache) *SuggestionsHandler {
	return &SuggestionsHandler{
		log:      log.With("handler", "SuggestionsHandler"),
		pipeline: pipeline,
		cache:    cache,
	}
}

// Stream runs the pipeline and writes each event as one SSE frame, then a
// terminal [DONE] frame. Events are framed as "data: <json>\n\n".
func (sh *SuggestionsHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("no request identity"))
		return
	}
	mode := suggestions.ParseMode(c.Query("mode"))

	w := c.Writer
	flusher, ok := w.(http.Flusher)
	if !ok {
		RespondError(c, http.StatusInternalServerError, "streaming_unsupported", errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx, cancel := context.WithTimeout(c.Request.Context(), streamTimeout)
	defer cancel()

	err := sh.pipeline.Run(ctx, rd.UserID, mode, func(e suggestions.Event) {
		raw, mErr := json.Marshal(e)
		if mErr != nil {
			sh.log.Warn("Failed to marshal suggestion event", "error", mErr)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", raw)
		flusher.Flush()

		if sh.cache != nil {
			if cErr := sh.cache.Append(ctx, rd.UserID, e); cErr != nil {
				sh.log.Warn("Failed to cache suggestion event", "error", cErr)
			}
		}
	})
	if err != nil {
		// Client disconnect or timeout; nothing left to write.
		sh.log.Info("Suggestion stream ended early", "user_id", rd.UserID, "error", err)
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// Recent returns the most recently generated posts for the caller.
func (sh *SuggestionsHandler) Recent(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("no request identity"))
		return
	}
	if sh.cache == nil {
		RespondError(c, http.StatusServiceUnavailable, "cache_unavailable", errors.New("suggestion cache not configured"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	events, err := sh.cache.Recent(c.Request.Context(), rd.UserID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "cache_read_failed", err)
		return
	}
	RespondOK(c, gin.H{"suggestions": events})
}
