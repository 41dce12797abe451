package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/draftline/draftline-backend/internal/pkg/errors"
	"github.com/draftline/draftline-backend/internal/services"
)

type IngestHandler struct {
	ingestService services.IngestService
}

func NewIngestHandler(ingestService services.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

type ingestRequest struct {
	Texts []string `json:"texts"`
}

func (ih *IngestHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	count, err := ih.ingestService.Ingest(c.Request.Context(), req.Texts)
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrInvalidArgument):
			RespondError(c, http.StatusBadRequest, "invalid_input", err)
		case errors.Is(err, pkgerrors.ErrRetrievalUnavailable):
			RespondError(c, http.StatusServiceUnavailable, "vector_store_unavailable", err)
		default:
			RespondError(c, http.StatusBadGateway, "ingestion_failed", err)
		}
		return
	}
	RespondOK(c, gin.H{"ingested": count})
}
