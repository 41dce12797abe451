package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftline/draftline-backend/internal/services"
)

// Uploads beyond this are rejected before extraction.
const maxUploadBytes = 20 << 20

type TranscribeHandler struct {
	transcribeService services.TranscribeService
}

func NewTranscribeHandler(transcribeService services.TranscribeService) *TranscribeHandler {
	return &TranscribeHandler{transcribeService: transcribeService}
}

func (th *TranscribeHandler) Transcribe(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", errors.New("multipart field 'file' required"))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", errors.New("file exceeds upload limit"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	if len(data) > maxUploadBytes {
		RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", errors.New("file exceeds upload limit"))
		return
	}

	text, err := th.transcribeService.ExtractText(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "extraction_failed", err)
		return
	}
	RespondOK(c, gin.H{"text": text})
}
