package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pkgerrors "github.com/draftline/draftline-backend/internal/pkg/errors"
	"github.com/draftline/draftline-backend/internal/requestdata"
	"github.com/draftline/draftline-backend/internal/services"
)

type ProfileHandler struct {
	profileService services.ProfileService
}

func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (ph *ProfileHandler) Upsert(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("no request identity"))
		return
	}
	var input services.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	profile, err := ph.profileService.UpsertProfile(c.Request.Context(), rd.UserID, &input)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "profile_upsert_failed", err)
		return
	}
	RespondOK(c, profile)
}

func (ph *ProfileHandler) GetOwn(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("no request identity"))
		return
	}
	ph.respondProfile(c, rd.UserID)
}

func (ph *ProfileHandler) GetByUserID(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	ph.respondProfile(c, userID)
}

func (ph *ProfileHandler) respondProfile(c *gin.Context, userID uuid.UUID) {
	profile, err := ph.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "profile_not_found", errors.New("profile not found"))
			return
		}
		RespondError(c, http.StatusInternalServerError, "profile_fetch_failed", err)
		return
	}
	RespondOK(c, profile)
}

func (ph *ProfileHandler) ListUsers(c *gin.Context) {
	users, err := ph.profileService.ListUsers(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "user_list_failed", err)
		return
	}
	RespondOK(c, gin.H{"users": users})
}
