package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillloop/skillloop-backend/internal/services"
)

type ProfileHandler struct {
	profileService services.ProfileService
}

func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (ph *ProfileHandler) GetMe(c *gin.Context) {
	user, err := ph.profileService.GetUser(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusNotFound, "user_not_found", err)
		return
	}
	RespondOK(c, user)
}

func (ph *ProfileHandler) GetSkill(c *gin.Context) {
	skill, err := ph.profileService.GetSkill(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "skill_failed", err)
		return
	}
	RespondOK(c, skill)
}

func (ph *ProfileHandler) GetPath(c *gin.Context) {
	path, err := ph.profileService.GetPath(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "path_failed", err)
		return
	}
	RespondOK(c, path)
}

func (ph *ProfileHandler) GetMastery(c *gin.Context) {
	mastery, err := ph.profileService.GetMastery(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "mastery_failed", err)
		return
	}
	RespondOK(c, mastery)
}
