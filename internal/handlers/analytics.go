package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillloop/skillloop-backend/internal/services"
)

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (ah *AnalyticsHandler) Retention(c *gin.Context) {
	points, err := ah.analyticsService.Retention(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "retention_failed", err)
		return
	}
	RespondOK(c, gin.H{"retention": points})
}

func (ah *AnalyticsHandler) Weaknesses(c *gin.Context) {
	weaknesses, err := ah.analyticsService.Weaknesses(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "weaknesses_failed", err)
		return
	}
	RespondOK(c, gin.H{"weaknesses": weaknesses})
}
