package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillloop/skillloop-backend/internal/services"
)

type TelemetryHandler struct {
	telemetryService services.TelemetryService
}

func NewTelemetryHandler(telemetryService services.TelemetryService) *TelemetryHandler {
	return &TelemetryHandler{telemetryService: telemetryService}
}

func (th *TelemetryHandler) IngestEvents(c *gin.Context) {
	var req struct {
		Events []services.TelemetryEventInput `json:"events"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}
	count, err := th.telemetryService.IngestEvents(c.Request.Context(), req.Events)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "ingest_failed", err)
		return
	}
	RespondOK(c, gin.H{"ingested": count})
}
