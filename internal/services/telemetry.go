package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/repos"
	"github.com/skillloop/skillloop-backend/internal/requestdata"
	"github.com/skillloop/skillloop-backend/internal/types"
)

var validEventTypes = map[string]bool{
	types.TelemetryEventCopy:       true,
	types.TelemetryEventPaste:      true,
	types.TelemetryEventTabSwitch:  true,
	types.TelemetryEventHesitation: true,
}

type TelemetryEventInput struct {
	SessionID string `json:"session_id"`
	EventType string `json:"event_type"`
	LatencyMS *int   `json:"latency_ms,omitempty"`
}

type TelemetryService interface {
	IngestEvents(ctx context.Context, events []TelemetryEventInput) (int, error)
}

type telemetryService struct {
	log  *logger.Logger
	repo repos.TelemetryEventRepo
}

func NewTelemetryService(log *logger.Logger, repo repos.TelemetryEventRepo) TelemetryService {
	return &telemetryService{
		log:  log.With("service", "TelemetryService"),
		repo: repo,
	}
}

// IngestEvents validates and stores a batch. Malformed entries fail the whole
// batch so the client learns about them instead of silently losing signal.
func (s *telemetryService) IngestEvents(ctx context.Context, events []TelemetryEventInput) (int, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return 0, fmt.Errorf("no authenticated user in context")
	}
	if len(events) == 0 {
		return 0, nil
	}

	rows := make([]*types.TelemetryEvent, 0, len(events))
	for i, ev := range events {
		sessionID := strings.TrimSpace(ev.SessionID)
		if sessionID == "" {
			return 0, fmt.Errorf("event %d: session_id is required", i)
		}
		if !validEventTypes[ev.EventType] {
			return 0, fmt.Errorf("event %d: unknown event_type %q", i, ev.EventType)
		}
		if ev.LatencyMS != nil && *ev.LatencyMS < 0 {
			return 0, fmt.Errorf("event %d: latency_ms must be non-negative", i)
		}
		rows = append(rows, &types.TelemetryEvent{
			ID:        uuid.New(),
			UserID:    rd.UserID,
			SessionID: sessionID,
			EventType: ev.EventType,
			LatencyMS: ev.LatencyMS,
		})
	}

	if _, err := s.repo.Create(ctx, nil, rows); err != nil {
		return 0, fmt.Errorf("failed to save telemetry events: %w", err)
	}
	return len(rows), nil
}
