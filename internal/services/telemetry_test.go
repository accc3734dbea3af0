package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/types"
)

type fakeTelemetryEventRepo struct {
	created []*types.TelemetryEvent
}

func (f *fakeTelemetryEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.TelemetryEvent) ([]*types.TelemetryEvent, error) {
	f.created = append(f.created, events...)
	return events, nil
}
func (f *fakeTelemetryEventRepo) GetBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID string) ([]*types.TelemetryEvent, error) {
	return nil, nil
}
func (f *fakeTelemetryEventRepo) GetLatestSessionID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (string, error) {
	return "", nil
}

func TestIngestEvents_RequiresAuth(t *testing.T) {
	repo := &fakeTelemetryEventRepo{}
	svc := NewTelemetryService(testLogger(t), repo)

	if _, err := svc.IngestEvents(context.Background(), []TelemetryEventInput{{SessionID: "s", EventType: types.TelemetryEventCopy}}); err == nil {
		t.Fatalf("expected error without request data")
	}
}

func TestIngestEvents_StoresValidBatch(t *testing.T) {
	repo := &fakeTelemetryEventRepo{}
	svc := NewTelemetryService(testLogger(t), repo)
	latency := 1200

	count, err := svc.IngestEvents(authedContext(uuid.New()), []TelemetryEventInput{
		{SessionID: "s1", EventType: types.TelemetryEventCopy},
		{SessionID: "s1", EventType: types.TelemetryEventHesitation, LatencyMS: &latency},
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if count != 2 || len(repo.created) != 2 {
		t.Fatalf("expected 2 stored events, got count=%d stored=%d", count, len(repo.created))
	}
	if repo.created[1].LatencyMS == nil || *repo.created[1].LatencyMS != 1200 {
		t.Fatalf("latency should round-trip")
	}
}

func TestIngestEvents_RejectsBadEvents(t *testing.T) {
	repo := &fakeTelemetryEventRepo{}
	svc := NewTelemetryService(testLogger(t), repo)
	ctx := authedContext(uuid.New())
	negative := -5

	cases := []TelemetryEventInput{
		{SessionID: "", EventType: types.TelemetryEventCopy},
		{SessionID: "s", EventType: "Keypress"},
		{SessionID: "s", EventType: types.TelemetryEventHesitation, LatencyMS: &negative},
	}
	for i, bad := range cases {
		if _, err := svc.IngestEvents(ctx, []TelemetryEventInput{bad}); err == nil {
			t.Fatalf("case %d: expected rejection", i)
		}
	}
	if len(repo.created) != 0 {
		t.Fatalf("nothing should be stored from invalid batches")
	}
}

func TestIngestEvents_EmptyBatchIsNoop(t *testing.T) {
	repo := &fakeTelemetryEventRepo{}
	svc := NewTelemetryService(testLogger(t), repo)

	count, err := svc.IngestEvents(authedContext(uuid.New()), nil)
	if err != nil {
		t.Fatalf("empty batch should succeed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected count 0, got %d", count)
	}
}
