package engine

import (
	"math"
	"testing"

	"gorm.io/datatypes"

	"github.com/skillloop/skillloop-backend/internal/types"
)

func intPtr(v int) *int { return &v }

func TestAggregateTelemetryFeatures_EmptyIsNeutral(t *testing.T) {
	got := AggregateTelemetryFeatures(nil)
	if got != NeutralFeatures() {
		t.Fatalf("expected neutral vector, got %v", got)
	}
	if got[FeatTimeRatio] != 0.5 {
		t.Fatalf("neutral time ratio should be 0.5, got %f", got[FeatTimeRatio])
	}
}

func TestAggregateTelemetryFeatures_CountsAndRates(t *testing.T) {
	events := []*types.TelemetryEvent{
		{EventType: types.TelemetryEventCopy},
		{EventType: types.TelemetryEventPaste},
		{EventType: types.TelemetryEventPaste},
		{EventType: types.TelemetryEventTabSwitch},
		{EventType: types.TelemetryEventHesitation, LatencyMS: intPtr(2500)},
	}
	got := AggregateTelemetryFeatures(events)

	// 3 copy/paste out of 4 copy/paste+switch events.
	if math.Abs(got[FeatCopyPasteActivity]-0.75) > 1e-9 {
		t.Fatalf("expected copy/paste rate 0.75, got %f", got[FeatCopyPasteActivity])
	}
	// 2500ms / 5000ms baseline.
	if math.Abs(got[FeatTimeRatio]-0.5) > 1e-9 {
		t.Fatalf("expected time ratio 0.5, got %f", got[FeatTimeRatio])
	}
	// 3 copy/paste over 5 total events.
	if math.Abs(got[FeatCodeReliance]-0.6) > 1e-9 {
		t.Fatalf("expected code reliance 0.6, got %f", got[FeatCodeReliance])
	}
	if got[FeatTabSwitchCount] != 1.0 {
		t.Fatalf("expected 1 tab switch, got %f", got[FeatTabSwitchCount])
	}
}

func TestAggregateTelemetryFeatures_TimeRatioClamped(t *testing.T) {
	events := []*types.TelemetryEvent{
		{EventType: types.TelemetryEventHesitation, LatencyMS: intPtr(60000)},
	}
	got := AggregateTelemetryFeatures(events)
	if got[FeatTimeRatio] != 1.0 {
		t.Fatalf("expected time ratio clamped to 1.0, got %f", got[FeatTimeRatio])
	}
}

func TestAggregateChatFallbackFeatures_ParsesTurnBlobs(t *testing.T) {
	turns := []*types.ChatTurn{
		{Telemetry: datatypes.JSON(`{"copy_count":1,"paste_count":2,"tab_switch_count":1,"time_to_query_ms":2500}`)},
		{Telemetry: datatypes.JSON(`{"copy_count":0,"paste_count":1,"tab_switch_count":0,"time_to_query_ms":2500}`)},
	}
	got := AggregateChatFallbackFeatures(turns)

	// 4 copy+paste out of 5 counted interactions.
	if math.Abs(got[FeatCopyPasteActivity]-0.8) > 1e-9 {
		t.Fatalf("expected copy/paste rate 0.8, got %f", got[FeatCopyPasteActivity])
	}
	if math.Abs(got[FeatTimeRatio]-0.5) > 1e-9 {
		t.Fatalf("expected time ratio 0.5, got %f", got[FeatTimeRatio])
	}
	// 3 pastes total crosses the heavy-pasting step.
	if got[FeatCodeReliance] != 1.0 {
		t.Fatalf("expected code reliance step to fire, got %f", got[FeatCodeReliance])
	}
	if got[FeatTabSwitchCount] != 1.0 {
		t.Fatalf("expected 1 tab switch, got %f", got[FeatTabSwitchCount])
	}
}

func TestAggregateChatFallbackFeatures_IgnoresMalformedBlobs(t *testing.T) {
	turns := []*types.ChatTurn{
		{Telemetry: datatypes.JSON(`not json`)},
		{},
	}
	if got := AggregateChatFallbackFeatures(turns); got != NeutralFeatures() {
		t.Fatalf("expected neutral vector when nothing parses, got %v", got)
	}
}
