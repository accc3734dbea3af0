package engine

import (
	"encoding/json"

	"github.com/skillloop/skillloop-backend/internal/types"
)

// FeatureVector is the fixed input layout of the dependency classifier. The
// column binding is positional; reordering silently breaks the model.
type FeatureVector [4]float64

const (
	FeatCopyPasteActivity = 0
	FeatTimeRatio         = 1
	FeatCodeReliance      = 2
	FeatTabSwitchCount    = 3
)

// FeatureNames in classifier column order.
var FeatureNames = [4]string{"copy_paste_rate", "time_to_query_ratio", "code_gen_reliance", "tab_switch_count"}

// latencyBaselineMS normalizes time-to-query against a 5 second baseline.
const latencyBaselineMS = 5000.0

// neutralTimeRatio is the prior used when no latency samples exist.
const neutralTimeRatio = 0.5

// NeutralFeatures is the safe vector emitted when a session has no signal at
// all.
func NeutralFeatures() FeatureVector {
	return FeatureVector{0, neutralTimeRatio, 0, 0}
}

// AggregateTelemetryFeatures derives the feature vector from the raw event
// log of one (user, session). copy_paste_activity is a normalized rate in
// [0,1] so both aggregation modes agree on units.
func AggregateTelemetryFeatures(events []*types.TelemetryEvent) FeatureVector {
	if len(events) == 0 {
		return NeutralFeatures()
	}

	var copyPaste, tabSwitches int
	var latencySum, latencyCount float64
	for _, ev := range events {
		switch ev.EventType {
		case types.TelemetryEventCopy, types.TelemetryEventPaste:
			copyPaste++
		case types.TelemetryEventTabSwitch:
			tabSwitches++
		}
		if ev.LatencyMS != nil {
			latencySum += float64(*ev.LatencyMS)
			latencyCount++
		}
	}

	var copyPasteRate float64
	if denom := copyPaste + tabSwitches; denom > 0 {
		copyPasteRate = float64(copyPaste) / float64(denom)
	}

	timeRatio := neutralTimeRatio
	if latencyCount > 0 {
		timeRatio = clamp01(latencySum / latencyCount / latencyBaselineMS)
	}

	codeReliance := float64(copyPaste) / float64(len(events))

	return FeatureVector{copyPasteRate, timeRatio, codeReliance, float64(tabSwitches)}
}

// turnTelemetry is the per-turn counter blob the web client attaches to a
// chat message.
type turnTelemetry struct {
	CopyCount      int `json:"copy_count"`
	PasteCount     int `json:"paste_count"`
	TabSwitchCount int `json:"tab_switch_count"`
	TimeToQueryMS  int `json:"time_to_query_ms"`
}

// AggregateChatFallbackFeatures derives the feature vector from the telemetry
// blobs of recent chat turns. Used when a session has no event log. The
// fallback has no per-event stream, so code_reliance stays the step heuristic
// (heavy pasting).
func AggregateChatFallbackFeatures(turns []*types.ChatTurn) FeatureVector {
	if len(turns) == 0 {
		return NeutralFeatures()
	}

	var totalCopy, totalPaste, totalSwitches, totalTimeMS, sampled int
	for _, turn := range turns {
		if len(turn.Telemetry) == 0 {
			continue
		}
		var tt turnTelemetry
		if err := json.Unmarshal(turn.Telemetry, &tt); err != nil {
			continue
		}
		totalCopy += tt.CopyCount
		totalPaste += tt.PasteCount
		totalSwitches += tt.TabSwitchCount
		totalTimeMS += tt.TimeToQueryMS
		sampled++
	}
	if sampled == 0 {
		return NeutralFeatures()
	}

	var copyPasteRate float64
	if denom := totalCopy + totalPaste + totalSwitches; denom > 0 {
		copyPasteRate = float64(totalCopy+totalPaste) / float64(denom)
	}

	timeRatio := neutralTimeRatio
	if totalTimeMS > 0 {
		timeRatio = clamp01(float64(totalTimeMS) / float64(sampled) / latencyBaselineMS)
	}

	codeReliance := 0.0
	if totalPaste > 2 {
		codeReliance = 1.0
	}

	return FeatureVector{copyPasteRate, timeRatio, codeReliance, float64(totalSwitches)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
