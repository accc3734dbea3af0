package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skillloop/skillloop-backend/internal/logger"
)

// DependencyModel maps a feature vector to the probability that the learner
// is over-relying on AI assistance. Implementations are opaque; the engine
// only depends on this one method.
type DependencyModel interface {
	Predict(ctx context.Context, features FeatureVector) (float64, error)
}

// httpDependencyModel calls the classifier sidecar. The call is bounded by a
// per-request timeout; a timeout surfaces as an error to the caller rather
// than a guessed probability.
type httpDependencyModel struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

func NewHTTPDependencyModel(log *logger.Logger, baseURL string, timeout time.Duration) (DependencyModel, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("classifier baseURL required")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &httpDependencyModel{
		log:        log.With("service", "DependencyModel"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}, nil
}

type predictRequest struct {
	Features     [4]float64 `json:"features"`
	FeatureNames [4]string  `json:"feature_names"`
}

type predictResponse struct {
	Probability float64 `json:"probability"`
}

func (m *httpDependencyModel) Predict(ctx context.Context, features FeatureVector) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	reqBody := predictRequest{Features: features, FeatureNames: FeatureNames}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/predict", &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("dependency classifier unavailable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("dependency classifier http %d: %s", resp.StatusCode, string(raw))
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("dependency classifier decode error: %w", err)
	}
	if out.Probability < 0 || out.Probability > 1 {
		return 0, fmt.Errorf("dependency classifier returned probability out of range: %f", out.Probability)
	}
	return out.Probability, nil
}

// StaticDependencyModel returns a fixed probability. Used in tests and as a
// stand-in when no sidecar is configured in development.
type StaticDependencyModel struct {
	Probability float64
}

func (m StaticDependencyModel) Predict(ctx context.Context, features FeatureVector) (float64, error) {
	return m.Probability, nil
}
