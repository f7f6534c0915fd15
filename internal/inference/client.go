package inference

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"fakenews-detector/internal/core/cache"
	"fakenews-detector/internal/domain"
)

var (
	// ErrUnavailable means the model backend cannot be reached at all.
	ErrUnavailable = errors.New("model backend unavailable")
	// ErrInference covers classification failures after the backend was reachable.
	ErrInference = errors.New("inference failed")
)

// Result is one classification verdict. Confidence is the softmax
// probability of the predicted label scaled to [0,100].
type Result struct {
	Prediction domain.Label `json:"prediction"`
	Confidence float64      `json:"confidence"`
}

// Client talks to the model-serving sidecar that holds the fine-tuned
// binary classifier. The sidecar owns tokenization (truncation to the
// model's max input length) and the forward pass; it returns the softmax
// distribution over the two labels. Classification is deterministic for
// identical weights and input, so results may be cached by input text.
type Client struct {
	base  string
	hc    *http.Client
	log   *zap.Logger
	cache *cache.Cache // nil = caching disabled
	ttl   time.Duration
}

func New(baseURL string, timeout time.Duration, l *zap.Logger, c *cache.Cache, resultTTL time.Duration) *Client {
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		hc:    &http.Client{Timeout: timeout},
		log:   l,
		cache: c,
		ttl:   resultTTL,
	}
}

// Ready probes the backend once. main calls this at startup and exits on
// failure: a missing model must never silently degrade to an untrained one.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) Classify(ctx context.Context, text string) (*Result, error) {
	if c.cache == nil {
		return c.predict(ctx, text)
	}
	key := "classify:" + hashText(text)
	res, err := cache.GetOrLoadJSON[Result](c.cache, ctx, key, c.ttl, func(ctx context.Context) (*Result, error) {
		return c.predict(ctx, text)
	})
	if err != nil {
		// Cache trouble must not take classification down with it.
		if errors.Is(err, ErrInference) || errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		c.log.Warn("classification cache bypass", zap.Error(err))
		return c.predict(ctx, text)
	}
	return res, nil
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	// Softmax probability per label, e.g. {"Fake": 0.93, "Real": 0.07}.
	Probs map[string]float64 `json:"probs"`
}

func (c *Client) predict(ctx context.Context, text string) (*Result, error) {
	start := time.Now()

	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: backend returned %d: %s", ErrInference, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInference, err)
	}

	res, err := argmax(pr.Probs)
	if err != nil {
		return nil, err
	}

	inferenceLatency.Observe(time.Since(start).Seconds())
	predictionsTotal.WithLabelValues(string(res.Prediction)).Inc()
	c.log.Debug("classified",
		zap.String("label", string(res.Prediction)),
		zap.Float64("confidence", res.Confidence),
		zap.Duration("latency", time.Since(start)),
	)
	return res, nil
}

// argmax picks the highest-probability label and scales it to a percentage.
func argmax(probs map[string]float64) (*Result, error) {
	if len(probs) == 0 {
		return nil, fmt.Errorf("%w: backend returned no probabilities", ErrInference)
	}
	best := ""
	bestP := -1.0
	for label, p := range probs {
		if !domain.Label(label).Valid() {
			return nil, fmt.Errorf("%w: unknown label %q", ErrInference, label)
		}
		if p > bestP || (p == bestP && label < best) {
			best, bestP = label, p
		}
	}
	conf := bestP * 100.0
	if conf < 0 {
		conf = 0
	}
	if conf > 100 {
		conf = 100
	}
	return &Result{Prediction: domain.Label(best), Confidence: conf}, nil
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
