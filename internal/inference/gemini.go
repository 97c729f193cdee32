// Package inference asks a Gemini vision model for a nutrition estimate of a
// stored meal photo. Every failure is absorbed: callers get (Estimate, false).
package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"healcheck-back/pkg/imaging"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
)

const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTimeout = 30 * time.Second

	defaultRetryInterval = 500 * time.Millisecond
	maxResponseBytes     = 4 << 20
	answerPath           = "candidates.0.content.parts.0.text"
)

// Prompt is the fixed instruction sent with every image.
const Prompt = `Analyze this food image and provide nutritional information. ` +
	`Return the response in JSON format with the following structure: ` +
	`{"foodName": "<name of the dish in Vietnamese>", "calories": <number>, ` +
	`"protein": <number in grams>, "fat": <number in grams>, ` +
	`"carbohydrate": <number in grams>, "suggestion": "<health suggestion in Vietnamese>"}. ` +
	`Only provide the JSON response without any additional text.`

var (
	errMissingAPIKey = errors.New("gemini API key is not configured")
	errEmptyAnswer   = errors.New("gemini response has no text answer")
)

// BlobReader loads stored image bytes by locator.
type BlobReader interface {
	Read(ctx context.Context, locator string) ([]byte, error)
}

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type Client struct {
	cfg           Config
	httpClient    *http.Client
	blobs         BlobReader
	logger        *slog.Logger
	retryInterval time.Duration
}

func NewClient(cfg Config, blobs BlobReader, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg: cfg,
		// No client timeout: Analyze bounds each call with a context deadline.
		httpClient:    &http.Client{Transport: newTransport()},
		blobs:         blobs,
		logger:        logger.With("component", "inference"),
		retryInterval: defaultRetryInterval,
	}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// statusError is a non-2xx answer from the API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gemini API request failed with status %d: %s", e.code, e.body)
}

// transportError is a failure to get any response at all.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "failed to call gemini: " + e.err.Error() }

func (e *transportError) Unwrap() error { return e.err }

// Analyze returns the model's estimate for the stored image. The call is
// bounded by the configured timeout; on any failure it reports false.
func (c *Client) Analyze(ctx context.Context, locator string) (Estimate, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	answer, err := c.generate(ctx, locator)
	if err != nil {
		c.logger.WarnContext(ctx, "image analysis unavailable", "locator", locator, "error", err)
		return Estimate{}, false
	}

	est, ok := Normalize(answer)
	if !ok {
		c.logger.WarnContext(ctx, "image analysis unavailable: answer is not a JSON object",
			"locator", locator, "answer_len", len(answer))
		return Estimate{}, false
	}
	return est, true
}

func (c *Client) generate(ctx context.Context, locator string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", errMissingAPIKey
	}

	data, err := c.blobs.Read(ctx, locator)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: Prompt},
				{InlineData: &inlineData{
					MimeType: imaging.MimeType(locator),
					Data:     base64.StdEncoding.EncodeToString(data),
				}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxRetries)), ctx)

	attempt := 0
	return backoff.RetryWithData(func() (string, error) {
		attempt++
		answer, err := c.call(ctx, body)
		if err != nil && !retryable(ctx, err) {
			return "", backoff.Permanent(err)
		}
		if err != nil {
			c.logger.DebugContext(ctx, "gemini call failed", "attempt", attempt, "error", err)
		}
		return answer, err
	}, policy)
}

func (c *Client) call(ctx context.Context, body []byte) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &transportError{err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(respBody)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return "", &statusError{code: resp.StatusCode, body: snippet}
	}

	if !gjson.ValidBytes(respBody) {
		return "", fmt.Errorf("gemini response is not valid JSON")
	}
	answer := gjson.GetBytes(respBody, answerPath)
	if answer.Type != gjson.String || strings.TrimSpace(answer.Str) == "" {
		return "", errEmptyAnswer
	}
	return answer.Str, nil
}

// retryable reports whether another attempt could succeed.
// A done context never retries.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var te *transportError
	return errors.As(err, &te)
}
