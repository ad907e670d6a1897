// Package grammar talks to the remote grammar-correction service.
package grammar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/debemdeboas/stylus/internal/apperror"
	"github.com/debemdeboas/stylus/internal/metrics"
)

const (
	DefaultLanguage    = "en"
	DefaultCorrectPath = "correct"
	DefaultTimeout     = 30 * time.Second

	// Replies larger than this are treated as malformed.
	maxResponseBytes = 4 << 20
)

const (
	ErrMsgEmptyText        = "Please enter some text to check"
	ErrMsgCorrectionFailed = "Grammar correction failed"
	ErrMsgEmptyResponse    = "Empty response from server"
	ErrMsgInvalidSpan      = "Invalid correction returned by server"
	ErrMsgServerPrefix     = "Server error: "
	ErrMsgNetworkPrefix    = "Network error: "
	ErrMsgUnknown          = "Unknown error"
)

var grammarLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	grammarLogger = l
}

type Options struct {
	// BaseURL of the service, e.g. https://grammar.example.com/api/.
	BaseURL     string
	CorrectPath string

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// RequestTimeout bounds the whole exchange; zero means no overall bound.
	RequestTimeout time.Duration

	// RequestsPerSecond throttles outgoing requests; zero disables throttling.
	RequestsPerSecond float64

	// HTTPClient replaces the client built from the timeouts above.
	HTTPClient *http.Client

	Metrics *metrics.Metrics
}

type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
}

func NewClient(opts Options) (*Client, error) {
	endpoint, err := resolveEndpoint(opts.BaseURL, opts.CorrectPath)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: newTransport(
				orDefault(opts.ConnectTimeout),
				orDefault(opts.ReadTimeout),
				orDefault(opts.WriteTimeout),
			),
			Timeout: opts.RequestTimeout,
		}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		limiter:    limiter,
		metrics:    opts.Metrics,
	}, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Correct submits text for correction. It makes at most one request and
// never retries; every failure is an *apperror.Error whose Message is fit
// for display.
func (c *Client) Correct(ctx context.Context, text, language string) (*CorrectionResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperror.Validation(ErrMsgEmptyText)
	}
	if language == "" {
		language = DefaultLanguage
	}

	start := time.Now()
	result, err := c.correct(ctx, text, language)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = apperror.KindOf(err).String()
		grammarLogger.Warn().Err(err).Str("outcome", outcome).Dur("elapsed", elapsed).Msg("Grammar correction failed")
	} else {
		grammarLogger.Debug().Int("corrections", len(result.Corrections)).Dur("elapsed", elapsed).Msg("Grammar correction finished")
	}
	c.metrics.RecordCorrection(outcome, elapsed.Seconds())

	return result, err
}

func (c *Client) correct(ctx context.Context, text, language string) (*CorrectionResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, networkError(err)
		}
	}

	body, err := json.Marshal(Request{Text: text, Language: language})
	if err != nil {
		return nil, apperror.Protocol(err, "could not encode correction request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, networkError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	grammarLogger.Debug().Str("endpoint", c.endpoint).Str("language", language).Int("text_length", len(text)).Msg("Requesting grammar correction")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, serverError(resp.StatusCode, payload)
	}
	return decodeResult(payload)
}

func decodeResult(payload []byte) (*CorrectionResult, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, apperror.Protocol(nil, ErrMsgEmptyResponse)
	}

	var result CorrectionResult
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, apperror.Protocol(err, ErrMsgEmptyResponse)
	}

	if !result.Success {
		if result.Message != nil && *result.Message != "" {
			return nil, apperror.Service(*result.Message)
		}
		return nil, apperror.Service(ErrMsgCorrectionFailed)
	}

	for i, span := range result.Corrections {
		if span.StartIndex < 0 || span.StartIndex > span.EndIndex {
			return nil, apperror.Protocol(
				errors.Errorf("correction %d has span [%d, %d)", i, span.StartIndex, span.EndIndex),
				ErrMsgInvalidSpan,
			)
		}
	}

	return &result, nil
}

func serverError(status int, payload []byte) error {
	var body ErrorResponse
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || json.Unmarshal(trimmed, &body) != nil {
		return apperror.Service(fmt.Sprintf("%s%d - %s", ErrMsgServerPrefix, status, http.StatusText(status)))
	}

	if body.Message != nil && *body.Message != "" {
		return apperror.Service(*body.Message)
	}
	return apperror.Service(fmt.Sprintf("%s%d", ErrMsgServerPrefix, status))
}

func networkError(err error) error {
	desc := err.Error()
	if desc == "" {
		desc = ErrMsgUnknown
	}
	return apperror.Transport(err, ErrMsgNetworkPrefix+desc)
}

func resolveEndpoint(baseURL, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("grammar service base URL is required")
	}
	if path == "" {
		path = DefaultCorrectPath
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.Wrapf(err, "invalid grammar service base URL %q", baseURL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", errors.Errorf("grammar service base URL %q must be http or https", baseURL)
	}

	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", errors.Wrapf(err, "invalid correction path %q", path)
	}
	return base.ResolveReference(ref).String(), nil
}

func orDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}
