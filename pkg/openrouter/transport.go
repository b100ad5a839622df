package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/routerkit/routerkit-go/pkg/model"
)

// Transport performs a single request/response exchange with the remote API.
// Implementations must surface the remote status code and body so the
// orchestration loop can classify failures.
type Transport interface {
	Send(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// TransportConfig configures the HTTP transport.
type TransportConfig struct {
	APIKey   string
	BaseURL  string
	Referer  string // forwarded as HTTP-Referer for attribution
	Title    string // forwarded as X-Title for attribution
	Headers  map[string]string
	RetryMax int
	Timeout  time.Duration

	// HTTPClient overrides the retrying client entirely; used by tests.
	HTTPClient *http.Client
}

// HTTPTransport talks to the chat completions endpoint over HTTP with
// automatic retries for transient failures.
type HTTPTransport struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport builds a transport from cfg. The API key is required.
func NewHTTPTransport(cfg TransportConfig) (*HTTPTransport, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, model.NewError(model.KindConfiguration, "api key is required")
	}

	headers := map[string]string{
		"Authorization": "Bearer " + apiKey,
		"Content-Type":  "application/json",
		"User-Agent":    userAgent,
	}
	if cfg.Referer != "" {
		headers["HTTP-Referer"] = cfg.Referer
	}
	if cfg.Title != "" {
		headers["X-Title"] = cfg.Title
	}
	for k, v := range cfg.Headers {
		if strings.TrimSpace(k) == "" || v == "" {
			continue
		}
		headers[k] = v
	}

	client := cfg.HTTPClient
	if client == nil {
		client = newRetryingClient(cfg)
	}

	return &HTTPTransport{
		client:  client,
		baseURL: sanitizeBaseURL(cfg.BaseURL),
		headers: headers,
	}, nil
}

// Send posts one chat completion request and decodes the response.
func (t *HTTPTransport) Send(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return nil, model.WrapError(model.KindInternal, err, "encode chat completion request")
	}

	endpoint := t.baseURL + chatCompletionsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, model.WrapError(model.KindInternal, err, "create chat completion request")
	}
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		// The url.Error chain keeps context.Canceled/DeadlineExceeded
		// reachable through errors.Is.
		return nil, model.WrapError(model.KindNetwork, err, "send chat completion request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, readAPIError(resp)
	}

	var decoded ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, model.WrapError(model.KindAPI, err, "decode chat completion response")
	}
	return &decoded, nil
}

func newRetryingClient(cfg TransportConfig) *http.Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = cfg.RetryMax
	if cfg.RetryMax == 0 {
		rc.RetryMax = defaultRetryMax
	}
	// Keep the final response on exhausted retries so status classification
	// still sees the real code instead of a "giving up" error.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout * time.Second
	}
	rc.HTTPClient = &http.Client{Timeout: timeout}
	return rc.StandardClient()
}

func readAPIError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.WrapError(ClassifyStatus(resp.StatusCode), err, "read error body (status %d)", resp.StatusCode)
	}
	body = bytes.TrimSpace(body)

	apiErr := APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	var envelope struct {
		Error *ErrorBody `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Metadata = envelope.Error.Metadata
	} else if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		// Some providers nest errors in shapes the typed decode misses.
		apiErr.Code = int(gjson.GetBytes(body, "error.code").Int())
		apiErr.Message = msg.String()
	} else if len(body) > 0 {
		apiErr.Message = string(body)
	}

	typed := &model.Error{
		Kind:    ClassifyStatus(resp.StatusCode),
		Message: apiErr.Message,
		Status:  resp.StatusCode,
		Details: apiErr,
		Err:     apiErr,
	}
	if typed.Kind == model.KindRateLimit {
		typed.RetryAfter = retryAfter(resp.Header)
	}
	return typed
}

func retryAfter(h http.Header) time.Duration {
	raw := strings.TrimSpace(h.Get("Retry-After"))
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func sanitizeBaseURL(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		return defaultBaseURL
	}
	return trimmed
}

// String renders a compact description for logs and error messages.
func (t *HTTPTransport) String() string {
	return fmt.Sprintf("openrouter.HTTPTransport(%s)", t.baseURL)
}
