package events

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/astralfield/roster-engine/internal/platform/logging"
	"github.com/astralfield/roster-engine/internal/platform/resilience"
	"github.com/astralfield/roster-engine/internal/usecase"
)

var errWebhookTransient = crerr.New("webhook transient failure")

// WebhookPublisherConfig configures delivery to the notification service.
type WebhookPublisherConfig struct {
	BaseURL        string
	Path           string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	CircuitBreaker resilience.CircuitBreakerConfig
}

// WebhookPublisher delivers usecase events to the notification service as
// JSON webhooks. Delivery is best-effort: callers treat a returned error as
// a log line, never a rollback.
type WebhookPublisher struct {
	client         *fasthttp.Client
	endpoint       string
	token          string
	timeout        time.Duration
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewWebhookPublisher(cfg WebhookPublisherConfig, logger *logging.Logger) (*WebhookPublisher, error) {
	if logger == nil {
		logger = logging.Default()
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, crerr.New("webhook base url is required")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, crerr.Newf("webhook base url %q must use http or https", cfg.BaseURL)
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = "/v1/events"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &WebhookPublisher{
		client:         &fasthttp.Client{ReadTimeout: timeout, WriteTimeout: timeout},
		endpoint:       baseURL + path,
		token:          strings.TrimSpace(cfg.Token),
		timeout:        timeout,
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}, nil
}

// Publish posts one event. Transient failures (network errors, 408/429/5xx)
// are retried up to MaxRetries times and feed the circuit breaker.
func (p *WebhookPublisher) Publish(ctx context.Context, event usecase.Event) error {
	if p.circuitEnabled {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "webhook circuit breaker rejected event", "event", event.Name, "state", p.breaker.State())
			return fmt.Errorf("notification service is temporarily unavailable: %w", err)
		}
	}

	body, err := sonic.Marshal(event)
	if err != nil {
		p.recordCircuitResult(nil)
		return crerr.Wrap(err, "marshal event payload")
	}

	preview := buildEventPreview(event.Name, body)
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("webhook.endpoint", p.endpoint),
			attribute.String("webhook.event", event.Name),
			attribute.String("webhook.request_body", preview),
		)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			p.recordCircuitResult(lastErr)
			return crerr.Wrap(err, "publish event")
		}

		lastErr = p.post(body)
		if lastErr == nil {
			p.logger.InfoContext(ctx, "event published", "event", event.Name, "subject_id", event.SubjectID, "attempt", attempt+1)
			p.recordCircuitResult(nil)
			return nil
		}
		if !stderrors.Is(lastErr, errWebhookTransient) {
			break
		}
	}

	p.logger.WarnContext(ctx, "event publish failed", "event", event.Name, "subject_id", event.SubjectID, "preview", preview, "error", lastErr)
	p.recordCircuitResult(lastErr)
	return lastErr
}

func (p *WebhookPublisher) post(body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	req.SetBody(body)

	if err := p.client.DoTimeout(req, resp, p.timeout); err != nil {
		return fmt.Errorf("%w: post %s: %v", errWebhookTransient, p.endpoint, err)
	}

	status := resp.StatusCode()
	if status/100 == 2 {
		return nil
	}

	detail := strings.TrimSpace(string(resp.Body()))
	if len(detail) > 512 {
		detail = detail[:512] + "...(truncated)"
	}
	if isRetryableStatus(status) {
		return fmt.Errorf("%w: post %s status=%d body=%s", errWebhookTransient, p.endpoint, status, detail)
	}

	return crerr.Newf("post %s status=%d body=%s", p.endpoint, status, detail)
}

func (p *WebhookPublisher) recordCircuitResult(err error) {
	if !p.circuitEnabled || p.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errWebhookTransient) {
		p.breaker.RecordFailure()
		return
	}
	p.breaker.RecordSuccess()
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusRequestTimeout ||
		status == fasthttp.StatusTooManyRequests ||
		status >= fasthttp.StatusInternalServerError
}

func buildEventPreview(name string, body []byte) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(name)
	_, _ = buf.WriteString(" ")
	if len(body) > 1024 {
		_, _ = buf.Write(body[:1024])
		_, _ = buf.WriteString("...(truncated)")
	} else {
		_, _ = buf.Write(body)
	}

	return buf.String()
}
