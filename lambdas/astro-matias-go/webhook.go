package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBodyBytes caps how much of the webhook response is read.
const maxResponseBodyBytes = 1 << 20

// ErrMalformedResponse is returned when a 200 response is not a JSON object.
var ErrMalformedResponse = errors.New("malformed webhook response")

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// Asker answers free-text questions. WebhookClient is the production implementation.
type Asker interface {
	Ask(ctx context.Context, req WebhookRequest) Outcome
}

// WebhookClient posts questions to the question-answering webhook.
type WebhookClient struct {
	logger          *Logger
	client          HTTPClient
	url             string
	token           string
	timeout         time.Duration
	deadlineReserve time.Duration
}

// NewWebhookClient creates a WebhookClient from the skill configuration.
func NewWebhookClient(logger *Logger, cfg *Config, client HTTPClient) *WebhookClient {
	return &WebhookClient{
		logger:          logger,
		client:          client,
		url:             cfg.WebhookURL,
		token:           cfg.WebhookToken,
		timeout:         cfg.WebhookTimeout,
		deadlineReserve: cfg.DeadlineReserve,
	}
}

// Ask performs one POST to the webhook and classifies the result. It never retries.
func (c *WebhookClient) Ask(ctx context.Context, question WebhookRequest) Outcome {
	timeout := c.effectiveTimeout(ctx)
	if timeout <= 0 {
		c.logger.Errorf("Not calling webhook: no time left before the invocation deadline")
		return Outcome{Kind: OutcomeTimeout, Detail: "invocation deadline reached before webhook call"}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(question)
	if err != nil {
		return c.fail(Outcome{Kind: OutcomeUnknownError, Detail: fmt.Sprintf("error marshalling payload: %v", err)})
	}

	c.logger.Infof("Trying to connect to %s (timeout %v)", c.url, timeout)
	c.logger.Infof("Payload sent: %s", Truncate(string(payload), maxLoggedBodyLength))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return c.fail(Outcome{Kind: OutcomeUnknownError, Detail: fmt.Sprintf("error creating request: %v", err)})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("astro-matias-skill/%s", Version))
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return c.fail(classifyError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		outcome := classifyError(fmt.Errorf("error reading response body: %w", err))
		outcome.StatusCode = resp.StatusCode
		return c.fail(outcome)
	}

	c.logger.Infof("HTTP response %d", resp.StatusCode)
	c.logger.Infof("Partial content: %s", Truncate(string(body), maxLoggedBodyLength))

	if resp.StatusCode != http.StatusOK {
		return c.fail(Outcome{Kind: OutcomeHTTPError, StatusCode: resp.StatusCode, Detail: http.StatusText(resp.StatusCode)})
	}

	answer, err := ParseWebhookAnswer(body)
	if err != nil {
		return c.fail(Outcome{Kind: OutcomeMalformedResponse, StatusCode: resp.StatusCode, Detail: err.Error()})
	}

	return Outcome{Kind: OutcomeSuccess, StatusCode: resp.StatusCode, Answer: answer.Answer}
}

// effectiveTimeout shortens the configured timeout so that the call ends
// before the invocation deadline, leaving deadlineReserve to build the response.
func (c *WebhookClient) effectiveTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline) - c.deadlineReserve; remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

func (c *WebhookClient) fail(outcome Outcome) Outcome {
	c.logger.Errorf("Webhook call failed: %s", outcome)
	return outcome
}

// ParseWebhookAnswer extracts the answer from a webhook response body.
// The body must be a JSON object; a missing or null "respuesta" yields the default answer.
func ParseWebhookAnswer(body []byte) (WebhookAnswer, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return WebhookAnswer{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if fields == nil {
		return WebhookAnswer{}, fmt.Errorf("%w: body is not a JSON object", ErrMalformedResponse)
	}
	if _, err := dec.Token(); err != io.EOF {
		return WebhookAnswer{}, fmt.Errorf("%w: trailing data after JSON object", ErrMalformedResponse)
	}

	switch v := fields["respuesta"].(type) {
	case nil:
		return WebhookAnswer{Answer: defaultWebhookAnswer}, nil
	case string:
		return WebhookAnswer{Answer: v}, nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return WebhookAnswer{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return WebhookAnswer{Answer: string(raw)}, nil
	}
}
