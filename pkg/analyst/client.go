package analyst

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kaundalabs/dumsor/pkg/analyst/envelope"
)

const (
	messagePath = "/api/v2/cortex/analyst/message"

	// requestTimeout bounds a single round trip. There is no retry and no
	// mid-request cancellation beyond this: each user action is exactly one
	// attempt.
	requestTimeout = 60 * time.Second
)

// Config holds the settings needed to reach the analyst endpoint.
type Config struct {
	// Account is the provider account locator (e.g. "ZEQWJME-NV17394").
	Account string

	// Token is the bearer credential (PAT / OAuth token).
	Token string

	// SemanticModelFile is the staged semantic model reference sent with
	// every request. Opaque to this client.
	SemanticModelFile string

	// Debug asks the service to include debug_info in replies.
	Debug bool

	// BaseURL overrides the account-derived endpoint. Used in tests.
	BaseURL string
}

func (c Config) endpoint() string {
	if c.BaseURL != "" {
		return c.BaseURL + messagePath
	}
	return fmt.Sprintf("https://%s.snowflakecomputing.com%s", c.Account, messagePath)
}

// Client issues message requests to the analyst endpoint.
// It holds no conversation state; callers pass the full turn sequence.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(config Config, logger *zap.Logger) *Client {
	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// messageRequest is the wire request body.
type messageRequest struct {
	Messages          []Message `json:"messages"`
	SemanticModelFile string    `json:"semantic_model_file"`
	Debug             bool      `json:"debug"`
}

// Send posts the given turn sequence to the analyst and normalizes the reply.
// HTTP-layer failures return a *TransportError; a well-formed response whose
// body carries an error envelope still returns a Reply (with Err populated),
// because HTTP 200 with an embedded error is a valid degenerate case.
func (c *Client) Send(ctx context.Context, messages []Message) (*envelope.Reply, error) {
	body, err := json.Marshal(messageRequest{
		Messages:          messages,
		SemanticModelFile: c.config.SemanticModelFile,
		Debug:             c.config.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding analyst request: %w", err)
	}

	url := c.config.endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating analyst request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending analyst request",
		zap.String("url", url),
		zap.Int("message_count", len(messages)),
		zap.Bool("debug", c.config.Debug),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("reading analyst response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Status: resp.StatusCode, Body: string(respBody)}
	}

	reply, err := envelope.Normalize(respBody)
	if err != nil {
		return nil, fmt.Errorf("normalizing analyst response: %w", err)
	}

	c.logger.Debug("analyst reply normalized",
		zap.Int("sql_count", len(reply.SQL)),
		zap.Bool("has_narrative", reply.Text != ""),
		zap.Bool("app_error", reply.Err != nil),
	)

	return reply, nil
}

// Ask is the stateless variant: a single question synthesized into one user
// turn with no prior history.
func (c *Client) Ask(ctx context.Context, question string) (*envelope.Reply, error) {
	msg, err := NewUserMessage(question)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, []Message{msg})
}
