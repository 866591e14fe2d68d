// Package claude implements the schedule suggester on top of the Anthropic
// Messages API.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/specialistvlad/taskgrid/internal/ctxlog"
	"github.com/specialistvlad/taskgrid/internal/suggest"
)

const (
	DefaultModel     = "claude-sonnet-4-5"
	DefaultMaxTokens = 4096
	DefaultTimeout   = 60 * time.Second
)

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	APIKey    string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
	// MaxRetries is passed to the SDK; negative keeps the SDK default.
	MaxRetries int
}

// Client wraps the Anthropic SDK and satisfies suggest.Suggester.
type Client struct {
	inner     anthropic.Client
	http      *http.Client
	model     anthropic.Model
	maxTokens int64
}

var _ suggest.Suggester = (*Client)(nil)

// NewClient creates a Claude client. The API key defaults to ANTHROPIC_API_KEY.
func NewClient(opts Options) (*Client, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	httpClient := newHTTPClient(opts.Timeout)
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.MaxRetries >= 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(opts.MaxRetries))
	}

	m := anthropic.Model(DefaultModel)
	if opts.Model != "" {
		m = anthropic.Model(opts.Model)
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &Client{
		inner:     anthropic.NewClient(reqOpts...),
		http:      httpClient,
		model:     m,
		maxTokens: maxTokens,
	}, nil
}

// newHTTPClient builds the transport shared by every API call.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Suggest asks the model for a schedule of the request's unscheduled items.
// The reply is only structurally checked; placement rules are enforced by
// the caller.
func (c *Client) Suggest(ctx context.Context, req suggest.Request) (*suggest.Response, error) {
	logger := ctxlog.FromContext(ctx).With("component", "claude", "day", req.Day)

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	logger.Debug("Calling Claude for a schedule.", "model", c.model)
	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	parsed, err := suggest.ParseResponse(text.String())
	if err != nil {
		logger.Warn("Claude returned an unusable response.", "error", err)
		return nil, fmt.Errorf("parse claude response: %w", err)
	}
	return parsed, nil
}

const systemPrompt = `You are a scheduling assistant for a personal planner. You place unscheduled tasks into free time on a single day.

Rules:
- Never move or overlap fixed events.
- Never overlap items that are already scheduled.
- Never overlap two of your own placements.
- Only place tasks inside the working window.
- Only use item IDs from the unscheduled list.
- Prefer tasks with urgent due hints ("overdue", "today") earlier in the day.
- When a task has no duration estimate, propose one in duration_minutes (at least 15).

Return your answer as JSON with this exact structure:
{
  "schedule": [
    {"item_id": "<unscheduled item id>", "scheduled_start": "HH:MM", "duration_minutes": <minutes>}
  ],
  "reasoning": "<one short paragraph>"
}

Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.`

// buildPrompt renders the day snapshot as the user message.
func buildPrompt(req suggest.Request) (string, error) {
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Day: %s\nWorking window: %s\n\n", req.Day, req.Window)
	b.WriteString("Here is the day (fixed events, scheduled items, unscheduled items):\n")
	b.Write(data)
	return b.String(), nil
}
