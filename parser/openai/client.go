package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskify/backend/domain"
	"github.com/taskify/backend/parser"
)

const systemPrompt = `You are a task parsing assistant. Extract the following information from the user's task description:
1. Task title (short but descriptive)
2. Description (additional details if available)
3. Priority (low, medium, or high)
4. Due date (in ISO format if a date/time is mentioned)

Respond with JSON only in the following format:
{
  "title": "Task title",
  "description": "Additional description or null if not provided",
  "priority": "low|medium|high",
  "dueDate": "YYYY-MM-DDTHH:MM:SS.sssZ or null if no date mentioned"
}

For priority:
- If urgency is explicitly mentioned (urgent, asap, etc.), set priority to "high"
- If something is described as "not urgent" or "when you have time", set priority to "low"
- Default to "medium" if no priority indicators are found

For due date:
- Convert relative dates (tomorrow, next Monday, etc.) to absolute dates
- If a specific time is mentioned, include it
- If no time is specified but a date is, use 23:59:59 as the default time
- Return null if no date information is provided`

// Config carries the upstream connection settings.
type Config struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// Client calls the OpenAI chat-completions API to parse task text.
type Client struct {
	cfg    Config
	http   *fasthttp.Client
	logger *zap.Logger
}

// New builds a parser client with defaults applied.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &fasthttp.Client{},
		logger: logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Parse sends the task text upstream and normalizes the model's answer into a
// draft. Upstream or transport failures error; a malformed model answer falls
// back to a draft holding the raw text as description.
func (c *Client) Parse(ctx context.Context, text string) (domain.Draft, error) {
	if c.cfg.APIKey == "" {
		return domain.Draft{}, domain.WrapError(domain.ErrCodeUpstream, "parser not configured", nil)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return domain.Draft{}, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.cfg.Endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.SetBody(body)

	deadline := time.Now().Add(c.cfg.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return domain.Draft{}, domain.WrapError(domain.ErrCodeUpstream, "task parsing request failed", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Warn("parser upstream returned non-200", zap.Int("status", resp.StatusCode()))
		return domain.Draft{}, domain.WrapError(domain.ErrCodeUpstream,
			fmt.Sprintf("task parsing upstream status %d", resp.StatusCode()), nil)
	}

	var chat chatResponse
	if err := json.Unmarshal(resp.Body(), &chat); err != nil || len(chat.Choices) == 0 {
		return domain.Draft{}, domain.WrapError(domain.ErrCodeUpstream, "malformed parser response", err)
	}

	var raw parser.RawDraft
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &raw); err != nil {
		// The model answered with something other than the requested JSON.
		c.logger.Warn("parser returned non-JSON content, using fallback draft")
		raw = parser.RawDraft{Title: parser.DefaultTitle, Description: text, Priority: "medium"}
	}

	return parser.Normalize(raw), nil
}

var _ parser.Parser = (*Client)(nil)
