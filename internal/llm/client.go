// Package llm wraps the external decision service that picks detours for
// agents. The service is an opaque collaborator over HTTP and is treated as
// untrusted: every response is validated against the options that were
// actually offered before it can touch agent state.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/serenissima/internal/detour"
)

const decidePath = "/agent/detour-decision"

// DetourRequest is the context and option set submitted for one decision.
type DetourRequest struct {
	AgentName        string          `json:"agent_name"`
	Personality      string          `json:"personality"`
	TimeOfDay        string          `json:"time_of_day"`
	MainGoal         string          `json:"main_goal"`
	AvailableMinutes float64         `json:"available_minutes_before_next_obligation"`
	Options          []detour.Option `json:"options"`
}

// DetourResponse is the service's answer: one of the offered option ids, or
// the "none" sentinel, plus optional narrative text.
type DetourResponse struct {
	ChoiceID string `json:"choice_id"`
	Thought  string `json:"thought,omitempty"`
}

// Client posts detour decisions to the service with a bounded timeout and a
// per-minute call budget.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewClient creates a decision service client. Returns nil when baseURL is
// empty; with no service configured agents keep strictly to their routines.
func NewClient(baseURL string, timeout time.Duration, maxPerMin int) *Client {
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxPerMin <= 0 {
		maxPerMin = 60
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxPerMin:  maxPerMin,
	}
}

// Enabled reports whether the client is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// DecideDetour submits one option set and returns the service's choice.
// Callers treat any error as "continue, no detour".
func (c *Client) DecideDetour(ctx context.Context, req *DetourRequest) (*DetourResponse, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("decision client not configured")
	}
	if err := c.reserveCall(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	reqID := uuid.NewString()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+decidePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", reqID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("decision call %s: %w", reqID, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", reqID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("decision service %s: status %d: %s", reqID, resp.StatusCode, respBody)
	}

	decision, err := parseResponse(respBody)
	if err != nil {
		return nil, fmt.Errorf("decision response %s: %w", reqID, err)
	}

	slog.Debug("detour decision",
		"request_id", reqID,
		"agent", req.AgentName,
		"choice", decision.ChoiceID,
	)
	return decision, nil
}

// reserveCall enforces the per-minute budget across all agents.
func (c *Client) reserveCall() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.After(c.resetAt) {
		c.callCount = 0
		c.resetAt = now.Add(time.Minute)
	}
	if c.callCount >= c.maxPerMin {
		return fmt.Errorf("decision rate limit exceeded (%d calls/min)", c.maxPerMin)
	}
	c.callCount++
	return nil
}

// parseResponse tolerates a service that proxies raw model output: markdown
// fences are stripped before unmarshalling.
func parseResponse(raw []byte) (*DetourResponse, error) {
	text := strings.TrimSpace(string(raw))
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var decision DetourResponse
	if err := json.Unmarshal([]byte(text), &decision); err != nil {
		return nil, fmt.Errorf("parse decision (raw: %s): %w", text, err)
	}
	if decision.ChoiceID == "" {
		return nil, fmt.Errorf("decision has no choice_id")
	}
	return &decision, nil
}

// ValidateChoice downgrades anything the service was not offered to the
// "none" sentinel. A fabricated choice id is an error condition on the
// service's side, not a reason to crash an agent.
func ValidateChoice(resp *DetourResponse, options []detour.Option) string {
	if resp == nil {
		return detour.ContinueOptionID
	}
	for _, o := range options {
		if o.ID == resp.ChoiceID {
			return resp.ChoiceID
		}
	}
	if resp.ChoiceID != detour.ContinueOptionID {
		slog.Warn("decision service chose an unoffered option, treating as none",
			"choice", resp.ChoiceID)
	}
	return detour.ContinueOptionID
}
