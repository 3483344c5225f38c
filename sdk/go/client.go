package chemecaresdk

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
)

// Client is a minimal Chem-E-Care HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Event represents a logged facility event.
type Event struct {
	ID      int64  `json:"id"`
	Type    string `json:"type"`
	Details string `json:"details"`
	Time    string `json:"time"`
	Status  string `json:"status"`
	Age     string `json:"age"`
}

// Answers is the orchestrator questionnaire.
type Answers struct {
	SafetyImpact        bool `json:"safety_impact"`
	ComplianceDeviation bool `json:"compliance_deviation"`
	AssetHealthRisk     bool `json:"asset_health_risk"`
}

// Decision is one orchestrator run.
type Decision struct {
	Event     Event   `json:"event"`
	Answers   Answers `json:"answers"`
	Outcome   string  `json:"outcome"`
	Color     string  `json:"color"`
	Timestamp string  `json:"timestamp"`
}

// Alert is a dismissible notification.
type Alert struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	StyleClass string `json:"style_class"`
	AutoAction string `json:"auto_action,omitempty"`
	Event      Event  `json:"event"`
	Created    string `json:"created"`
	Urgency    int    `json:"urgency"`
	Respond    string `json:"respond"`
	Dismissed  bool   `json:"dismissed"`
}

// Todo is an AI-suggested action item.
type Todo struct {
	Index  int    `json:"index"`
	Event  string `json:"event"`
	Risk   string `json:"risk"`
	Action string `json:"action"`
	Done   bool   `json:"done"`
}

// Analysis wraps an AI analysis result.
type Analysis struct {
	Result string `json:"result"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateEvent logs a facility event.
func (c *Client) CreateEvent(ctx context.Context, eventType, details string) (Event, error) {
	body := map[string]any{
		"type":    eventType,
		"details": details,
	}
	var resp Event
	err := c.do(ctx, http.MethodPost, "v0/events", body, &resp)
	return resp, err
}

// Events returns events, most recent first. A limit of 0 means all.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v0/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Triage runs the orchestrator on an event.
func (c *Client) Triage(ctx context.Context, eventID int64, answers Answers) (Decision, error) {
	var resp Decision
	endpoint := fmt.Sprintf("v0/events/%d/triage", eventID)
	err := c.do(ctx, http.MethodPost, endpoint, answers, &resp)
	return resp, err
}

// Decisions returns the decision log, newest first.
func (c *Client) Decisions(ctx context.Context) ([]Decision, error) {
	var resp []Decision
	err := c.do(ctx, http.MethodGet, "v0/decisions", nil, &resp)
	return resp, err
}

// Alerts returns active alerts, newest first.
func (c *Client) Alerts(ctx context.Context) ([]Alert, error) {
	var resp []Alert
	err := c.do(ctx, http.MethodGet, "v0/alerts", nil, &resp)
	return resp, err
}

// DismissAlert dismisses one alert by id.
func (c *Client) DismissAlert(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("v0/alerts/%s/dismiss", url.PathEscape(id))
	return c.do(ctx, http.MethodPost, endpoint, nil, nil)
}

// Todos returns the AI-generated todo list.
func (c *Client) Todos(ctx context.Context) ([]Todo, error) {
	var resp []Todo
	err := c.do(ctx, http.MethodGet, "v0/todos", nil, &resp)
	return resp, err
}

// RefreshTodos regenerates the todo list from recent events.
func (c *Client) RefreshTodos(ctx context.Context) ([]Todo, error) {
	var resp []Todo
	err := c.do(ctx, http.MethodPost, "v0/todos/refresh", nil, &resp)
	return resp, err
}

// SetTodoDone sets a todo's completion flag by position.
func (c *Client) SetTodoDone(ctx context.Context, index int, done bool) (Todo, error) {
	var resp Todo
	endpoint := fmt.Sprintf("v0/todos/%d/done", index)
	err := c.do(ctx, http.MethodPut, endpoint, map[string]any{"done": done}, &resp)
	return resp, err
}

// AnalyzeEvents requests the deep analysis of recent events.
func (c *Client) AnalyzeEvents(ctx context.Context) (string, error) {
	var resp Analysis
	err := c.do(ctx, http.MethodPost, "v0/analysis/events", nil, &resp)
	return resp.Result, err
}

// GenerateReport requests the executive facility report.
func (c *Client) GenerateReport(ctx context.Context) (string, error) {
	var resp Analysis
	err := c.do(ctx, http.MethodPost, "v0/analysis/report", nil, &resp)
	return resp.Result, err
}

// PredictMaintenance requests the maintenance forecast.
func (c *Client) PredictMaintenance(ctx context.Context) (string, error) {
	var resp Analysis
	err := c.do(ctx, http.MethodPost, "v0/analysis/maintenance", nil, &resp)
	return resp.Result, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
