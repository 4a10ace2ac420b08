package homesolutionsdk

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

// Client is a minimal HomeSolution HTTP API client.
type Client struct {
	BaseURL    string
	BasePath   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "v0",
		Timeout:  10 * time.Second,
	}
}

// Worker represents the API worker model.
type Worker struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Rate      float64 `json:"rate"`
	Category  string  `json:"category,omitempty"`
	Available bool    `json:"available"`
	Delays    int     `json:"delays"`
}

type Task struct {
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	EstimatedDays float64 `json:"estimated_days"`
	DelayDays     float64 `json:"delay_days"`
	WorkerID      *int    `json:"worker_id,omitempty"`
	Done          bool    `json:"done"`
	Cost          float64 `json:"cost"`
}

// Project represents a project snapshot.
type Project struct {
	Number       int     `json:"number"`
	Address      string  `json:"address"`
	Client       string  `json:"client"`
	Start        string  `json:"start"`
	EstimatedEnd string  `json:"estimated_end"`
	ActualEnd    string  `json:"actual_end"`
	Status       string  `json:"status"`
	Cost         float64 `json:"cost"`
	Late         bool    `json:"late"`
	Delayed      bool    `json:"delayed"`
	Tasks        []Task  `json:"tasks"`
}

// NewTask describes a task to create.
type NewTask struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Days        float64 `json:"days"`
}

// NewProject describes a project to register. Dates are YYYY-MM-DD.
type NewProject struct {
	Address      string    `json:"address"`
	Client       string    `json:"client"`
	Start        string    `json:"start"`
	EstimatedEnd string    `json:"estimated_end"`
	Tasks        []NewTask `json:"tasks,omitempty"`
}

// Assignment is the outcome of an assign or reassign call.
type Assignment struct {
	WorkerID int    `json:"worker_id"`
	Status   string `json:"status"`
}

// Event represents a journal entry.
type Event struct {
	ID            int64          `json:"id"`
	OpID          string         `json:"op_id"`
	TS            string         `json:"ts"`
	Type          string         `json:"type"`
	ProjectNumber *int           `json:"project_number,omitempty"`
	EntityKind    string         `json:"entity_kind"`
	EntityID      string         `json:"entity_id"`
	Payload       map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// RegisterHourly registers an hourly worker.
func (c *Client) RegisterHourly(ctx context.Context, name string, hourlyRate float64) (Worker, error) {
	var resp Worker
	err := c.do(ctx, http.MethodPost, "workers", map[string]any{"kind": "hourly", "name": name, "rate": hourlyRate}, &resp)
	return resp, err
}

// RegisterSalaried registers a salaried worker of the given category.
func (c *Client) RegisterSalaried(ctx context.Context, name string, dailyRate float64, category string) (Worker, error) {
	var resp Worker
	body := map[string]any{"kind": "salaried", "name": name, "rate": dailyRate, "category": category}
	err := c.do(ctx, http.MethodPost, "workers", body, &resp)
	return resp, err
}

func (c *Client) RegisterProject(ctx context.Context, p NewProject) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, "projects", p, &resp)
	return resp, err
}

// Assign gives a task to a worker. strategy is "first" or "least-delay".
func (c *Client) Assign(ctx context.Context, project int, title, strategy string) (Assignment, error) {
	body := map[string]any{}
	if strategy != "" {
		body["strategy"] = strategy
	}
	var resp Assignment
	err := c.do(ctx, http.MethodPost, taskPath(project, title, "assign"), body, &resp)
	return resp, err
}

// Reassign hands a task to workerID, or to the least delayed worker when
// workerID is 0.
func (c *Client) Reassign(ctx context.Context, project int, title string, workerID int) (Assignment, error) {
	body := map[string]any{"strategy": "least-delay"}
	if workerID != 0 {
		body = map[string]any{"worker_id": workerID}
	}
	var resp Assignment
	err := c.do(ctx, http.MethodPost, taskPath(project, title, "reassign"), body, &resp)
	return resp, err
}

func (c *Client) RecordDelay(ctx context.Context, project int, title string, days float64) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, taskPath(project, title, "delays"), map[string]any{"days": days}, &resp)
	return resp, err
}

func (c *Client) FinishTask(ctx context.Context, project int, title string) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, taskPath(project, title, "finish"), nil, &resp)
	return resp, err
}

func (c *Client) FinalizeProject(ctx context.Context, project int, endDate string) (Project, error) {
	var resp Project
	endpoint := fmt.Sprintf("projects/%d/finalize", project)
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"end_date": endDate}, &resp)
	return resp, err
}

// Projects lists project snapshots, optionally filtered by status.
func (c *Client) Projects(ctx context.Context, status string) ([]Project, error) {
	endpoint := "projects"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp []Project
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) TotalCost(ctx context.Context) (float64, error) {
	var resp struct {
		Total float64 `json:"total"`
	}
	err := c.do(ctx, http.MethodGet, "cost", nil, &resp)
	return resp.Total, err
}

// Events returns recent journal entries, newest first. project 0 lists all.
func (c *Client) Events(ctx context.Context, project, limit int) ([]Event, error) {
	q := url.Values{}
	if project > 0 {
		q.Set("project", fmt.Sprint(project))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	endpoint := "events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp struct {
		Items []Event `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
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
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func taskPath(project int, title, action string) string {
	return fmt.Sprintf("projects/%d/tasks/%s/%s", project, url.PathEscape(title), action)
}

func (c *Client) base() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if p := strings.Trim(c.BasePath, "/"); p != "" {
		base += "/" + p
	}
	return base
}
