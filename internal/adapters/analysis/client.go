// Package analysis is the Analysis API adapter (C3): synchronous summary
// computation plus the asynchronous solver job (optimal/validate/filter
// configuration-space operations) polling loop.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/isa-group/harvey-agent-core/internal/adapters"
)

// Operation names the solver operation requested of an analysis job.
type Operation string

const (
	OperationSubscriptions Operation = "subscriptions"
	OperationOptimal       Operation = "optimal"
	OperationValidate      Operation = "validate"
	OperationFilter        Operation = "filter"
)

// Objective is the optimization direction for OperationOptimal.
type Objective string

const (
	ObjectiveMinimize Objective = "minimize"
	ObjectiveMaximize Objective = "maximize"
)

// Config tunes the job-polling loop (spec.md §4.3).
type Config struct {
	BaseURL        string
	PollInitial    time.Duration // default 200ms
	PollCap        time.Duration // default 5s
	WallClockCap   time.Duration // default 120s
	RequestTimeout time.Duration // per-HTTP-call timeout, default 30s
	RateLimitRPS   float64       // 0 disables
}

func (c Config) withDefaults() Config {
	if c.PollInitial <= 0 {
		c.PollInitial = 200 * time.Millisecond
	}
	if c.PollCap <= 0 {
		c.PollCap = 5 * time.Second
	}
	if c.WallClockCap <= 0 {
		c.WallClockCap = 120 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	return c
}

// Client is the Analysis API adapter.
type Client struct {
	cfg  Config
	http *adapters.Client
}

// New builds a Client against cfg.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:  cfg,
		http: adapters.NewClient(cfg.RequestTimeout, cfg.RateLimitRPS, "analysis"),
	}
}

// SummaryResult is the statistics object returned by Summary.
type SummaryResult struct {
	PlanCount       int            `json:"planCount"`
	AddOnCount      int            `json:"addOnCount"`
	FeatureCount    int            `json:"featureCount"`
	UsageLimitCount int            `json:"usageLimitCount"`
	Extra           map[string]any `json:"extra,omitempty"`
}

// Summary performs the synchronous multipart POST summary operation.
func (c *Client) Summary(ctx context.Context, yamlBytes []byte) (*SummaryResult, error) {
	body, contentType, err := multipartYAML(yamlBytes)
	if err != nil {
		return nil, &adapters.Error{Kind: adapters.KindTransport, Op: "analysis.summary", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/summary", body)
	if err != nil {
		return nil, &adapters.Error{Kind: adapters.KindTransport, Op: "analysis.summary", Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out SummaryResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &adapters.Error{Kind: adapters.KindDecode, Op: "analysis.summary", Err: err}
	}
	return &out, nil
}

// JobState is the status payload returned by the job-status endpoint.
type JobState struct {
	Status  string          `json:"status"` // "pending" | "completed" | "failed"
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

type submitJobRequest struct {
	Operation Operation      `json:"operation"`
	Solver    string         `json:"solver,omitempty"`
	Filters   map[string]any `json:"filters,omitempty"`
	Objective Objective      `json:"objective,omitempty"`
}

// SubmitJob starts an asynchronous analysis job and returns its id.
func (c *Client) SubmitJob(ctx context.Context, yamlBytes []byte, op Operation, solver string, filters map[string]any, objective Objective) (string, error) {
	body, contentType, err := multipartJob(yamlBytes, submitJobRequest{Operation: op, Solver: solver, Filters: filters, Objective: objective})
	if err != nil {
		return "", &adapters.Error{Kind: adapters.KindTransport, Op: "analysis.submit", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/jobs", body)
	if err != nil {
		return "", &adapters.Error{Kind: adapters.KindTransport, Op: "analysis.submit", Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &adapters.Error{Kind: adapters.KindDecode, Op: "analysis.submit", Err: err}
	}
	return out.JobID, nil
}

// status polls the job once.
func (c *Client) status(ctx context.Context, jobID string) (*JobState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return nil, &adapters.Error{Kind: adapters.KindTransport, Op: "analysis.status", Err: err}
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var state JobState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, &adapters.Error{Kind: adapters.KindDecode, Op: "analysis.status", Err: err}
	}
	return &state, nil
}

// AwaitJob polls jobID with capped exponential backoff until it completes,
// fails, or the wall-clock cap elapses. On timeout the job handle is
// abandoned, not cancelled server-side (spec.md §4.3).
func (c *Client) AwaitJob(ctx context.Context, jobID string) (json.RawMessage, error) {
	deadline := time.Now().Add(c.cfg.WallClockCap)
	wait := c.cfg.PollInitial

	for {
		if time.Now().After(deadline) {
			return nil, &adapters.Error{Kind: adapters.KindTimeout, Op: "analysis.poll", Err: fmt.Errorf("job %s exceeded wall-clock cap %s", jobID, c.cfg.WallClockCap)}
		}

		state, err := c.status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		switch state.Status {
		case "completed":
			return state.Result, nil
		case "failed":
			return nil, &adapters.SolverError{Message: state.Message}
		}

		select {
		case <-ctx.Done():
			return nil, &adapters.Error{Kind: adapters.KindForContext(ctx), Op: "analysis.poll", Err: ctx.Err()}
		case <-time.After(wait):
		}
		wait *= 2
		if wait > c.cfg.PollCap {
			wait = c.cfg.PollCap
		}
	}
}

func multipartYAML(yamlBytes []byte) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("file", "pricing.yaml")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(yamlBytes); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func multipartJob(yamlBytes []byte, req submitJobRequest) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	part, err := w.CreateFormFile("file", "pricing.yaml")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(yamlBytes); err != nil {
		return nil, "", err
	}

	meta, err := json.Marshal(req)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("request", string(meta)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
