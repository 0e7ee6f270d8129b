package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Status enumerates upstream prediction lifecycle states.
type Status string

const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// Terminal reports whether the status can no longer change. Re-polling a
// terminal prediction returns the same status on every call.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Options controls how the prediction client is configured.
type Options struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client talks to the external asynchronous image-generation service. It
// holds no local state; every call is a network call and the caller owns the
// poll cadence.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient builds a prediction client with sane defaults.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.replicate.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.Token),
	}
}

// CreateRequest describes a job submission.
type CreateRequest struct {
	Model        string
	Prompt       string
	InputImages  []string
	OutputFormat string
}

// Prediction is the normalized view of an upstream job.
type Prediction struct {
	ID     string
	Status Status
	Output []string
	Error  string
}

type createPayload struct {
	Version string `json:"version"`
	Model   string `json:"model"`
	Input   struct {
		Prompt       string   `json:"prompt"`
		ImageInput   []string `json:"image_input,omitempty"`
		OutputFormat string   `json:"output_format,omitempty"`
	} `json:"input"`
}

type predictionResp struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
	Detail string          `json:"detail"`
}

// Create submits a new prediction and returns its handle. The job runs
// asynchronously; poll with Get until the status is terminal.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*Prediction, error) {
	if c == nil {
		return nil, errors.New("predict: client not configured")
	}
	if c.token == "" {
		return nil, errors.New("predict: API token is missing")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("predict: prompt required")
	}
	var payload createPayload
	payload.Version = req.Model
	payload.Model = req.Model
	payload.Input.Prompt = req.Prompt
	payload.Input.ImageInput = req.InputImages
	payload.Input.OutputFormat = req.OutputFormat

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(httpReq)
}

// Get fetches the current state of a prediction.
func (c *Client) Get(ctx context.Context, id string) (*Prediction, error) {
	if c == nil {
		return nil, errors.New("predict: client not configured")
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("predict: prediction id required")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/predictions/"+id, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(httpReq)
}

// Download fetches the raw bytes behind an output URL.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("predict: output url required")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("predict: download http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) do(req *http.Request) (*Prediction, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out predictionResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("predict: http %d", resp.StatusCode)
		}
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if out.Detail != "" {
			return nil, fmt.Errorf("predict error: %s", out.Detail)
		}
		return nil, fmt.Errorf("predict: http %d", resp.StatusCode)
	}
	if out.ID == "" {
		return nil, errors.New("predict: response missing prediction id")
	}
	return &Prediction{
		ID:     out.ID,
		Status: Status(out.Status),
		Output: decodeOutput(out.Output),
		Error:  decodeError(out.Error),
	}, nil
}

// decodeOutput tolerates both the single-URL and the URL-list shapes the
// upstream service emits depending on the model.
func decodeOutput(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	return nil
}

func decodeError(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg
	}
	return string(raw)
}
