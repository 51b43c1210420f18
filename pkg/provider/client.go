// Package provider is a typed client for the OpenAI file, fine-tuning and
// model endpoints. Responses are converted into the structs in types.go and
// validated before they are returned.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/apperr"
	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/config"
)

type Client struct {
	api        *openai.Client
	httpClient *http.Client
	baseURL    string
	apiKey     string
	orgID      string
	logger     *zap.Logger
}

// NewClient builds a client from cfg. The API key must be set.
func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = baseURL
	oc.OrgID = cfg.Organization
	oc.HTTPClient = httpClient

	return &Client{
		api:        openai.NewClientWithConfig(oc),
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		orgID:      cfg.Organization,
		logger:     logger.Named("provider"),
	}, nil
}

// =============================================================================
// FILES
// =============================================================================

// UploadFile sends a local JSONL file with purpose "fine-tune".
func (c *Client) UploadFile(ctx context.Context, path string) (FileInfo, error) {
	const op = "upload file"

	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, &apperr.FileAccessError{Path: path, Err: err}
	}
	if st.IsDir() {
		return FileInfo{}, &apperr.FileAccessError{Path: path, Err: errors.New("is a directory")}
	}

	c.logger.Debug("uploading file", zap.String("path", path), zap.Int64("bytes", st.Size()))
	f, err := c.api.CreateFile(ctx, openai.FileRequest{
		FileName: filepath.Base(path),
		FilePath: path,
		Purpose:  string(openai.PurposeFineTune),
	})
	if err != nil {
		return FileInfo{}, serviceError(op, err)
	}

	info := fileInfo(f)
	return info, info.validate(op)
}

func (c *Client) ListFiles(ctx context.Context) ([]FileInfo, error) {
	const op = "list files"

	list, err := c.api.ListFiles(ctx)
	if err != nil {
		return nil, serviceError(op, err)
	}

	files := make([]FileInfo, 0, len(list.Files))
	for _, f := range list.Files {
		info := fileInfo(f)
		if err := info.validate(op); err != nil {
			return nil, err
		}
		files = append(files, info)
	}
	c.logger.Debug("listed files", zap.Int("count", len(files)))
	return files, nil
}

func (c *Client) GetFile(ctx context.Context, id string) (FileInfo, error) {
	const op = "retrieve file"

	f, err := c.api.GetFile(ctx, id)
	if err != nil {
		return FileInfo{}, serviceError(op, err)
	}
	info := fileInfo(f)
	return info, info.validate(op)
}

func (c *Client) DeleteFile(ctx context.Context, id string) error {
	if err := c.api.DeleteFile(ctx, id); err != nil {
		return serviceError("delete file", err)
	}
	return nil
}

func fileInfo(f openai.File) FileInfo {
	return FileInfo{
		ID:        f.ID,
		Object:    f.Object,
		Bytes:     int64(f.Bytes),
		CreatedAt: int64(f.CreatedAt),
		Filename:  f.FileName,
		Purpose:   f.Purpose,
		Status:    f.Status,
	}
}

// =============================================================================
// FINE-TUNING JOBS
// =============================================================================

func (c *Client) CreateJob(ctx context.Context, req JobRequest) (JobInfo, error) {
	const op = "create fine-tuning job"

	oreq := openai.FineTuningJobRequest{
		TrainingFile:   req.TrainingFile,
		ValidationFile: req.ValidationFile,
		Model:          req.Model,
		Suffix:         req.Suffix,
	}
	if req.Epochs > 0 {
		oreq.Hyperparameters = &openai.Hyperparameters{Epochs: req.Epochs}
	}

	c.logger.Debug("creating job", zap.String("training_file", req.TrainingFile), zap.String("model", req.Model))
	job, err := c.api.CreateFineTuningJob(ctx, oreq)
	if err != nil {
		return JobInfo{}, serviceError(op, err)
	}
	info := jobInfo(job)
	return info, info.validate(op)
}

// ListJobs returns the most recent jobs. go-openai has no listing call for
// fine-tuning jobs, so this one goes over the shared HTTP client directly.
func (c *Client) ListJobs(ctx context.Context, limit int) ([]JobInfo, error) {
	const op = "list fine-tuning jobs"

	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	endpoint := "/fine_tuning/jobs"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var page struct {
		Data    []JobInfo `json:"data"`
		HasMore bool      `json:"has_more"`
	}
	if err := c.getJSON(ctx, op, endpoint, &page); err != nil {
		return nil, err
	}
	for _, j := range page.Data {
		if err := j.validate(op); err != nil {
			return nil, err
		}
	}
	c.logger.Debug("listed jobs", zap.Int("count", len(page.Data)), zap.Bool("has_more", page.HasMore))
	return page.Data, nil
}

func (c *Client) GetJob(ctx context.Context, id string) (JobInfo, error) {
	const op = "retrieve fine-tuning job"

	job, err := c.api.RetrieveFineTuningJob(ctx, id)
	if err != nil {
		return JobInfo{}, serviceError(op, err)
	}
	info := jobInfo(job)
	return info, info.validate(op)
}

func (c *Client) CancelJob(ctx context.Context, id string) (JobInfo, error) {
	const op = "cancel fine-tuning job"

	job, err := c.api.CancelFineTuningJob(ctx, id)
	if err != nil {
		return JobInfo{}, serviceError(op, err)
	}
	info := jobInfo(job)
	return info, info.validate(op)
}

func (c *Client) ListEvents(ctx context.Context, id string, limit int) ([]EventInfo, error) {
	const op = "list fine-tuning events"

	var opts []openai.ListFineTuningJobEventsParameter
	if limit > 0 {
		opts = append(opts, openai.ListFineTuningJobEventsWithLimit(limit))
	}
	list, err := c.api.ListFineTuningJobEvents(ctx, id, opts...)
	if err != nil {
		return nil, serviceError(op, err)
	}

	events := make([]EventInfo, 0, len(list.Data))
	for _, ev := range list.Data {
		events = append(events, EventInfo{
			Object:    ev.Object,
			CreatedAt: int64(ev.CreatedAt),
			Level:     ev.Level,
			Message:   ev.Message,
		})
	}
	return events, nil
}

func jobInfo(j openai.FineTuningJob) JobInfo {
	return JobInfo{
		ID:              j.ID,
		Object:          j.Object,
		Model:           j.Model,
		Status:          j.Status,
		CreatedAt:       int64(j.CreatedAt),
		FinishedAt:      int64(j.FinishedAt),
		FineTunedModel:  j.FineTunedModel,
		TrainingFile:    j.TrainingFile,
		ValidationFile:  j.ValidationFile,
		ResultFiles:     j.ResultFiles,
		TrainedTokens:   int(j.TrainedTokens),
		Hyperparameters: j.Hyperparameters,
	}
}

// =============================================================================
// MODELS
// =============================================================================

func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	const op = "list models"

	list, err := c.api.ListModels(ctx)
	if err != nil {
		return nil, serviceError(op, err)
	}

	models := make([]ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		info := ModelInfo{
			ID:      m.ID,
			Object:  m.Object,
			Created: int64(m.CreatedAt),
			OwnedBy: m.OwnedBy,
			Root:    m.Root,
			Parent:  m.Parent,
		}
		if err := info.validate(op); err != nil {
			return nil, err
		}
		models = append(models, info)
	}
	return models, nil
}

// DeleteModel removes a fine-tuned model owned by the caller's organization.
func (c *Client) DeleteModel(ctx context.Context, id string) error {
	const op = "delete model"

	resp, err := c.api.DeleteFineTuneModel(ctx, id)
	if err != nil {
		return serviceError(op, err)
	}
	if !resp.Deleted {
		return &apperr.ExternalServiceError{Op: op, Err: fmt.Errorf("model %s was not deleted", id)}
	}
	return nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) makeRequest(ctx context.Context, method, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if c.orgID != "" {
		req.Header.Set("OpenAI-Organization", c.orgID)
	}

	return c.httpClient.Do(req)
}

func (c *Client) getJSON(ctx context.Context, op, endpoint string, out any) error {
	resp, err := c.makeRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return &apperr.ExternalServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &apperr.ExternalServiceError{Op: op, StatusCode: resp.StatusCode, Err: apiMessage(resp.Status, body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperr.ExternalServiceError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// apiMessage extracts error.message from an OpenAI error body, falling back
// to the raw body.
func apiMessage(status string, body []byte) error {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		return errors.New(envelope.Error.Message)
	}
	return fmt.Errorf("API error: %s - %s", status, strings.TrimSpace(string(body)))
}

func serviceError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &apperr.ExternalServiceError{Op: op, StatusCode: apiErr.HTTPStatusCode, Err: errors.New(apiErr.Message)}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &apperr.ExternalServiceError{Op: op, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return &apperr.ExternalServiceError{Op: op, Err: err}
}
