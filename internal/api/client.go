package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
)

const (
	// DefaultExportFilename is used when the server doesn't name the exported file.
	DefaultExportFilename = "redline.pdf"
	// DefaultRateLimit is the default client side requests per second limit.
	DefaultRateLimit = 10

	exportPath = "/api/redline/export"
	uploadPath = "/api/redline/upload"

	maxErrorBodyBytes = 4 * 1024
)

// SubmitPath returns the task creation endpoint path for a job kind.
func SubmitPath(kind model.JobKind) string {
	return "/api/orchestrator/" + string(kind)
}

// ResultPath returns the task result endpoint path for a job kind and task.
func ResultPath(kind model.JobKind, taskID string) string {
	return SubmitPath(kind) + "/" + url.PathEscape(taskID) + "/result"
}

// ExportPath returns the redline export endpoint path.
func ExportPath() string { return exportPath }

// UploadPath returns the redline upload endpoint path.
func UploadPath() string { return uploadPath }

// ClientConfig is the configuration of the backend API client.
type ClientConfig struct {
	// BaseURL is the backend base URL (e.g. https://app.example.com).
	BaseURL string
	// HTTPClient is the client used for requests. By default a client with a cookie jar,
	// the session travels on cookies. Timeouts are controlled by the request context.
	HTTPClient *http.Client
	// SessionCookies are set on the cookie jar for the base URL.
	SessionCookies []*http.Cookie
	// RateLimit is the maximum requests per second.
	RateLimit float64
	Logger    log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}

	if c.HTTPClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return fmt.Errorf("could not create cookie jar: %w", err)
		}
		c.HTTPClient = &http.Client{Jar: jar}
	}

	if len(c.SessionCookies) > 0 && c.HTTPClient.Jar == nil {
		return fmt.Errorf("session cookies require an HTTP client with a cookie jar")
	}

	if c.RateLimit <= 0 {
		c.RateLimit = DefaultRateLimit
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "api.Client"})

	return nil
}

// Client knows how to talk with the legal document backend HTTP API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     log.Logger
}

// NewClient returns a new backend API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	baseURL, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL scheme %q: %w", baseURL.Scheme, model.ErrNotValid)
	}

	if len(cfg.SessionCookies) > 0 {
		cfg.HTTPClient.Jar.SetCookies(baseURL, cfg.SessionCookies)
	}

	burst := int(cfg.RateLimit)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: cfg.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), burst),
		logger:     cfg.Logger,
	}, nil
}

// --- JSON wire types ---

type submitRequestJSON struct {
	DocumentText string         `json:"documentText"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type submitResponseJSON struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

type resultResponseJSON struct {
	Status   string          `json:"status"`
	Progress *int            `json:"progress,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type changeJSON struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Position  int       `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}

type exportRequestJSON struct {
	Content string       `json:"content"`
	Changes []changeJSON `json:"changes"`
}

type uploadResponseJSON struct {
	Success   *bool  `json:"success,omitempty"`
	Text      string `json:"text"`
	PageCount int    `json:"pageCount,omitempty"`
	Error     string `json:"error,omitempty"`
}

type errorResponseJSON struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// --- Operations ---

// SubmitTask sends a new analysis job and returns the created task.
func (c *Client) SubmitTask(ctx context.Context, kind model.JobKind, payload model.SubmitPayload) (*model.Task, error) {
	const op = "submit task"

	body, err := json.Marshal(submitRequestJSON{
		DocumentText: payload.DocumentText,
		Metadata:     payload.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("could not marshal payload: %w", err)
	}

	data, _, err := c.do(ctx, op, http.MethodPost, SubmitPath(kind), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var resp submitResponseJSON
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &model.NetworkError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("could not decode response: %w", err)}
	}
	if resp.TaskID == "" {
		return nil, &model.NetworkError{Op: op, StatusCode: http.StatusOK, Err: errors.New("missing task id in response")}
	}

	status := model.TaskStatus(resp.Status)
	if status == "" {
		status = model.TaskStatusPending
	}

	c.logger.Debugf("Submitted %s task %s", kind, resp.TaskID)

	return &model.Task{
		ID:        resp.TaskID,
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// GetTaskResult gets the current status of a task.
func (c *Client) GetTaskResult(ctx context.Context, kind model.JobKind, taskID string) (*model.Task, error) {
	const op = "get task result"

	if taskID == "" {
		return nil, fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	data, _, err := c.do(ctx, op, http.MethodGet, ResultPath(kind, taskID), "", nil)
	if err != nil {
		return nil, err
	}

	var resp resultResponseJSON
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &model.NetworkError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("could not decode response: %w", err)}
	}

	status := model.TaskStatus(resp.Status)
	switch status {
	case model.TaskStatusPending, model.TaskStatusProcessing, model.TaskStatusCompleted, model.TaskStatusError:
	default:
		return nil, &model.NetworkError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("unknown task status %q", resp.Status)}
	}

	task := &model.Task{
		ID:        taskID,
		Status:    status,
		Result:    resp.Data,
		Error:     resp.Error,
		UpdatedAt: time.Now().UTC(),
	}
	if resp.Progress != nil {
		task.Progress = clampProgress(*resp.Progress)
	}
	if status == model.TaskStatusCompleted && resp.Progress == nil {
		task.Progress = 100
	}

	return task, nil
}

// ExportRedline renders a document with its change log on the backend.
//
// Change positions are sent as rune offsets. Backends counting UTF-16 code units
// will place changes after emoji or other non BMP characters off by one per such
// character.
func (c *Client) ExportRedline(ctx context.Context, content string, changes []model.TextChange) (*model.ExportArtifact, error) {
	const op = "export redline"

	req := exportRequestJSON{
		Content: content,
		Changes: make([]changeJSON, 0, len(changes)),
	}
	for _, ch := range changes {
		req.Changes = append(req.Changes, changeJSON{
			Type:      string(ch.Type),
			Content:   ch.Content,
			Position:  ch.Position,
			Timestamp: ch.Timestamp,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &model.ExportError{Err: fmt.Errorf("could not marshal request: %w", err)}
	}

	data, header, err := c.do(ctx, op, http.MethodPost, exportPath, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, &model.ExportError{Err: err}
	}
	if len(data) == 0 {
		return nil, &model.ExportError{Err: errors.New("empty export response")}
	}

	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	return &model.ExportArtifact{
		Filename:    filenameFromHeader(header, DefaultExportFilename),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// UploadDocument uploads a file and returns the text the backend extracted from it.
func (c *Client) UploadDocument(ctx context.Context, filename string, r io.Reader) (*model.UploadResult, error) {
	const op = "upload document"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("could not create multipart file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("could not read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("could not close multipart body: %w", err)
	}

	data, _, err := c.do(ctx, op, http.MethodPost, uploadPath, mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	var resp uploadResponseJSON
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &model.NetworkError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("could not decode response: %w", err)}
	}

	// Processing failures can come with a 2xx status.
	if resp.Success != nil && !*resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "document processing failed"
		}
		return nil, &model.NetworkError{Op: op, StatusCode: http.StatusOK, Err: errors.New(msg)}
	}

	return &model.UploadResult{
		Text:      resp.Text,
		PageCount: resp.PageCount,
	}, nil
}

// --- Internal helpers ---

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader) ([]byte, http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, &model.NetworkError{Op: op, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	u := c.baseURL.String() + path
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json, application/pdf, */*")

	c.logger.Debugf("%s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &model.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &model.NetworkError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errorFromResponse(resp),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &model.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("could not read response: %w", err)}
	}

	return data, resp.Header, nil
}

func errorFromResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return model.ErrNotAuthenticated
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	var errResp errorResponseJSON
	if err := json.Unmarshal(data, &errResp); err == nil {
		switch {
		case errResp.Error != "":
			return errors.New(errResp.Error)
		case errResp.Message != "":
			return errors.New(errResp.Message)
		}
	}

	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return errors.New(msg)
}

func filenameFromHeader(h http.Header, def string) string {
	cd := h.Get("Content-Disposition")
	if cd == "" {
		return def
	}

	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return def
	}

	name := filepath.Base(params["filename"])
	if name == "" || name == "." || name == "/" {
		return def
	}
	return name
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
