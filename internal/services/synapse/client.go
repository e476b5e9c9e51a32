package synapse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rahulptl/synapse-sub001/internal/config"
	"github.com/rahulptl/synapse-sub001/internal/services"
)

// HTTPDoer describes the HTTP client used by the Synapse service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ContentRequest is one content-ingest payload.
type ContentRequest struct {
	FolderID    string            `json:"folder_id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	ContentType string            `json:"content_type"`
	SourceURL   string            `json:"source_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// IngestResult carries the remote id assigned to ingested content.
type IngestResult struct {
	ID string
}

// UploadRequest is one multipart file-upload payload.
type UploadRequest struct {
	Data        []byte
	FileName    string
	FolderID    string
	Title       string
	Description string
}

// UploadResult carries the remote identity of an uploaded file.
type UploadResult struct {
	ID       string
	FileURL  string
	FilePath string
}

// Folder is one node of the remote folder hierarchy.
type Folder struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	ParentID string   `json:"parent_id,omitempty"`
	Children []Folder `json:"children,omitempty"`
}

// Client talks to the Synapse knowledge-store API with bearer authentication.
type Client struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewClient builds a client from configuration, using a timeout-bounded
// http.Client for transport.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Remote.TimeoutSeconds) * time.Second
	return New(cfg.Remote.BaseURL, cfg.Remote.APIKey, &http.Client{Timeout: timeout})
}

// New constructs a client over the given transport. Tests inject fake doers.
func New(baseURL, apiKey string, client HTTPDoer) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

// IngestContent creates a knowledge item from text content.
func (c *Client) IngestContent(ctx context.Context, payload ContentRequest) (IngestResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return IngestResult{}, services.Wrap(services.ErrBadPayload, "synapse", "ingest", "encode payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/content/", bytes.NewReader(body))
	if err != nil {
		return IngestResult{}, services.Wrap(services.ErrTransient, "synapse", "ingest", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var decoded struct {
		Success bool `json:"success"`
		Item    struct {
			ID string `json:"id"`
		} `json:"item"`
	}
	if err := c.do(req, "ingest", &decoded); err != nil {
		return IngestResult{}, err
	}
	if !decoded.Success || decoded.Item.ID == "" {
		return IngestResult{}, services.Wrap(services.ErrTransient, "synapse", "ingest", "response missing item id", nil)
	}
	return IngestResult{ID: decoded.Item.ID}, nil
}

// UploadFile uploads a binary attachment as a new knowledge item.
func (c *Client) UploadFile(ctx context.Context, payload UploadRequest) (UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", payload.FileName)
	if err == nil {
		_, err = part.Write(payload.Data)
	}
	if err == nil {
		err = writer.WriteField("folder_id", payload.FolderID)
	}
	if err == nil {
		err = writer.WriteField("title", payload.Title)
	}
	if err == nil && payload.Description != "" {
		err = writer.WriteField("description", payload.Description)
	}
	if err == nil {
		err = writer.Close()
	}
	if err != nil {
		return UploadResult{}, services.Wrap(services.ErrUploadFailed, "synapse", "upload", "encode multipart body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files/upload", &body)
	if err != nil {
		return UploadResult{}, services.Wrap(services.ErrTransient, "synapse", "upload", "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var decoded struct {
		Content struct {
			ID       string `json:"id"`
			FileURL  string `json:"file_url"`
			FilePath string `json:"file_path"`
		} `json:"content"`
	}
	if err := c.do(req, "upload", &decoded); err != nil {
		return UploadResult{}, err
	}
	if decoded.Content.ID == "" {
		return UploadResult{}, services.Wrap(services.ErrUploadFailed, "synapse", "upload", "response missing content id", nil)
	}
	return UploadResult{
		ID:       decoded.Content.ID,
		FileURL:  decoded.Content.FileURL,
		FilePath: decoded.Content.FilePath,
	}, nil
}

// ListFolders fetches the remote folder hierarchy.
func (c *Client) ListFolders(ctx context.Context) ([]Folder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/folders/", nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "synapse", "folders", "build request", err)
	}

	var decoded struct {
		Folders []Folder `json:"folders"`
	}
	if err := c.do(req, "folders", &decoded); err != nil {
		return nil, err
	}
	return decoded.Folders, nil
}

// do executes a request, maps failure status codes onto the error taxonomy,
// and decodes a successful JSON response into out.
func (c *Client) do(req *http.Request, operation string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "synapse", operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return newAPIError(operation, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransient, "synapse", operation, "decode response", err)
	}
	return nil
}

// apiError is a non-2xx response from the remote API. It keeps the remote
// error code for item status and unwraps to the matching sentinel marker.
type apiError struct {
	operation string
	status    int
	code      string
	detail    string
}

func newAPIError(operation string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body struct {
		Code   string `json:"code"`
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(raw, &body)

	code := strings.TrimSpace(body.Code)
	if code == "" {
		code = codeForStatus(resp.StatusCode)
	}
	detail := strings.TrimSpace(body.Detail)
	if detail == "" {
		detail = strings.TrimSpace(body.Error)
	}
	return &apiError{
		operation: operation,
		status:    resp.StatusCode,
		code:      code,
		detail:    detail,
	}
}

// codeForStatus maps a bare HTTP status onto a canonical error code. Server
// errors carry no code so they stay retryable.
func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return services.CodeBadPayload
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.CodeAuthRejected
	default:
		return ""
	}
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("synapse %s returned %d", e.operation, e.status)
	if e.code != "" {
		msg += " (" + e.code + ")"
	}
	if e.detail != "" {
		msg += ": " + e.detail
	}
	return msg
}

// ErrorCode reports the remote error code, if any.
func (e *apiError) ErrorCode() string {
	return e.code
}

// Unwrap tags the error with its classification marker.
func (e *apiError) Unwrap() error {
	return services.Classify(e.code)
}
