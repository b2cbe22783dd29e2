// Package gateway performs the network exchanges with the remote document
// Q&A backend. Every failure is returned as a *Failure carrying a message
// that is safe to show to the user.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/liliang-cn/pdfchat/internal/config"
	"github.com/liliang-cn/pdfchat/internal/domain"
	"go.uber.org/zap"
)

const (
	uploadEndpoint = "/upload"
	chatEndpoint   = "/chat"

	maxResponseBytes = 1 << 20
)

// Display messages used when the backend gives nothing better
const (
	MsgUploadDefault   = "File uploaded successfully."
	MsgUploadFailed    = "Failed to upload file."
	MsgAskFailed       = "Failed to get a response from the chat service."
	MsgUnexpectedReply = "Unexpected response from server"
)

// Gateway is the remote backend as seen by the chat controller
type Gateway interface {
	Upload(ctx context.Context, doc domain.Document) (*UploadResult, error)
	Ask(ctx context.Context, question, sessionID string, enableSummarization bool) (*AskResult, error)
}

// UploadResult is a successful upload
type UploadResult struct {
	Message   string
	SessionID string
}

// AskResult carries the unprocessed answer text
type AskResult struct {
	RawAnswer string
}

// Failure is a transport, status or payload failure
type Failure struct {
	// Message is safe to display
	Message string
	// StatusCode is zero when no response was received
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// DisplayMessage extracts the user-facing message of err, falling back to
// fallback for errors that did not come from the gateway.
func DisplayMessage(err error, fallback string) string {
	var f *Failure
	if errors.As(err, &f) && f.Message != "" {
		return f.Message
	}
	return fallback
}

type uploadResponse struct {
	Message   string  `json:"message"`
	SessionID *string `json:"session_id"`
}

type chatRequest struct {
	Question            string `json:"question"`
	SessionID           string `json:"session_id"`
	EnableSummarization bool   `json:"enable_summarization"`
}

type chatResponse struct {
	Answer *string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client is the HTTP implementation of Gateway
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	return NewClientWithHTTP(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewClientWithHTTP creates a backend client around an existing http.Client
func NewClientWithHTTP(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) endpoint(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Upload submits doc as the multipart field "file" and returns the new session
func (c *Client) Upload(ctx context.Context, doc domain.Document) (*UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", doc.Filename)
	if err != nil {
		return nil, c.fail("upload", MsgUploadFailed, 0, err)
	}
	if doc.Content != nil {
		if _, err := io.Copy(part, doc.Content); err != nil {
			return nil, c.fail("upload", MsgUploadFailed, 0, fmt.Errorf("read document: %w", err))
		}
	}
	if err := mw.Close(); err != nil {
		return nil, c.fail("upload", MsgUploadFailed, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(uploadEndpoint), &body)
	if err != nil {
		return nil, c.fail("upload", MsgUploadFailed, 0, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp uploadResponse
	if err := c.do(req, "upload", MsgUploadFailed, &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == nil || *resp.SessionID == "" {
		return nil, c.fail("upload", MsgUnexpectedReply, http.StatusOK, errors.New("response has no session_id"))
	}

	message := resp.Message
	if message == "" {
		message = MsgUploadDefault
	}

	c.logger.Info("Document uploaded",
		zap.String("filename", doc.Filename),
		zap.String("session_id", *resp.SessionID),
	)
	return &UploadResult{Message: message, SessionID: *resp.SessionID}, nil
}

// Ask sends a question scoped to sessionID and returns the raw answer
func (c *Client) Ask(ctx context.Context, question, sessionID string, enableSummarization bool) (*AskResult, error) {
	payload, err := json.Marshal(chatRequest{
		Question:            question,
		SessionID:           sessionID,
		EnableSummarization: enableSummarization,
	})
	if err != nil {
		return nil, c.fail("ask", MsgAskFailed, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(chatEndpoint), bytes.NewReader(payload))
	if err != nil {
		return nil, c.fail("ask", MsgAskFailed, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp chatResponse
	if err := c.do(req, "ask", MsgAskFailed, &resp); err != nil {
		return nil, err
	}
	if resp.Answer == nil {
		return nil, c.fail("ask", MsgUnexpectedReply, http.StatusOK, errors.New("response has no answer"))
	}

	c.logger.Debug("Answer received",
		zap.String("session_id", sessionID),
		zap.Int("answer_len", len(*resp.Answer)),
	)
	return &AskResult{RawAnswer: *resp.Answer}, nil
}

// do executes req exactly once and decodes a 2xx JSON body into out
func (c *Client) do(req *http.Request, op, fallback string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(op, fallback, 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.fail(op, fallback, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := fallback
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			message = errResp.Error
		}
		return c.fail(op, message, resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return c.fail(op, MsgUnexpectedReply, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) fail(op, message string, status int, err error) *Failure {
	c.logger.Warn("Backend request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.Error(err),
	)
	return &Failure{Message: message, StatusCode: status, Err: err}
}
