package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/pdfchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newBackend(t *testing.T, setup func(r *gin.Engine)) *Client {
	t.Helper()
	r := gin.New()
	setup(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(srv.URL+"/", srv.Client(), nil)
}

func pdf(content string) domain.Document {
	return domain.Document{
		Filename: "report.pdf",
		Size:     int64(len(content)),
		Content:  strings.NewReader(content),
	}
}

func TestUploadSuccess(t *testing.T) {
	var gotName, gotBody string
	client := newBackend(t, func(r *gin.Engine) {
		r.POST("/upload", func(c *gin.Context) {
			fh, err := c.FormFile("file")
			if !assert.NoError(t, err) {
				return
			}
			f, err := fh.Open()
			if !assert.NoError(t, err) {
				return
			}
			defer f.Close()
			data, _ := io.ReadAll(f)
			gotName, gotBody = fh.Filename, string(data)
			c.JSON(http.StatusOK, gin.H{"message": "PDF processed", "session_id": "abc123"})
		})
	})

	res, err := client.Upload(context.Background(), pdf("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", res.SessionID)
	assert.Equal(t, "PDF processed", res.Message)
	assert.Equal(t, "report.pdf", gotName)
	assert.Equal(t, "%PDF-1.4", gotBody)
}

func TestUploadDefaultMessage(t *testing.T) {
	client := newBackend(t, func(r *gin.Engine) {
		r.POST("/upload", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"session_id": "s-1"})
		})
	})

	res, err := client.Upload(context.Background(), pdf("x"))
	require.NoError(t, err)
	assert.Equal(t, MsgUploadDefault, res.Message)
}

func TestUploadBackendError(t *testing.T) {
	client := newBackend(t, func(r *gin.Engine) {
		r.POST("/upload", func(c *gin.Context) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Only PDF files are allowed."})
		})
	})

	_, err := client.Upload(context.Background(), pdf("x"))
	require.Error(t, err)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "Invalid file type. Only PDF files are allowed.", f.Message)
	assert.Equal(t, http.StatusBadRequest, f.StatusCode)
}

func TestUploadMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing session id", body: `{"message":"ok"}`},
		{name: "empty session id", body: `{"message":"ok","session_id":""}`},
		{name: "not json", body: `<html>oops</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newBackend(t, func(r *gin.Engine) {
				r.POST("/upload", func(c *gin.Context) {
					c.Data(http.StatusOK, "application/json", []byte(tt.body))
				})
			})

			_, err := client.Upload(context.Background(), pdf("x"))
			assert.Equal(t, MsgUnexpectedReply, DisplayMessage(err, ""))
		})
	}
}

func TestUploadTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := NewClientWithHTTP(srv.URL, srv.Client(), nil)
	srv.Close()

	_, err := client.Upload(context.Background(), pdf("x"))
	require.Error(t, err)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, MsgUploadFailed, f.Message)
	assert.Zero(t, f.StatusCode)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestAskSendsPayload(t *testing.T) {
	var got chatRequest
	client := newBackend(t, func(r *gin.Engine) {
		r.POST("/chat", func(c *gin.Context) {
			assert.NoError(t, c.ShouldBindJSON(&got))
			c.JSON(http.StatusOK, gin.H{"answer": "Classification: relevant\nResponse: 42"})
		})
	})

	res, err := client.Ask(context.Background(), "What is the total?", "abc123", true)
	require.NoError(t, err)
	assert.Equal(t, "Classification: relevant\nResponse: 42", res.RawAnswer)
	assert.Equal(t, chatRequest{Question: "What is the total?", SessionID: "abc123", EnableSummarization: true}, got)
}

func TestAskFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"Error processing request: boom"}`, wantMsg: "Error processing request: boom"},
		{name: "server error without body", status: http.StatusBadGateway, body: ``, wantMsg: MsgAskFailed},
		{name: "missing answer", status: http.StatusOK, body: `{}`, wantMsg: MsgUnexpectedReply},
		{name: "truncated json", status: http.StatusOK, body: `{"answer":`, wantMsg: MsgUnexpectedReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newBackend(t, func(r *gin.Engine) {
				r.POST("/chat", func(c *gin.Context) {
					c.Data(tt.status, "application/json", []byte(tt.body))
				})
			})

			res, err := client.Ask(context.Background(), "q", "s", false)
			assert.Nil(t, res)
			assert.Equal(t, tt.wantMsg, DisplayMessage(err, "fallback"))
		})
	}
}

func TestAskHonoursContext(t *testing.T) {
	client := newBackend(t, func(r *gin.Engine) {
		r.POST("/chat", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"answer": "late"})
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Ask(ctx, "q", "s", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, MsgAskFailed, DisplayMessage(err, ""))
}

func TestEndpointJoin(t *testing.T) {
	c := NewClientWithHTTP("http://backend:3000/", http.DefaultClient, nil)
	assert.Equal(t, "http://backend:3000/upload", c.endpoint("upload"))
	assert.Equal(t, "http://backend:3000/chat", c.endpoint("/chat"))
}

func TestDisplayMessageFallback(t *testing.T) {
	assert.Equal(t, "fallback", DisplayMessage(errors.New("raw"), "fallback"))
}
