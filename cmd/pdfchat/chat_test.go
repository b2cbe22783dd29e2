package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/pdfchat/internal/chat"
	"github.com/liliang-cn/pdfchat/internal/gateway"
	"github.com/liliang-cn/pdfchat/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	color.NoColor = true
}

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (s *recordingSpeaker) Speak(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
}

func newTestREPL(t *testing.T, chatHandler gin.HandlerFunc) (*repl, *strings.Builder, *recordingSpeaker) {
	t.Helper()

	backend := gin.New()
	backend.POST("/upload", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "PDF processed", "session_id": "abc123"})
	})
	backend.POST("/chat", chatHandler)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	gw := gateway.NewClientWithHTTP(srv.URL, srv.Client(), nil)
	ctl := chat.NewController(chat.NewStore(), gw, normalize.New(normalize.DefaultRules()))

	out := &strings.Builder{}
	speaker := &recordingSpeaker{}
	return &repl{ctl: ctl, speaker: speaker, maxUpload: 1 << 20, out: out}, out, speaker
}

func answer(text string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"answer": text})
	}
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func TestREPLConversation(t *testing.T) {
	r, out, _ := newTestREPL(t, answer("**The total is $42.**"))

	input := strings.Join([]string{
		"What is the total?",
		"/upload " + writePDF(t),
		"What is the total?",
		"/history",
		"/quit",
		"never read",
	}, "\n")
	require.NoError(t, r.run(context.Background(), strings.NewReader(input)))

	got := out.String()
	assert.Contains(t, got, "Upload a PDF before asking questions.")
	assert.Contains(t, got, "PDF processed")
	assert.Contains(t, got, "you: What is the total?\npdf: The total is $42.\n")
	assert.Equal(t, 2, r.ctl.Store().Len())
}

func TestREPLAskFailure(t *testing.T) {
	r, out, _ := newTestREPL(t, func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "model offline"})
	})
	ctx := context.Background()

	r.upload(ctx, writePDF(t))
	r.ask(ctx, "Anyone there?")

	assert.Contains(t, out.String(), "model offline")
	assert.Equal(t, 1, r.ctl.Store().Len())
}

func TestREPLUploadRejected(t *testing.T) {
	r, out, _ := newTestREPL(t, answer("unused"))
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	r.upload(context.Background(), path)
	r.upload(context.Background(), "")

	assert.Contains(t, out.String(), "Invalid file type. Only PDF files are allowed.")
	assert.Contains(t, out.String(), "No file selected. Please choose a file to upload.")
	assert.False(t, r.ctl.State().HasSession())
}

func TestREPLCommands(t *testing.T) {
	r, out, speaker := newTestREPL(t, answer("Signed by Ada."))
	ctx := context.Background()

	assert.True(t, r.handle(ctx, "/summarize on"))
	assert.True(t, r.ctl.Summarization())
	assert.True(t, r.handle(ctx, "/summarize off"))
	assert.False(t, r.ctl.Summarization())
	assert.Contains(t, out.String(), "Summarization is off.")

	assert.True(t, r.handle(ctx, "/speak"))
	assert.Contains(t, out.String(), "Nothing to read yet.")

	r.upload(ctx, writePDF(t))
	r.ask(ctx, "Who signed it?")
	assert.True(t, r.handle(ctx, "/speak"))
	assert.Equal(t, []string{"Signed by Ada."}, speaker.spoken)

	assert.True(t, r.handle(ctx, "/reset"))
	assert.Equal(t, 0, r.ctl.Store().Len())
	assert.False(t, r.ctl.State().HasSession())

	assert.True(t, r.handle(ctx, "/bogus"))
	assert.Contains(t, out.String(), "Unknown command /bogus.")
	assert.False(t, r.handle(ctx, "/exit"))
}

func TestREPLAutoSpeak(t *testing.T) {
	r, _, speaker := newTestREPL(t, answer("It is $42."))
	r.autoSpeak = true
	ctx := context.Background()

	r.upload(ctx, writePDF(t))
	r.ask(ctx, "Total?")

	assert.Equal(t, []string{"It is $42."}, speaker.spoken)
}
