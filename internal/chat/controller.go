package chat

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/liliang-cn/pdfchat/internal/domain"
	"github.com/liliang-cn/pdfchat/internal/gateway"
	"github.com/liliang-cn/pdfchat/internal/normalize"
	"go.uber.org/zap"
)

// Recorder receives committed chat events, e.g. for archiving. Errors are
// logged and never change chat state.
type Recorder interface {
	RecordSession(ctx context.Context, sessionID, filename string) error
	RecordMessage(ctx context.Context, sessionID string, msg domain.Message) error
}

// Option configures a Controller
type Option func(*Controller)

// WithSummarization sets the initial summarization flag
func WithSummarization(enabled bool) Option {
	return func(c *Controller) {
		c.summarize.Store(enabled)
	}
}

// WithRecorder attaches a recorder for committed events
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// Controller orchestrates uploads and ask round trips for one chat.
//
// Concurrent Ask calls are not serialized: their messages land in the
// history in completion order and the loading flag reflects whichever call
// finished last.
type Controller struct {
	store      *Store
	gateway    gateway.Gateway
	normalizer *normalize.Normalizer
	recorder   Recorder
	logger     *zap.Logger
	summarize  atomic.Bool
}

// NewController creates a controller owning store
func NewController(store *Store, gw gateway.Gateway, normalizer *normalize.Normalizer, opts ...Option) *Controller {
	c := &Controller{
		store:      store,
		gateway:    gw,
		normalizer: normalizer,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.normalizer == nil {
		c.normalizer = normalize.New(normalize.DefaultRules())
	}
	return c
}

// Store returns the underlying state container
func (c *Controller) Store() *Store {
	return c.store
}

// State returns a snapshot of the chat
func (c *Controller) State() domain.ChatState {
	return c.store.Snapshot()
}

// SetSummarization toggles backend summarization for subsequent asks
func (c *Controller) SetSummarization(enabled bool) {
	c.summarize.Store(enabled)
}

// Summarization reports the current summarization flag
func (c *Controller) Summarization() bool {
	return c.summarize.Load()
}

// Reset clears history, session, loading and error
func (c *Controller) Reset() {
	c.store.Reset()
}

// Upload sends doc to the backend and, on success, makes the returned
// session current. A failed upload leaves the store untouched.
func (c *Controller) Upload(ctx context.Context, doc domain.Document) domain.Outcome {
	// Issued calls run to completion and their outcome is archived even if
	// the caller goes away; the transport timeout bounds them.
	ctx = context.WithoutCancel(ctx)

	res, err := c.gateway.Upload(ctx, doc)
	if err != nil {
		return domain.Outcome{
			Success: false,
			Message: gateway.DisplayMessage(err, gateway.MsgUploadFailed),
		}
	}

	c.store.SetSession(res.SessionID)
	c.logger.Info("Session established",
		zap.String("session_id", res.SessionID),
		zap.String("filename", doc.Filename),
	)
	if c.recorder != nil {
		if err := c.recorder.RecordSession(ctx, res.SessionID, doc.Filename); err != nil {
			c.logger.Warn("Failed to record session", zap.String("session_id", res.SessionID), zap.Error(err))
		}
	}

	return domain.Outcome{Success: true, Message: res.Message, SessionID: res.SessionID}
}

// Ask runs one question round trip. It returns false, without touching the
// store or the backend, when the trimmed question is empty or no session is
// set. Otherwise the question is appended, followed by exactly one of an
// answer or an error, and loading is cleared on the way out even if the
// gateway panics.
func (c *Controller) Ask(ctx context.Context, question string) bool {
	q := strings.TrimSpace(question)
	sessionID := c.store.SessionID()
	if q == "" || sessionID == "" {
		return false
	}

	// Same as Upload: the exchange and its archive records outlive the caller.
	ctx = context.WithoutCancel(ctx)

	questionMsg := domain.Question(q)
	c.store.AppendMessage(questionMsg)
	c.store.SetLoading(true)
	defer c.store.SetLoading(false)
	c.record(ctx, sessionID, questionMsg)

	res, err := c.gateway.Ask(ctx, q, sessionID, c.Summarization())
	if err != nil {
		message := gateway.DisplayMessage(err, gateway.MsgAskFailed)
		c.store.SetError(message)
		c.logger.Warn("Ask failed", zap.String("session_id", sessionID), zap.String("message", message))
		return true
	}

	answerMsg := domain.Answer(c.normalizer.Normalize(res.RawAnswer))
	c.store.AppendMessage(answerMsg)
	c.record(ctx, sessionID, answerMsg)
	return true
}

func (c *Controller) record(ctx context.Context, sessionID string, msg domain.Message) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordMessage(ctx, sessionID, msg); err != nil {
		c.logger.Warn("Failed to record message",
			zap.String("session_id", sessionID),
			zap.String("type", string(msg.Kind)),
			zap.Error(err),
		)
	}
}
