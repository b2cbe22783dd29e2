package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/liliang-cn/pdfchat/internal/chat"
	"github.com/liliang-cn/pdfchat/internal/config"
	"github.com/liliang-cn/pdfchat/internal/domain"
	"github.com/liliang-cn/pdfchat/internal/gateway"
	"github.com/liliang-cn/pdfchat/internal/normalize"
	"github.com/liliang-cn/pdfchat/internal/repository"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// WorkspaceService keeps one chat controller per browser workspace. Idle
// workspaces expire after the configured TTL.
type WorkspaceService struct {
	cfg         *config.Config
	gateway     gateway.Gateway
	normalizer  *normalize.Normalizer
	transcripts *repository.TranscriptRepository
	logger      *zap.Logger

	// mu makes the lookup-and-refresh in Get atomic with respect to Delete
	mu         sync.Mutex
	workspaces *cache.Cache
}

// NewWorkspaceService creates a new workspace service. transcripts may be
// nil, in which case nothing is archived.
func NewWorkspaceService(
	cfg *config.Config,
	gw gateway.Gateway,
	normalizer *normalize.Normalizer,
	transcripts *repository.TranscriptRepository,
	logger *zap.Logger,
) *WorkspaceService {
	s := &WorkspaceService{
		cfg:         cfg,
		gateway:     gw,
		normalizer:  normalizer,
		transcripts: transcripts,
		logger:      logger,
		workspaces:  cache.New(cfg.Workspace.TTL, cfg.Workspace.CleanupInterval),
	}
	s.workspaces.OnEvicted(func(id string, _ interface{}) {
		s.logger.Debug("Workspace expired", zap.String("workspace_id", id))
	})
	return s
}

// Create starts a new, empty workspace
func (s *WorkspaceService) Create() (string, *chat.Controller) {
	id := uuid.New().String()

	opts := []chat.Option{
		chat.WithSummarization(s.cfg.Chat.EnableSummarization),
		chat.WithLogger(s.logger.With(zap.String("workspace_id", id))),
	}
	if s.transcripts != nil {
		opts = append(opts, chat.WithRecorder(&archiveRecorder{
			workspaceID: id,
			transcripts: s.transcripts,
		}))
	}

	ctl := chat.NewController(chat.NewStore(), s.gateway, s.normalizer, opts...)
	s.workspaces.Set(id, ctl, cache.DefaultExpiration)

	s.logger.Info("Workspace created", zap.String("workspace_id", id))
	return id, ctl
}

// Get returns the workspace controller and extends its lifetime
func (s *WorkspaceService) Get(id string) (*chat.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, found := s.workspaces.Get(id)
	if !found {
		return nil, domain.ErrNotFound
	}
	ctl := x.(*chat.Controller)
	s.workspaces.Set(id, ctl, cache.DefaultExpiration)
	return ctl, nil
}

// Delete drops a live workspace. It returns domain.ErrNotFound when the id is
// unknown or already expired.
func (s *WorkspaceService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.workspaces.Get(id); !found {
		return domain.ErrNotFound
	}
	s.workspaces.Delete(id)

	s.logger.Info("Workspace deleted", zap.String("workspace_id", id))
	return nil
}

// Count returns the number of live workspaces
func (s *WorkspaceService) Count() int {
	return s.workspaces.ItemCount()
}

// archiveRecorder mirrors committed chat events into the transcript archive
type archiveRecorder struct {
	workspaceID string
	transcripts *repository.TranscriptRepository
}

func (r *archiveRecorder) RecordSession(ctx context.Context, sessionID, filename string) error {
	return r.transcripts.CreateSession(ctx, r.workspaceID, sessionID, filename)
}

func (r *archiveRecorder) RecordMessage(ctx context.Context, sessionID string, msg domain.Message) error {
	return r.transcripts.CreateMessage(ctx, &domain.TranscriptEntry{
		WorkspaceID: r.workspaceID,
		SessionID:   sessionID,
		Kind:        msg.Kind,
		Text:        msg.Text,
	})
}
