package service

import (
	"context"
	"errors"

	"github.com/liliang-cn/pdfchat/internal/config"
	"github.com/liliang-cn/pdfchat/internal/domain"
	"github.com/liliang-cn/pdfchat/internal/repository"
	"go.uber.org/zap"
)

// ChatService exposes workspace chat operations to the HTTP layer
type ChatService struct {
	cfg         *config.Config
	workspaces  *WorkspaceService
	transcripts *repository.TranscriptRepository
	logger      *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	cfg *config.Config,
	workspaces *WorkspaceService,
	transcripts *repository.TranscriptRepository,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		cfg:         cfg,
		workspaces:  workspaces,
		transcripts: transcripts,
		logger:      logger,
	}
}

// CreateWorkspace starts a new workspace
func (s *ChatService) CreateWorkspace(ctx context.Context) *domain.WorkspaceResponse {
	id, ctl := s.workspaces.Create()
	return &domain.WorkspaceResponse{
		ID:                  id,
		EnableSummarization: ctl.Summarization(),
		State:               ctl.State(),
	}
}

// GetWorkspace returns the workspace settings and chat state
func (s *ChatService) GetWorkspace(ctx context.Context, id string) (*domain.WorkspaceResponse, error) {
	ctl, err := s.workspaces.Get(id)
	if err != nil {
		return nil, err
	}
	return &domain.WorkspaceResponse{
		ID:                  id,
		EnableSummarization: ctl.Summarization(),
		State:               ctl.State(),
	}, nil
}

// Upload forwards doc to the backend and makes its session current. Guard
// violations are reported as failed outcomes without contacting the backend.
func (s *ChatService) Upload(ctx context.Context, id string, doc domain.Document) (*domain.Outcome, error) {
	ctl, err := s.workspaces.Get(id)
	if err != nil {
		return nil, err
	}

	if err := domain.CheckUpload(doc, s.cfg.Backend.MaxUploadBytes); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return &domain.Outcome{Success: false, Message: verr.Message}, nil
		}
		return nil, err
	}

	outcome := ctl.Upload(ctx, doc)
	return &outcome, nil
}

// Ask runs a question round trip in the workspace
func (s *ChatService) Ask(ctx context.Context, id string, req *domain.AskRequest) (*domain.AskResponse, error) {
	ctl, err := s.workspaces.Get(id)
	if err != nil {
		return nil, err
	}

	accepted := ctl.Ask(ctx, req.Question)
	return &domain.AskResponse{Accepted: accepted, State: ctl.State()}, nil
}

// SetSummarization toggles summarization for subsequent questions
func (s *ChatService) SetSummarization(ctx context.Context, id string, enabled bool) (*domain.WorkspaceResponse, error) {
	ctl, err := s.workspaces.Get(id)
	if err != nil {
		return nil, err
	}
	ctl.SetSummarization(enabled)
	return s.GetWorkspace(ctx, id)
}

// Reset clears the workspace chat; a new upload is needed before asking again
func (s *ChatService) Reset(ctx context.Context, id string) (*domain.ChatState, error) {
	ctl, err := s.workspaces.Get(id)
	if err != nil {
		return nil, err
	}
	ctl.Reset()
	state := ctl.State()
	return &state, nil
}

// Transcript returns the archived messages of a workspace. It is empty when
// archiving is disabled.
func (s *ChatService) Transcript(ctx context.Context, id string) ([]*domain.TranscriptEntry, error) {
	if s.transcripts == nil {
		return []*domain.TranscriptEntry{}, nil
	}
	return s.transcripts.ListByWorkspace(ctx, id)
}

// Stats returns archive statistics
func (s *ChatService) Stats(ctx context.Context) (*domain.Stats, error) {
	if s.transcripts == nil {
		return &domain.Stats{}, nil
	}
	return s.transcripts.Stats(ctx)
}
