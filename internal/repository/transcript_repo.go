package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/pdfchat/internal/domain"
)

// TranscriptRepository archives sessions and committed chat messages
type TranscriptRepository struct {
	db *DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// CreateSession records a session established by an upload. Recording the
// same session twice is a no-op.
func (r *TranscriptRepository) CreateSession(ctx context.Context, workspaceID, sessionID, filename string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sessions (id, workspace_id, filename, created_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, workspaceID, filename, time.Now())
	return err
}

// CreateMessage appends a message to the archive
func (r *TranscriptRepository) CreateMessage(ctx context.Context, entry *domain.TranscriptEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, seq, workspace_id, session_id, kind, text, created_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages), ?, ?, ?, ?, ?)
	`, entry.ID, entry.WorkspaceID, entry.SessionID, string(entry.Kind), entry.Text, entry.CreatedAt)

	return err
}

// ListByWorkspace retrieves archived messages for a workspace in commit order
func (r *TranscriptRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.TranscriptEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, workspace_id, session_id, kind, text, created_at
		FROM messages WHERE workspace_id = ?
		ORDER BY seq ASC
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*domain.TranscriptEntry{}
	for rows.Next() {
		entry := &domain.TranscriptEntry{}
		var kind string

		if err := rows.Scan(&entry.ID, &entry.WorkspaceID, &entry.SessionID,
			&kind, &entry.Text, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Kind = domain.MessageKind(kind)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Stats returns archive totals
func (r *TranscriptRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&stats.TotalSessions); err != nil {
		return nil, err
	}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END), 0)
		FROM messages
	`, string(domain.KindQuestion), string(domain.KindAnswer)).Scan(&stats.TotalQuestions, &stats.TotalAnswers)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
