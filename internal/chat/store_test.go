package chat

import (
	"testing"

	"github.com/liliang-cn/pdfchat/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStoreInitialState(t *testing.T) {
	s := NewStore()

	assert.Equal(t, domain.ChatState{Messages: []domain.Message{}}, s.Snapshot())
	assert.Empty(t, s.SessionID())
	assert.False(t, s.IsLoading())
	assert.Empty(t, s.Error())
	assert.Zero(t, s.Len())
}

func TestStoreMutations(t *testing.T) {
	s := NewStore()

	s.SetSession("abc123")
	s.AppendMessage(domain.Question("What is it?"))
	s.AppendMessage(domain.Answer("A report."))
	s.SetLoading(true)
	s.SetError("Network Error")

	state := s.Snapshot()
	assert.Equal(t, "abc123", state.SessionID)
	assert.True(t, state.HasSession())
	assert.True(t, state.IsLoading)
	assert.Equal(t, "Network Error", state.Error)
	assert.Equal(t, []domain.Message{
		{Kind: domain.KindQuestion, Text: "What is it?"},
		{Kind: domain.KindAnswer, Text: "A report."},
	}, state.Messages)

	s.SetSession("def456")
	assert.Equal(t, "def456", s.SessionID())

	s.SetError("")
	assert.Empty(t, s.Error())
	assert.True(t, s.IsLoading(), "clearing the error must not clear loading")
}

func TestStoreMessagesAreCopies(t *testing.T) {
	s := NewStore()
	s.AppendMessage(domain.Question("one"))

	msgs := s.Messages()
	msgs[0].Text = "changed"

	assert.Equal(t, []domain.Message{domain.Question("one")}, s.Messages())

	snap := s.Snapshot()
	snap.Messages[0].Text = "changed again"
	assert.Equal(t, "one", s.Messages()[0].Text)
}

func TestStoreReset(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *Store)
	}{
		{name: "already empty", setup: func(s *Store) {}},
		{name: "mid flight", setup: func(s *Store) {
			s.SetSession("abc123")
			s.AppendMessage(domain.Question("q"))
			s.SetLoading(true)
		}},
		{name: "after error", setup: func(s *Store) {
			s.SetSession("abc123")
			s.AppendMessage(domain.Question("q"))
			s.SetError("boom")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			tt.setup(s)

			s.Reset()

			assert.Equal(t, NewStore().Snapshot(), s.Snapshot())
			assert.Empty(t, s.SessionID())
			assert.Empty(t, s.Messages())
			assert.False(t, s.IsLoading())
			assert.Empty(t, s.Error())
		})
	}
}
