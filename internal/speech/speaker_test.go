package speech

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/liliang-cn/pdfchat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutCommandIsNop(t *testing.T) {
	s := New(config.SpeechConfig{}, nil)
	assert.IsType(t, Nop{}, s)
	s.Speak("nothing happens")
}

func TestCommandSpeakerRunsInBackground(t *testing.T) {
	type call struct {
		name  string
		args  []string
		stdin string
	}
	calls := make(chan call, 1)

	s := New(config.SpeechConfig{Command: "espeak", Args: []string{"--stdin"}}, nil).(*CommandSpeaker)
	s.run = func(_ context.Context, name string, args []string, stdin string) error {
		calls <- call{name: name, args: args, stdin: stdin}
		return errors.New("no audio device")
	}

	s.Speak("  The total is $42.  ")

	select {
	case got := <-calls:
		assert.Equal(t, call{name: "espeak", args: []string{"--stdin"}, stdin: "The total is $42."}, got)
	case <-time.After(2 * time.Second):
		require.Fail(t, "speech command was not started")
	}
}

func TestCommandSpeakerSkipsBlankText(t *testing.T) {
	started := make(chan struct{}, 1)
	s := New(config.SpeechConfig{Command: "say"}, nil).(*CommandSpeaker)
	s.run = func(context.Context, string, []string, string) error {
		started <- struct{}{}
		return nil
	}

	s.Speak("   ")

	select {
	case <-started:
		t.Fatal("blank text should not be spoken")
	case <-time.After(50 * time.Millisecond):
	}
}
