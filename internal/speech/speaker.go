// Package speech reads answers aloud. Speaking is fire-and-forget and never
// feeds back into chat state.
package speech

import (
	"context"
	"os/exec"
	"strings"

	"github.com/liliang-cn/pdfchat/internal/config"
	"go.uber.org/zap"
)

// Speaker reads text aloud
type Speaker interface {
	Speak(text string)
}

// Nop discards everything
type Nop struct{}

// Speak does nothing
func (Nop) Speak(string) {}

// CommandSpeaker pipes text to an external text-to-speech command such as
// `espeak` or `say`. Each call starts the command in the background.
type CommandSpeaker struct {
	command string
	args    []string
	logger  *zap.Logger
	run     func(ctx context.Context, name string, args []string, stdin string) error
}

// New returns a CommandSpeaker for cfg, or Nop when no command is configured
func New(cfg config.SpeechConfig, logger *zap.Logger) Speaker {
	if cfg.Command == "" {
		return Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandSpeaker{
		command: cfg.Command,
		args:    cfg.Args,
		logger:  logger,
		run:     runCommand,
	}
}

// Speak starts the command with text on stdin and returns immediately
func (s *CommandSpeaker) Speak(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	go func() {
		if err := s.run(context.Background(), s.command, s.args, text); err != nil {
			s.logger.Warn("Speech command failed", zap.String("command", s.command), zap.Error(err))
		}
	}()
}

func runCommand(ctx context.Context, name string, args []string, stdin string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	return cmd.Run()
}
