package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/liliang-cn/pdfchat/internal/chat"
	"github.com/liliang-cn/pdfchat/internal/domain"
	"github.com/liliang-cn/pdfchat/internal/gateway"
	"github.com/liliang-cn/pdfchat/internal/logger"
	"github.com/liliang-cn/pdfchat/internal/normalize"
	"github.com/liliang-cn/pdfchat/internal/repository"
	"github.com/liliang-cn/pdfchat/internal/service"
	"github.com/liliang-cn/pdfchat/internal/speech"
	"github.com/spf13/cobra"
)

var (
	chatFile      string
	chatSummarize bool
	chatSpeak     bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a PDF from the terminal",
	Long: `Starts an interactive session. Upload a PDF with --file or /upload, then
type questions. Commands:
  /upload <path>       upload a PDF and start a new session
  /summarize [on|off]  show or toggle backend summarization
  /speak               read the last answer aloud
  /reset               clear the chat and the session
  /history             print the conversation
  /quit                leave`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatFile, "file", "f", "", "PDF to upload before the first question")
	chatCmd.Flags().BoolVar(&chatSummarize, "summarize", false, "Ask the backend to summarize answers")
	chatCmd.Flags().BoolVar(&chatSpeak, "speak", false, "Read every answer aloud")
}

func runChat(cmd *cobra.Command, args []string) error {
	// The terminal belongs to the conversation; logs only go to the log file
	log, err := logger.NewFileOnly(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	if cmd.Flags().Changed("summarize") {
		cfg.Chat.EnableSummarization = chatSummarize
	}

	var transcripts *repository.TranscriptRepository
	if cfg.Archive.Enabled {
		db, err := repository.NewDB(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		transcripts = repository.NewTranscriptRepository(db)
	}

	gw := gateway.NewClient(cfg.Backend, log)
	normalizer := normalize.New(normalize.RulesFromConfig(cfg.Normalizer))
	workspaces := service.NewWorkspaceService(cfg, gw, normalizer, transcripts, log)
	id, ctl := workspaces.Create()
	defer func() { _ = workspaces.Delete(id) }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	r := &repl{
		ctl:       ctl,
		speaker:   speech.New(cfg.Speech, log),
		autoSpeak: chatSpeak,
		maxUpload: cfg.Backend.MaxUploadBytes,
		out:       cmd.OutOrStdout(),
	}

	if chatFile != "" {
		r.upload(ctx, chatFile)
	}
	return r.run(ctx, cmd.InOrStdin())
}

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	answerColor = color.New(color.FgGreen)
	errorColor  = color.New(color.FgRed)
	infoColor   = color.New(color.FgYellow)
	youColor    = color.New(color.FgBlue, color.Bold)
)

// repl drives one chat controller from line-oriented input
type repl struct {
	ctl       *chat.Controller
	speaker   speech.Speaker
	autoSpeak bool
	maxUpload int64
	out       io.Writer
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	infoColor.Fprintln(r.out, "Type a question, /help for commands, /quit to leave.")

	scanner := bufio.NewScanner(in)
	for {
		promptColor.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if !r.handle(ctx, scanner.Text()) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// handle processes one input line and reports whether to keep going
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		r.ask(ctx, line)
		return true
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return false
	case "/help":
		infoColor.Fprintln(r.out, "/upload <path>, /summarize [on|off], /speak, /reset, /history, /quit")
	case "/upload":
		r.upload(ctx, arg)
	case "/summarize":
		r.summarize(arg)
	case "/speak":
		r.speakLast()
	case "/reset":
		r.ctl.Reset()
		infoColor.Fprintln(r.out, "Chat cleared. Upload a PDF to continue.")
	case "/history":
		r.history()
	default:
		errorColor.Fprintf(r.out, "Unknown command %s. Try /help.\n", name)
	}
	return true
}

func (r *repl) upload(ctx context.Context, path string) {
	doc := domain.Document{}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			errorColor.Fprintf(r.out, "Cannot open %s: %v\n", path, err)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			errorColor.Fprintf(r.out, "Cannot read %s: %v\n", path, err)
			return
		}
		doc = domain.Document{Filename: filepath.Base(path), Size: info.Size(), Content: f}
	}

	if err := domain.CheckUpload(doc, r.maxUpload); err != nil {
		errorColor.Fprintln(r.out, err.Error())
		return
	}

	infoColor.Fprintf(r.out, "Uploading %s...\n", doc.Filename)
	outcome := r.ctl.Upload(ctx, doc)
	if !outcome.Success {
		errorColor.Fprintln(r.out, outcome.Message)
		return
	}
	answerColor.Fprintln(r.out, outcome.Message)
}

func (r *repl) ask(ctx context.Context, question string) {
	store := r.ctl.Store()
	before := store.Len()

	if !r.ctl.Ask(ctx, question) {
		if strings.TrimSpace(question) != "" && !r.ctl.State().HasSession() {
			errorColor.Fprintln(r.out, "Upload a PDF before asking questions.")
		}
		return
	}

	msgs := store.Messages()
	if len(msgs) > before+1 && msgs[len(msgs)-1].Kind == domain.KindAnswer {
		answer := msgs[len(msgs)-1].Text
		answerColor.Fprintln(r.out, answer)
		if r.autoSpeak {
			r.speaker.Speak(answer)
		}
		return
	}
	errorColor.Fprintln(r.out, store.Error())
}

func (r *repl) summarize(arg string) {
	switch arg {
	case "on":
		r.ctl.SetSummarization(true)
	case "off":
		r.ctl.SetSummarization(false)
	case "":
	default:
		errorColor.Fprintln(r.out, "Usage: /summarize [on|off]")
		return
	}

	state := "off"
	if r.ctl.Summarization() {
		state = "on"
	}
	infoColor.Fprintf(r.out, "Summarization is %s.\n", state)
}

func (r *repl) speakLast() {
	msgs := r.ctl.Store().Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Kind == domain.KindAnswer {
			r.speaker.Speak(msgs[i].Text)
			return
		}
	}
	infoColor.Fprintln(r.out, "Nothing to read yet.")
}

func (r *repl) history() {
	msgs := r.ctl.Store().Messages()
	if len(msgs) == 0 {
		infoColor.Fprintln(r.out, "No messages yet.")
		return
	}
	for _, msg := range msgs {
		if msg.Kind == domain.KindQuestion {
			youColor.Fprint(r.out, "you: ")
			fmt.Fprintln(r.out, msg.Text)
			continue
		}
		answerColor.Fprint(r.out, "pdf: ")
		fmt.Fprintln(r.out, msg.Text)
	}
}
