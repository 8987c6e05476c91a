// Package telegram is the long-polling bot front-end. Each chat gets its own
// conversation history; answers are sent whole once the pipeline finishes.
package telegram

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/gamalhq/gamal/internal/domain/entity"
	"github.com/gamalhq/gamal/internal/domain/service"
	"github.com/gamalhq/gamal/pkg/safego"
)

// Config Telegram adapter configuration.
type Config struct {
	Token string
	Debug bool
}

// Adapter drives the bot: polls updates, intercepts the reset and review
// commands, and runs everything else through the pipeline.
type Adapter struct {
	bot      *tgbotapi.BotAPI
	pipeline *service.Pipeline
	logger   *zap.Logger
	cancel   context.CancelFunc

	mu    sync.Mutex
	chats map[int64]*conversation
}

// conversation is one chat's history. Its mutex serializes inquiries so
// concurrent messages in the same chat cannot interleave history updates.
type conversation struct {
	mu      sync.Mutex
	history *entity.History
}

var citationPattern = regexp.MustCompile(`\[citation:(\d)\]`)

// NewAdapter authorizes the bot against the Telegram API.
func NewAdapter(cfg Config, pipeline *service.Pipeline, logger *zap.Logger) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	bot.Debug = cfg.Debug

	logger.Info("Telegram bot authorized",
		zap.String("username", bot.Self.UserName),
	)

	return &Adapter{
		bot:      bot,
		pipeline: pipeline,
		logger:   logger,
		chats:    make(map[int64]*conversation),
	}, nil
}

// Start begins long-polling for updates. Updates are handled concurrently;
// per-chat ordering comes from the conversation lock.
func (a *Adapter) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	innerCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	updates := a.bot.GetUpdatesChan(u)
	a.logger.Info("Starting Telegram polling")

	safego.Go(a.logger, "telegram-poll", func() {
		for {
			select {
			case <-innerCtx.Done():
				a.bot.StopReceivingUpdates()
				a.logger.Info("Telegram adapter stopped")
				return
			case update := <-updates:
				safego.Go(a.logger, "telegram-update", func() {
					a.handleUpdate(innerCtx, update)
				})
			}
		}
	})

	return nil
}

// Stop ends the polling loop.
func (a *Adapter) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *Adapter) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	chatID := msg.Chat.ID
	conv := a.conversation(chatID)

	if msg.IsCommand() {
		a.handleCommand(conv, chatID, msg.Command())
		return
	}

	a.handleInquiry(ctx, conv, chatID, strings.TrimSpace(msg.Text))
}

func (a *Adapter) handleCommand(conv *conversation, chatID int64, command string) {
	switch command {
	case "start":
		a.sendPlain(chatID, "Hi! Ask me anything. I search the web and answer with citations.\n/reset clears our conversation, /review shows the timing of the last answer.")

	case "reset":
		conv.mu.Lock()
		conv.history.Reset()
		conv.mu.Unlock()
		a.sendPlain(chatID, "History cleared")

	case "review":
		conv.mu.Lock()
		entry, ok := conv.history.Last()
		conv.mu.Unlock()
		if ok {
			a.sendPlain(chatID, service.RenderReview(entry))
		} else {
			a.sendPlain(chatID, "Nothing to review yet")
		}

	default:
		a.sendPlain(chatID, "Unknown command. Try /reset or /review.")
	}
}

// handleInquiry runs one message through the pipeline and replies with the
// full answer. The exchange lands in this chat's history only on success.
func (a *Adapter) handleInquiry(ctx context.Context, conv *conversation, chatID int64, inquiry string) {
	conv.mu.Lock()
	defer conv.mu.Unlock()

	a.sendTyping(chatID)

	tracker := service.NewTracker()
	start := time.Now()

	run := service.NewContext(inquiry, conv.history.All(), tracker)
	run, err := a.pipeline.Run(ctx, run)
	if err != nil {
		a.logger.Error("telegram inquiry failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		a.sendPlain(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	conv.history.Append(run.Entry(time.Since(start), tracker.Events()))

	if err := a.sendAnswer(chatID, run.Answer, run.References); err != nil {
		a.logger.Error("telegram send failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// sendAnswer formats and delivers the final answer: citation markers become
// short [N] tokens keyed to the reference list appended below.
func (a *Adapter) sendAnswer(chatID int64, answer string, refs []entity.Reference) error {
	if answer == "" {
		return a.sendPlain(chatID, "No references found, so no answer this time.")
	}

	text := citationPattern.ReplaceAllString(answer, "[$1]")
	out := MarkdownToTelegramHTML(text)
	if len(refs) > 0 {
		out += "\n\n" + referencesHTML(refs)
	}
	return a.sendChunked(chatID, out, tgbotapi.ModeHTML)
}

// sendChunked splits a long message at the Telegram size limit.
func (a *Adapter) sendChunked(chatID int64, text, parseMode string) error {
	for _, chunk := range ChunkMessage(text) {
		if err := a.send(chatID, chunk, parseMode); err != nil {
			return err
		}
	}
	return nil
}

// send delivers one message. When Telegram rejects the HTML entities the
// message is retried as plain text.
func (a *Adapter) send(chatID int64, text, parseMode string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode

	_, err := a.bot.Send(msg)
	if err != nil && parseMode != "" && strings.Contains(err.Error(), "can't parse entities") {
		a.logger.Warn("HTML parse failed, retrying as plain text",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		msg.ParseMode = ""
		_, err = a.bot.Send(msg)
	}
	return err
}

func (a *Adapter) sendPlain(chatID int64, text string) error {
	return a.sendChunked(chatID, text, "")
}

func (a *Adapter) sendTyping(chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	a.bot.Request(action)
}

// conversation returns this chat's history, creating it on first contact.
func (a *Adapter) conversation(chatID int64) *conversation {
	a.mu.Lock()
	defer a.mu.Unlock()

	conv, ok := a.chats[chatID]
	if !ok {
		conv = &conversation{history: &entity.History{}}
		a.chats[chatID] = conv
	}
	return conv
}

func referencesHTML(refs []entity.Reference) string {
	var b strings.Builder
	b.WriteString("<b>References</b>")
	for _, ref := range refs {
		fmt.Fprintf(&b, "\n[%d] <a href=\"%s\">%s</a>",
			ref.Position, html.EscapeString(ref.URL), html.EscapeString(ref.Title))
	}
	return b.String()
}
