// Package bot runs the Telegram chat surface. Each chat drives one
// conversation through the same state machine the web surfaces use;
// options are served as inline keyboard buttons and contact capture
// falls back to plain text messages.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/conversation"
	"github.com/patientpathway/assessment-server/internal/domain"
)

// contactStage sequences the plain-text contact capture.
type contactStage int

const (
	stageNone contactStage = iota
	stageName
	stageEmail
	stagePhone
)

type chatSession struct {
	conv    *conversation.Conversation
	stage   contactStage
	contact domain.Contact
}

// telegramAPI is the slice of tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram chat surface.
type Bot struct {
	api      telegramAPI
	username string
	logger   *logrus.Logger
	manager  *conversation.Manager
	catalog  domain.QuizCatalog

	mu       sync.Mutex
	sessions map[int64]*chatSession
}

// NewBot creates the Telegram surface.
func NewBot(token string, debug bool, logger *logrus.Logger, manager *conversation.Manager, catalog domain.QuizCatalog) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram api: %w", err)
	}
	api.Debug = debug

	return &Bot{
		api:      api,
		username: api.Self.UserName,
		logger:   logger,
		manager:  manager,
		catalog:  catalog,
		sessions: make(map[int64]*chatSession),
	}, nil
}

// Start consumes updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	b.logger.WithField("username", b.username).Info("Telegram bot authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
	}
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.sendQuizMenu(chatID)
		return
	case "cancel":
		b.endSession(chatID)
		b.sendMessage(chatID, "Assessment cancelled. Send /start to begin again.")
		return
	}

	// Plain text only matters during contact capture.
	b.mu.Lock()
	sess, ok := b.sessions[chatID]
	b.mu.Unlock()
	if !ok || sess.stage == stageNone {
		b.sendMessage(chatID, "Send /start to choose an assessment.")
		return
	}

	b.handleContactInput(ctx, chatID, sess, strings.TrimSpace(msg.Text))
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	data := callback.Data

	ack := tgbotapi.NewCallback(callback.ID, "")
	if _, err := b.api.Request(ack); err != nil {
		b.logger.WithField("error", err).Warn("Failed to answer callback")
	}

	switch {
	case strings.HasPrefix(data, "quiz_"):
		b.startAssessment(ctx, chatID, strings.TrimPrefix(data, "quiz_"))
	case strings.HasPrefix(data, "opt_"):
		b.handleOption(chatID, strings.TrimPrefix(data, "opt_"))
	case data == "menu":
		b.sendQuizMenu(chatID)
	default:
		b.sendMessage(chatID, "Send /start to choose an assessment.")
	}
}

// sendQuizMenu lists the catalog as one button per instrument.
func (b *Bot) sendQuizMenu(chatID int64) {
	b.endSession(chatID)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, def := range b.catalog.List() {
		button := tgbotapi.NewInlineKeyboardButtonData(def.Title, "quiz_"+string(def.ID))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button))
	}

	msg := tgbotapi.NewMessage(chatID, "Which assessment would you like to take?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithField("error", err).Warn("Failed to send quiz menu")
	}
}

func (b *Bot) startAssessment(ctx context.Context, chatID int64, quizID string) {
	// Telegram assessments count as direct website traffic; shared_link
	// is reserved for share-key attribution.
	conv, err := b.manager.Start(ctx, quizID, conversation.Options{
		Source: domain.SourceWebsite,
	})
	if err != nil {
		b.logger.WithFields(logrus.Fields{
			"chat_id": chatID,
			"quiz_id": quizID,
			"error":   err,
		}).Warn("Failed to start assessment")
		b.sendMessage(chatID, domain.MsgQuizUnavailable)
		return
	}

	b.mu.Lock()
	b.sessions[chatID] = &chatSession{conv: conv}
	b.mu.Unlock()

	b.logger.WithFields(logrus.Fields{
		"chat_id":         chatID,
		"conversation_id": conv.ID(),
		"quiz_id":         conv.QuizID(),
	}).Info("Telegram assessment started")

	b.sendPrompt(chatID, conv.CurrentPrompt())
}

// handleOption resolves a numeric option callback against the current
// prompt's option list and submits it as the answer.
func (b *Bot) handleOption(chatID int64, indexStr string) {
	b.mu.Lock()
	sess, ok := b.sessions[chatID]
	b.mu.Unlock()
	if !ok {
		b.sendMessage(chatID, "Send /start to choose an assessment.")
		return
	}

	prompt := sess.conv.CurrentPrompt()
	index, err := strconv.Atoi(indexStr)
	if err != nil || index < 0 || index >= len(prompt.Options) {
		b.sendMessage(chatID, domain.MsgInvalidAnswer)
		return
	}

	next, err := sess.conv.SubmitAnswer(prompt.Options[index])
	if err != nil {
		b.sendMessage(chatID, domain.MsgInvalidAnswer)
		b.sendPrompt(chatID, next)
		return
	}

	if next.Kind == conversation.PromptContact {
		sess.stage = stageName
		b.sendMessage(chatID, "Almost done. What is your name?")
		return
	}

	b.sendPrompt(chatID, next)

	if next.Kind == conversation.PromptDone {
		b.endSession(chatID)
	}
}

// handleContactInput walks name, email, phone as consecutive text
// messages, then submits.
func (b *Bot) handleContactInput(ctx context.Context, chatID int64, sess *chatSession, text string) {
	switch sess.stage {
	case stageName:
		sess.contact.Name = text
		sess.stage = stageEmail
		b.sendMessage(chatID, "And your email address?")
	case stageEmail:
		sess.contact.Email = text
		sess.stage = stagePhone
		b.sendMessage(chatID, "Phone number? Send /skip if you prefer not to share it.")
	case stagePhone:
		if text != "/skip" {
			sess.contact.Phone = text
		}
		b.submitContact(ctx, chatID, sess)
	}
}

func (b *Bot) submitContact(ctx context.Context, chatID int64, sess *chatSession) {
	prompt, err := sess.conv.SubmitContact(ctx, sess.contact)
	if err != nil {
		var message string
		if um, ok := err.(interface{ UserMessage() string }); ok {
			message = um.UserMessage()
		} else {
			message = domain.MsgSubmitFailed
		}
		b.logger.WithFields(logrus.Fields{
			"chat_id":         chatID,
			"conversation_id": sess.conv.ID(),
			"error":           err,
		}).Warn("Telegram contact submission failed")

		// Restart capture at the failing point rather than losing the
		// completed quiz.
		sess.stage = stageName
		sess.contact = domain.Contact{}
		b.sendMessage(chatID, message)
		b.sendMessage(chatID, "Let's try again. What is your name?")
		return
	}

	sess.stage = stageNone
	b.sendResult(chatID, prompt)
	sess.conv.Finish()
	b.endSession(chatID)
}

func (b *Bot) sendPrompt(chatID int64, prompt conversation.Prompt) {
	text := prompt.Text
	if prompt.Progress != "" {
		text = fmt.Sprintf("Question %s\n\n%s", prompt.Progress, prompt.Text)
	}

	msg := tgbotapi.NewMessage(chatID, text)

	if len(prompt.Options) > 0 {
		var rows [][]tgbotapi.InlineKeyboardButton
		for i, option := range prompt.Options {
			button := tgbotapi.NewInlineKeyboardButtonData(option, "opt_"+strconv.Itoa(i))
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(button))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithField("error", err).Warn("Failed to send prompt")
	}
}

func (b *Bot) sendResult(chatID int64, prompt conversation.Prompt) {
	if prompt.Result == nil {
		b.sendPrompt(chatID, prompt)
		return
	}

	result := prompt.Result
	text := fmt.Sprintf("Your %s score: %d (%d%%)\n\n%s\n%s",
		result.QuizID, result.Score, result.Percentage, result.Interpretation, result.Summary)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Take another assessment", "menu"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithField("error", err).Warn("Failed to send result")
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithField("error", err).Warn("Failed to send message")
	}
}

func (b *Bot) endSession(chatID int64) {
	b.mu.Lock()
	delete(b.sessions, chatID)
	b.mu.Unlock()
}
