// Package telegram delivers digests to the owner chat and serves bot commands.
package telegram

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/avoronin/vestnik/internal/annotate"
)

// Handlers supplies the actions behind bot commands. All fields are optional;
// missing ones disable the matching command. ChannelPost, when set, receives
// every post of a channel the bot is a member of, with its link entities
// converted to annotation spans.
type Handlers struct {
	Status        func() string
	Pause         func() error
	Resume        func() error
	DigestNow     func(ctx context.Context) (text string, total, failed int, err error)
	JobsNow       func(ctx context.Context) (text string, matched int, err error)
	HouseChatsNow func(ctx context.Context) (text string, messages int, err error)
	ChannelPost   func(ctx context.Context, channelTitle string, postID int64, date time.Time, text string, spans []annotate.Span)
}

// Bot wraps the Telegram Bot API for a single owner chat.
type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewBot authenticates the bot token.
func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &Bot{api: api, chatID: chatID}, nil
}

// Send delivers text to the owner chat, splitting long messages.
func (b *Bot) Send(text string) error {
	for _, chunk := range SplitMessage(text, MaxMessageLen) {
		if chunk == "" {
			continue
		}
		msg := tgbotapi.NewMessage(b.chatID, chunk)
		msg.DisableWebPagePreview = true
		if _, err := b.api.Send(msg); err != nil {
			return fmt.Errorf("sending telegram message: %w", err)
		}
	}
	return nil
}

// Listen runs the long-polling command loop until ctx is cancelled. Commands
// from chats other than the owner chat are ignored.
func (b *Bot) Listen(ctx context.Context, h Handlers) {
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
			if post := update.ChannelPost; post != nil {
				if h.ChannelPost != nil && post.Text != "" {
					h.ChannelPost(ctx, post.Chat.Title, int64(post.MessageID), post.Time(),
						post.Text, SpansFromEntities(post.Entities))
				}
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if update.Message.Chat.ID != b.chatID {
				continue
			}
			b.handleCommand(ctx, update.Message.Command(), h)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, cmd string, h Handlers) {
	switch cmd {
	case "status":
		if h.Status != nil {
			b.reply(h.Status())
		}
	case "pause":
		if h.Pause != nil {
			if err := h.Pause(); err != nil {
				b.reply(fmt.Sprintf("Ошибка: %v", err))
				return
			}
			b.reply("Ок, поставил на паузу. Авто-дайджесты не будут отправляться.")
		}
	case "resume":
		if h.Resume != nil {
			if err := h.Resume(); err != nil {
				b.reply(fmt.Sprintf("Ошибка: %v", err))
				return
			}
			b.reply("Ок, снял с паузы. Авто-дайджесты снова будут отправляться.")
		}
	case "digest_now":
		if h.DigestNow != nil {
			b.reply("Делаю дайджест…")
			text, total, failed, err := h.DigestNow(ctx)
			if err != nil {
				log.Printf("digest_now failed: %v", err)
				b.reply(fmt.Sprintf("Ошибка при формировании дайджеста: %v", err))
				return
			}
			b.reply(text)
			b.reply(fmt.Sprintf("Готово. Писем: %d, не обработано: %d.", total, failed))
		}
	case "jobs_now":
		if h.JobsNow != nil {
			b.reply("Ищу вакансии в Telegram-каналах…")
			text, matched, err := h.JobsNow(ctx)
			if err != nil {
				log.Printf("jobs_now failed: %v", err)
				b.reply(fmt.Sprintf("Ошибка при сборе вакансий: %v", err))
				return
			}
			b.reply(text)
			b.reply(fmt.Sprintf("Готово. Подходящих постов: %d.", matched))
		}
	case "house_chats_now":
		if h.HouseChatsNow != nil {
			b.reply("Собираю обновления из домовых чатов…")
			text, messages, err := h.HouseChatsNow(ctx)
			if err != nil {
				log.Printf("house_chats_now failed: %v", err)
				b.reply(fmt.Sprintf("Ошибка при сборе домовых чатов: %v", err))
				return
			}
			b.reply(text)
			b.reply(fmt.Sprintf("Готово. Новых сообщений: %d.", messages))
		}
	}
}

func (b *Bot) reply(text string) {
	if err := b.Send(text); err != nil {
		log.Printf("telegram reply failed: %v", err)
	}
}
