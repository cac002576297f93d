package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/app"
)

// Sender is the part of the Telegram API the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	service *app.Service
	sender  Sender
	api     *tgbotapi.BotAPI
	admins  map[int64]bool
}

func New(service *app.Service) (*Bot, error) {
	if service.Config.Telegram.Token == "" {
		return nil, fmt.Errorf("telegram token is not configured")
	}

	api, err := tgbotapi.NewBotAPI(service.Config.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	b := NewWithSender(service, api)
	b.api = api
	return b, nil
}

func NewWithSender(service *app.Service, sender Sender) *Bot {
	admins := make(map[int64]bool)
	for _, id := range service.Config.Telegram.AdminIDs {
		admins[id] = true
	}

	return &Bot{
		service: service,
		sender:  sender,
		admins:  admins,
	}
}

func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return fmt.Errorf("bot has no telegram connection")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			go b.handleMessage(ctx, update.Message)

		case <-ctx.Done():
			logger.Info.Println("Shutting down bot...")
			return nil
		}
	}
}
