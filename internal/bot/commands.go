package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/app"
	"github.com/shrimpsizemoose/dragning/internal/models"
	"github.com/shrimpsizemoose/dragning/internal/raffle"
)

const (
	leaderboardSize = 10
	historySize     = 5

	publicHelp = `Available commands:
/top - Entry leaderboard
/odds - Current chance of winning for everyone in the pool
/winners - Recent raffle winners
/help - Show this message`

	adminHelp = publicHelp + `

Admin commands:
/award <employee id> <entries> <activity> - Award 1-10 entries
/draw [prize] - Draw and record a winner

Examples:
/award 12 3 Lunch and learn
/draw Coffee machine`
)

type commandHandler func(context.Context, *tgbotapi.Message) error

func (b *Bot) routePublicCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start":   b.handleStart,
		"help":    b.handleHelp,
		"top":     b.handleTop,
		"odds":    b.handleOdds,
		"winners": b.handleWinners,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeAdminCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"award": b.handleAward,
		"draw":  b.handleDraw,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	cmd := msg.Command()

	if handler, ok := b.routePublicCommands(cmd); ok {
		b.run(ctx, handler, msg)
		return
	}

	if msg.From != nil && b.admins[msg.From.ID] {
		if handler, ok := b.routeAdminCommands(cmd); ok {
			b.run(ctx, handler, msg)
		}
		return
	}

	b.sendHelp(msg.Chat.ID)
}

func (b *Bot) run(ctx context.Context, handler commandHandler, msg *tgbotapi.Message) {
	if err := handler(ctx, msg); err != nil {
		logger.Error.Printf("Command /%s error: %v", msg.Command(), err)
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %s", userMessage(err)))
	}
}

// userMessage hides storage details from chat users.
func userMessage(err error) string {
	switch {
	case errors.Is(err, raffle.ErrEmptyPool):
		return "no eligible employees found"
	case errors.Is(err, app.ErrValidation), errors.Is(err, app.ErrInvalidWinner), errors.Is(err, errUsage):
		return err.Error()
	default:
		return "something went wrong, check the server logs"
	}
}

func (b *Bot) actor(msg *tgbotapi.Message) app.Actor {
	actor := app.Actor{UserAgent: "telegram"}
	if msg.From != nil {
		actor.UserAgent = fmt.Sprintf("telegram:%d", msg.From.ID)
	}
	return actor
}

func (b *Bot) isAdmin(msg *tgbotapi.Message) bool {
	return msg.From != nil && b.admins[msg.From.ID]
}

func (b *Bot) handleHelp(_ context.Context, msg *tgbotapi.Message) error {
	text := publicHelp
	if b.isAdmin(msg) {
		text = adminHelp
	}
	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "Send /help for the list of commands.")
}

func (b *Bot) handleStart(_ context.Context, msg *tgbotapi.Message) error {
	text := "Hi! I keep track of the employee raffle.\n\n"
	if b.isAdmin(msg) {
		text += "You can award entries and draw winners. Use /help for the list of commands."
	} else {
		text += "Use /top to see the leaderboard and /odds to see who is likely to win."
	}
	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleTop(ctx context.Context, msg *tgbotapi.Message) error {
	employees, err := b.service.Store.ListActiveEmployees(ctx)
	if err != nil {
		return err
	}
	return b.sendMessage(msg.Chat.ID, formatLeaderboard(employees, leaderboardSize))
}

func (b *Bot) handleOdds(ctx context.Context, msg *tgbotapi.Message) error {
	participants, total, err := b.service.ConductRaffle(ctx)
	if err != nil {
		return err
	}
	return b.sendMessage(msg.Chat.ID, formatOdds(participants, total))
}

func (b *Bot) handleWinners(ctx context.Context, msg *tgbotapi.Message) error {
	history, err := b.service.RaffleHistory(ctx, historySize)
	if err != nil {
		return err
	}
	return b.sendMessage(msg.Chat.ID, formatWinners(history))
}

var errUsage = errors.New("usage: /award <employee id> <entries> <activity>")

func (b *Bot) handleAward(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 3 {
		return errUsage
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w (bad employee id %q)", errUsage, args[0])
	}
	entries, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w (bad entries %q)", errUsage, args[1])
	}

	req := &models.AwardRequest{
		ActivityName:     strings.Join(args[2:], " "),
		ActivityCategory: "Telegram",
		EntriesAwarded:   entries,
	}
	total, err := b.service.AwardEntries(ctx, b.actor(msg), id, req)
	if err != nil {
		return err
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Awarded %d entries for %q. New total: %d", entries, req.ActivityName, total))
}

func (b *Bot) handleDraw(ctx context.Context, msg *tgbotapi.Message) error {
	result, err := b.service.DrawWinner(ctx, b.actor(msg), &models.DrawRequest{Prize: msg.CommandArguments()})
	if err != nil {
		return err
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("🎉 %s wins %s!\nChance was %.2f%% (%d participants, %d entries)",
		result.WinnerName,
		result.Prize,
		result.WinningChance,
		result.TotalParticipants,
		result.TotalEntries,
	))
}

func formatLeaderboard(employees []models.Employee, limit int) string {
	if len(employees) == 0 {
		return "Nobody is on the roster yet"
	}
	if len(employees) > limit {
		employees = employees[:limit]
	}

	var sb strings.Builder
	sb.WriteString("🏆 Leaderboard\n\n")
	for i, e := range employees {
		sb.WriteString(fmt.Sprintf("%d. %s (#%d): %d entries\n", i+1, e.Name, e.ID, e.TotalEntries))
	}
	return sb.String()
}

func formatOdds(participants []raffle.Participant, total int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎟 %d participants, %d entries\n\n", len(participants), total))
	for _, p := range participants {
		sb.WriteString(fmt.Sprintf("%s: %d entries, %.2f%%\n", p.Name, p.Entries, p.Chance))
	}
	return sb.String()
}

func formatWinners(history []models.RaffleResult) string {
	if len(history) == 0 {
		return "No raffles have been held yet"
	}

	var sb strings.Builder
	sb.WriteString("Recent winners:\n\n")
	for _, r := range history {
		sb.WriteString(fmt.Sprintf("📅 %s: %s won %s (%.2f%%)\n",
			r.CreatedAt.UTC().Format("2006-Jan-02"),
			r.WinnerName,
			r.Prize,
			r.WinningChance,
		))
	}
	return sb.String()
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.sender.Send(msg)
	return err
}
