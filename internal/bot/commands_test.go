package bot

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/dragning/internal/models"
	"github.com/shrimpsizemoose/dragning/internal/raffle"
	"github.com/shrimpsizemoose/dragning/internal/testutil"
)

const (
	adminID    = 1001
	employeeID = 2002
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

func textContaining(parts ...string) interface{} {
	return mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		if !ok {
			return false
		}
		for _, p := range parts {
			if !strings.Contains(msg.Text, p) {
				return false
			}
		}
		return true
	})
}

func command(from int64, text string) *tgbotapi.Message {
	name, _, _ := strings.Cut(text, " ")
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: 77},
		From: &tgbotapi.User{ID: from},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(name)},
		},
	}
}

func newTestBot(t *testing.T) (*Bot, *mockSender, map[string]int64) {
	svc := testutil.NewService(t)
	ids := testutil.SeedRoster(t, svc, map[string]int{"Jane Doe": 1, "John Smith": 3, "Idle Person": 0})
	sender := &mockSender{}
	return NewWithSender(svc, sender), sender, ids
}

func TestPublicCommands(t *testing.T) {
	b, sender, _ := newTestBot(t)
	ctx := context.Background()

	sender.On("Send", textContaining("1. John Smith", "2. Jane Doe")).Return(nil).Once()
	b.handleMessage(ctx, command(employeeID, "/top"))

	sender.On("Send", textContaining("2 participants, 4 entries", "Jane Doe: 1 entries, 25.00%", "John Smith: 3 entries, 75.00%")).Return(nil).Once()
	b.handleMessage(ctx, command(employeeID, "/odds"))

	sender.On("Send", textContaining("No raffles have been held yet")).Return(nil).Once()
	b.handleMessage(ctx, command(employeeID, "/winners"))

	sender.AssertExpectations(t)
}

func TestHelpDependsOnRole(t *testing.T) {
	b, sender, _ := newTestBot(t)
	ctx := context.Background()

	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg := c.(tgbotapi.MessageConfig)
		return strings.Contains(msg.Text, "/top") && !strings.Contains(msg.Text, "/draw")
	})).Return(nil).Once()
	b.handleMessage(ctx, command(employeeID, "/help"))

	sender.On("Send", textContaining("/draw", "/award")).Return(nil).Once()
	b.handleMessage(ctx, command(adminID, "/help"))

	sender.On("Send", textContaining("Send /help")).Return(nil).Once()
	b.handleMessage(ctx, &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 77}, From: &tgbotapi.User{ID: employeeID}})

	sender.AssertExpectations(t)
}

func TestAdminCommandsRequireAdmin(t *testing.T) {
	b, sender, _ := newTestBot(t)

	sender.On("Send", textContaining("Send /help")).Return(nil).Once()
	b.handleMessage(context.Background(), command(employeeID, "/draw Mug"))

	sender.AssertExpectations(t)

	history, err := b.service.RaffleHistory(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAward(t *testing.T) {
	b, sender, ids := newTestBot(t)
	ctx := context.Background()

	sender.On("Send", textContaining("Awarded 2 entries", "Lunch and learn", "New total: 3")).Return(nil).Once()
	b.handleMessage(ctx, command(adminID, "/award "+itoa(ids["Jane Doe"])+" 2 Lunch and learn"))

	sender.On("Send", textContaining("Error:", "usage: /award")).Return(nil).Once()
	b.handleMessage(ctx, command(adminID, "/award abc 2 Workshop"))

	sender.On("Send", textContaining("Error:", "EntriesAwarded must be at most 10")).Return(nil).Once()
	b.handleMessage(ctx, command(adminID, "/award "+itoa(ids["Jane Doe"])+" 50 Workshop"))

	sender.AssertExpectations(t)
}

func TestDraw(t *testing.T) {
	b, sender, _ := newTestBot(t)
	b.service.Selector = &raffle.Selector{Source: func(n int64) (int64, error) { return n - 1, nil }}

	sender.On("Send", textContaining("John Smith wins Coffee machine", "75.00%")).Return(nil).Once()
	b.handleMessage(context.Background(), command(adminID, "/draw Coffee machine"))
	sender.AssertExpectations(t)

	history, err := b.service.RaffleHistory(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Coffee machine", history[0].Prize)
}

func TestFormatLeaderboard(t *testing.T) {
	assert.Equal(t, "Nobody is on the roster yet", formatLeaderboard(nil, 10))

	employees := []models.Employee{
		{ID: 1, Name: "A", TotalEntries: 9},
		{ID: 2, Name: "B", TotalEntries: 5},
		{ID: 3, Name: "C", TotalEntries: 1},
	}
	out := formatLeaderboard(employees, 2)
	assert.Contains(t, out, "1. A (#1): 9 entries")
	assert.Contains(t, out, "2. B (#2): 5 entries")
	assert.NotContains(t, out, "C (#3)")
}

func TestFormatWinners(t *testing.T) {
	assert.Equal(t, "No raffles have been held yet", formatWinners(nil))

	out := formatWinners([]models.RaffleResult{{
		WinnerName:    "Jane Doe",
		Prize:         "Mug",
		WinningChance: 12.5,
		CreatedAt:     time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC),
	}})
	assert.Contains(t, out, "2024-Mar-08: Jane Doe won Mug (12.50%)")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
