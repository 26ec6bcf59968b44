package notify_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/robalyx/tribunal/internal/database/types"
	"github.com/robalyx/tribunal/internal/database/types/enum"
	"github.com/robalyx/tribunal/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) CreateEmbeds(embeds []discord.Embed, _ ...rest.RequestOpt) (*discord.Message, error) {
	args := m.Called(embeds)
	msg, _ := args.Get(0).(*discord.Message)
	return msg, args.Error(1)
}

func testAppeal() *types.Appeal {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &types.Appeal{
		ID:              "APL-ABC123",
		DiscordID:       "123456789012345678",
		DiscordUsername: "appellant",
		Email:           "secret@example.com",
		AppealType:      "ban",
		BanReason:       "spam",
		AppealMessage:   strings.Repeat("please ", 100),
		Status:          enum.AppealStatusPending,
		Priority:        enum.AppealPriorityNormal,
		InternalNotes:   "staff only",
		IPAddress:       "203.0.113.7",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// flatten renders every visible part of the embeds for content checks.
func flatten(embeds []discord.Embed) string {
	var sb strings.Builder
	for _, embed := range embeds {
		sb.WriteString(embed.Title)
		sb.WriteString(embed.Description)
		sb.WriteString(embed.URL)
		for _, field := range embed.Fields {
			sb.WriteString(field.Name)
			sb.WriteString(field.Value)
		}
	}
	return sb.String()
}

func closeNotifier(t *testing.T, n *notify.DiscordNotifier) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n.Close(ctx)
}

func TestAppealSubmitted(t *testing.T) {
	t.Parallel()

	sender := new(mockSender)
	var sent []discord.Embed
	sender.On("CreateEmbeds", mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(0).([]discord.Embed) }).
		Return(&discord.Message{}, nil).Once()

	n := notify.NewDiscordNotifierWithSender(sender, "https://dashboard.example.com/", zap.NewNop())

	// Request contexts end before the delivery runs
	ctx, cancel := context.WithCancel(context.Background())
	n.AppealSubmitted(ctx, testAppeal())
	cancel()
	closeNotifier(t, n)

	sender.AssertExpectations(t)
	require.Len(t, sent, 1)

	embed := sent[0]
	assert.Equal(t, "New appeal APL-ABC123", embed.Title)
	assert.Equal(t, "https://dashboard.example.com/appeals/APL-ABC123", embed.URL)

	content := flatten(sent)
	assert.Contains(t, content, "<@123456789012345678>")
	assert.NotContains(t, content, "secret@example.com")
	assert.NotContains(t, content, "203.0.113.7")
	assert.NotContains(t, content, "staff only")

	for _, field := range embed.Fields {
		assert.LessOrEqual(t, len([]rune(field.Value)), 1024, field.Name)
	}
}

func TestAppealEscalated(t *testing.T) {
	t.Parallel()

	sender := new(mockSender)
	var sent []discord.Embed
	sender.On("CreateEmbeds", mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(0).([]discord.Embed) }).
		Return(&discord.Message{}, nil).Once()

	n := notify.NewDiscordNotifierWithSender(sender, "", zap.NewNop())

	appeal := testAppeal()
	appeal.Status = enum.AppealStatusEscalated
	n.AppealEscalated(context.Background(), appeal, "staff-1")
	closeNotifier(t, n)

	require.Len(t, sent, 1)
	assert.Equal(t, "Appeal APL-ABC123 escalated", sent[0].Title)
	assert.Empty(t, sent[0].URL)
	assert.Contains(t, flatten(sent), "staff-1")
}

func TestDeliveryRetries(t *testing.T) {
	t.Parallel()

	sender := new(mockSender)
	sender.On("CreateEmbeds", mock.Anything).Return(nil, errors.New("bad gateway")).Once()
	sender.On("CreateEmbeds", mock.Anything).Return(&discord.Message{}, nil).Once()

	n := notify.NewDiscordNotifierWithSender(sender, "", zap.NewNop())
	n.AppealSubmitted(context.Background(), testAppeal())
	closeNotifier(t, n)

	sender.AssertNumberOfCalls(t, "CreateEmbeds", 2)
}
