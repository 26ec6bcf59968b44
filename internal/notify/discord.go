package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"github.com/robalyx/tribunal/internal/database/types"
	"github.com/robalyx/tribunal/pkg/utils"
	"go.uber.org/zap"
)

const (
	colorSubmitted = 0x5865F2
	colorEscalated = 0xED4245

	// Discord rejects embed fields longer than 1024 characters.
	maxFieldLength = 1024
	// Appeal statements are shortened further to keep notices readable.
	maxPreviewLength = 300

	deliveryTimeout = time.Minute
)

// Sender posts embeds to a Discord channel.
type Sender interface {
	CreateEmbeds(embeds []discord.Embed, opts ...rest.RequestOpt) (*discord.Message, error)
}

// DiscordNotifier announces new and escalated appeals through a Discord webhook.
// Deliveries run in the background and failures are only logged.
// Notices never include contact details, IP addresses or staff notes.
type DiscordNotifier struct {
	sender       Sender
	closer       func(context.Context)
	dashboardURL string
	retry        utils.RetryOptions
	logger       *zap.Logger
	wg           sync.WaitGroup
}

// NewDiscordNotifier creates a notifier posting to the given webhook URL.
func NewDiscordNotifier(webhookURL, dashboardURL string, logger *zap.Logger) (*DiscordNotifier, error) {
	client, err := webhook.NewWithURL(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook client: %w", err)
	}

	n := NewDiscordNotifierWithSender(client, dashboardURL, logger)
	n.closer = client.Close
	return n, nil
}

// NewDiscordNotifierWithSender creates a notifier on an existing sender.
func NewDiscordNotifierWithSender(sender Sender, dashboardURL string, logger *zap.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		sender:       sender,
		dashboardURL: strings.TrimRight(dashboardURL, "/"),
		retry:        utils.GetWebhookRetryOptions(),
		logger:       logger.Named("discord_notifier"),
	}
}

// AppealSubmitted announces a new appeal.
func (n *DiscordNotifier) AppealSubmitted(ctx context.Context, appeal *types.Appeal) {
	embed := n.baseEmbed(appeal).
		SetTitle("New appeal "+appeal.ID).
		SetColor(colorSubmitted).
		AddField("Statement", statementPreview(appeal.AppealMessage), false)

	n.deliver(ctx, appeal.ID, embed.Build())
}

// AppealEscalated announces an appeal moved to the escalated status.
func (n *DiscordNotifier) AppealEscalated(ctx context.Context, appeal *types.Appeal, performedBy string) {
	embed := n.baseEmbed(appeal).
		SetTitle("Appeal "+appeal.ID+" escalated").
		SetColor(colorEscalated).
		AddField("Escalated By", fieldValue(performedBy), true)

	n.deliver(ctx, appeal.ID, embed.Build())
}

// Close waits for pending deliveries and releases the webhook client.
func (n *DiscordNotifier) Close(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		n.logger.Warn("Gave up waiting for pending notifications")
	}

	if n.closer != nil {
		n.closer(ctx)
	}
}

// baseEmbed builds the fields shared by every notice.
func (n *DiscordNotifier) baseEmbed(appeal *types.Appeal) *discord.EmbedBuilder {
	embed := discord.NewEmbedBuilder().
		AddField("Discord User", fmt.Sprintf("<@%s> (%s)", appeal.DiscordID, fieldValue(appeal.DiscordUsername)), true).
		AddField("Type", fieldValue(appeal.AppealType), true).
		AddField("Priority", appeal.Priority.String(), true).
		SetTimestamp(appeal.UpdatedAt)

	if appeal.BanReason != "" {
		embed.AddField("Ban Reason", utils.Truncate(appeal.BanReason, maxFieldLength), false)
	}
	if n.dashboardURL != "" {
		embed.SetURL(n.dashboardURL + "/appeals/" + appeal.ID)
	}

	return embed
}

// deliver posts the embed in the background, retrying transient failures.
func (n *DiscordNotifier) deliver(ctx context.Context, appealID string, embed discord.Embed) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()

		opts := n.retry
		opts.OnRetry = func(err error, wait time.Duration) {
			n.logger.Warn("Retrying appeal notification",
				zap.String("appealID", appealID),
				zap.Duration("wait", wait),
				zap.Error(err))
		}

		err := utils.WithRetry(ctx, func() error {
			_, err := n.sender.CreateEmbeds([]discord.Embed{embed}, rest.WithCtx(ctx))
			return err
		}, opts)
		if err != nil {
			n.logger.Error("Failed to send appeal notification",
				zap.String("appealID", appealID),
				zap.Error(err))
			return
		}

		n.logger.Debug("Sent appeal notification", zap.String("appealID", appealID))
	}()
}

// fieldValue substitutes a placeholder for empty values, which Discord rejects.
func fieldValue(s string) string {
	s = utils.CompressAllWhitespace(s)
	if s == "" {
		return "-"
	}
	return utils.Truncate(s, maxFieldLength)
}

// statementPreview shortens an appellant statement for display.
func statementPreview(s string) string {
	s = utils.CompressWhitespacePreserveNewlines(s)
	if s == "" {
		return "-"
	}
	return utils.Truncate(s, maxPreviewLength)
}
