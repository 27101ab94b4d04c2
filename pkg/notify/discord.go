// Package notify pushes operator alerts to a Discord channel.
package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/quarryworks/craftbank/internal/config"
	"github.com/quarryworks/craftbank/pkg/entities"
)

// messageSender is the slice of discordgo.Session we use. Narrowed for tests.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier announces incoming payments in an operator channel so
// staff can approve or deny them promptly.
type DiscordNotifier struct {
	session   messageSender
	raw       *discordgo.Session
	channelID string
}

// NewDiscordNotifier opens a Discord session from the notify config.
func NewDiscordNotifier(cfg config.NotifyConfig) (*DiscordNotifier, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening Discord connection: %w", err)
	}

	return &DiscordNotifier{
		session:   dg,
		raw:       dg,
		channelID: cfg.ChannelID,
	}, nil
}

// Close shuts down the underlying Discord session.
func (n *DiscordNotifier) Close() error {
	if n.raw == nil {
		return nil
	}
	return n.raw.Close()
}

// NotifyPayment implements payments.Notifier.
func (n *DiscordNotifier) NotifyPayment(ctx context.Context, payment *entities.PendingPayment) error {
	content := fmt.Sprintf("💰 **%s** paid **%d** (payment `%s`) and is waiting on a decision.",
		payment.From, payment.Amount, payment.ID)

	if _, err := n.session.ChannelMessageSend(n.channelID, content); err != nil {
		return fmt.Errorf("error sending payment notification: %w", err)
	}

	return nil
}
