package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// messageSender is the part of *discordgo.Session the notifier uses.
type messageSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts alerts to one channel through the REST API. It
// never opens a gateway connection.
type DiscordNotifier struct {
	session   messageSender
	channelID string
}

func NewDiscordNotifier(botToken, channelID string) (*DiscordNotifier, error) {
	if botToken == "" || channelID == "" {
		return nil, errors.New("discord bot token and channel ID are required")
	}
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create Discord session: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: channelID}, nil
}

func (n *DiscordNotifier) Notify(ctx context.Context, a Alert) error {
	if _, err := n.session.ChannelMessageSend(n.channelID, a.Text(), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send Discord message: %w", err)
	}
	return nil
}
