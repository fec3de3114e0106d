// Package discord implements the notify Adapter for Discord.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/silverland/nova/internal/notify"
)

// discordClient abstracts the discordgo methods we use, enabling test mocks.
type discordClient interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Adapter posts sales events to a Discord channel.
type Adapter struct {
	client    discordClient
	channelID string
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock client instead of a real session.
	Client discordClient
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel id is required")
	}
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	a := &Adapter{client: opts.Client, channelID: opts.ChannelID}
	if a.client == nil {
		session, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		a.client = session
	}
	return a, nil
}

// Name identifies the adapter in logs.
func (a *Adapter) Name() string { return "discord" }

// Send posts the event as an embed with a severity color.
func (a *Adapter) Send(ctx context.Context, e notify.Event) error {
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Body,
		Color:       severityColor(e.Severity),
	}
	_, err := a.client.ChannelMessageSendEmbed(a.channelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}

func severityColor(severity string) int {
	switch severity {
	case "success":
		return 0x36a64f
	case "warning":
		return 0xecb22e
	case "error":
		return 0xe01e5a
	default:
		return 0x439fe0
	}
}
