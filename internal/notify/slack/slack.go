// Package slack implements the notify Adapter for Slack.
package slack

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
	"github.com/silverland/nova/internal/notify"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Adapter posts sales events to a Slack channel.
type Adapter struct {
	client    slackClient
	channelID string
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel id is required")
	}
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	a := &Adapter{client: opts.Client, channelID: opts.ChannelID}
	if a.client == nil {
		a.client = slackapi.New(opts.BotToken)
	}
	return a, nil
}

// Name identifies the adapter in logs.
func (a *Adapter) Name() string { return "slack" }

// Send posts the event as an attachment with a severity color.
func (a *Adapter) Send(ctx context.Context, e notify.Event) error {
	attachment := slackapi.Attachment{
		Title: e.Title,
		Text:  e.Body,
		Color: severityColor(e.Severity),
	}
	_, _, err := a.client.PostMessageContext(ctx, a.channelID,
		slackapi.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

func severityColor(severity string) string {
	switch severity {
	case "success":
		return "#36a64f"
	case "warning":
		return "#ecb22e"
	case "error":
		return "#e01e5a"
	default:
		return "#439fe0"
	}
}
