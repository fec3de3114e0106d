package slack

import (
	"context"
	"errors"
	"testing"

	slackapi "github.com/slack-go/slack"
	"github.com/silverland/nova/internal/notify"
)

type mockClient struct {
	channelID string
	calls     int
	err       error
}

func (m *mockClient) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.channelID = channelID
	m.calls++
	return "C123", "1700000000.000100", m.err
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opts    AdapterOpts
		wantErr bool
	}{
		{"missing channel", AdapterOpts{BotToken: "xoxb-x"}, true},
		{"missing token", AdapterOpts{ChannelID: "C123"}, true},
		{"mock client without token", AdapterOpts{ChannelID: "C123", Client: &mockClient{}}, false},
		{"token and channel", AdapterOpts{BotToken: "xoxb-x", ChannelID: "C123"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSend(t *testing.T) {
	mock := &mockClient{}
	a, err := New(AdapterOpts{ChannelID: "C123", Client: mock})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := notify.Event{Title: "New lead: John Doe", Body: "City: Dubai", Severity: "info"}
	if err := a.Send(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.channelID != "C123" {
		t.Errorf("posted to %q, want C123", mock.channelID)
	}
	if mock.calls != 1 {
		t.Errorf("calls = %d, want 1", mock.calls)
	}
}

func TestSend_APIError(t *testing.T) {
	mock := &mockClient{err: errors.New("rate limited")}
	a, _ := New(AdapterOpts{ChannelID: "C123", Client: mock})

	if err := a.Send(context.Background(), notify.Event{Title: "t"}); err == nil {
		t.Fatal("expected error from a failing client")
	}
}

func TestSeverityColor(t *testing.T) {
	tests := []struct {
		severity string
		want     string
	}{
		{"success", "#36a64f"},
		{"warning", "#ecb22e"},
		{"error", "#e01e5a"},
		{"info", "#439fe0"},
		{"", "#439fe0"},
	}
	for _, tt := range tests {
		if got := severityColor(tt.severity); got != tt.want {
			t.Errorf("severityColor(%q) = %q, want %q", tt.severity, got, tt.want)
		}
	}
}
