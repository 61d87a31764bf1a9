package notify

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/vthunder/taskly/internal/logging"
)

// messageSender is the part of *discordgo.Session the sink uses.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts reminders to a channel.
type Discord struct {
	session   messageSender
	channelID string
	close     func() error
}

// NewDiscord creates a bot session for token. Sending uses the REST API
// only, so no gateway connection is opened.
func NewDiscord(token, channelID string) (*Discord, error) {
	if token == "" || channelID == "" {
		return nil, fmt.Errorf("discord token and channel are required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	logging.Info("discord", "reminders will be posted to channel %s", channelID)
	return &Discord{session: session, channelID: channelID, close: session.Close}, nil
}

func (d *Discord) Notify(n Notification) error {
	if _, err := d.session.ChannelMessageSend(d.channelID, n.Message()); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}

func (d *Discord) Close() error {
	if d.close == nil {
		return nil
	}
	return d.close()
}
